package main

import (
	"flag"
	"fmt"
	"io"
	"slices"

	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

const (
	CONSOLE_SUBCMD               = "console"
	RUN_SUBCMD                   = "run"
	DUMP_SUBCMD                  = "dump"
	INSTALL_COMPLETIONS_SUBCMD   = "install-completions"
	UNINSTALL_COMPLETIONS_SUBCMD = "uninstall-completions"
	HELP_SUBCMD                  = "help"
)

var (
	SUBCOMMANDS = []string{
		CONSOLE_SUBCMD, RUN_SUBCMD, DUMP_SUBCMD, HELP_SUBCMD,
		INSTALL_COMPLETIONS_SUBCMD, UNINSTALL_COMPLETIONS_SUBCMD,
	}

	HELP_SUBCMD_EQUIVALENTS = []string{"--help", "-help", "-h"}

	SUBCOMMAND_DESCRIPTIONS = [][2]string{
		{CONSOLE_SUBCMD, "start the interactive console: programs are advanced every tick and commands are executed between ticks"},
		{RUN_SUBCMD, "run a program for a number of ticks or until it terminates"},
		{DUMP_SUBCMD, "print the saved state of the programs of a world"},
		{INSTALL_COMPLETIONS_SUBCMD, "install CLI completions by addding the completion command to the detected rc file (supported shells are bash, zsh and fish)"},
		{UNINSTALL_COMPLETIONS_SUBCMD, "uninstall CLI completions by removing the completion command from the detected rc file"},
		{HELP_SUBCMD, "show the general help or command-specific help"},
	}

	SUBCOMMAND_DESCRIPTION_MAP = map[string]string{}

	CMD_HELP = "commands:\n"

	configFlagPredictor = predict.Files("*.yaml")

	cmd = &complete.Command{
		Sub: map[string]*complete.Command{
			CONSOLE_SUBCMD: {
				Flags: map[string]complete.Predictor{
					"config": configFlagPredictor,
					"world":  predict.Something,
				},
			},
			RUN_SUBCMD: {
				Flags: map[string]complete.Predictor{
					"config": configFlagPredictor,
					"world":  predict.Something,
					"ticks":  predict.Something,
					"save":   predict.Nothing,
				},
			},
			DUMP_SUBCMD: {
				Flags: map[string]complete.Predictor{
					"config": configFlagPredictor,
					"world":  predict.Something,
				},
			},
			HELP_SUBCMD:                  {},
			INSTALL_COMPLETIONS_SUBCMD:   {},
			UNINSTALL_COMPLETIONS_SUBCMD: {},
		},
	}
)

func init() {
	for _, entry := range SUBCOMMAND_DESCRIPTIONS {
		cmd, desc := entry[0], entry[1]
		SUBCOMMAND_DESCRIPTION_MAP[cmd] = desc
		CMD_HELP += "\t" + cmd + " - " + desc + "\n"
	}
	CMD_HELP += "\nType `" + COMMAND_NAME + " help <command>` to get command-specific help.\n"
}

func showHelp(flags *flag.FlagSet, args []string, out io.Writer) bool {
	//only show help
	if slices.Contains(args, "-h") || slices.Contains(args, "--help") {

		cmd := flags.Name()
		if desc, ok := SUBCOMMAND_DESCRIPTION_MAP[cmd]; ok {
			fmt.Fprintln(out, desc)
		}

		flags.SetOutput(out)
		fmt.Fprint(out, "\noptions:\n")
		flags.PrintDefaults()

		return true
	}

	return false
}
