package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"unicode"

	"github.com/inoxlang/tickscript/internal/config"
	"github.com/posener/complete/v2/install"
	"golang.org/x/term"
)

const (
	ERROR_STATUS_CODE = 1

	COMMAND_NAME = "tickscript"
)

func main() {
	//handle completions
	cmd.Complete(COMMAND_NAME)

	ctx, cancel := contextCancelledOnSigintSigterm()
	statusCode := _main(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	cancel()

	if statusCode != 0 {
		os.Exit(statusCode)
	}
}

func _main(ctx context.Context, args []string, inR io.Reader, outW io.Writer, errW io.Writer) (statusCode int) {
	mainSubCommand := ""
	var mainSubCommandArgs []string

	if len(args) == 1 { //no subcommand specified
		mainSubCommand = CONSOLE_SUBCMD
	} else {
		mainSubCommand = args[1]
		mainSubCommandArgs = args[2:]
	}

	//if the command has the shape help <subcommand> ... we modify the arguments to ask the subcommand to print its help message.
	if mainSubCommand == HELP_SUBCMD && len(mainSubCommandArgs) > 0 && mainSubCommandArgs[0] != "" && unicode.IsLetter(rune(mainSubCommandArgs[0][0])) {
		mainSubCommand = mainSubCommandArgs[0]
		mainSubCommandArgs = []string{"-h"}
	}

	if slices.Contains(HELP_SUBCMD_EQUIVALENTS, mainSubCommand) {
		mainSubCommand = HELP_SUBCMD
	}

	//unknown command
	if !slices.Contains(SUBCOMMANDS, mainSubCommand) {
		fmt.Fprintf(errW, "unknown command '%s'\n%s", mainSubCommand, CMD_HELP)
		return ERROR_STATUS_CODE
	}

	switch mainSubCommand {
	case HELP_SUBCMD:
		fmt.Fprint(outW, CMD_HELP)
		return
	case INSTALL_COMPLETIONS_SUBCMD:
		err := install.Install(COMMAND_NAME)
		if err != nil {
			fmt.Fprintln(errW, err)
			return ERROR_STATUS_CODE
		}
		fmt.Fprintln(outW, "installed")
		return
	case UNINSTALL_COMPLETIONS_SUBCMD:
		err := install.Uninstall(COMMAND_NAME)
		if err != nil {
			fmt.Fprintln(errW, err)
			return ERROR_STATUS_CODE
		}
		fmt.Fprintln(outW, "uninstalled")
		return
	case RUN_SUBCMD:
		return runSubcommand(ctx, mainSubCommand, mainSubCommandArgs, outW, errW)
	case DUMP_SUBCMD:
		return dumpSubcommand(mainSubCommand, mainSubCommandArgs, outW, errW)
	case CONSOLE_SUBCMD:
		return consoleSubcommand(ctx, mainSubCommand, mainSubCommandArgs, inR, outW, errW)
	}
	return
}

func consoleSubcommand(ctx context.Context, mainSubCommand string, mainSubCommandArgs []string, inR io.Reader, outW, errW io.Writer) (exitCode int) {
	flags := flag.NewFlagSet(mainSubCommand, flag.ContinueOnError)
	flags.SetOutput(errW)
	configPath, world := addConfigFlags(flags)

	if showHelp(flags, mainSubCommandArgs, outW) { //only show help
		return
	}
	if err := flags.Parse(mainSubCommandArgs); err != nil {
		return ERROR_STATUS_CODE
	}

	h, err := openHostFromFlags(*configPath, *world, errW)
	if err != nil {
		fmt.Fprintln(errW, err)
		return ERROR_STATUS_CODE
	}
	defer h.Close()

	console, err := newConsole(h, outW, errW)
	if err != nil {
		fmt.Fprintln(errW, err)
		return ERROR_STATUS_CODE
	}

	//no prompt when commands are piped.
	if f, ok := inR.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		console.prompt = ""
	}

	fmt.Fprintf(outW, "(%s console) world %s; type help to list the commands, quit to save and exit.\n", COMMAND_NAME, h.manager.World())

	if err := console.Run(ctx, inR); err != nil {
		fmt.Fprintln(errW, err)
		return ERROR_STATUS_CODE
	}
	return 0
}

// addConfigFlags adds the flags shared by the subcommands that open a world.
func addConfigFlags(flags *flag.FlagSet) (configPath *string, world *string) {
	configPath = flags.String("config", "", "path of the configuration file (default: "+config.CONFIG_FILE_RELPATH+" in the XDG config directories)")
	world = flags.String("world", "", "world to open, overrides the world of the configuration")
	return
}

func loadConfig(configPath string, world string) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if world != "" {
		cfg.World = world
		if err := cfg.Validate(); err != nil {
			return config.Config{}, err
		}
	}
	return cfg, nil
}

func openHostFromFlags(configPath string, world string, logOut io.Writer) (*host, error) {
	cfg, err := loadConfig(configPath, world)
	if err != nil {
		return nil, err
	}
	return openHost(cfg, logOut)
}
