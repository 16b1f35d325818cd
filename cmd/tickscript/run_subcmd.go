package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/inoxlang/tickscript/internal/core"
)

// RunProgram loads a module as a program and ticks the world until the program terminates, fails or
// maxTicks ticks have been advanced (0 means no limit).
func RunProgram(ctx context.Context, h *host, moduleName string, args []string, maxTicks uint64, outW, errW io.Writer) error {
	p, err := h.manager.LoadProgram(moduleName, "", false, args)
	if err != nil {
		return err
	}
	if err := h.manager.RunProgram(p.Name()); err != nil {
		return err
	}

	tickInterval, err := h.config.Tick()
	if err != nil {
		return err
	}
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	var ticks uint64
	for {
		for _, report := range h.manager.AdvanceAll() {
			fmt.Fprintln(errW, formatReport(report, h.config.ShowErrorMessages))
		}
		ticks++

		switch p.Status() {
		case core.ProgramTerminated:
			fmt.Fprintf(outW, "%s terminated after %d tick(s)\n", p.Name(), ticks)
			return nil
		case core.ProgramErrored:
			return fmt.Errorf("%s stopped by an error", p.Name())
		}

		if maxTicks > 0 && ticks >= maxTicks {
			fmt.Fprintf(outW, "%s is %s after %d tick(s)\n", p.Name(), p.Status(), ticks)
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func runSubcommand(ctx context.Context, mainSubCommand string, mainSubCommandArgs []string, outW, errW io.Writer) (exitCode int) {
	flags := flag.NewFlagSet(mainSubCommand, flag.ContinueOnError)
	flags.SetOutput(errW)

	var maxTicks uint64
	var save bool
	configPath, world := addConfigFlags(flags)
	flags.Uint64Var(&maxTicks, "ticks", 0, "maximum number of ticks, 0 means no limit")
	flags.BoolVar(&save, "save", false, "save the world when the program stops")

	if showHelp(flags, mainSubCommandArgs, outW) { //only show help
		return
	}

	if err := flags.Parse(mainSubCommandArgs); err != nil {
		return ERROR_STATUS_CODE
	}
	if flags.NArg() == 0 {
		fmt.Fprintln(errW, "missing module name")
		return ERROR_STATUS_CODE
	}

	h, err := openHostFromFlags(*configPath, *world, errW)
	if err != nil {
		fmt.Fprintln(errW, err)
		return ERROR_STATUS_CODE
	}
	defer h.Close()

	runErr := RunProgram(ctx, h, flags.Arg(0), flags.Args()[1:], maxTicks, outW, errW)

	if save {
		if err := h.manager.Save(); err != nil {
			runErr = errors.Join(runErr, err)
		}
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		fmt.Fprintln(errW, runErr)
		return ERROR_STATUS_CODE
	}
	return 0
}
