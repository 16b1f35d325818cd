package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bep/debounce"
	"github.com/inoxlang/tickscript/internal/config"
	"github.com/inoxlang/tickscript/internal/core"
	"github.com/inoxlang/tickscript/internal/utils"
	"github.com/muesli/cancelreader"
	"github.com/muesli/termenv"
)

const (
	CONSOLE_PROMPT          = "> "
	MAX_PENDING_COMMANDS    = 100
	ERROR_COLOR             = "1"
	STATUS_ERROR_COLOR      = "3"
	COMMAND_OUTPUT_LINE_SEP = "\n"
)

var ErrUnknownCommand = errors.New("unknown command")

// A console reads commands from its input and executes them between ticks, it is the only goroutine
// that touches the program manager once started.
type console struct {
	host   *host
	out    *termenv.Output
	errOut *termenv.Output
	prompt string

	pending []string

	autosave     func(f func())
	saveRequests chan struct{}
}

func newConsole(h *host, out, errOut io.Writer) (*console, error) {
	autosaveDelay, err := h.config.Autosave()
	if err != nil {
		return nil, err
	}

	c := &console{
		host:         h,
		out:          termenv.NewOutput(out, termenv.WithProfile(config.ColorProfile())),
		errOut:       termenv.NewOutput(errOut, termenv.WithProfile(config.ColorProfile())),
		prompt:       CONSOLE_PROMPT,
		saveRequests: make(chan struct{}, 1),
	}

	if autosaveDelay > 0 {
		c.autosave = debounce.New(autosaveDelay)
	}
	return c, nil
}

// Run ticks the world until ctx is done, the input is closed or the quit command is executed. The world is saved
// before returning.
func (c *console) Run(ctx context.Context, in io.Reader) error {
	tickInterval, err := c.host.config.Tick()
	if err != nil {
		return err
	}

	reader, err := cancelreader.NewReader(in)
	if err != nil {
		return err
	}
	defer reader.Close()

	lines := make(chan string)
	inputClosed := make(chan struct{})

	//this goroutine reads the input without interruption, lines are consumed by the tick loop.
	go func() {
		defer close(inputClosed)
		scanner := bufio.NewScanner(reader)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	fmt.Fprint(c.out, c.prompt)
	inputDone := false

	for {
		select {
		case <-ctx.Done():
			reader.Cancel()
			return c.save()
		case <-inputClosed:
			//the remaining commands are executed at the next tick.
			inputDone = true
			inputClosed = nil
		case line := <-lines:
			if len(c.pending) >= MAX_PENDING_COMMANDS {
				c.printError(errors.New("too many pending commands, the command is ignored"))
				continue
			}
			c.pending = append(c.pending, line)
		case <-c.saveRequests:
			if err := c.save(); err != nil {
				c.printError(err)
			}
		case <-ticker.C:
			if quit := c.executePending(); quit || inputDone {
				reader.Cancel()
				return c.save()
			}
			c.tick()
		}
	}
}

// executePending executes the commands received since the previous tick, in order.
func (c *console) executePending() (quit bool) {
	if len(c.pending) == 0 {
		return false
	}
	commands := c.pending
	c.pending = nil

	for _, line := range commands {
		quit, err := c.execute(line)
		if err != nil {
			c.printError(err)
		}
		if quit {
			return true
		}
	}
	fmt.Fprint(c.out, c.prompt)
	return false
}

func (c *console) tick() {
	for _, reports := range c.host.worlds.TickAll() {
		for _, report := range reports {
			c.printReport(report)
		}
	}
}

func (c *console) save() error {
	err := c.host.manager.Save()
	if err == nil {
		c.host.logger.Debug().Msg("world saved")
	}
	return err
}

// programsChanged schedules an automatic save, the save itself happens on the tick loop.
func (c *console) programsChanged() {
	if c.autosave == nil {
		return
	}
	c.autosave(func() {
		select {
		case c.saveRequests <- struct{}{}:
		default:
		}
	})
}

// execute executes a single command line, a panic while executing the command is turned into an error.
func (c *console) execute(line string) (quit bool, finalErr error) {
	defer func() {
		if e := recover(); e != nil {
			finalErr = fmt.Errorf("command %q: %w", line, utils.ConvertPanicValueToError(e))
		}
	}()

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	name, args := fields[0], fields[1:]

	command, ok := CONSOLE_COMMANDS[name]
	if !ok {
		return false, fmt.Errorf("%w: %s, type help to list the commands", ErrUnknownCommand, name)
	}
	if len(args) < command.minArgs {
		return false, fmt.Errorf("usage: %s %s", name, command.usage)
	}

	//the value of set can contain spaces.
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), name))

	result, err := command.run(c, args, rest)
	if err != nil {
		return false, err
	}
	if result.output != "" {
		fmt.Fprint(c.out, result.output+COMMAND_OUTPUT_LINE_SEP)
	}
	if result.changed {
		c.programsChanged()
	}
	return result.quit, nil
}

func (c *console) printError(err error) {
	msg := "error: " + err.Error()
	fmt.Fprintln(c.errOut, c.errOut.String(msg).Foreground(c.errOut.Color(ERROR_COLOR)))
}

func (c *console) printReport(report core.ErrorReport) {
	fmt.Fprintln(c.errOut, c.errOut.String(formatReport(report, c.host.config.ShowErrorMessages)).Foreground(c.errOut.Color(ERROR_COLOR)))
}

// formatReport formats the report of an uncaught error, the message is omitted if showMessage is false.
func formatReport(report core.ErrorReport, showMessage bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", report.Program, report.Key)
	if report.IsStatementLocal() {
		fmt.Fprintf(&b, " at %d:%d", report.Line, report.Column)
	}
	if showMessage {
		msg := report.Err.Error()
		var evalErr *core.EvaluationError
		if errors.As(report.Err, &evalErr) {
			msg = evalErr.Message()
		}
		b.WriteString(": ")
		b.WriteString(msg)
	}
	return b.String()
}
