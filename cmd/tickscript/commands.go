package main

import (
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/inoxlang/tickscript/internal/core"
	"github.com/maruel/natural"
	"golang.org/x/exp/maps"
)

const (
	ALIAS_KEYWORD      = "as"
	LIST_LINE_FMT      = "%-20s %-10s %s"
	MODULE_GLOB_PREFIX = "**/*"
)

type consoleCommand struct {
	usage   string
	doc     string
	minArgs int

	//rest is the command line without the command name.
	run func(c *console, args []string, rest string) (commandResult, error)
}

type commandResult struct {
	output  string
	changed bool //true if the programs of the world changed
	quit    bool
}

var CONSOLE_COMMANDS map[string]consoleCommand

func init() {
	CONSOLE_COMMANDS = map[string]consoleCommand{
		"load": {
			usage:   "<module> [as <name>] [args...]",
			doc:     "load a module as a program",
			minArgs: 1,
			run:     loadCommand,
		},
		"unload": {
			usage:   "<program>",
			doc:     "unload a program",
			minArgs: 1,
			run: lifecycleCommand(func(m *core.ProgramManager, name string) error {
				return m.UnloadProgram(name)
			}),
		},
		"reset": {
			usage:   "<program>",
			doc:     "reset a program to its initial state",
			minArgs: 1,
			run: lifecycleCommand(func(m *core.ProgramManager, name string) error {
				return m.ResetProgram(name)
			}),
		},
		"run": {
			usage:   "<program>",
			doc:     "start or resume a program",
			minArgs: 1,
			run: lifecycleCommand(func(m *core.ProgramManager, name string) error {
				return m.RunProgram(name)
			}),
		},
		"pause": {
			usage:   "<program>",
			doc:     "pause a program",
			minArgs: 1,
			run: lifecycleCommand(func(m *core.ProgramManager, name string) error {
				return m.PauseProgram(name)
			}),
		},
		"get": {
			usage:   "<program> <variable>",
			doc:     "print the value of a public global variable",
			minArgs: 2,
			run:     getCommand,
		},
		"set": {
			usage:   "<program> <variable> <value>",
			doc:     "set an editable global variable, the value is JSON or @<entity uuid>",
			minArgs: 3,
			run:     setCommand,
		},
		"delete": {
			usage:   "<program> <variable>",
			doc:     "delete a deletable global variable",
			minArgs: 2,
			run:     deleteCommand,
		},
		"list": {
			usage: "",
			doc:   "list the loaded programs",
			run:   listCommand,
		},
		"modules": {
			usage: "",
			doc:   "list the modules of the programs directory",
			run: func(c *console, args []string, rest string) (commandResult, error) {
				names, err := listModules(os.DirFS(c.host.config.ProgramsDir))
				if err != nil {
					return commandResult{}, err
				}
				if len(names) == 0 {
					return commandResult{output: "no modules"}, nil
				}
				return commandResult{output: strings.Join(names, "\n")}, nil
			},
		},
		"doc": {
			usage:   "type|property|method|function <name>",
			doc:     "show the documentation of a type, a type member (type.member) or a function",
			minArgs: 2,
			run:     docCommand,
		},
		"save": {
			usage: "",
			doc:   "save the programs of the world",
			run: func(c *console, args []string, rest string) (commandResult, error) {
				if err := c.save(); err != nil {
					return commandResult{}, err
				}
				return commandResult{output: "saved"}, nil
			},
		},
		"spawn": {
			usage: "[name]",
			doc:   "spawn an entity and print its UUID",
			run: func(c *console, args []string, rest string) (commandResult, error) {
				e := c.host.entities.Spawn(rest)
				return commandResult{output: ENTITY_REFERENCE_PREFIX + e.ID.String()}, nil
			},
		},
		"tick": {
			usage: "",
			doc:   "print the current tick",
			run: func(c *console, args []string, rest string) (commandResult, error) {
				return commandResult{output: fmt.Sprint(c.host.manager.CurrentTick())}, nil
			},
		},
		"help": {
			usage: "",
			doc:   "list the commands",
			run:   helpCommand,
		},
		"quit": {
			usage: "",
			doc:   "save the world and quit",
			run: func(c *console, args []string, rest string) (commandResult, error) {
				return commandResult{quit: true}, nil
			},
		},
	}
}

func loadCommand(c *console, args []string, rest string) (commandResult, error) {
	moduleName, alias := args[0], ""
	programArgs := args[1:]

	if len(programArgs) >= 2 && programArgs[0] == ALIAS_KEYWORD {
		alias = programArgs[1]
		programArgs = programArgs[2:]
	}

	p, err := c.host.manager.LoadProgram(moduleName, alias, false, programArgs)
	if err != nil {
		return commandResult{}, err
	}
	return commandResult{output: "loaded " + p.Name(), changed: true}, nil
}

func lifecycleCommand(fn func(m *core.ProgramManager, name string) error) func(c *console, args []string, rest string) (commandResult, error) {
	return func(c *console, args []string, rest string) (commandResult, error) {
		if err := fn(c.host.manager, args[0]); err != nil {
			return commandResult{}, err
		}
		return commandResult{changed: true}, nil
	}
}

func getProgram(c *console, name string) (*core.Program, error) {
	p, ok := c.host.manager.GetProgram(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrProgramNotFound, name)
	}
	return p, nil
}

func getCommand(c *console, args []string, rest string) (commandResult, error) {
	p, err := getProgram(c, args[0])
	if err != nil {
		return commandResult{}, err
	}
	v, err := p.GetVariable(args[1], true)
	if err != nil {
		return commandResult{}, err
	}
	return commandResult{output: core.Repr(v)}, nil
}

func setCommand(c *console, args []string, rest string) (commandResult, error) {
	p, err := getProgram(c, args[0])
	if err != nil {
		return commandResult{}, err
	}

	//the value is what follows the variable name.
	valueText := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(strings.TrimPrefix(rest, args[0])), args[1]))

	v, err := parseValue(valueText, c.host.entities)
	if err != nil {
		return commandResult{}, err
	}
	if err := p.SetVariable(args[1], v, true); err != nil {
		return commandResult{}, err
	}
	return commandResult{changed: true}, nil
}

func deleteCommand(c *console, args []string, rest string) (commandResult, error) {
	p, err := getProgram(c, args[0])
	if err != nil {
		return commandResult{}, err
	}
	if err := p.DeleteVariable(args[1], true); err != nil {
		return commandResult{}, err
	}
	return commandResult{changed: true}, nil
}

func listCommand(c *console, args []string, rest string) (commandResult, error) {
	var lines []string
	for _, name := range c.host.manager.LoadedPrograms() {
		p, ok := c.host.manager.GetProgram(name)
		if !ok {
			continue
		}
		status := p.Status().String()
		if p.Status() == core.ProgramWaiting {
			status += fmt.Sprintf(" (%d)", p.WaitTicks())
		}
		lines = append(lines, fmt.Sprintf(LIST_LINE_FMT, name, status, p.ModuleName()))
	}
	if len(lines) == 0 {
		return commandResult{output: "no programs"}, nil
	}
	return commandResult{output: strings.Join(lines, "\n")}, nil
}

// listModules returns the names of the modules found in fsys, files whose path is not a valid module name are
// ignored. A module having a tree file and a source file is listed once.
func listModules(fsys fs.FS) ([]string, error) {
	var names []string

	for _, extension := range []string{core.MODULE_TREE_FILE_EXTENSION, core.MODULE_SOURCE_FILE_EXTENSION} {
		matches, err := doublestar.Glob(fsys, MODULE_GLOB_PREFIX+extension)
		if err != nil {
			return nil, err
		}
		for _, match := range matches {
			name := strings.ReplaceAll(strings.TrimSuffix(match, extension), "/", core.MODULE_NAME_SEPARATOR)
			if core.CheckModuleName(name) != nil || slices.Contains(names, name) {
				continue
			}
			names = append(names, name)
		}
	}

	slices.SortFunc(names, naturalCompare)
	return names, nil
}

func docCommand(c *console, args []string, rest string) (commandResult, error) {
	doc, err := core.Documentation(core.DocKind(args[0]), args[1])
	if err != nil {
		return commandResult{}, err
	}
	return commandResult{output: doc}, nil
}

func helpCommand(c *console, args []string, rest string) (commandResult, error) {
	names := maps.Keys(CONSOLE_COMMANDS)
	slices.SortFunc(names, naturalCompare)

	var b strings.Builder
	for _, name := range names {
		command := CONSOLE_COMMANDS[name]
		fmt.Fprintf(&b, "\t%s %s - %s\n", name, command.usage, command.doc)
	}
	return commandResult{output: strings.TrimRight(b.String(), "\n")}, nil
}

func naturalCompare(a, b string) int {
	switch {
	case a == b:
		return 0
	case natural.Less(a, b):
		return -1
	}
	return 1
}
