package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/inoxlang/tickscript/internal/core"
	"github.com/inoxlang/tickscript/internal/filekv"
	"github.com/inoxlang/tickscript/internal/hosttypes"
	"github.com/inoxlang/tickscript/internal/utils"
	"github.com/sanity-io/litter"
)

// ProgramDump is a readable summary of the saved state of a program.
type ProgramDump struct {
	Name        string
	Module      string
	Args        []string
	Status      string
	WaitTicks   int64
	RepeatsLeft int64
	Globals     []VariableDump
	Cursor      int //number of frames
	Imports     []ProgramDump
}

type VariableDump struct {
	Name     string
	Value    string
	Public   bool
	Editable bool
	Constant bool
}

// placeholderEntities resolves every entity reference to an entity without name, the live entities are only
// known by a running host.
type placeholderEntities struct{}

func (placeholderEntities) ResolveObject(typeName string, key string) (core.Value, error) {
	if typeName != hosttypes.ENTITY_TYPE_NAME {
		return nil, fmt.Errorf("%w: %s", hosttypes.ErrUnknownObjectType, typeName)
	}
	id, err := uuid.Parse(key)
	if err != nil {
		return nil, err
	}
	return &hosttypes.Entity{ID: id}, nil
}

func dumpProgram(p *core.Program) ProgramDump {
	dump := ProgramDump{
		Name:        p.Name(),
		Module:      p.ModuleName(),
		Args:        p.Args(),
		Status:      p.Status().String(),
		WaitTicks:   p.WaitTicks(),
		RepeatsLeft: p.RepeatsLeft(),
		Cursor:      len(p.Cursor()),
	}
	for _, v := range p.GlobalScope().Variables() {
		dump.Globals = append(dump.Globals, VariableDump{
			Name:     v.Name,
			Value:    core.Repr(v.Value),
			Public:   v.Public,
			Editable: v.Editable,
			Constant: v.Constant,
		})
	}
	for _, imported := range p.Imports() {
		dump.Imports = append(dump.Imports, dumpProgram(imported))
	}
	return dump
}

// DumpWorld decodes the saved programs of a world and writes their summary to w.
func DumpWorld(store *filekv.SingleFileKV, world string, w io.Writer) error {
	stored, err := store.LoadWorld(world)
	if err != nil {
		return err
	}

	options := litter.Options{
		HidePrivateFields: true,
		StripPackageNames: true,
	}

	var decodeErr error
	for _, s := range stored {
		p, err := core.DecodeProgram(core.NewDecodeContext(placeholderEntities{}), s.Data)
		if err != nil {
			decodeErr = multierror.Append(decodeErr, fmt.Errorf("program %s: %w", s.Name, err))
			continue
		}
		fmt.Fprintln(w, options.Sdump(dumpProgram(p)))
		utils.PrintSmallLineSeparator(w)
	}

	if len(stored) == 0 {
		fmt.Fprintf(w, "no saved programs in world %s\n", world)
	}
	return decodeErr
}

func dumpSubcommand(mainSubCommand string, mainSubCommandArgs []string, outW, errW io.Writer) (exitCode int) {
	flags := flag.NewFlagSet(mainSubCommand, flag.ContinueOnError)
	flags.SetOutput(errW)
	configPath, world := addConfigFlags(flags)

	if showHelp(flags, mainSubCommandArgs, outW) { //only show help
		return
	}
	if err := flags.Parse(mainSubCommandArgs); err != nil {
		return ERROR_STATUS_CODE
	}

	cfg, err := loadConfig(*configPath, *world)
	if err != nil {
		fmt.Fprintln(errW, err)
		return ERROR_STATUS_CODE
	}

	store, err := filekv.OpenSingleFileKV(filekv.KvStoreConfig{Path: cfg.DataFile})
	if err != nil {
		fmt.Fprintln(errW, err)
		return ERROR_STATUS_CODE
	}
	defer store.Close()

	if err := DumpWorld(store, cfg.World, outW); err != nil {
		fmt.Fprintln(errW, err)
		return ERROR_STATUS_CODE
	}
	return 0
}
