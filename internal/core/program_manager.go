package core

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

const DEFAULT_WORLD_NAME = "overworld"

var ErrNoProgramStore = errors.New("no program store")

// A StoredProgram is the serialized state of a registered program.
type StoredProgram struct {
	Name string
	Data []byte
}

// A ProgramStore persists the programs of worlds, ReplaceWorld should replace all the programs of a world atomically
// and LoadWorld should return them in the order they were stored.
type ProgramStore interface {
	ReplaceWorld(world string, programs []StoredProgram) error
	LoadWorld(world string) ([]StoredProgram, error)
}

type ProgramManagerConfig struct {
	World    string
	Loader   ProgramLoader
	Store    ProgramStore   //optional
	Resolver ObjectResolver //optional, used when restoring programs
	Logger   zerolog.Logger
	Metrics  *Metrics //optional

	MaxCallDepth         int //defaults to DEFAULT_MAX_CALL_DEPTH
	MaxStatementsPerTick int //0 means unlimited
}

// A ProgramManager owns the programs of a world and advances them once per tick. It is not safe for concurrent use:
// lifecycle commands should be executed between calls to AdvanceAll by the goroutine that drives the ticks.
type ProgramManager struct {
	config   ProgramManagerConfig
	programs map[string]*Program
	order    []string //registered names in load order
	tick     uint64

	//last successfully saved (or restored) state of each program, written in place of a program that cannot
	//be encoded.
	saved map[string][]byte

	logger  zerolog.Logger
	metrics *Metrics
}

// NewProgramManager creates a manager and restores the programs of its world from the store. The manager is
// returned even if some programs could not be restored, the error then aggregates the failures.
func NewProgramManager(config ProgramManagerConfig) (*ProgramManager, error) {
	if config.World == "" {
		config.World = DEFAULT_WORLD_NAME
	}
	if config.MaxCallDepth <= 0 {
		config.MaxCallDepth = DEFAULT_MAX_CALL_DEPTH
	}

	logger := ChildLoggerForSource(config.Logger, PROGRAMS_LOG_SRC)
	logger = logger.With().Str(WORLD_LOG_FIELD_NAME, config.World).Logger()

	m := &ProgramManager{
		config:   config,
		programs: map[string]*Program{},
		saved:    map[string][]byte{},
		logger:   logger,
		metrics:  config.Metrics,
	}

	if config.Store == nil {
		return m, nil
	}

	stored, err := config.Store.LoadWorld(config.World)
	if err != nil {
		return m, fmt.Errorf("failed to load the programs of world %s: %w", config.World, err)
	}

	var restoreErr error
	for _, s := range stored {
		ctx := &DecodeContext{Resolver: config.Resolver, manager: m}
		p, err := DecodeProgram(ctx, s.Data)
		if err != nil {
			restoreErr = multierror.Append(restoreErr, fmt.Errorf("program %s: %w", s.Name, err))
			continue
		}
		if _, ok := m.programs[p.name]; ok {
			restoreErr = multierror.Append(restoreErr, newProgramStatusError(ErrProgramAlreadyLoaded, p.name))
			continue
		}
		m.register(p)
		m.saved[p.name] = s.Data
	}

	m.logger.Info().Int("count", len(m.order)).Msg("programs restored")
	return m, restoreErr
}

func (m *ProgramManager) World() string {
	return m.config.World
}

// CurrentTick returns the number of ticks advanced since the manager was created.
func (m *ProgramManager) CurrentTick() uint64 {
	return m.tick
}

func (m *ProgramManager) register(p *Program) {
	m.programs[p.name] = p
	m.order = append(m.order, p.name)
	m.metrics.setLoadedPrograms(m.config.World, len(m.order))
}

// LoadProgram loads a module, the program is registered under alias (or the module name if alias is empty)
// unless isImport is true. Imported programs are owned by the caller and are never scheduled by the manager.
func (m *ProgramManager) LoadProgram(moduleName string, alias string, isImport bool, args []string) (*Program, error) {
	name := alias
	if name == "" {
		name = moduleName
	}
	if !isImport {
		if _, ok := m.programs[name]; ok {
			return nil, newProgramStatusError(ErrProgramAlreadyLoaded, name)
		}
	}

	module, err := m.config.Loader.LoadModule(moduleName)
	if err != nil {
		return nil, err
	}

	p := newProgram(m, name, moduleName, isImport, args, module)
	if !isImport {
		m.register(p)
		m.logger.Info().Str(PROGRAM_LOG_FIELD_NAME, name).Str("module", moduleName).Msg("program loaded")
	}
	return p, nil
}

func (m *ProgramManager) UnloadProgram(name string) error {
	p, err := m.getProgram(name)
	if err != nil {
		return err
	}
	p.status = ProgramTerminated
	p.executor = nil

	delete(m.programs, name)
	m.order = slices.DeleteFunc(m.order, func(n string) bool { return n == name })
	m.metrics.setLoadedPrograms(m.config.World, len(m.order))

	m.logger.Info().Str(PROGRAM_LOG_FIELD_NAME, name).Msg("program unloaded")
	return nil
}

func (m *ProgramManager) ResetProgram(name string) error {
	p, err := m.getProgram(name)
	if err != nil {
		return err
	}
	p.reset()
	return nil
}

func (m *ProgramManager) RunProgram(name string) error {
	p, err := m.getProgram(name)
	if err != nil {
		return err
	}
	return p.run()
}

func (m *ProgramManager) PauseProgram(name string) error {
	p, err := m.getProgram(name)
	if err != nil {
		return err
	}
	return p.pause()
}

func (m *ProgramManager) GetProgram(name string) (*Program, bool) {
	p, ok := m.programs[name]
	return p, ok
}

func (m *ProgramManager) getProgram(name string) (*Program, error) {
	p, ok := m.programs[name]
	if !ok {
		return nil, newProgramStatusError(ErrProgramNotFound, name)
	}
	return p, nil
}

// LoadedPrograms returns the names of the registered programs in natural order.
func (m *ProgramManager) LoadedPrograms() []string {
	names := slices.Clone(m.order)
	slices.SortFunc(names, naturalCompare)
	return names
}

// AdvanceAll advances every registered program by one tick, in load order. An error stops only the program
// that raised it: the program becomes errored and the error is reported.
func (m *ProgramManager) AdvanceAll() []ErrorReport {
	start := time.Now()
	m.tick++

	var reports []ErrorReport
	for _, name := range slices.Clone(m.order) {
		p, ok := m.programs[name]
		if !ok {
			continue
		}
		if err := p.tick(); err != nil {
			report := newErrorReport(name, err)
			reports = append(reports, report)

			m.metrics.programErrored(m.config.World, report.Key)
			m.logger.Error().
				Str(PROGRAM_LOG_FIELD_NAME, name).
				Str("key", report.Key).
				Int("line", report.Line).
				Int("column", report.Column).
				Err(err).
				Msg("program stopped by an error")
		}
	}

	m.metrics.tickAdvanced(m.config.World, time.Since(start))
	return reports
}

// Save persists all registered programs in load order. A program that cannot be encoded does not prevent the
// others from being saved: its last saved state is kept if there is one, and the error aggregates the failures.
func (m *ProgramManager) Save() error {
	if m.config.Store == nil {
		return ErrNoProgramStore
	}

	var encodeErr error
	stored := make([]StoredProgram, 0, len(m.order))
	saved := make(map[string][]byte, len(m.order))

	for _, name := range m.order {
		data, err := MarshalProgram(m.programs[name])
		if err != nil {
			encodeErr = multierror.Append(encodeErr, fmt.Errorf("program %s: %w", name, err))

			data = m.saved[name]
			if data == nil {
				continue
			}
			m.logger.Warn().Str(PROGRAM_LOG_FIELD_NAME, name).Err(err).Msg("program not encodable, keeping its last saved state")
		}
		stored = append(stored, StoredProgram{Name: name, Data: data})
		saved[name] = data
	}

	if err := m.config.Store.ReplaceWorld(m.config.World, stored); err != nil {
		return multierror.Append(encodeErr, err)
	}
	m.saved = saved
	m.logger.Debug().Int("count", len(stored)).Msg("programs saved")
	return encodeErr
}
