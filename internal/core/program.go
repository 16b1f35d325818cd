package core

import (
	"errors"
	"runtime/debug"

	"github.com/inoxlang/tickscript/internal/ast"
	"github.com/inoxlang/tickscript/internal/utils"
	"github.com/rs/zerolog"
)

const (
	DEFAULT_MAX_CALL_DEPTH = 100
	ARGV_VARIABLE_NAME     = "ARGV"
)

type ProgramStatus int

const (
	ProgramIdle ProgramStatus = iota
	ProgramRunning
	ProgramPaused
	ProgramWaiting
	ProgramErrored
	ProgramTerminated
)

var programStatusNames = [...]string{
	ProgramIdle:       "idle",
	ProgramRunning:    "running",
	ProgramPaused:     "paused",
	ProgramWaiting:    "waiting",
	ProgramErrored:    "errored",
	ProgramTerminated: "terminated",
}

func (s ProgramStatus) String() string {
	return programStatusNames[s]
}

func programStatusFromString(s string) (ProgramStatus, bool) {
	for i, name := range programStatusNames {
		if name == s {
			return ProgramStatus(i), true
		}
	}
	return 0, false
}

// A Program is a loaded module with its own global scope and execution state. Programs are advanced
// by their ProgramManager, one slice of statements per tick, and suspend only at wait statements.
type Program struct {
	name       string //registered name (alias or module name)
	moduleName string
	isImport   bool
	args       []string

	module *ast.Module
	index  *ast.StatementIndex
	global *Scope

	status             ProgramStatus
	pausedWhileWaiting bool
	waitTicks          int64
	repeatsLeft        int64
	executor           *Executor //resumption cursor, nil if the program has not started or has completed

	manager  *ProgramManager
	importer *Program   //program that imported this module, nil for registered programs
	imports  []*Program //modules imported by the program, in import order

	//only used on the root program of an import chain.
	callDepth          int
	statementsThisTick int

	logger zerolog.Logger
}

func newProgram(manager *ProgramManager, name, moduleName string, isImport bool, args []string, module *ast.Module) *Program {
	p := &Program{
		name:       name,
		moduleName: moduleName,
		isImport:   isImport,
		args:       args,
		module:     module,
		index:      ast.IndexStatementLists(module),
		manager:    manager,
		logger:     zerolog.Nop(),
	}
	if manager != nil {
		p.logger = childLoggerForProgram(manager.logger, name)
	}
	p.reset()
	return p
}

func (p *Program) Name() string {
	return p.name
}

func (p *Program) ModuleName() string {
	return p.moduleName
}

func (p *Program) IsImport() bool {
	return p.isImport
}

func (p *Program) Args() []string {
	return p.args
}

func (p *Program) Module() *ast.Module {
	return p.module
}

func (p *Program) GlobalScope() *Scope {
	return p.global
}

func (p *Program) Status() ProgramStatus {
	return p.status
}

// WaitTicks returns the number of ticks the program still has to wait, it is only relevant when the status is
// ProgramWaiting or when the program was paused while waiting.
func (p *Program) WaitTicks() int64 {
	return p.waitTicks
}

func (p *Program) RepeatsLeft() int64 {
	return p.repeatsLeft
}

// Cursor returns the frames of the resumption cursor, it returns nil if the program is not suspended.
func (p *Program) Cursor() []*Frame {
	if p.executor == nil {
		return nil
	}
	return p.executor.Frames()
}

// Imports returns the modules imported by the program.
func (p *Program) Imports() []*Program {
	return p.imports
}

// GetVariable reads a global variable, external callers can only read public variables.
func (p *Program) GetVariable(name string, fromOutside bool) (Value, error) {
	return p.global.GetVariable(name, fromOutside)
}

func (p *Program) SetVariable(name string, value Value, fromOutside bool) error {
	return p.global.SetVariable(name, value, fromOutside)
}

func (p *Program) DeleteVariable(name string, fromOutside bool) error {
	return p.global.DeleteVariable(name, fromOutside)
}

func (p *Program) root() *Program {
	root := p
	for root.importer != nil {
		root = root.importer
	}
	return root
}

func (p *Program) maxCallDepth() int {
	if p.manager == nil || p.manager.config.MaxCallDepth <= 0 {
		return DEFAULT_MAX_CALL_DEPTH
	}
	return p.manager.config.MaxCallDepth
}

// enterCall increments the call depth shared by the import chain, the returned function decrements it.
func (p *Program) enterCall() (leave func(), err error) {
	root := p.root()
	if root.callDepth >= root.maxCallDepth() {
		return nil, NewEvaluationError(ErrCallStackOverflow, fmtInt(root.maxCallDepth()))
	}
	root.callDepth++
	return func() { root.callDepth-- }, nil
}

func (p *Program) countStatement() error {
	root := p.root()
	root.statementsThisTick++
	if root.manager != nil {
		limit := root.manager.config.MaxStatementsPerTick
		if limit > 0 && root.statementsThisTick > limit {
			return NewEvaluationError(ErrTooManyStatements, fmtInt(limit))
		}
		root.manager.metrics.statementExecuted()
	}
	return nil
}

func (p *Program) newGlobalScope() *Scope {
	scope := NewScope(nil, p)
	scope.DeclareVariable(&Variable{
		Name:     ARGV_VARIABLE_NAME,
		Value:    stringList(p.args),
		Public:   true,
		Constant: true,
	})
	return scope
}

// reset discards the global scope, the cursor and the imported modules, the statement tree is kept.
func (p *Program) reset() {
	p.global = p.newGlobalScope()
	p.executor = nil
	p.imports = nil
	p.status = ProgramIdle
	p.pausedWhileWaiting = false
	p.waitTicks = 0
	p.repeatsLeft = 0
	if p.module.Schedule != nil {
		p.repeatsLeft = p.module.Schedule.Repeat
	}
}

func (p *Program) run() error {
	switch p.status {
	case ProgramRunning, ProgramWaiting:
		return newProgramStatusError(ErrProgramAlreadyRunning, p.name)
	case ProgramTerminated, ProgramErrored:
		p.reset()
	}

	switch {
	case p.status == ProgramPaused && p.pausedWhileWaiting:
		p.status = ProgramWaiting
	case p.status == ProgramIdle && p.module.Schedule != nil && p.module.Schedule.Delay > 0:
		p.status = ProgramWaiting
		p.waitTicks = p.module.Schedule.Delay
	default:
		p.status = ProgramRunning
	}
	p.pausedWhileWaiting = false
	return nil
}

func (p *Program) pause() error {
	switch p.status {
	case ProgramRunning, ProgramWaiting:
		p.pausedWhileWaiting = p.status == ProgramWaiting
		p.status = ProgramPaused
		return nil
	default:
		return newProgramStatusError(ErrProgramNotRunning, p.name)
	}
}

// tick advances the program by one tick: a waiting program is decremented and resumes in the same tick
// once its counter reaches zero, a running program executes statements until it waits, completes or fails.
// The returned error is the uncaught error that stopped the program.
func (p *Program) tick() (finalErr error) {
	defer func() {
		if e := recover(); e != nil {
			err := utils.ConvertPanicValueToError(e)
			p.logger.Error().Err(err).Str("stack", string(debug.Stack())).Msg("panic during tick")

			p.status = ProgramErrored
			p.executor = nil
			finalErr = NewEvaluationError(ErrInternal, err.Error())
		}
	}()

	switch p.status {
	case ProgramWaiting:
		if p.waitTicks > 0 {
			p.waitTicks--
		}
		if p.waitTicks > 0 {
			return nil
		}
		p.status = ProgramRunning
	case ProgramRunning:
	default:
		return nil
	}

	p.callDepth = 0
	p.statementsThisTick = 0

	if p.executor == nil {
		p.executor = newProgramExecutor(p, true)
	}

	signal, err := p.executor.Run()
	if err != nil {
		p.status = ProgramErrored
		p.executor = nil
		return err
	}

	if signal.Kind == WaitSignal {
		p.status = ProgramWaiting
		p.waitTicks = signal.Ticks
		return nil
	}
	p.complete()
	return nil
}

func (p *Program) complete() {
	p.executor = nil

	if p.repeatsLeft == 0 || p.module.Schedule == nil {
		p.status = ProgramTerminated
		p.logger.Debug().Msg("program terminated")
		return
	}

	if p.repeatsLeft != ast.REPEAT_FOREVER {
		p.repeatsLeft--
	}
	p.global = p.newGlobalScope()
	p.imports = nil
	p.status = ProgramWaiting
	p.waitTicks = p.module.Schedule.Delay
	p.logger.Debug().Int64("repeatsLeft", p.repeatsLeft).Msg("program scheduled again")
}

// importModule loads and runs the module named by stmt, the module is executed synchronously and cannot wait.
func (p *Program) importModule(stmt *ast.ImportStatement) (*ModuleValue, error) {
	moduleName := stmt.ModuleName()

	for q := p; q != nil; q = q.importer {
		if q.moduleName == moduleName {
			return nil, NewEvaluationError(ErrCircularImport, moduleName)
		}
	}

	if p.manager == nil {
		return nil, NewEvaluationError(ErrImportFailed, moduleName)
	}

	imported, err := p.manager.LoadProgram(moduleName, "", true, nil)
	if err != nil {
		return nil, NewEvaluationError(ErrImportFailed, moduleName, err.Error())
	}
	imported.importer = p
	imported.logger = p.logger.With().Str("module", moduleName).Logger()

	imported.status = ProgramRunning
	imported.executor = newProgramExecutor(imported, false)
	_, err = imported.executor.Run()
	imported.executor = nil
	if err != nil {
		imported.status = ProgramErrored
		if errors.Is(err, ErrCircularImport) {
			return nil, NewEvaluationError(ErrCircularImport, moduleName)
		}
		return nil, NewEvaluationError(ErrImportFailed, moduleName, err.Error())
	}
	imported.status = ProgramTerminated

	p.imports = append(p.imports, imported)
	return &ModuleValue{program: imported}, nil
}
