package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
)

var (
	ErrProgramNotFound       = errors.New("program not found")
	ErrProgramAlreadyLoaded  = errors.New("program already loaded")
	ErrProgramAlreadyRunning = errors.New("program is already running")
	ErrProgramNotRunning     = errors.New("program is not running")
	ErrModuleNotFound        = errors.New("module not found")
	ErrInvalidModuleName     = errors.New("invalid module name")

	programErrorKeys = map[error]string{
		ErrProgramNotFound:       "program_not_found",
		ErrProgramAlreadyLoaded:  "program_already_loaded",
		ErrProgramAlreadyRunning: "program_already_running",
		ErrProgramNotRunning:     "program_not_running",
	}
)

// A ProgramStatusError is returned by lifecycle commands (load, run, pause, ...) to the command caller.
type ProgramStatusError struct {
	error
	Key         string
	ProgramName string
}

func newProgramStatusError(sentinel error, programName string) *ProgramStatusError {
	return &ProgramStatusError{
		error:       sentinel,
		Key:         programErrorKeys[sentinel],
		ProgramName: programName,
	}
}

func (e *ProgramStatusError) Unwrap() error {
	return e.error
}

func (e *ProgramStatusError) Error() string {
	return fmt.Sprintf("%s: %s", e.error.Error(), e.ProgramName)
}

// A SyntaxError is returned by loaders when the text or tree of a module is malformed.
type SyntaxError struct {
	Module string
	Line   int
	Column int
	Key    string
	Args   []string
}

func (e *SyntaxError) Error() string {
	msg := e.Key
	if len(e.Args) > 0 {
		msg += ": " + strings.Join(e.Args, ", ")
	}
	if e.Line == NO_POSITION {
		return fmt.Sprintf("syntax error in module %s: %s", e.Module, msg)
	}
	return fmt.Sprintf("syntax error in module %s at %d:%d: %s", e.Module, e.Line, e.Column, msg)
}

// An ErrorReport describes an uncaught error that stopped a program, it is produced by ProgramManager.AdvanceAll.
// Line and Column are NO_POSITION if the error is not local to a statement.
type ErrorReport struct {
	ID      ulid.ULID
	Program string
	Key     string
	Args    []string
	Line    int
	Column  int
	Err     error
}

func newErrorReport(program string, err error) ErrorReport {
	report := ErrorReport{
		ID:      ulid.Make(),
		Program: program,
		Line:    NO_POSITION,
		Column:  NO_POSITION,
		Err:     err,
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		report.Key = evalErr.Key
		report.Args = evalErr.Args
		report.Line = evalErr.Line
		report.Column = evalErr.Column
	} else {
		report.Key = errorKeys[ErrInternal]
		report.Args = []string{err.Error()}
	}
	return report
}

func (r ErrorReport) IsStatementLocal() bool {
	return r.Line != NO_POSITION
}

func (r ErrorReport) String() string {
	if r.IsStatementLocal() {
		return fmt.Sprintf("[%s] %s at %d:%d: %s", r.Program, r.Key, r.Line, r.Column, r.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", r.Program, r.Key, r.Err)
}
