package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/inoxlang/tickscript/internal/ast"
)

var (
	ErrUndefinedVariable       = errors.New("undefined variable")
	ErrVariableAlreadyDeclared = errors.New("variable already declared")
	ErrNotEditable             = errors.New("variable is not editable")
	ErrNotPublic               = errors.New("variable is not public")
	ErrNotDeletable            = errors.New("variable is not deletable")

	ErrUnsupportedOperator  = errors.New("unsupported operator")
	ErrCastFailed           = errors.New("cast failed")
	ErrInvalidArgumentType  = errors.New("invalid argument type")
	ErrIllegalArgument      = errors.New("illegal argument")
	ErrNoSuchFunction       = errors.New("no such function")
	ErrNoSuchMethod         = errors.New("no such method")
	ErrNoSuchProperty       = errors.New("no such property")
	ErrReadonlyProperty     = errors.New("property is read-only")
	ErrWrongArgumentCount   = errors.New("wrong argument count")
	ErrNotCallable          = errors.New("value is not callable")
	ErrCallStackOverflow    = errors.New("call stack overflow")
	ErrIndexOutOfRange      = errors.New("index out of range")
	ErrNoSuchKey            = errors.New("no such key")
	ErrDivisionByZero       = errors.New("division by zero")
	ErrNotIterable          = errors.New("value is not iterable")
	ErrEmptyCollection      = errors.New("empty collection")
	ErrInvalidWaitTicks     = errors.New("wait tick count should be a non-negative integer")
	ErrWaitOutsideProgram   = errors.New("wait is only allowed at program level")
	ErrImportFailed         = errors.New("import failed")
	ErrCircularImport       = errors.New("circular import")
	ErrObjectNotResolved    = errors.New("object could not be resolved")
	ErrInternal             = errors.New("internal error")
	ErrInvalidControlFlow   = errors.New("break or continue outside of a loop")
	ErrTooManyStatements    = errors.New("too many statements executed in a single tick")
	ErrValueNotSerializable = errors.New("value is not serializable")

	//key used in reports and error values for each sentinel error.
	errorKeys = map[error]string{
		ErrUndefinedVariable:       "undefined_variable",
		ErrVariableAlreadyDeclared: "variable_already_declared",
		ErrNotEditable:             "not_editable",
		ErrNotPublic:               "not_public",
		ErrNotDeletable:            "not_deletable",
		ErrUnsupportedOperator:     "unsupported_operator",
		ErrCastFailed:              "cast_failed",
		ErrInvalidArgumentType:     "invalid_argument_type",
		ErrIllegalArgument:         "illegal_argument",
		ErrNoSuchFunction:          "no_such_function",
		ErrNoSuchMethod:            "no_such_method",
		ErrNoSuchProperty:          "no_such_property",
		ErrReadonlyProperty:        "readonly_property",
		ErrWrongArgumentCount:      "wrong_argument_count",
		ErrNotCallable:             "not_callable",
		ErrCallStackOverflow:       "call_stack_overflow",
		ErrIndexOutOfRange:         "index_out_of_range",
		ErrNoSuchKey:               "no_such_key",
		ErrDivisionByZero:          "division_by_zero",
		ErrNotIterable:             "not_iterable",
		ErrEmptyCollection:         "empty_collection",
		ErrInvalidWaitTicks:        "invalid_wait_ticks",
		ErrWaitOutsideProgram:      "wait_outside_program",
		ErrImportFailed:            "import_failed",
		ErrCircularImport:          "circular_import",
		ErrObjectNotResolved:       "object_not_resolved",
		ErrInternal:                "internal_error",
		ErrInvalidControlFlow:      "invalid_control_flow",
		ErrTooManyStatements:       "too_many_statements",
		ErrValueNotSerializable:    "value_not_serializable",
	}
)

const NO_POSITION = -1

// An EvaluationError is a runtime error raised by the evaluation of an expression or the execution of a statement.
// Line and Column are the position of the innermost node that failed, they are NO_POSITION until the error
// is located by the evaluator.
type EvaluationError struct {
	error
	Key    string
	Args   []string
	Line   int
	Column int
}

func NewEvaluationError(sentinel error, args ...string) *EvaluationError {
	key, ok := errorKeys[sentinel]
	if !ok {
		key = errorKeys[ErrInternal]
	}
	return &EvaluationError{
		error:  sentinel,
		Key:    key,
		Args:   args,
		Line:   NO_POSITION,
		Column: NO_POSITION,
	}
}

func (e *EvaluationError) Unwrap() error {
	return e.error
}

func (e *EvaluationError) Error() string {
	msg := e.Message()
	if e.Line == NO_POSITION {
		return msg
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, msg)
}

// Message returns the message of the error without its position.
func (e *EvaluationError) Message() string {
	if len(e.Args) == 0 {
		return e.error.Error()
	}
	return e.error.Error() + ": " + strings.Join(e.Args, ", ")
}

func (e *EvaluationError) IsLocated() bool {
	return e.Line != NO_POSITION
}

// Catchable reports whether the error can be caught by a try statement.
func (e *EvaluationError) Catchable() bool {
	return !errors.Is(e.error, ErrInvalidControlFlow) && !errors.Is(e.error, ErrTooManyStatements)
}

// locateError returns err as an *EvaluationError positioned at base if it has no position yet, nodes without
// position (Line 0) leave the error unlocated.
// Errors that are not evaluation errors are wrapped in an internal evaluation error.
func locateError(err error, base ast.NodeBase) error {
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		evalErr = NewEvaluationError(ErrInternal, err.Error())
	}
	if !evalErr.IsLocated() && base.Line > 0 {
		evalErr.Line = base.Line
		evalErr.Column = base.Column
	}
	return evalErr
}

func fmtInt(i int) string {
	return strconv.Itoa(i)
}

func fmtUnsupportedOperation(op string, left, right Value) *EvaluationError {
	if right == nil {
		return NewEvaluationError(ErrUnsupportedOperator, op, TypeOf(left).Name)
	}
	return NewEvaluationError(ErrUnsupportedOperator, op, TypeOf(left).Name, TypeOf(right).Name)
}

func fmtWrongArgumentCount(callee string, expected, actual int) *EvaluationError {
	return NewEvaluationError(ErrWrongArgumentCount, callee, fmtInt(expected), fmtInt(actual))
}

func IsUndefinedVariable(err error) bool {
	return errors.Is(err, ErrUndefinedVariable)
}
