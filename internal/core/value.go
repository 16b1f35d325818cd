package core

import (
	"github.com/inoxlang/tickscript/internal/ast"
)

// A TypeKind is the index of a type in the type registry, it is assigned by RegisterType.
type TypeKind int

// Kinds of the built-in types, they are registered in this order.
const (
	AnyKind TypeKind = iota
	NullKind
	BoolKind
	IntKind
	FloatKind
	StringKind
	ListKind
	MapKind
	SetKind
	RangeKind
	FunctionKind
	ModuleKind
	ErrorKind

	builtinKindCount
)

// A Value is a dynamically typed runtime value, its behavior is defined by the Type registered for its kind.
// Collections (*List, *Map, *Set) are reference values, all other built-in values are immutable.
type Value interface {
	Kind() TypeKind
}

var (
	_ = []Value{
		Null{}, Bool(false), Int(0), Float(0), String(""), (*List)(nil), (*Map)(nil), (*Set)(nil), Range{},
		(*UserFunction)(nil), (*BuiltinFunction)(nil), (*ModuleValue)(nil), (*ErrorValue)(nil),
	}

	NULL  = Null{}
	TRUE  = Bool(true)
	FALSE = Bool(false)
)

type Null struct{}

func (Null) Kind() TypeKind { return NullKind }

type Bool bool

func (Bool) Kind() TypeKind { return BoolKind }

type Int int64

func (Int) Kind() TypeKind { return IntKind }

type Float float64

func (Float) Kind() TypeKind { return FloatKind }

type String string

func (String) Kind() TypeKind { return StringKind }

// Range is an immutable arithmetic progression from Start (inclusive) to End (exclusive).
type Range struct {
	Start int64
	End   int64
	Step  int64
}

func (Range) Kind() TypeKind { return RangeKind }

func (r Range) Len() int64 {
	switch {
	case r.Step > 0 && r.End > r.Start:
		return (r.End - r.Start + r.Step - 1) / r.Step
	case r.Step < 0 && r.End < r.Start:
		return (r.Start - r.End - r.Step - 1) / -r.Step
	default:
		return 0
	}
}

func (r Range) At(i int64) Int {
	return Int(r.Start + i*r.Step)
}

func (r Range) Contains(i int64) bool {
	if r.Step > 0 {
		if i < r.Start || i >= r.End {
			return false
		}
		return (i-r.Start)%r.Step == 0
	}
	if i > r.Start || i <= r.End {
		return false
	}
	return (r.Start-i)%-r.Step == 0
}

// A UserFunction is a function defined by a program, its body is executed in a fresh scope
// whose parent is the global scope of the program that defined it.
type UserFunction struct {
	Definition *ast.DefineFunctionStatement
	owner      *Program
}

func (*UserFunction) Kind() TypeKind { return FunctionKind }

func (f *UserFunction) Name() string {
	return f.Definition.Name
}

func (f *UserFunction) Owner() *Program {
	return f.owner
}

// A ModuleValue is an imported program, its public variables are readable as properties and
// its public functions are callable as methods.
type ModuleValue struct {
	program *Program
}

func (*ModuleValue) Kind() TypeKind { return ModuleKind }

func (m *ModuleValue) Program() *Program {
	return m.program
}

// An ErrorValue is a runtime error caught by a try statement.
type ErrorValue struct {
	Key     string
	Args    []string
	Message string
	Line    int
	Column  int
}

func (*ErrorValue) Kind() TypeKind { return ErrorKind }

func newErrorValue(err *EvaluationError) *ErrorValue {
	return &ErrorValue{
		Key:     err.Key,
		Args:    err.Args,
		Message: err.Message(),
		Line:    err.Line,
		Column:  err.Column,
	}
}
