package core

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/inoxlang/tickscript/internal/compound"
	"github.com/maruel/natural"
	"golang.org/x/exp/maps"
)

// A Type describes the behavior of one kind of value. Hooks that are nil are unsupported:
// the corresponding operators fail with ErrUnsupportedOperator.
// Types are registered during the initialization of the process and never change afterwards.
type Type struct {
	Name string
	Doc  string
	Kind TypeKind //set by RegisterType

	//Abstract types have no values, they are only used to describe parameters.
	Abstract bool

	Equal   func(self, other Value) bool
	Compare func(scope *Scope, self, other Value) (int, error)
	Str     func(self Value) string
	Repr    func(self Value) string //defaults to Str
	Truthy  func(self Value) bool   //defaults to true

	//binary operators, inPlace is true for compound assignments (+=, -=, ...).
	Add    func(scope *Scope, self, other Value, inPlace bool) (Value, error)
	Sub    func(scope *Scope, self, other Value, inPlace bool) (Value, error)
	Mul    func(scope *Scope, self, other Value, inPlace bool) (Value, error)
	Div    func(scope *Scope, self, other Value, inPlace bool) (Value, error)
	IntDiv func(scope *Scope, self, other Value, inPlace bool) (Value, error)
	Mod    func(scope *Scope, self, other Value, inPlace bool) (Value, error)
	Pow    func(scope *Scope, self, other Value, inPlace bool) (Value, error)

	Neg        func(scope *Scope, self Value) (Value, error)
	Contains   func(scope *Scope, self, item Value) (bool, error)
	Len        func(self Value) int
	Iterate    func(self Value) []Value //returns a snapshot of the elements
	GetItem    func(scope *Scope, self, key Value) (Value, error)
	SetItem    func(scope *Scope, self, key, value Value) error
	DeleteItem func(scope *Scope, self, key Value) error

	//ImplicitCast converts a value of another type to this type when it is passed to a parameter of this type.
	ImplicitCast func(v Value) (Value, bool)
	//ExplicitCast is called by the cast function named after the type.
	ExplicitCast func(scope *Scope, v Value) (Value, error)

	Encode func(ctx *EncodeContext, v Value) (compound.Compound, error)
	Decode func(ctx *DecodeContext, c compound.Compound) (Value, error)

	//New and Fill are set on reference types (collections) instead of Decode. Their values are encoded once
	//per program in a table and referenced by id, a decoded value is created empty by New then filled.
	New  func() Value
	Fill func(ctx *DecodeContext, self Value, c compound.Compound) error

	Properties map[string]*Property
	Methods    map[string]*Method
}

func (t *Type) String() string {
	return t.Name
}

func (t *Type) IsReference() bool {
	return t.New != nil
}

// Accepts reports whether a value of type other can be passed to a parameter of type t without cast.
func (t *Type) Accepts(other *Type) bool {
	return t.Abstract || t == other
}

type Property struct {
	Name string
	Doc  string
	Get  func(scope *Scope, self Value) (Value, error)
	Set  func(scope *Scope, self, value Value) error //nil if read-only
}

type Method struct {
	Name   string
	Doc    string
	Params []Parameter
	Impl   func(scope *Scope, self Value, args []Value) (Value, error)
}

// A Parameter describes a parameter of a builtin function or method, a nil Type accepts any value.
type Parameter struct {
	Name     string
	Type     *Type
	Nullable bool
}

func (p Parameter) String() string {
	typeName := ANY_TYPE.Name
	if p.Type != nil {
		typeName = p.Type.Name
	}
	if p.Nullable {
		typeName += "?"
	}
	return p.Name + " " + typeName
}

var (
	registrySealed  atomic.Bool
	sealRegistry    sync.Once
	registeredTypes []*Type
	typesByName     = map[string]*Type{}

	builtinFunctions = map[string]*BuiltinFunction{}
)

// RegisterType adds a type to the registry and assigns its kind, it should only be called during the initialization
// of the process (package-level variables and init functions). It panics if the registry is already sealed.
func RegisterType(t *Type) *Type {
	if registrySealed.Load() {
		panic(fmt.Errorf("type %s registered after the type registry was sealed", t.Name))
	}
	if _, ok := typesByName[t.Name]; ok {
		panic(fmt.Errorf("type %s registered twice", t.Name))
	}
	t.Kind = TypeKind(len(registeredTypes))
	registeredTypes = append(registeredTypes, t)
	typesByName[t.Name] = t
	return t
}

func registerBuiltinFunction(fn *BuiltinFunction) {
	if registrySealed.Load() {
		panic(fmt.Errorf("builtin %s registered after the type registry was sealed", fn.Name))
	}
	if _, ok := builtinFunctions[fn.Name]; ok {
		panic(fmt.Errorf("builtin %s registered twice", fn.Name))
	}
	builtinFunctions[fn.Name] = fn
}

// seal is called by the first lookup, it generates the cast functions and prevents further registrations.
func seal() {
	sealRegistry.Do(func() {
		for _, t := range registeredTypes {
			if t.ExplicitCast == nil {
				continue
			}
			registerBuiltinFunction(newCastFunction(t))
		}
		registrySealed.Store(true)
	})
}

func newCastFunction(t *Type) *BuiltinFunction {
	cast := t.ExplicitCast
	return &BuiltinFunction{
		Name:   t.Name,
		Doc:    fmt.Sprintf("Converts a value to %s.", t.Name),
		Params: []Parameter{{Name: "value", Nullable: true}},
		Impl: func(scope *Scope, args []Value) (Value, error) {
			if TypeOf(args[0]) == t {
				return args[0], nil
			}
			return cast(scope, args[0])
		},
	}
}

// TypeOf returns the registered type of v.
func TypeOf(v Value) *Type {
	seal()
	return registeredTypes[v.Kind()]
}

func TypeByName(name string) (*Type, bool) {
	seal()
	t, ok := typesByName[name]
	return t, ok
}

// TypeNames returns the names of all registered types in natural order.
func TypeNames() []string {
	seal()
	names := maps.Keys(typesByName)
	slices.SortFunc(names, naturalCompare)
	return names
}

func LookupBuiltin(name string) (*BuiltinFunction, bool) {
	seal()
	fn, ok := builtinFunctions[name]
	return fn, ok
}

// BuiltinNames returns the names of the builtin functions (including cast functions) in natural order.
func BuiltinNames() []string {
	seal()
	names := maps.Keys(builtinFunctions)
	slices.SortFunc(names, naturalCompare)
	return names
}

func naturalCompare(a, b string) int {
	switch {
	case a == b:
		return 0
	case natural.Less(a, b):
		return -1
	default:
		return 1
	}
}
