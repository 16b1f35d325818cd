package core

import (
	"fmt"
	"strconv"

	"github.com/inoxlang/tickscript/internal/ast"
	"github.com/inoxlang/tickscript/internal/compound"
)

var (
	ANY_TYPE = &Type{
		Name:     "any",
		Doc:      "Abstract type of all values, it is only used to describe parameters.",
		Abstract: true,
	}
	NULL_TYPE     = &Type{Name: "null", Doc: "Type of the null value."}
	BOOLEAN_TYPE  = &Type{Name: "boolean", Doc: "Type of true and false."}
	INT_TYPE      = &Type{Name: "int", Doc: "64-bit signed integer, operations overflow by wrapping around."}
	FLOAT_TYPE    = &Type{Name: "float", Doc: "64-bit floating point number."}
	STRING_TYPE   = &Type{Name: "string", Doc: "Immutable sequence of characters."}
	LIST_TYPE     = &Type{Name: "list", Doc: "Mutable sequence of values, negative indexes start from the end."}
	MAP_TYPE      = &Type{Name: "map", Doc: "Mutable mapping from strings to values, the insertion order of keys is kept."}
	SET_TYPE      = &Type{Name: "set", Doc: "Mutable set of values, the insertion order of elements is kept."}
	RANGE_TYPE    = &Type{Name: "range", Doc: "Immutable arithmetic progression of integers, the end is exclusive."}
	FUNCTION_TYPE = &Type{Name: "function", Doc: "User-defined or builtin function."}
	MODULE_TYPE   = &Type{Name: "module", Doc: "Imported program, its public variables are accessible as properties."}
	ERROR_TYPE    = &Type{Name: "error", Doc: "Runtime error caught by a try statement."}
)

func init() {
	builtinTypes := []*Type{
		AnyKind:      ANY_TYPE,
		NullKind:     NULL_TYPE,
		BoolKind:     BOOLEAN_TYPE,
		IntKind:      INT_TYPE,
		FloatKind:    FLOAT_TYPE,
		StringKind:   STRING_TYPE,
		ListKind:     LIST_TYPE,
		MapKind:      MAP_TYPE,
		SetKind:      SET_TYPE,
		RangeKind:    RANGE_TYPE,
		FunctionKind: FUNCTION_TYPE,
		ModuleKind:   MODULE_TYPE,
		ErrorKind:    ERROR_TYPE,
	}

	for kind, t := range builtinTypes {
		RegisterType(t)
		if t.Kind != TypeKind(kind) {
			panic(fmt.Errorf("built-in type %s should have been registered first", t.Name))
		}
	}

	//null

	NULL_TYPE.Str = func(self Value) string { return "null" }
	NULL_TYPE.Truthy = func(self Value) bool { return false }
	NULL_TYPE.Encode = func(ctx *EncodeContext, v Value) (compound.Compound, error) {
		return compound.New(), nil
	}
	NULL_TYPE.Decode = func(ctx *DecodeContext, c compound.Compound) (Value, error) {
		return NULL, nil
	}

	//boolean

	BOOLEAN_TYPE.Str = func(self Value) string { return strconv.FormatBool(bool(self.(Bool))) }
	BOOLEAN_TYPE.Truthy = func(self Value) bool { return bool(self.(Bool)) }
	BOOLEAN_TYPE.ExplicitCast = func(scope *Scope, v Value) (Value, error) {
		return Bool(Truthy(v)), nil
	}
	BOOLEAN_TYPE.Encode = func(ctx *EncodeContext, v Value) (compound.Compound, error) {
		return compound.New().PutBool("Value", bool(v.(Bool))), nil
	}
	BOOLEAN_TYPE.Decode = func(ctx *DecodeContext, c compound.Compound) (Value, error) {
		b, err := c.Bool("Value")
		return Bool(b), err
	}

	//range

	RANGE_TYPE.Str = func(self Value) string {
		r := self.(Range)
		return fmt.Sprintf("range(%d, %d, %d)", r.Start, r.End, r.Step)
	}
	RANGE_TYPE.Truthy = func(self Value) bool { return self.(Range).Len() > 0 }
	RANGE_TYPE.Len = func(self Value) int { return int(self.(Range).Len()) }
	RANGE_TYPE.Iterate = func(self Value) []Value {
		r := self.(Range)
		elements := make([]Value, r.Len())
		for i := range elements {
			elements[i] = r.At(int64(i))
		}
		return elements
	}
	RANGE_TYPE.Contains = func(scope *Scope, self, item Value) (bool, error) {
		switch i := item.(type) {
		case Int:
			return self.(Range).Contains(int64(i)), nil
		case Float:
			if float64(i) != float64(int64(i)) {
				return false, nil
			}
			return self.(Range).Contains(int64(i)), nil
		}
		return false, nil
	}
	RANGE_TYPE.GetItem = func(scope *Scope, self, key Value) (Value, error) {
		r := self.(Range)
		i, ok := key.(Int)
		if !ok {
			return nil, NewEvaluationError(ErrInvalidArgumentType, "[]", "index", INT_TYPE.Name, TypeOf(key).Name)
		}
		if i < 0 {
			i += Int(r.Len())
		}
		if i < 0 || int64(i) >= r.Len() {
			return nil, NewEvaluationError(ErrIndexOutOfRange, Str(key))
		}
		return r.At(int64(i)), nil
	}
	RANGE_TYPE.Properties = map[string]*Property{
		"start": {Name: "start", Doc: "First element of the range.", Get: func(scope *Scope, self Value) (Value, error) {
			return Int(self.(Range).Start), nil
		}},
		"end": {Name: "end", Doc: "Exclusive end of the range.", Get: func(scope *Scope, self Value) (Value, error) {
			return Int(self.(Range).End), nil
		}},
		"step": {Name: "step", Doc: "Difference between two consecutive elements.", Get: func(scope *Scope, self Value) (Value, error) {
			return Int(self.(Range).Step), nil
		}},
	}
	RANGE_TYPE.Encode = func(ctx *EncodeContext, v Value) (compound.Compound, error) {
		r := v.(Range)
		return compound.New().PutInt("Start", r.Start).PutInt("End", r.End).PutInt("Step", r.Step), nil
	}
	RANGE_TYPE.Decode = func(ctx *DecodeContext, c compound.Compound) (Value, error) {
		return decodeRange(c)
	}

	//function

	FUNCTION_TYPE.Str = func(self Value) string {
		switch fn := self.(type) {
		case *UserFunction:
			return "<function " + fn.Name() + ">"
		case *BuiltinFunction:
			return "<builtin function " + fn.Name + ">"
		}
		return "<function>"
	}
	FUNCTION_TYPE.Properties = map[string]*Property{
		"name": {Name: "name", Doc: "Name of the function.", Get: func(scope *Scope, self Value) (Value, error) {
			if fn, ok := self.(*UserFunction); ok {
				return String(fn.Name()), nil
			}
			return String(self.(*BuiltinFunction).Name), nil
		}},
	}
	FUNCTION_TYPE.Equal = func(self, other Value) bool {
		fn, ok := self.(*UserFunction)
		if !ok {
			return self == other
		}
		otherFn, ok := other.(*UserFunction)
		if !ok {
			return false
		}
		//a decoded function is a new value, the definition is identified by its position in the owner's module.
		return fn == otherFn || (fn.owner == otherFn.owner &&
			fn.Definition.Name == otherFn.Definition.Name &&
			fn.Definition.Line == otherFn.Definition.Line &&
			fn.Definition.Column == otherFn.Definition.Column)
	}
	FUNCTION_TYPE.Encode = func(ctx *EncodeContext, v Value) (compound.Compound, error) {
		switch fn := v.(type) {
		case *UserFunction:
			owner, ok := ctx.programID(fn.owner)
			if !ok {
				return nil, NewEvaluationError(ErrValueNotSerializable, FUNCTION_TYPE.Name)
			}
			return compound.New().
				PutInt("Owner", owner).
				PutCompound("Definition", ast.EncodeStatement(fn.Definition)), nil
		case *BuiltinFunction:
			return compound.New().PutString("Builtin", fn.Name), nil
		}
		return nil, NewEvaluationError(ErrValueNotSerializable, FUNCTION_TYPE.Name)
	}
	FUNCTION_TYPE.Decode = func(ctx *DecodeContext, c compound.Compound) (Value, error) {
		if c.Has("Builtin") {
			name, err := c.String("Builtin")
			if err != nil {
				return nil, err
			}
			fn, ok := LookupBuiltin(name)
			if !ok {
				return nil, NewEvaluationError(ErrNoSuchFunction, name)
			}
			return fn, nil
		}

		ownerID, err := c.Int("Owner")
		if err != nil {
			return nil, err
		}
		owner, err := ctx.program(ownerID)
		if err != nil {
			return nil, err
		}
		definition, err := c.Compound("Definition")
		if err != nil {
			return nil, err
		}
		stmt, err := ast.DecodeStatement(definition)
		if err != nil {
			return nil, err
		}
		def, ok := stmt.(*ast.DefineFunctionStatement)
		if !ok {
			return nil, fmt.Errorf("%w: function definition expected", compound.ErrInvalidFieldType)
		}
		return newUserFunction(def, owner), nil
	}

	//module

	MODULE_TYPE.Str = func(self Value) string {
		return "<module " + self.(*ModuleValue).program.ModuleName() + ">"
	}
	MODULE_TYPE.Equal = func(self, other Value) bool {
		m, ok := other.(*ModuleValue)
		return ok && m.program == self.(*ModuleValue).program
	}
	MODULE_TYPE.Encode = func(ctx *EncodeContext, v Value) (compound.Compound, error) {
		id, ok := ctx.programID(v.(*ModuleValue).program)
		if !ok {
			return nil, NewEvaluationError(ErrValueNotSerializable, MODULE_TYPE.Name)
		}
		return compound.New().PutInt("Program", id), nil
	}
	MODULE_TYPE.Decode = func(ctx *DecodeContext, c compound.Compound) (Value, error) {
		id, err := c.Int("Program")
		if err != nil {
			return nil, err
		}
		program, err := ctx.program(id)
		if err != nil {
			return nil, err
		}
		return &ModuleValue{program: program}, nil
	}

	//error

	ERROR_TYPE.Str = func(self Value) string {
		e := self.(*ErrorValue)
		return "<error " + e.Key + ": " + e.Message + ">"
	}
	ERROR_TYPE.Properties = map[string]*Property{
		"key": {Name: "key", Doc: "Category of the error.", Get: func(scope *Scope, self Value) (Value, error) {
			return String(self.(*ErrorValue).Key), nil
		}},
		"message": {Name: "message", Doc: "Message of the error.", Get: func(scope *Scope, self Value) (Value, error) {
			return String(self.(*ErrorValue).Message), nil
		}},
		"args": {Name: "args", Doc: "Arguments of the error message.", Get: func(scope *Scope, self Value) (Value, error) {
			return stringList(self.(*ErrorValue).Args), nil
		}},
		"line": {Name: "line", Doc: "Line of the statement that raised the error.", Get: func(scope *Scope, self Value) (Value, error) {
			return Int(self.(*ErrorValue).Line), nil
		}},
		"column": {Name: "column", Doc: "Column of the statement that raised the error.", Get: func(scope *Scope, self Value) (Value, error) {
			return Int(self.(*ErrorValue).Column), nil
		}},
	}
	ERROR_TYPE.Encode = func(ctx *EncodeContext, v Value) (compound.Compound, error) {
		e := v.(*ErrorValue)
		return compound.New().
			PutString("Key", e.Key).
			PutStrings("Args", e.Args).
			PutString("Message", e.Message).
			PutInt("Line", int64(e.Line)).
			PutInt("Column", int64(e.Column)), nil
	}
	ERROR_TYPE.Decode = func(ctx *DecodeContext, c compound.Compound) (Value, error) {
		e := &ErrorValue{}
		var err error
		if e.Key, err = c.String("Key"); err != nil {
			return nil, err
		}
		if e.Args, err = c.Strings("Args"); err != nil {
			return nil, err
		}
		if e.Message, err = c.String("Message"); err != nil {
			return nil, err
		}
		line, err := c.Int("Line")
		if err != nil {
			return nil, err
		}
		column, err := c.Int("Column")
		if err != nil {
			return nil, err
		}
		e.Line, e.Column = int(line), int(column)
		return e, nil
	}
}

func decodeRange(c compound.Compound) (Range, error) {
	start, err := c.Int("Start")
	if err != nil {
		return Range{}, err
	}
	end, err := c.Int("End")
	if err != nil {
		return Range{}, err
	}
	step, err := c.Int("Step")
	if err != nil {
		return Range{}, err
	}
	if step == 0 {
		return Range{}, NewEvaluationError(ErrIllegalArgument, "step", "0")
	}
	return Range{Start: start, End: end, Step: step}, nil
}

func stringList(strings []string) *List {
	elements := make([]Value, len(strings))
	for i, s := range strings {
		elements[i] = String(s)
	}
	return NewList(elements...)
}
