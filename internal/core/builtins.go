package core

import (
	"math"
)

func init() {
	builtins := []*BuiltinFunction{
		{
			Name:   "log",
			Doc:    "Writes the string representation of a value to the log of the program.",
			Params: []Parameter{{Name: "value", Nullable: true}},
			Impl: func(scope *Scope, args []Value) (Value, error) {
				logger := scriptLogger(scope.Program())
				logger.Info().Msg(Str(args[0]))
				return NULL, nil
			},
		},
		{
			Name:   "len",
			Doc:    "Returns the length of a string or a collection.",
			Params: []Parameter{{Name: "value"}},
			Impl: func(scope *Scope, args []Value) (Value, error) {
				n, err := Len(args[0])
				if err != nil {
					return nil, err
				}
				return Int(n), nil
			},
		},
		{
			Name:   "range",
			Doc:    "Returns the range of integers from start (inclusive) to end (exclusive) with the given step.",
			Params: []Parameter{{Name: "start", Type: INT_TYPE}, {Name: "end", Type: INT_TYPE}, {Name: "step", Type: INT_TYPE}},
			Impl: func(scope *Scope, args []Value) (Value, error) {
				step := args[2].(Int)
				if step == 0 {
					return nil, NewEvaluationError(ErrIllegalArgument, "step", "0")
				}
				return Range{Start: int64(args[0].(Int)), End: int64(args[1].(Int)), Step: int64(step)}, nil
			},
		},
		{
			Name:   "type",
			Doc:    "Returns the name of the type of a value.",
			Params: []Parameter{{Name: "value", Nullable: true}},
			Impl: func(scope *Scope, args []Value) (Value, error) {
				return String(TypeOf(args[0]).Name), nil
			},
		},
		{
			Name:   "repr",
			Doc:    "Returns the representation of a value, strings are quoted.",
			Params: []Parameter{{Name: "value", Nullable: true}},
			Impl: func(scope *Scope, args []Value) (Value, error) {
				return String(Repr(args[0])), nil
			},
		},
		{
			Name:   "abs",
			Doc:    "Returns the absolute value of a number.",
			Params: []Parameter{{Name: "number"}},
			Impl: func(scope *Scope, args []Value) (Value, error) {
				switch n := args[0].(type) {
				case Int:
					if n < 0 {
						return -n, nil
					}
					return n, nil
				case Float:
					return Float(math.Abs(float64(n))), nil
				default:
					return nil, NewEvaluationError(ErrInvalidArgumentType, "abs", "number", FLOAT_TYPE.Name, TypeOf(n).Name)
				}
			},
		},
		{
			Name:   "min",
			Doc:    "Returns the smallest of two values.",
			Params: []Parameter{{Name: "a"}, {Name: "b"}},
			Impl: func(scope *Scope, args []Value) (Value, error) {
				c, err := Compare(scope, args[0], args[1])
				if err != nil {
					return nil, err
				}
				if c <= 0 {
					return args[0], nil
				}
				return args[1], nil
			},
		},
		{
			Name:   "max",
			Doc:    "Returns the greatest of two values.",
			Params: []Parameter{{Name: "a"}, {Name: "b"}},
			Impl: func(scope *Scope, args []Value) (Value, error) {
				c, err := Compare(scope, args[0], args[1])
				if err != nil {
					return nil, err
				}
				if c >= 0 {
					return args[0], nil
				}
				return args[1], nil
			},
		},
		roundingFunction("floor", "Rounds a number down to an integer.", math.Floor),
		roundingFunction("ceil", "Rounds a number up to an integer.", math.Ceil),
		roundingFunction("round", "Rounds a number to the nearest integer, halves are rounded away from zero.", math.Round),
		{
			Name:   "sqrt",
			Doc:    "Returns the square root of a number.",
			Params: []Parameter{{Name: "number", Type: FLOAT_TYPE}},
			Impl: func(scope *Scope, args []Value) (Value, error) {
				f := args[0].(Float)
				if f < 0 {
					return nil, NewEvaluationError(ErrIllegalArgument, "number", Repr(f))
				}
				return Float(math.Sqrt(float64(f))), nil
			},
		},
	}

	for _, fn := range builtins {
		registerBuiltinFunction(fn)
	}
}

func roundingFunction(name, doc string, round func(float64) float64) *BuiltinFunction {
	return &BuiltinFunction{
		Name:   name,
		Doc:    doc,
		Params: []Parameter{{Name: "number", Type: FLOAT_TYPE}},
		Impl: func(scope *Scope, args []Value) (Value, error) {
			f := float64(args[0].(Float))
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, NewEvaluationError(ErrCastFailed, Repr(args[0]), INT_TYPE.Name)
			}
			return Int(round(f)), nil
		},
	}
}
