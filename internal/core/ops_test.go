package core

import (
	"testing"

	"github.com/inoxlang/tickscript/internal/ast"
	"github.com/inoxlang/tickscript/internal/testconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eval evaluates an expression in the global scope of an empty program.
func eval(t *testing.T, node ast.Node) (Value, error) {
	t.Helper()
	p, _ := startProgram(t)
	return EvalExpression(node, p.GlobalScope())
}

func mustEval(t *testing.T, node ast.Node) Value {
	t.Helper()
	v, err := eval(t, node)
	require.NoError(t, err)
	return v
}

func TestNumberOperators(t *testing.T) {
	testconfig.AllowParallelization(t)

	testCases := []struct {
		name        string
		node        ast.Node
		result      Value
		expectedErr error
	}{
		{"int addition", binop(ast.Add, intLit(1), intLit(2)), Int(3), nil},
		{"int and float addition", binop(ast.Add, intLit(1), floatLit(0.5)), Float(1.5), nil},
		{"int subtraction", binop(ast.Sub, intLit(1), intLit(3)), Int(-2), nil},
		{"float multiplication", binop(ast.Mul, floatLit(1.5), intLit(2)), Float(3), nil},
		{"int division is a float", binop(ast.Div, intLit(7), intLit(2)), Float(3.5), nil},
		{"division by zero", binop(ast.Div, intLit(7), intLit(0)), nil, ErrDivisionByZero},
		{"floor division", binop(ast.IntDiv, intLit(7), intLit(2)), Int(3), nil},
		{"floor division of a negative number", binop(ast.IntDiv, intLit(-7), intLit(2)), Int(-4), nil},
		{"floor division by zero", binop(ast.IntDiv, intLit(1), intLit(0)), nil, ErrDivisionByZero},
		{"modulo has the sign of the divisor", binop(ast.Mod, intLit(-7), intLit(3)), Int(2), nil},
		{"float modulo", binop(ast.Mod, floatLit(7.5), intLit(2)), Float(1.5), nil},
		{"modulo by zero", binop(ast.Mod, intLit(1), intLit(0)), nil, ErrDivisionByZero},
		{"int power", binop(ast.Pow, intLit(2), intLit(10)), Int(1024), nil},
		{"negative exponent", binop(ast.Pow, intLit(2), intLit(-1)), Float(0.5), nil},
		{"int overflow wraps around", binop(ast.Add, intLit(9223372036854775807), intLit(1)), Int(-9223372036854775808), nil},
		{"int and float equality", binop(ast.Equal, intLit(1), floatLit(1)), TRUE, nil},
		{"int and string inequality", binop(ast.NotEqual, intLit(1), strLit("1")), TRUE, nil},
		{"comparison", binop(ast.LessThan, intLit(1), floatLit(1.5)), TRUE, nil},
		{"comparison with a string", binop(ast.LessThan, intLit(1), strLit("a")), nil, ErrUnsupportedOperator},
		{"addition of a string", binop(ast.Add, intLit(1), strLit("a")), nil, ErrUnsupportedOperator},
		{"negation", &ast.UnaryOperation{Operator: ast.Negate, Operand: floatLit(2.5)}, Float(-2.5), nil},
		{"not", &ast.UnaryOperation{Operator: ast.Not, Operand: intLit(0)}, TRUE, nil},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			result, err := eval(t, testCase.node)
			if testCase.expectedErr != nil {
				assert.ErrorIs(t, err, testCase.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.result, result)
		})
	}
}

func TestLogicalOperators(t *testing.T) {
	testconfig.AllowParallelization(t)

	t.Run("and short-circuits", func(t *testing.T) {
		v := mustEval(t, binop(ast.And, boolLit(false), ref("undefined")))
		assert.Equal(t, FALSE, v)
	})

	t.Run("or short-circuits", func(t *testing.T) {
		v := mustEval(t, binop(ast.Or, intLit(1), ref("undefined")))
		assert.Equal(t, TRUE, v)
	})

	t.Run("the result is a boolean", func(t *testing.T) {
		v := mustEval(t, binop(ast.And, intLit(1), strLit("a")))
		assert.Equal(t, TRUE, v)

		v = mustEval(t, binop(ast.Or, intLit(0), strLit("")))
		assert.Equal(t, FALSE, v)
	})

	t.Run("the right operand is evaluated if needed", func(t *testing.T) {
		_, err := eval(t, binop(ast.And, boolLit(true), ref("undefined")))
		assert.ErrorIs(t, err, ErrUndefinedVariable)
	})
}

func TestStringType(t *testing.T) {
	testconfig.AllowParallelization(t)

	assert.Equal(t, String("ab"), mustEval(t, binop(ast.Add, strLit("a"), strLit("b"))))
	assert.Equal(t, String("ababab"), mustEval(t, binop(ast.Mul, strLit("ab"), intLit(3))))
	assert.Equal(t, TRUE, mustEval(t, binop(ast.In, strLit("b"), strLit("abc"))))
	assert.Equal(t, TRUE, mustEval(t, binop(ast.LessThan, strLit("a"), strLit("b"))))
	assert.Equal(t, Int(5), mustEval(t, call("len", strLit("héllo"))))

	t.Run("items are characters", func(t *testing.T) {
		assert.Equal(t, String("é"), mustEval(t, &ast.GetItem{Container: strLit("héllo"), Key: intLit(1)}))
		assert.Equal(t, String("o"), mustEval(t, &ast.GetItem{Container: strLit("héllo"), Key: intLit(-1)}))

		_, err := eval(t, &ast.GetItem{Container: strLit("a"), Key: intLit(1)})
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
	})

	t.Run("negative repeat count", func(t *testing.T) {
		_, err := eval(t, binop(ast.Mul, strLit("a"), intLit(-1)))
		assert.ErrorIs(t, err, ErrIllegalArgument)
	})

	t.Run("methods", func(t *testing.T) {
		assert.Equal(t, String("ABC"), mustEval(t, methodCall(strLit("abc"), "upper")))
		assert.Equal(t, String("a"), mustEval(t, methodCall(strLit(" a "), "trim")))
		assert.Equal(t, Int(2), mustEval(t, methodCall(strLit("héllo"), "find", strLit("l"))))
		assert.Equal(t, Int(-1), mustEval(t, methodCall(strLit("abc"), "find", strLit("z"))))
		assert.Equal(t, TRUE, mustEval(t, methodCall(strLit("abc"), "starts_with", strLit("ab"))))
		assert.Equal(t, String("a-b"), mustEval(t, methodCall(strLit("a b"), "replace", strLit(" "), strLit("-"))))

		parts := mustEval(t, methodCall(strLit("a,b"), "split", strLit(",")))
		assert.Equal(t, `["a", "b"]`, Str(parts))

		_, err := eval(t, methodCall(strLit("abc"), "split", intLit(1)))
		assert.ErrorIs(t, err, ErrInvalidArgumentType)

		_, err = eval(t, methodCall(strLit("abc"), "reverse"))
		assert.ErrorIs(t, err, ErrNoSuchMethod)
	})
}

func TestListType(t *testing.T) {
	testconfig.AllowParallelization(t)

	t.Run("string conversion", func(t *testing.T) {
		v := mustEval(t, listLit(intLit(1), strLit("a"), floatLit(2), &ast.NullLiteral{}))
		assert.Equal(t, `[1, "a", 2.0, null]`, Str(v))
	})

	t.Run("items", func(t *testing.T) {
		list := listLit(intLit(1), intLit(2), intLit(3))
		assert.Equal(t, Int(3), mustEval(t, &ast.GetItem{Container: list, Key: intLit(-1)}))

		_, err := eval(t, &ast.GetItem{Container: list, Key: intLit(3)})
		assert.ErrorIs(t, err, ErrIndexOutOfRange)

		_, err = eval(t, &ast.GetItem{Container: list, Key: strLit("a")})
		assert.ErrorIs(t, err, ErrInvalidArgumentType)
	})

	t.Run("concatenation creates a new list", func(t *testing.T) {
		p := execProgram(t,
			declare(1, "a", listLit(intLit(1))),
			declare(2, "b", binop(ast.Add, ref("a"), listLit(intLit(2)))),
		)
		assert.Equal(t, "[1]", Str(getGlobal(t, p, "a")))
		assert.Equal(t, "[1, 2]", Str(getGlobal(t, p, "b")))
	})

	t.Run("compound assignment mutates the list in place", func(t *testing.T) {
		p := execProgram(t,
			declare(1, "a", listLit(intLit(1))),
			declare(2, "alias", ref("a")),
			assign(3, "a", ast.AddAssign, listLit(intLit(2))),
		)
		assert.Equal(t, "[1, 2]", Str(getGlobal(t, p, "alias")))
	})

	t.Run("equality is structural", func(t *testing.T) {
		v := mustEval(t, binop(ast.Equal, listLit(intLit(1), listLit()), listLit(floatLit(1), listLit())))
		assert.Equal(t, TRUE, v)
	})

	t.Run("methods", func(t *testing.T) {
		p := execProgram(t,
			declare(1, "l", listLit(intLit(1), intLit(2), intLit(1))),
			expr(2, methodCall(ref("l"), "add", intLit(4))),
			expr(3, methodCall(ref("l"), "insert", intLit(0), intLit(0))),
			declare(4, "popped", methodCall(ref("l"), "pop")),
			declare(5, "count", methodCall(ref("l"), "count", intLit(1))),
			declare(6, "index", methodCall(ref("l"), "index", intLit(2))),
			declare(7, "copy", methodCall(ref("l"), "copy")),
			expr(8, methodCall(ref("l"), "clear")),
		)
		assert.Equal(t, Int(4), getGlobal(t, p, "popped"))
		assert.Equal(t, Int(2), getGlobal(t, p, "count"))
		assert.Equal(t, Int(2), getGlobal(t, p, "index"))
		assert.Equal(t, "[0, 1, 2, 1]", Str(getGlobal(t, p, "copy")))
		assert.Equal(t, "[]", Str(getGlobal(t, p, "l")))
	})

	t.Run("pop on an empty list", func(t *testing.T) {
		_, err := eval(t, methodCall(listLit(), "pop"))
		assert.ErrorIs(t, err, ErrEmptyCollection)
	})
}

func TestMapType(t *testing.T) {
	testconfig.AllowParallelization(t)

	mapLit := func(entries ...ast.MapEntry) *ast.MapLiteral {
		return &ast.MapLiteral{Entries: entries}
	}

	t.Run("insertion order is kept", func(t *testing.T) {
		v := mustEval(t, mapLit(ast.MapEntry{Key: "b", Value: intLit(1)}, ast.MapEntry{Key: "a", Value: strLit("x")}))
		assert.Equal(t, `{"b": 1, "a": "x"}`, Str(v))
		assert.Equal(t, []string{"b", "a"}, v.(*Map).Keys())
	})

	t.Run("items", func(t *testing.T) {
		p := execProgram(t,
			declare(1, "m", mapLit(ast.MapEntry{Key: "a", Value: intLit(1)})),
			&ast.SetItemStatement{NodeBase: ast.At(2, 1), Target: ref("m"), Key: strLit("b"), Operator: ast.Assign, Value: intLit(2)},
			declare(3, "b", &ast.GetItem{Container: ref("m"), Key: strLit("b")}),
			declare(4, "has_a", binop(ast.In, strLit("a"), ref("m"))),
			declare(5, "missing", methodCall(ref("m"), "get", strLit("z"), intLit(0))),
		)
		assert.Equal(t, Int(2), getGlobal(t, p, "b"))
		assert.Equal(t, TRUE, getGlobal(t, p, "has_a"))
		assert.Equal(t, Int(0), getGlobal(t, p, "missing"))
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := eval(t, &ast.GetItem{Container: mapLit(), Key: strLit("a")})
		assert.ErrorIs(t, err, ErrNoSuchKey)

		_, err = eval(t, &ast.GetItem{Container: mapLit(), Key: intLit(1)})
		assert.ErrorIs(t, err, ErrInvalidArgumentType)
	})

	t.Run("equality ignores order", func(t *testing.T) {
		v := mustEval(t, binop(ast.Equal,
			mapLit(ast.MapEntry{Key: "a", Value: intLit(1)}, ast.MapEntry{Key: "b", Value: intLit(2)}),
			mapLit(ast.MapEntry{Key: "b", Value: intLit(2)}, ast.MapEntry{Key: "a", Value: intLit(1)}),
		))
		assert.Equal(t, TRUE, v)
	})

	t.Run("keys and values", func(t *testing.T) {
		m := mapLit(ast.MapEntry{Key: "a", Value: intLit(1)}, ast.MapEntry{Key: "b", Value: intLit(2)})
		assert.Equal(t, `["a", "b"]`, Str(mustEval(t, methodCall(m, "keys"))))
		assert.Equal(t, `[1, 2]`, Str(mustEval(t, methodCall(m, "values"))))
	})
}

func TestSetType(t *testing.T) {
	testconfig.AllowParallelization(t)

	setLit := func(elements ...ast.Node) *ast.SetLiteral {
		return &ast.SetLiteral{Elements: elements}
	}

	t.Run("equal elements are stored once", func(t *testing.T) {
		v := mustEval(t, setLit(intLit(1), floatLit(1), strLit("1"), listLit(intLit(1)), listLit(intLit(1))))
		assert.Equal(t, 3, v.(*Set).Len())
		assert.Equal(t, `{1, "1", [1]}`, Str(v))
	})

	t.Run("empty set", func(t *testing.T) {
		assert.Equal(t, "{,}", Str(mustEval(t, setLit())))
	})

	t.Run("union and difference", func(t *testing.T) {
		union := mustEval(t, binop(ast.Add, setLit(intLit(1), intLit(2)), setLit(intLit(2), intLit(3))))
		assert.Equal(t, "{1, 2, 3}", Str(union))

		difference := mustEval(t, binop(ast.Sub, setLit(intLit(1), intLit(2)), setLit(intLit(2), intLit(3))))
		assert.Equal(t, "{1}", Str(difference))
	})

	t.Run("membership", func(t *testing.T) {
		assert.Equal(t, TRUE, mustEval(t, binop(ast.In, floatLit(2), setLit(intLit(2)))))
		assert.Equal(t, TRUE, mustEval(t, binop(ast.NotIn, intLit(3), setLit(intLit(2)))))
	})

	t.Run("methods", func(t *testing.T) {
		p := execProgram(t,
			declare(1, "s", setLit(intLit(1))),
			declare(2, "added", methodCall(ref("s"), "add", intLit(1))),
			declare(3, "removed", methodCall(ref("s"), "remove", intLit(1))),
		)
		assert.Equal(t, FALSE, getGlobal(t, p, "added"))
		assert.Equal(t, TRUE, getGlobal(t, p, "removed"))
		assert.Equal(t, 0, getGlobal(t, p, "s").(*Set).Len())
	})

	t.Run("items are not supported", func(t *testing.T) {
		_, err := eval(t, &ast.GetItem{Container: setLit(intLit(1)), Key: intLit(0)})
		assert.ErrorIs(t, err, ErrUnsupportedOperator)
	})
}

func TestRangeType(t *testing.T) {
	testconfig.AllowParallelization(t)

	assert.Equal(t, Int(3), mustEval(t, call("len", call("range", intLit(0), intLit(6), intLit(2)))))
	assert.Equal(t, Int(3), mustEval(t, call("len", call("range", intLit(5), intLit(0), intLit(-2)))))
	assert.Equal(t, Int(0), mustEval(t, call("len", call("range", intLit(5), intLit(0), intLit(1)))))
	assert.Equal(t, Int(4), mustEval(t, &ast.GetItem{Container: call("range", intLit(0), intLit(6), intLit(2)), Key: intLit(-1)}))

	assert.Equal(t, TRUE, mustEval(t, binop(ast.In, intLit(4), call("range", intLit(0), intLit(6), intLit(2)))))
	assert.Equal(t, FALSE, mustEval(t, binop(ast.In, intLit(3), call("range", intLit(0), intLit(6), intLit(2)))))
	assert.Equal(t, TRUE, mustEval(t, binop(ast.In, floatLit(3), call("range", intLit(5), intLit(0), intLit(-1)))))

	assert.Equal(t, "range(0, 6, 2)", Str(mustEval(t, call("range", intLit(0), intLit(6), intLit(2)))))

	_, err := eval(t, call("range", intLit(0), intLit(6), intLit(0)))
	assert.ErrorIs(t, err, ErrIllegalArgument)
}

func TestCasts(t *testing.T) {
	testconfig.AllowParallelization(t)

	testCases := []struct {
		name        string
		node        ast.Node
		result      string
		expectedErr error
	}{
		{"string to int", call("int", strLit(" 42 ")), "42", nil},
		{"float to int truncates", call("int", floatLit(-3.9)), "-3", nil},
		{"boolean to int", call("int", boolLit(true)), "1", nil},
		{"invalid string to int", call("int", strLit("4a")), "", ErrCastFailed},
		{"list to int", call("int", listLit()), "", ErrCastFailed},
		{"int to float", call("float", intLit(2)), "2.0", nil},
		{"string to float", call("float", strLit("2.5")), "2.5", nil},
		{"float to string", call("string", floatLit(1.5)), "1.5", nil},
		{"list to string", call("string", listLit(strLit("a"))), `["a"]`, nil},
		{"int to boolean", call("boolean", intLit(0)), "false", nil},
		{"string to boolean", call("boolean", strLit("a")), "true", nil},
		{"string to list", call("list", strLit("ab")), `["a", "b"]`, nil},
		{"range to list", call("list", call("range", intLit(0), intLit(3), intLit(1))), "[0, 1, 2]", nil},
		{"list to set", call("set", listLit(intLit(1), intLit(1), intLit(2))), "{1, 2}", nil},
		{"int to list", call("list", intLit(1)), "", ErrCastFailed},
		{"identity", call("int", intLit(7)), "7", nil},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			result, err := eval(t, testCase.node)
			if testCase.expectedErr != nil {
				assert.ErrorIs(t, err, testCase.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.result, Str(result))
		})
	}

	t.Run("map has no cast function", func(t *testing.T) {
		_, ok := LookupBuiltin("map")
		assert.False(t, ok)
	})

	t.Run("CastTo", func(t *testing.T) {
		v, err := CastTo(nil, Int(1), STRING_TYPE)
		require.NoError(t, err)
		assert.Equal(t, String("1"), v)

		_, err = CastTo(nil, Int(1), MAP_TYPE)
		assert.ErrorIs(t, err, ErrCastFailed)
	})
}

func TestTruthiness(t *testing.T) {
	testconfig.AllowParallelization(t)

	falsy := []Value{NULL, FALSE, Int(0), Float(0), String(""), NewList(), NewMap(), NewSet(), Range{Start: 0, End: 0, Step: 1}}
	for _, v := range falsy {
		assert.False(t, Truthy(v), Repr(v))
	}

	truthy := []Value{TRUE, Int(-1), Float(0.1), String("a"), NewList(NULL), NewSet(Int(1)), &ErrorValue{}}
	for _, v := range truthy {
		assert.True(t, Truthy(v), Repr(v))
	}
}

func TestRepetitionLimit(t *testing.T) {
	testconfig.AllowParallelization(t)

	t.Run("string", func(t *testing.T) {
		assert.Equal(t, String("ababab"), mustEval(t, binop(ast.Mul, strLit("ab"), intLit(3))))

		_, err := eval(t, binop(ast.Mul, strLit("ab"), intLit(1<<62)))
		assert.ErrorIs(t, err, ErrIllegalArgument)

		_, err = eval(t, binop(ast.Mul, strLit("a"), intLit(MAX_REPETITION_LENGTH+1)))
		assert.ErrorIs(t, err, ErrIllegalArgument)
	})

	t.Run("list", func(t *testing.T) {
		v := mustEval(t, binop(ast.Mul, listLit(intLit(1), intLit(2)), intLit(0)))
		assert.Equal(t, 0, v.(*List).Len())

		_, err := eval(t, binop(ast.Mul, listLit(intLit(1), intLit(2)), intLit(1<<62)))
		assert.ErrorIs(t, err, ErrIllegalArgument)

		_, err = eval(t, binop(ast.Mul, listLit(intLit(1), intLit(2)), intLit(MAX_REPETITION_LENGTH/2+1)))
		assert.ErrorIs(t, err, ErrIllegalArgument)
	})
}

func TestSelfContainingCollections(t *testing.T) {
	testconfig.AllowParallelization(t)

	t.Run("list", func(t *testing.T) {
		a := NewList(Int(1))
		a.Append(a)
		assert.Equal(t, "[1, ...]", Str(a))
		assert.True(t, Equal(a, a))

		b := NewList(Int(1))
		b.Append(b)
		assert.True(t, Equal(a, b))
		assert.False(t, Equal(a, NewList(Int(1), NewList())))
	})

	t.Run("lists containing each other", func(t *testing.T) {
		a := NewList()
		b := NewList(a)
		a.Append(b)
		assert.Equal(t, "[[...]]", Str(a))
		assert.True(t, Equal(a, b))
	})

	t.Run("map", func(t *testing.T) {
		m := NewMap()
		m.Set("self", m)
		assert.Equal(t, `{"self": ...}`, Str(m))
		assert.True(t, Equal(m, m))
	})

	t.Run("set element", func(t *testing.T) {
		l := NewList()
		l.Append(l)

		s := NewSet(l)
		assert.True(t, s.Has(l))
		assert.Equal(t, "{[...]}", Str(s))
	})

	t.Run("nesting deeper than the limit", func(t *testing.T) {
		a, b := NewList(), NewList()
		for i := 0; i < 2*MAX_NESTING_DEPTH; i++ {
			a, b = NewList(a), NewList(b)
		}
		assert.False(t, Equal(a, b))
		assert.Contains(t, Str(a), CYCLE_REPR)
	})
}
