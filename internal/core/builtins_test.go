package core

import (
	"bytes"
	"testing"

	"github.com/inoxlang/tickscript/internal/ast"
	"github.com/inoxlang/tickscript/internal/testconfig"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinFunctions(t *testing.T) {
	testconfig.AllowParallelization(t)

	testCases := []struct {
		name        string
		result      string
		fn          string
		args        []Value
		expectedErr error
	}{
		{"len of a list", "2", "len", []Value{NewList(Int(1), Int(2))}, nil},
		{"len of a map", "0", "len", []Value{NewMap()}, nil},
		{"len of an int", "", "len", []Value{Int(1)}, ErrInvalidArgumentType},
		{"type", "float", "type", []Value{Float(1)}, nil},
		{"type of null", "null", "type", []Value{NULL}, nil},
		{"repr", `"a"`, "repr", []Value{String("a")}, nil},
		{"abs of an int", "3", "abs", []Value{Int(-3)}, nil},
		{"abs of a float", "0.5", "abs", []Value{Float(-0.5)}, nil},
		{"abs of a string", "", "abs", []Value{String("a")}, ErrInvalidArgumentType},
		{"min", "1", "min", []Value{Int(1), Float(2)}, nil},
		{"min of strings", "a", "min", []Value{String("b"), String("a")}, nil},
		{"max", "2.0", "max", []Value{Int(1), Float(2)}, nil},
		{"max of incomparable values", "", "max", []Value{Int(1), NewList()}, ErrUnsupportedOperator},
		{"floor", "-3", "floor", []Value{Float(-2.5)}, nil},
		{"ceil", "3", "ceil", []Value{Float(2.1)}, nil},
		{"round", "3", "round", []Value{Float(2.5)}, nil},
		{"round of an int", "2", "round", []Value{Int(2)}, nil},
		{"round of a string", "", "round", []Value{String("2")}, ErrInvalidArgumentType},
		{"sqrt", "2.0", "sqrt", []Value{Int(4)}, nil},
		{"sqrt of a negative number", "", "sqrt", []Value{Float(-1)}, ErrIllegalArgument},
		{"range with a zero step", "", "range", []Value{Int(0), Int(1), Int(0)}, ErrIllegalArgument},
		{"wrong argument count", "", "len", []Value{}, ErrWrongArgumentCount},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			p, _ := startProgram(t)
			fn, ok := LookupBuiltin(testCase.fn)
			require.True(t, ok)

			result, err := callFunction(p.GlobalScope(), fn, testCase.args)
			if testCase.expectedErr != nil {
				assert.ErrorIs(t, err, testCase.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.result, Str(result))
		})
	}

	t.Run("builtins can be shadowed", func(t *testing.T) {
		p := execProgram(t,
			declare(1, "len", intLit(3)),
			declare(2, "x", ref("len")),
		)
		assert.Equal(t, Int(3), getGlobal(t, p, "x"))
	})

	t.Run("builtins are values", func(t *testing.T) {
		p := execProgram(t,
			declare(1, "f", ref("len")),
			declare(2, "n", call("f", strLit("abc"))),
			declare(3, "name", &ast.GetProperty{Object: ref("f"), Property: "name"}),
		)
		assert.Equal(t, Int(3), getGlobal(t, p, "n"))
		assert.Equal(t, String("len"), getGlobal(t, p, "name"))
	})

	t.Run("unknown function", func(t *testing.T) {
		_, err := eval(t, call("undefined"))
		assert.ErrorIs(t, err, ErrNoSuchFunction)
	})
}

func TestLogBuiltin(t *testing.T) {
	testconfig.AllowParallelization(t)

	buf := bytes.NewBuffer(nil)
	manager := newTestManager(t, ModuleMap{"main": newModule(expr(1, call("log", listLit(strLit("a"), intLit(1)))))}, func(config *ProgramManagerConfig) {
		config.Logger = zerolog.New(buf)
	})
	_, err := manager.LoadProgram("main", "", false, nil)
	require.NoError(t, err)
	require.NoError(t, manager.RunProgram("main"))
	require.Empty(t, manager.AdvanceAll())

	output := buf.String()
	assert.Contains(t, output, `"src":"/script"`)
	assert.Contains(t, output, `"program":"main"`)
	assert.Contains(t, output, `"msg":"[\"a\", 1]"`)
}
