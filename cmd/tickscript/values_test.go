package main

import (
	"testing"

	"github.com/inoxlang/tickscript/internal/core"
	"github.com/inoxlang/tickscript/internal/hosttypes"
	"github.com/inoxlang/tickscript/internal/testconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	testconfig.AllowParallelization(t)

	entities := hosttypes.NewEntityRegistry()

	testCases := []struct {
		input  string
		result string
	}{
		{"null", "null"},
		{"true", "true"},
		{"12", "12"},
		{"-1.5", "-1.5"},
		{"1e3", "1000.0"},
		{` "a b" `, `"a b"`},
		{`[1, "a", [null]]`, `[1, "a", [null]]`},
		{`{"b10": 1, "b2": {"a": []}}`, `{"b2": {"a": []}, "b10": 1}`},
	}

	for _, testCase := range testCases {
		t.Run(testCase.input, func(t *testing.T) {
			v, err := parseValue(testCase.input, entities)
			require.NoError(t, err)
			assert.Equal(t, testCase.result, core.Repr(v))
		})
	}

	t.Run("entity reference", func(t *testing.T) {
		e := entities.Spawn("bob")
		v, err := parseValue("@"+e.ID.String(), entities)
		require.NoError(t, err)
		assert.Same(t, e, v)

		entities.Remove(e.ID)
		_, err = parseValue("@"+e.ID.String(), entities)
		assert.ErrorIs(t, err, hosttypes.ErrEntityNotFound)

		_, err = parseValue("@bob", entities)
		assert.ErrorIs(t, err, ErrInvalidValue)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		for _, input := range []string{"", "abc", "[1,", "1 2"} {
			_, err := parseValue(input, entities)
			assert.ErrorIs(t, err, ErrInvalidValue, input)
		}
	})
}
