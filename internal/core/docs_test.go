package core

import (
	"testing"

	"github.com/inoxlang/tickscript/internal/testconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentation(t *testing.T) {
	testconfig.AllowParallelization(t)

	t.Run("type", func(t *testing.T) {
		doc, err := Documentation(TYPE_DOC, "range")
		require.NoError(t, err)
		assert.Equal(t, "range\n"+RANGE_TYPE.Doc+"\nproperties: end, start, step", doc)
	})

	t.Run("property", func(t *testing.T) {
		doc, err := Documentation(PROPERTY_DOC, "error.key")
		require.NoError(t, err)
		assert.Equal(t, "error.key (read-only)\nCategory of the error.", doc)

		_, err = Documentation(PROPERTY_DOC, "error.unknown")
		assert.ErrorIs(t, err, ErrNoDocumentation)

		_, err = Documentation(PROPERTY_DOC, "error")
		assert.ErrorIs(t, err, ErrNoDocumentation)
	})

	t.Run("method", func(t *testing.T) {
		doc, err := Documentation(METHOD_DOC, "list.insert")
		require.NoError(t, err)
		assert.Equal(t, "list.insert(index int, value any?)\nInserts a value before the element at index.", doc)
	})

	t.Run("function", func(t *testing.T) {
		doc, err := Documentation(FUNCTION_DOC, "sqrt")
		require.NoError(t, err)
		assert.Equal(t, "sqrt(number float)\nReturns the square root of a number.", doc)

		doc, err = Documentation(FUNCTION_DOC, "int")
		require.NoError(t, err)
		assert.Equal(t, "int(value any?)\nConverts a value to int.", doc)

		_, err = Documentation(FUNCTION_DOC, "undefined")
		assert.ErrorIs(t, err, ErrNoDocumentation)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := Documentation("keyword", "if")
		assert.ErrorIs(t, err, ErrUnknownDocKind)
	})

	t.Run("every type and builtin is documented", func(t *testing.T) {
		for _, name := range TypeNames() {
			typ, _ := TypeByName(name)
			assert.NotEmpty(t, typ.Doc, name)
			for _, method := range typ.Methods {
				assert.NotEmpty(t, method.Doc, name+"."+method.Name)
			}
			for _, prop := range typ.Properties {
				assert.NotEmpty(t, prop.Doc, name+"."+prop.Name)
			}
		}
		for _, name := range BuiltinNames() {
			fn, _ := LookupBuiltin(name)
			assert.NotEmpty(t, fn.Doc, name)
		}
	})
}
