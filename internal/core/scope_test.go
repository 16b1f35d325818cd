package core

import (
	"testing"

	"github.com/inoxlang/tickscript/internal/testconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScope(t *testing.T) {
	testconfig.AllowParallelization(t)

	t.Run("declaration order is kept", func(t *testing.T) {
		scope := NewScope(nil, nil)
		for _, name := range []string{"b", "a", "c"} {
			require.NoError(t, scope.DeclareVariable(&Variable{Name: name, Value: NULL, Deletable: true}))
		}
		require.NoError(t, scope.DeleteVariable("a", false))

		var names []string
		for _, v := range scope.Variables() {
			names = append(names, v.Name)
		}
		assert.Equal(t, []string{"b", "c"}, names)
		assert.Equal(t, 2, scope.Len())
	})

	t.Run("names are unique in a scope", func(t *testing.T) {
		scope := NewScope(nil, nil)
		require.NoError(t, scope.DeclareVariable(&Variable{Name: "a", Value: NULL}))
		assert.ErrorIs(t, scope.DeclareVariable(&Variable{Name: "a", Value: NULL}), ErrVariableAlreadyDeclared)
	})

	t.Run("lookup searches the ancestors", func(t *testing.T) {
		global := NewScope(nil, nil)
		require.NoError(t, global.DeclareVariable(&Variable{Name: "a", Value: Int(1)}))
		child := NewScope(global, nil)
		require.NoError(t, child.DeclareVariable(&Variable{Name: "a", Value: Int(2)}))
		grandChild := NewScope(child, nil)

		v, owner, ok := grandChild.Lookup("a")
		require.True(t, ok)
		assert.Same(t, child, owner)
		assert.Equal(t, Int(2), v.Value)

		assert.True(t, global.IsGlobal())
		assert.False(t, grandChild.IsGlobal())
	})

	t.Run("assignment updates the nearest variable", func(t *testing.T) {
		global := NewScope(nil, nil)
		require.NoError(t, global.DeclareVariable(&Variable{Name: "a", Value: Int(1)}))
		child := NewScope(global, nil)

		require.NoError(t, child.SetVariable("a", Int(3), false))
		v, err := global.GetVariable("a", false)
		require.NoError(t, err)
		assert.Equal(t, Int(3), v)
		assert.Zero(t, child.Len())
	})

	t.Run("deletion removes the variable from its owner", func(t *testing.T) {
		global := NewScope(nil, nil)
		require.NoError(t, global.DeclareVariable(&Variable{Name: "a", Value: Int(1), Deletable: true}))
		child := NewScope(global, nil)

		require.NoError(t, child.DeleteVariable("a", false))
		_, err := global.GetVariable("a", false)
		assert.ErrorIs(t, err, ErrUndefinedVariable)
	})

	t.Run("flags", func(t *testing.T) {
		scope := NewScope(nil, nil)
		require.NoError(t, scope.DeclareVariable(&Variable{Name: "private", Value: Int(0), Deletable: true}))
		require.NoError(t, scope.DeclareVariable(&Variable{Name: "readonly", Value: Int(0), Public: true}))
		require.NoError(t, scope.DeclareVariable(&Variable{Name: "editable", Value: Int(0), Public: true, Editable: true}))
		require.NoError(t, scope.DeclareVariable(&Variable{Name: "constant", Value: Int(0), Public: true, Editable: true, Constant: true}))

		_, err := scope.GetVariable("private", true)
		assert.ErrorIs(t, err, ErrNotPublic)
		assert.ErrorIs(t, scope.SetVariable("private", Int(1), true), ErrNotPublic)
		assert.ErrorIs(t, scope.DeleteVariable("private", true), ErrNotPublic)

		assert.ErrorIs(t, scope.SetVariable("readonly", Int(1), true), ErrNotEditable)
		assert.NoError(t, scope.SetVariable("readonly", Int(1), false))
		assert.ErrorIs(t, scope.DeleteVariable("readonly", false), ErrNotDeletable)

		assert.NoError(t, scope.SetVariable("editable", Int(1), true))

		assert.ErrorIs(t, scope.SetVariable("constant", Int(1), true), ErrNotEditable)
		assert.ErrorIs(t, scope.SetVariable("constant", Int(1), false), ErrNotEditable)

		assert.ErrorIs(t, scope.SetVariable("undefined", Int(1), false), ErrUndefinedVariable)
		assert.ErrorIs(t, scope.DeleteVariable("undefined", false), ErrUndefinedVariable)
	})
}
