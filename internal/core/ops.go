package core

import (
	"github.com/inoxlang/tickscript/internal/ast"
)

// Str returns the string conversion of v, it is the result of the string cast.
func Str(v Value) string {
	t := TypeOf(v)
	if t.Str != nil {
		return t.Str(v)
	}
	return "<" + t.Name + ">"
}

// Repr returns a source-like representation of v: strings are quoted.
func Repr(v Value) string {
	t := TypeOf(v)
	if t.Repr != nil {
		return t.Repr(v)
	}
	return Str(v)
}

func Truthy(v Value) bool {
	t := TypeOf(v)
	if t.Truthy != nil {
		return t.Truthy(v)
	}
	return true
}

// Equal uses the Equal hook of the left operand's type, values of types without hook are equal if they are identical.
func Equal(a, b Value) bool {
	t := TypeOf(a)
	if t.Equal != nil {
		return t.Equal(a, b)
	}
	return a == b
}

func Compare(scope *Scope, a, b Value) (int, error) {
	t := TypeOf(a)
	if t.Compare == nil {
		return 0, fmtUnsupportedOperation("comparison", a, b)
	}
	return t.Compare(scope, a, b)
}

func Contains(scope *Scope, container, item Value) (bool, error) {
	t := TypeOf(container)
	if t.Contains == nil {
		return false, fmtUnsupportedOperation(ast.In.String(), item, container)
	}
	return t.Contains(scope, container, item)
}

func Len(v Value) (int, error) {
	t := TypeOf(v)
	if t.Len == nil {
		return 0, NewEvaluationError(ErrInvalidArgumentType, "len", "value", "collection", t.Name)
	}
	return t.Len(v), nil
}

func Iterate(v Value) ([]Value, error) {
	t := TypeOf(v)
	if t.Iterate == nil {
		return nil, NewEvaluationError(ErrNotIterable, t.Name)
	}
	return t.Iterate(v), nil
}

func GetItem(scope *Scope, container, key Value) (Value, error) {
	t := TypeOf(container)
	if t.GetItem == nil {
		return nil, fmtUnsupportedOperation("[]", container, key)
	}
	return t.GetItem(scope, container, key)
}

func SetItem(scope *Scope, container, key, value Value) error {
	t := TypeOf(container)
	if t.SetItem == nil {
		return fmtUnsupportedOperation("[]=", container, key)
	}
	return t.SetItem(scope, container, key, value)
}

func DeleteItem(scope *Scope, container, key Value) error {
	t := TypeOf(container)
	if t.DeleteItem == nil {
		return fmtUnsupportedOperation("del", container, key)
	}
	return t.DeleteItem(scope, container, key)
}

func Negate(scope *Scope, v Value) (Value, error) {
	t := TypeOf(v)
	if t.Neg == nil {
		return nil, fmtUnsupportedOperation(ast.Negate.String(), v, nil)
	}
	return t.Neg(scope, v)
}

// BinaryOp applies a non short-circuit binary operator, the type of left decides the behavior except for
// 'in' and 'not in' that are decided by the container (right operand).
func BinaryOp(scope *Scope, op ast.BinaryOperator, left, right Value, inPlace bool) (Value, error) {
	t := TypeOf(left)
	var hook func(scope *Scope, self, other Value, inPlace bool) (Value, error)

	switch op {
	case ast.Add:
		hook = t.Add
	case ast.Sub:
		hook = t.Sub
	case ast.Mul:
		hook = t.Mul
	case ast.Div:
		hook = t.Div
	case ast.IntDiv:
		hook = t.IntDiv
	case ast.Mod:
		hook = t.Mod
	case ast.Pow:
		hook = t.Pow
	case ast.Equal:
		return Bool(Equal(left, right)), nil
	case ast.NotEqual:
		return Bool(!Equal(left, right)), nil
	case ast.GreaterThan, ast.GreaterOrEqual, ast.LessThan, ast.LessOrEqual:
		if t.Compare == nil {
			return nil, fmtUnsupportedOperation(op.String(), left, right)
		}
		cmp, err := t.Compare(scope, left, right)
		if err != nil {
			return nil, err
		}
		switch op {
		case ast.GreaterThan:
			return Bool(cmp > 0), nil
		case ast.GreaterOrEqual:
			return Bool(cmp >= 0), nil
		case ast.LessThan:
			return Bool(cmp < 0), nil
		default:
			return Bool(cmp <= 0), nil
		}
	case ast.In, ast.NotIn:
		ok, err := Contains(scope, right, left)
		if err != nil {
			return nil, err
		}
		return Bool(ok == (op == ast.In)), nil
	case ast.And:
		return Bool(Truthy(left) && Truthy(right)), nil
	case ast.Or:
		return Bool(Truthy(left) || Truthy(right)), nil
	}

	if hook == nil {
		return nil, fmtUnsupportedOperation(op.String(), left, right)
	}
	return hook(scope, left, right, inPlace)
}

// CastTo applies the explicit cast of t to v.
func CastTo(scope *Scope, v Value, t *Type) (Value, error) {
	if TypeOf(v) == t {
		return v, nil
	}
	if t.ExplicitCast == nil {
		return nil, NewEvaluationError(ErrCastFailed, TypeOf(v).Name, t.Name)
	}
	return t.ExplicitCast(scope, v)
}
