package core

import (
	"fmt"

	"github.com/inoxlang/tickscript/internal/ast"
)

// EvalExpression evaluates a node in scope, evaluation never suspends.
// Errors are *EvaluationError values positioned at the innermost failing node.
func EvalExpression(node ast.Node, scope *Scope) (result Value, err error) {
	result, err = evalNode(node, scope)
	if err != nil {
		return nil, locateError(err, node.Base())
	}
	return result, nil
}

func evalNode(node ast.Node, scope *Scope) (Value, error) {
	switch n := node.(type) {
	case *ast.NullLiteral:
		return NULL, nil
	case *ast.BooleanLiteral:
		return Bool(n.Value), nil
	case *ast.IntLiteral:
		return Int(n.Value), nil
	case *ast.FloatLiteral:
		return Float(n.Value), nil
	case *ast.StringLiteral:
		return String(n.Value), nil
	case *ast.ListLiteral:
		elements, err := evalNodes(n.Elements, scope)
		if err != nil {
			return nil, err
		}
		return NewList(elements...), nil
	case *ast.SetLiteral:
		elements, err := evalNodes(n.Elements, scope)
		if err != nil {
			return nil, err
		}
		return NewSet(elements...), nil
	case *ast.MapLiteral:
		m := NewMap()
		for _, entry := range n.Entries {
			value, err := EvalExpression(entry.Value, scope)
			if err != nil {
				return nil, err
			}
			m.Set(entry.Key, value)
		}
		return m, nil
	case *ast.Variable:
		variable, _, ok := scope.Lookup(n.Name)
		if ok {
			return variable.Value, nil
		}
		if fn, ok := LookupBuiltin(n.Name); ok {
			return fn, nil
		}
		return nil, NewEvaluationError(ErrUndefinedVariable, n.Name)
	case *ast.GetProperty:
		object, err := EvalExpression(n.Object, scope)
		if err != nil {
			return nil, err
		}
		return getProperty(scope, object, n.Property)
	case *ast.MethodCall:
		object, err := EvalExpression(n.Object, scope)
		if err != nil {
			return nil, err
		}
		args, err := evalNodes(n.Arguments, scope)
		if err != nil {
			return nil, err
		}
		return callMethod(scope, object, n.Method, args)
	case *ast.FunctionCall:
		var callee Value
		if variable, isVar := n.Function.(*ast.Variable); isVar {
			v, _, ok := scope.Lookup(variable.Name)
			if ok {
				callee = v.Value
			} else if fn, ok := LookupBuiltin(variable.Name); ok {
				callee = fn
			} else {
				return nil, NewEvaluationError(ErrNoSuchFunction, variable.Name)
			}
		} else {
			var err error
			callee, err = EvalExpression(n.Function, scope)
			if err != nil {
				return nil, err
			}
		}
		args, err := evalNodes(n.Arguments, scope)
		if err != nil {
			return nil, err
		}
		return callFunction(scope, callee, args)
	case *ast.GetItem:
		container, err := EvalExpression(n.Container, scope)
		if err != nil {
			return nil, err
		}
		key, err := EvalExpression(n.Key, scope)
		if err != nil {
			return nil, err
		}
		return GetItem(scope, container, key)
	case *ast.UnaryOperation:
		operand, err := EvalExpression(n.Operand, scope)
		if err != nil {
			return nil, err
		}
		if n.Operator == ast.Not {
			return Bool(!Truthy(operand)), nil
		}
		return Negate(scope, operand)
	case *ast.BinaryOperation:
		left, err := EvalExpression(n.Left, scope)
		if err != nil {
			return nil, err
		}

		switch n.Operator {
		case ast.And:
			if !Truthy(left) {
				return FALSE, nil
			}
		case ast.Or:
			if Truthy(left) {
				return TRUE, nil
			}
		}

		right, err := EvalExpression(n.Right, scope)
		if err != nil {
			return nil, err
		}
		if n.Operator.IsShortCircuit() {
			return Bool(Truthy(right)), nil
		}
		return BinaryOp(scope, n.Operator, left, right, false)
	default:
		return nil, fmt.Errorf("cannot evaluate %#v (%T)", node, node)
	}
}

func evalNodes(nodes []ast.Node, scope *Scope) ([]Value, error) {
	values := make([]Value, len(nodes))
	for i, n := range nodes {
		v, err := EvalExpression(n, scope)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func getProperty(scope *Scope, object Value, name string) (Value, error) {
	if module, ok := object.(*ModuleValue); ok {
		v, err := module.program.GetVariable(name, true)
		if err != nil {
			if IsUndefinedVariable(err) {
				return nil, NewEvaluationError(ErrNoSuchProperty, MODULE_TYPE.Name, name)
			}
			return nil, err
		}
		return v, nil
	}

	t := TypeOf(object)
	prop, ok := t.Properties[name]
	if !ok {
		return nil, NewEvaluationError(ErrNoSuchProperty, t.Name, name)
	}
	return prop.Get(scope, object)
}

func setProperty(scope *Scope, object Value, name string, value Value) error {
	if module, ok := object.(*ModuleValue); ok {
		return module.program.SetVariable(name, value, true)
	}

	t := TypeOf(object)
	prop, ok := t.Properties[name]
	if !ok {
		return NewEvaluationError(ErrNoSuchProperty, t.Name, name)
	}
	if prop.Set == nil {
		return NewEvaluationError(ErrReadonlyProperty, t.Name, name)
	}
	return prop.Set(scope, object, value)
}
