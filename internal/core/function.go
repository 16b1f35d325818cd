package core

import (
	"github.com/inoxlang/tickscript/internal/ast"
)

// A BuiltinFunction is a native function callable from scripts, its arguments are checked against Params
// before Impl is called.
type BuiltinFunction struct {
	Name   string
	Doc    string
	Params []Parameter
	Impl   func(scope *Scope, args []Value) (Value, error)
}

func (*BuiltinFunction) Kind() TypeKind { return FunctionKind }

// callFunction calls a user function or a builtin, scope is the scope of the caller.
func callFunction(scope *Scope, callee Value, args []Value) (Value, error) {
	program := scope.Program()

	switch fn := callee.(type) {
	case *UserFunction:
		params := fn.Definition.Parameters
		if len(args) != len(params) {
			return nil, fmtWrongArgumentCount(fn.Name(), len(params), len(args))
		}

		leave, err := program.enterCall()
		if err != nil {
			return nil, err
		}
		defer leave()

		fnScope := NewScope(fn.owner.GlobalScope(), fn.owner)
		for i, param := range params {
			err := fnScope.DeclareVariable(&Variable{Name: param, Value: args[i], Deletable: true})
			if err != nil {
				return nil, err
			}
		}

		executor := newFunctionExecutor(fnScope, fn.Definition.Body)
		signal, err := executor.Run()
		if err != nil {
			return nil, err
		}
		if signal.Kind == ReturnSignal && signal.Value != nil {
			return signal.Value, nil
		}
		return NULL, nil
	case *BuiltinFunction:
		checkedArgs, err := checkArguments(fn.Name, fn.Params, args)
		if err != nil {
			return nil, err
		}

		leave, err := program.enterCall()
		if err != nil {
			return nil, err
		}
		defer leave()

		return fn.Impl(scope, checkedArgs)
	default:
		return nil, NewEvaluationError(ErrNotCallable, TypeOf(callee).Name)
	}
}

func callMethod(scope *Scope, receiver Value, name string, args []Value) (Value, error) {
	if module, ok := receiver.(*ModuleValue); ok {
		fn, err := module.program.GetVariable(name, true)
		if err != nil {
			return nil, err
		}
		if fn.Kind() != FunctionKind {
			return nil, NewEvaluationError(ErrNotCallable, name)
		}
		return callFunction(scope, fn, args)
	}

	t := TypeOf(receiver)
	method, ok := t.Methods[name]
	if !ok {
		return nil, NewEvaluationError(ErrNoSuchMethod, t.Name, name)
	}

	checkedArgs, err := checkArguments(t.Name+"."+name, method.Params, args)
	if err != nil {
		return nil, err
	}
	return method.Impl(scope, receiver, checkedArgs)
}

// checkArguments checks the argument count and converts the arguments to the parameter types.
func checkArguments(callee string, params []Parameter, args []Value) ([]Value, error) {
	if len(args) != len(params) {
		return nil, fmtWrongArgumentCount(callee, len(params), len(args))
	}

	var converted []Value
	for i, param := range params {
		arg := args[i]
		if param.Type == nil || param.Type.Abstract {
			continue
		}
		argType := TypeOf(arg)
		if argType == param.Type || (param.Nullable && arg == NULL) {
			continue
		}
		if param.Type.ImplicitCast != nil {
			if v, ok := param.Type.ImplicitCast(arg); ok {
				if converted == nil {
					converted = append([]Value(nil), args...)
				}
				converted[i] = v
				continue
			}
		}
		return nil, NewEvaluationError(ErrInvalidArgumentType, callee, param.Name, param.Type.Name, argType.Name)
	}

	if converted != nil {
		return converted, nil
	}
	return args, nil
}

func newUserFunction(def *ast.DefineFunctionStatement, owner *Program) *UserFunction {
	return &UserFunction{Definition: def, owner: owner}
}
