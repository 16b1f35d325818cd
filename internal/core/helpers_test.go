package core

import (
	"testing"

	"github.com/inoxlang/tickscript/internal/ast"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// helpers building statement trees, positions are set on statements only.

func intLit(i int64) *ast.IntLiteral {
	return &ast.IntLiteral{Value: i}
}

func floatLit(f float64) *ast.FloatLiteral {
	return &ast.FloatLiteral{Value: f}
}

func strLit(s string) *ast.StringLiteral {
	return &ast.StringLiteral{Value: s}
}

func boolLit(b bool) *ast.BooleanLiteral {
	return &ast.BooleanLiteral{Value: b}
}

func listLit(elements ...ast.Node) *ast.ListLiteral {
	return &ast.ListLiteral{Elements: elements}
}

func ref(name string) *ast.Variable {
	return &ast.Variable{Name: name}
}

func binop(op ast.BinaryOperator, left, right ast.Node) *ast.BinaryOperation {
	return &ast.BinaryOperation{Operator: op, Left: left, Right: right}
}

func call(name string, args ...ast.Node) *ast.FunctionCall {
	return &ast.FunctionCall{Function: ref(name), Arguments: args}
}

func methodCall(object ast.Node, method string, args ...ast.Node) *ast.MethodCall {
	return &ast.MethodCall{Object: object, Method: method, Arguments: args}
}

func declare(line int, name string, value ast.Node) *ast.DeclareVariableStatement {
	return &ast.DeclareVariableStatement{NodeBase: ast.At(line, 1), Name: name, Value: value}
}

func assign(line int, name string, op ast.AssignOperator, value ast.Node) *ast.AssignVariableStatement {
	return &ast.AssignVariableStatement{NodeBase: ast.At(line, 1), Name: name, Operator: op, Value: value}
}

func expr(line int, node ast.Node) *ast.ExpressionStatement {
	return &ast.ExpressionStatement{NodeBase: ast.At(line, 1), Expression: node}
}

func wait(line int, ticks int64) *ast.WaitStatement {
	return &ast.WaitStatement{NodeBase: ast.At(line, 1), Ticks: intLit(ticks)}
}

func while(line int, condition ast.Node, body ...ast.Statement) *ast.WhileLoopStatement {
	return &ast.WhileLoopStatement{NodeBase: ast.At(line, 1), Condition: condition, Body: body}
}

func newModule(statements ...ast.Statement) *ast.Module {
	return &ast.Module{Statements: statements}
}

// memoryStore is an in-memory ProgramStore.
type memoryStore struct {
	worlds map[string][]StoredProgram
}

func newMemoryStore() *memoryStore {
	return &memoryStore{worlds: map[string][]StoredProgram{}}
}

func (s *memoryStore) ReplaceWorld(world string, programs []StoredProgram) error {
	s.worlds[world] = append([]StoredProgram(nil), programs...)
	return nil
}

func (s *memoryStore) LoadWorld(world string) ([]StoredProgram, error) {
	return s.worlds[world], nil
}

func newTestManager(t *testing.T, modules ModuleMap, configure ...func(*ProgramManagerConfig)) *ProgramManager {
	t.Helper()

	config := ProgramManagerConfig{
		Loader: modules,
		Logger: zerolog.Nop(),
	}
	for _, f := range configure {
		f(&config)
	}

	manager, err := NewProgramManager(config)
	require.NoError(t, err)
	return manager
}

// startProgram loads and runs the module "main", the program has not executed any statement when it returns.
func startProgram(t *testing.T, statements ...ast.Statement) (*Program, *ProgramManager) {
	t.Helper()

	manager := newTestManager(t, ModuleMap{"main": newModule(statements...)})
	p, err := manager.LoadProgram("main", "", false, nil)
	require.NoError(t, err)
	require.NoError(t, manager.RunProgram("main"))
	return p, manager
}

// execProgram runs the module "main" for one tick and fails the test if an error is reported.
func execProgram(t *testing.T, statements ...ast.Statement) *Program {
	t.Helper()

	p, manager := startProgram(t, statements...)
	reports := manager.AdvanceAll()
	require.Empty(t, reports)
	return p
}

func getGlobal(t *testing.T, p *Program, name string) Value {
	t.Helper()
	v, err := p.GetVariable(name, false)
	require.NoError(t, err)
	return v
}
