package main

import (
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/inoxlang/tickscript/internal/ast"
	"github.com/inoxlang/tickscript/internal/config"
	"github.com/inoxlang/tickscript/internal/core"
	"github.com/stretchr/testify/require"
)

// counterModule declares the public editable variable x and increments it every tick.
func counterModule() *ast.Module {
	return &ast.Module{Statements: []ast.Statement{
		&ast.DeclareVariableStatement{NodeBase: ast.At(1, 1), Name: "x", Value: &ast.IntLiteral{Value: 0}, Public: true, Editable: true},
		&ast.WhileLoopStatement{NodeBase: ast.At(2, 1), Condition: &ast.BooleanLiteral{Value: true}, Body: []ast.Statement{
			&ast.AssignVariableStatement{NodeBase: ast.At(3, 1), Name: "x", Operator: ast.AddAssign, Value: &ast.IntLiteral{Value: 1}},
			&ast.WaitStatement{NodeBase: ast.At(4, 1), Ticks: &ast.IntLiteral{Value: 1}},
		}},
	}}
}

// failingModule fails on its first statement.
func failingModule() *ast.Module {
	return &ast.Module{Statements: []ast.Statement{
		&ast.ExpressionStatement{NodeBase: ast.At(1, 5), Expression: &ast.Variable{Name: "undefined"}},
	}}
}

// testConfig returns a configuration whose files are in a temporary directory, the modules counter and
// failing are written to the programs directory.
func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.DataFile = filepath.Join(dir, "programs.kv")
	cfg.ProgramsDir = filepath.Join(dir, config.PROGRAMS_DIR_NAME)
	cfg.TickInterval = "1ms"
	cfg.AutosaveDelay = ""

	fs := osfs.New(cfg.ProgramsDir)
	require.NoError(t, core.WriteModuleTree(fs, "counter", counterModule()))
	require.NoError(t, core.WriteModuleTree(fs, "failing", failingModule()))
	return cfg
}

func writeConfigFile(t *testing.T, cfg config.Config) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.CONFIG_FILE_NAME)
	require.NoError(t, cfg.Write(path))
	return path
}
