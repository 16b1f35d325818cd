package ast

import (
	"fmt"
	"strings"
)

// A Node represents an immutable expression node, all node types embed NodeBase.
// The set of node types is closed: the unexported isNode method prevents other packages from adding variants.
type Node interface {
	Base() NodeBase
	Tag() NodeTag
	String() string
	isNode()
}

// A Statement represents an immutable statement, all statement types embed NodeBase.
// Statements hold no execution state, the position of a running program is tracked by its cursor.
type Statement interface {
	Base() NodeBase
	Tag() StatementTag
	String() string
	isStatement()
}

// NodeTag is the stable serialization tag of a node variant.
type NodeTag int

// StatementTag is the stable serialization tag of a statement variant.
type StatementTag int

const (
	NullLiteralTag    NodeTag = 0
	BooleanLiteralTag NodeTag = 1
	IntLiteralTag     NodeTag = 2
	FloatLiteralTag   NodeTag = 3
	StringLiteralTag  NodeTag = 4
	ListLiteralTag    NodeTag = 5
	MapLiteralTag     NodeTag = 6
	SetLiteralTag     NodeTag = 7

	VariableTag     NodeTag = 100
	GetPropertyTag  NodeTag = 101
	MethodCallTag   NodeTag = 102
	FunctionCallTag NodeTag = 103
	GetItemTag      NodeTag = 104

	UnaryOperationTag  NodeTag = 200
	BinaryOperationTag NodeTag = 201
)

const (
	ImportStatementTag StatementTag = iota
	DeclareVariableStatementTag
	AssignVariableStatementTag
	SetItemStatementTag
	SetPropertyStatementTag
	DeleteVariableStatementTag
	DeleteItemStatementTag
	IfStatementTag
	WhileLoopStatementTag
	ForLoopStatementTag
	TryExceptStatementTag
	DefineFunctionStatementTag
	WaitStatementTag
	BreakStatementTag
	ContinueStatementTag
	ReturnStatementTag
	ExpressionStatementTag
)

// NodeBase holds the source position of a node or statement, Line and Column are 1-based.
type NodeBase struct {
	Line   int
	Column int
}

func (base NodeBase) Base() NodeBase {
	return base
}

func (base NodeBase) Position() string {
	return fmt.Sprintf("%d:%d", base.Line, base.Column)
}

func At(line, column int) NodeBase {
	return NodeBase{Line: line, Column: column}
}

const INDENT = "  "

func indentStatements(statements []Statement) string {
	if len(statements) == 0 {
		return " "
	}
	buf := strings.Builder{}
	buf.WriteByte('\n')
	for _, stmt := range statements {
		for _, line := range strings.Split(stmt.String(), "\n") {
			buf.WriteString(INDENT)
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}

func joinNodes(nodes []Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, ", ")
}
