package ast

import (
	"fmt"
	"strings"
)

var (
	_ = []Statement{
		(*ImportStatement)(nil), (*DeclareVariableStatement)(nil), (*AssignVariableStatement)(nil),
		(*SetItemStatement)(nil), (*SetPropertyStatement)(nil), (*DeleteVariableStatement)(nil),
		(*DeleteItemStatement)(nil), (*IfStatement)(nil), (*WhileLoopStatement)(nil), (*ForLoopStatement)(nil),
		(*TryExceptStatement)(nil), (*DefineFunctionStatement)(nil), (*WaitStatement)(nil), (*BreakStatement)(nil),
		(*ContinueStatement)(nil), (*ReturnStatement)(nil), (*ExpressionStatement)(nil),
	}
)

// ImportStatement imports another program as a module, the module is bound to Alias or to
// the dotted path with dots replaced by underscores.
type ImportStatement struct {
	NodeBase
	ModulePath []string
	Alias      string //empty if no alias
}

func (*ImportStatement) isStatement()      {}
func (*ImportStatement) Tag() StatementTag { return ImportStatementTag }

func (s *ImportStatement) ModuleName() string {
	return strings.Join(s.ModulePath, ".")
}

func (s *ImportStatement) BindingName() string {
	if s.Alias != "" {
		return s.Alias
	}
	return strings.Join(s.ModulePath, "_")
}

func (s *ImportStatement) String() string {
	if s.Alias != "" {
		return fmt.Sprintf("import %s as %s;", s.ModuleName(), s.Alias)
	}
	return fmt.Sprintf("import %s;", s.ModuleName())
}

// DeclareVariableStatement declares a variable or a constant in the current scope.
type DeclareVariableStatement struct {
	NodeBase
	Name     string
	Value    Node
	Public   bool
	Editable bool
	Constant bool
}

func (*DeclareVariableStatement) isStatement()      {}
func (*DeclareVariableStatement) Tag() StatementTag { return DeclareVariableStatementTag }

func (s *DeclareVariableStatement) String() string {
	buf := strings.Builder{}
	if s.Public {
		buf.WriteString("public ")
	}
	if s.Editable {
		buf.WriteString("editable ")
	}
	if s.Constant {
		buf.WriteString("const ")
	} else {
		buf.WriteString("var ")
	}
	fmt.Fprintf(&buf, "%s := %s;", s.Name, s.Value)
	return buf.String()
}

type AssignVariableStatement struct {
	NodeBase
	Name     string
	Operator AssignOperator
	Value    Node
}

func (*AssignVariableStatement) isStatement()      {}
func (*AssignVariableStatement) Tag() StatementTag { return AssignVariableStatementTag }

func (s *AssignVariableStatement) String() string {
	return fmt.Sprintf("%s %s %s;", s.Name, s.Operator, s.Value)
}

type SetItemStatement struct {
	NodeBase
	Target   Node
	Key      Node
	Operator AssignOperator
	Value    Node
}

func (*SetItemStatement) isStatement()      {}
func (*SetItemStatement) Tag() StatementTag { return SetItemStatementTag }

func (s *SetItemStatement) String() string {
	return fmt.Sprintf("%s[%s] %s %s;", s.Target, s.Key, s.Operator, s.Value)
}

type SetPropertyStatement struct {
	NodeBase
	Target   Node
	Property string
	Operator AssignOperator
	Value    Node
}

func (*SetPropertyStatement) isStatement()      {}
func (*SetPropertyStatement) Tag() StatementTag { return SetPropertyStatementTag }

func (s *SetPropertyStatement) String() string {
	return fmt.Sprintf("%s.%s %s %s;", s.Target, s.Property, s.Operator, s.Value)
}

type DeleteVariableStatement struct {
	NodeBase
	Name string
}

func (*DeleteVariableStatement) isStatement()      {}
func (*DeleteVariableStatement) Tag() StatementTag { return DeleteVariableStatementTag }

func (s *DeleteVariableStatement) String() string {
	return fmt.Sprintf("del %s;", s.Name)
}

type DeleteItemStatement struct {
	NodeBase
	Target Node
	Key    Node
}

func (*DeleteItemStatement) isStatement()      {}
func (*DeleteItemStatement) Tag() StatementTag { return DeleteItemStatementTag }

func (s *DeleteItemStatement) String() string {
	return fmt.Sprintf("del %s[%s];", s.Target, s.Key)
}

type IfBranch struct {
	Condition Node
	Body      []Statement
}

// IfStatement is an if/elseif/else chain: Branches[0] is the if branch, the other ones are elseif branches.
// Else is nil if there is no else branch.
type IfStatement struct {
	NodeBase
	Branches []IfBranch
	Else     []Statement
}

func (*IfStatement) isStatement()      {}
func (*IfStatement) Tag() StatementTag { return IfStatementTag }

func (s *IfStatement) String() string {
	buf := strings.Builder{}
	for i, branch := range s.Branches {
		if i == 0 {
			buf.WriteString("if ")
		} else {
			buf.WriteString("elseif ")
		}
		fmt.Fprintf(&buf, "%s then%s", branch.Condition, indentStatements(branch.Body))
	}
	if s.Else != nil {
		buf.WriteString("else" + indentStatements(s.Else))
	}
	buf.WriteString("end")
	return buf.String()
}

type WhileLoopStatement struct {
	NodeBase
	Condition Node
	Body      []Statement
}

func (*WhileLoopStatement) isStatement()      {}
func (*WhileLoopStatement) Tag() StatementTag { return WhileLoopStatementTag }

func (s *WhileLoopStatement) String() string {
	return fmt.Sprintf("while %s do%send", s.Condition, indentStatements(s.Body))
}

type ForLoopStatement struct {
	NodeBase
	Variable string
	Iterable Node
	Body     []Statement
}

func (*ForLoopStatement) isStatement()      {}
func (*ForLoopStatement) Tag() StatementTag { return ForLoopStatementTag }

func (s *ForLoopStatement) String() string {
	return fmt.Sprintf("for %s in %s do%send", s.Variable, s.Iterable, indentStatements(s.Body))
}

type TryExceptStatement struct {
	NodeBase
	Body          []Statement
	ErrorVariable string
	Except        []Statement
}

func (*TryExceptStatement) isStatement()      {}
func (*TryExceptStatement) Tag() StatementTag { return TryExceptStatementTag }

func (s *TryExceptStatement) String() string {
	return fmt.Sprintf("try%sexcept %s then%send", indentStatements(s.Body), s.ErrorVariable, indentStatements(s.Except))
}

type DefineFunctionStatement struct {
	NodeBase
	Name       string
	Parameters []string
	Body       []Statement
	Public     bool
}

func (*DefineFunctionStatement) isStatement()      {}
func (*DefineFunctionStatement) Tag() StatementTag { return DefineFunctionStatementTag }

func (s *DefineFunctionStatement) String() string {
	public := ""
	if s.Public {
		public = "public "
	}
	return fmt.Sprintf("%sfunction %s(%s)%send", public, s.Name, strings.Join(s.Parameters, ", "), indentStatements(s.Body))
}

type WaitStatement struct {
	NodeBase
	Ticks Node
}

func (*WaitStatement) isStatement()      {}
func (*WaitStatement) Tag() StatementTag { return WaitStatementTag }

func (s *WaitStatement) String() string {
	return fmt.Sprintf("wait %s;", s.Ticks)
}

type BreakStatement struct {
	NodeBase
}

func (*BreakStatement) isStatement()      {}
func (*BreakStatement) Tag() StatementTag { return BreakStatementTag }
func (*BreakStatement) String() string    { return "break;" }

type ContinueStatement struct {
	NodeBase
}

func (*ContinueStatement) isStatement()      {}
func (*ContinueStatement) Tag() StatementTag { return ContinueStatementTag }
func (*ContinueStatement) String() string    { return "continue;" }

type ReturnStatement struct {
	NodeBase
	Value Node //nil if no value is returned
}

func (*ReturnStatement) isStatement()      {}
func (*ReturnStatement) Tag() StatementTag { return ReturnStatementTag }

func (s *ReturnStatement) String() string {
	if s.Value == nil {
		return "return;"
	}
	return fmt.Sprintf("return %s;", s.Value)
}

type ExpressionStatement struct {
	NodeBase
	Expression Node
}

func (*ExpressionStatement) isStatement()      {}
func (*ExpressionStatement) Tag() StatementTag { return ExpressionStatementTag }

func (s *ExpressionStatement) String() string {
	return s.Expression.String() + ";"
}
