package ast

import (
	"fmt"
	"strconv"
	"strings"
)

var (
	_ = []Node{
		(*NullLiteral)(nil), (*BooleanLiteral)(nil), (*IntLiteral)(nil), (*FloatLiteral)(nil), (*StringLiteral)(nil),
		(*ListLiteral)(nil), (*MapLiteral)(nil), (*SetLiteral)(nil), (*Variable)(nil), (*GetProperty)(nil),
		(*MethodCall)(nil), (*FunctionCall)(nil), (*GetItem)(nil), (*UnaryOperation)(nil), (*BinaryOperation)(nil),
	}
)

type NullLiteral struct {
	NodeBase
}

func (*NullLiteral) isNode()      {}
func (*NullLiteral) Tag() NodeTag { return NullLiteralTag }

func (*NullLiteral) String() string {
	return "null"
}

type BooleanLiteral struct {
	NodeBase
	Value bool
}

func (*BooleanLiteral) isNode()      {}
func (*BooleanLiteral) Tag() NodeTag { return BooleanLiteralTag }

func (n *BooleanLiteral) String() string {
	return strconv.FormatBool(n.Value)
}

type IntLiteral struct {
	NodeBase
	Value int64
}

func (*IntLiteral) isNode()      {}
func (*IntLiteral) Tag() NodeTag { return IntLiteralTag }

func (n *IntLiteral) String() string {
	return strconv.FormatInt(n.Value, 10)
}

type FloatLiteral struct {
	NodeBase
	Value float64
}

func (*FloatLiteral) isNode()      {}
func (*FloatLiteral) Tag() NodeTag { return FloatLiteralTag }

func (n *FloatLiteral) String() string {
	s := strconv.FormatFloat(n.Value, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

type StringLiteral struct {
	NodeBase
	Value string
}

func (*StringLiteral) isNode()      {}
func (*StringLiteral) Tag() NodeTag { return StringLiteralTag }

func (n *StringLiteral) String() string {
	return strconv.Quote(n.Value)
}

type ListLiteral struct {
	NodeBase
	Elements []Node
}

func (*ListLiteral) isNode()      {}
func (*ListLiteral) Tag() NodeTag { return ListLiteralTag }

func (n *ListLiteral) String() string {
	return "[" + joinNodes(n.Elements) + "]"
}

type MapEntry struct {
	Key   string
	Value Node
}

// MapLiteral is a map literal, keys are always strings.
type MapLiteral struct {
	NodeBase
	Entries []MapEntry
}

func (*MapLiteral) isNode()      {}
func (*MapLiteral) Tag() NodeTag { return MapLiteralTag }

func (n *MapLiteral) String() string {
	parts := make([]string, len(n.Entries))
	for i, e := range n.Entries {
		parts[i] = strconv.Quote(e.Key) + ": " + e.Value.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

type SetLiteral struct {
	NodeBase
	Elements []Node
}

func (*SetLiteral) isNode()      {}
func (*SetLiteral) Tag() NodeTag { return SetLiteralTag }

func (n *SetLiteral) String() string {
	if len(n.Elements) == 0 {
		return "{,}"
	}
	return "{" + joinNodes(n.Elements) + "}"
}

type Variable struct {
	NodeBase
	Name string
}

func (*Variable) isNode()      {}
func (*Variable) Tag() NodeTag { return VariableTag }

func (n *Variable) String() string {
	return n.Name
}

type GetProperty struct {
	NodeBase
	Object   Node
	Property string
}

func (*GetProperty) isNode()      {}
func (*GetProperty) Tag() NodeTag { return GetPropertyTag }

func (n *GetProperty) String() string {
	return n.Object.String() + "." + n.Property
}

type MethodCall struct {
	NodeBase
	Object    Node
	Method    string
	Arguments []Node
}

func (*MethodCall) isNode()      {}
func (*MethodCall) Tag() NodeTag { return MethodCallTag }

func (n *MethodCall) String() string {
	return fmt.Sprintf("%s.%s(%s)", n.Object, n.Method, joinNodes(n.Arguments))
}

// FunctionCall calls the value of Function, usually a Variable node.
type FunctionCall struct {
	NodeBase
	Function  Node
	Arguments []Node
}

func (*FunctionCall) isNode()      {}
func (*FunctionCall) Tag() NodeTag { return FunctionCallTag }

func (n *FunctionCall) String() string {
	return fmt.Sprintf("%s(%s)", n.Function, joinNodes(n.Arguments))
}

type GetItem struct {
	NodeBase
	Container Node
	Key       Node
}

func (*GetItem) isNode()      {}
func (*GetItem) Tag() NodeTag { return GetItemTag }

func (n *GetItem) String() string {
	return fmt.Sprintf("%s[%s]", n.Container, n.Key)
}

type UnaryOperation struct {
	NodeBase
	Operator UnaryOperator
	Operand  Node
}

func (*UnaryOperation) isNode()      {}
func (*UnaryOperation) Tag() NodeTag { return UnaryOperationTag }

func (n *UnaryOperation) String() string {
	if n.Operator == Not {
		return fmt.Sprintf("(not %s)", n.Operand)
	}
	return fmt.Sprintf("(%s%s)", n.Operator, n.Operand)
}

type BinaryOperation struct {
	NodeBase
	Operator BinaryOperator
	Left     Node
	Right    Node
}

func (*BinaryOperation) isNode()      {}
func (*BinaryOperation) Tag() NodeTag { return BinaryOperationTag }

func (n *BinaryOperation) String() string {
	return fmt.Sprintf("(%s %s %s)", n.Left, n.Operator, n.Right)
}
