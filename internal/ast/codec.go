package ast

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/bits-and-blooms/bitset"
	"github.com/inoxlang/tickscript/internal/compound"
	"golang.org/x/exp/maps"
)

const (
	TAG_FIELD    = "ID"
	LINE_FIELD   = "Line"
	COLUMN_FIELD = "Column"

	MAX_TAG = 255
)

var (
	ErrUnknownNodeTag      = errors.New("unknown node tag")
	ErrUnknownStatementTag = errors.New("unknown statement tag")
	ErrInvalidOperator     = errors.New("invalid operator")

	nodeDecoders      = map[NodeTag]nodeDecoder{}
	statementDecoders = map[StatementTag]statementDecoder{}

	definedNodeTags      = bitset.New(MAX_TAG + 1)
	definedStatementTags = bitset.New(MAX_TAG + 1)
)

type nodeDecoder func(c compound.Compound, base NodeBase) (Node, error)
type statementDecoder func(c compound.Compound, base NodeBase) (Statement, error)

func init() {
	registerNodeDecoder(NullLiteralTag, func(c compound.Compound, base NodeBase) (Node, error) {
		return &NullLiteral{NodeBase: base}, nil
	})
	registerNodeDecoder(BooleanLiteralTag, func(c compound.Compound, base NodeBase) (Node, error) {
		v, err := c.Bool("Value")
		return &BooleanLiteral{NodeBase: base, Value: v}, err
	})
	registerNodeDecoder(IntLiteralTag, func(c compound.Compound, base NodeBase) (Node, error) {
		v, err := c.Int("Value")
		return &IntLiteral{NodeBase: base, Value: v}, err
	})
	registerNodeDecoder(FloatLiteralTag, func(c compound.Compound, base NodeBase) (Node, error) {
		v, err := DecodeFloat(c, "Value")
		return &FloatLiteral{NodeBase: base, Value: v}, err
	})
	registerNodeDecoder(StringLiteralTag, func(c compound.Compound, base NodeBase) (Node, error) {
		v, err := c.String("Value")
		return &StringLiteral{NodeBase: base, Value: v}, err
	})
	registerNodeDecoder(ListLiteralTag, func(c compound.Compound, base NodeBase) (Node, error) {
		elements, err := decodeNodes(c, "Elements")
		return &ListLiteral{NodeBase: base, Elements: elements}, err
	})
	registerNodeDecoder(SetLiteralTag, func(c compound.Compound, base NodeBase) (Node, error) {
		elements, err := decodeNodes(c, "Elements")
		return &SetLiteral{NodeBase: base, Elements: elements}, err
	})
	registerNodeDecoder(MapLiteralTag, func(c compound.Compound, base NodeBase) (Node, error) {
		entries, err := c.Compounds("Entries")
		if err != nil {
			return nil, err
		}
		lit := &MapLiteral{NodeBase: base, Entries: make([]MapEntry, len(entries))}
		for i, entry := range entries {
			key, err := entry.String("Key")
			if err != nil {
				return nil, err
			}
			value, err := decodeNodeField(entry, "Value")
			if err != nil {
				return nil, err
			}
			lit.Entries[i] = MapEntry{Key: key, Value: value}
		}
		return lit, nil
	})
	registerNodeDecoder(VariableTag, func(c compound.Compound, base NodeBase) (Node, error) {
		name, err := c.String("Name")
		return &Variable{NodeBase: base, Name: name}, err
	})
	registerNodeDecoder(GetPropertyTag, func(c compound.Compound, base NodeBase) (Node, error) {
		object, err := decodeNodeField(c, "Object")
		if err != nil {
			return nil, err
		}
		property, err := c.String("Property")
		return &GetProperty{NodeBase: base, Object: object, Property: property}, err
	})
	registerNodeDecoder(MethodCallTag, func(c compound.Compound, base NodeBase) (Node, error) {
		object, err := decodeNodeField(c, "Object")
		if err != nil {
			return nil, err
		}
		method, err := c.String("Method")
		if err != nil {
			return nil, err
		}
		args, err := decodeNodes(c, "Arguments")
		return &MethodCall{NodeBase: base, Object: object, Method: method, Arguments: args}, err
	})
	registerNodeDecoder(FunctionCallTag, func(c compound.Compound, base NodeBase) (Node, error) {
		function, err := decodeNodeField(c, "Function")
		if err != nil {
			return nil, err
		}
		args, err := decodeNodes(c, "Arguments")
		return &FunctionCall{NodeBase: base, Function: function, Arguments: args}, err
	})
	registerNodeDecoder(GetItemTag, func(c compound.Compound, base NodeBase) (Node, error) {
		container, err := decodeNodeField(c, "Container")
		if err != nil {
			return nil, err
		}
		key, err := decodeNodeField(c, "Key")
		return &GetItem{NodeBase: base, Container: container, Key: key}, err
	})
	registerNodeDecoder(UnaryOperationTag, func(c compound.Compound, base NodeBase) (Node, error) {
		symbol, err := c.String("Operator")
		if err != nil {
			return nil, err
		}
		operator, ok := UnaryOperatorFromSymbol(symbol)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidOperator, symbol)
		}
		operand, err := decodeNodeField(c, "Operand")
		return &UnaryOperation{NodeBase: base, Operator: operator, Operand: operand}, err
	})
	registerNodeDecoder(BinaryOperationTag, func(c compound.Compound, base NodeBase) (Node, error) {
		symbol, err := c.String("Operator")
		if err != nil {
			return nil, err
		}
		operator, ok := BinaryOperatorFromSymbol(symbol)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidOperator, symbol)
		}
		left, err := decodeNodeField(c, "Left")
		if err != nil {
			return nil, err
		}
		right, err := decodeNodeField(c, "Right")
		return &BinaryOperation{NodeBase: base, Operator: operator, Left: left, Right: right}, err
	})

	registerStatementDecoder(ImportStatementTag, func(c compound.Compound, base NodeBase) (Statement, error) {
		path, err := c.Strings("ModulePath")
		if err != nil {
			return nil, err
		}
		alias, err := c.String("Alias")
		return &ImportStatement{NodeBase: base, ModulePath: path, Alias: alias}, err
	})
	registerStatementDecoder(DeclareVariableStatementTag, func(c compound.Compound, base NodeBase) (Statement, error) {
		stmt := &DeclareVariableStatement{NodeBase: base}
		var err error
		if stmt.Name, err = c.String("Name"); err != nil {
			return nil, err
		}
		if stmt.Value, err = decodeNodeField(c, "Value"); err != nil {
			return nil, err
		}
		if stmt.Public, err = c.Bool("Public"); err != nil {
			return nil, err
		}
		if stmt.Editable, err = c.Bool("Editable"); err != nil {
			return nil, err
		}
		stmt.Constant, err = c.Bool("Constant")
		return stmt, err
	})
	registerStatementDecoder(AssignVariableStatementTag, func(c compound.Compound, base NodeBase) (Statement, error) {
		name, err := c.String("Name")
		if err != nil {
			return nil, err
		}
		operator, err := decodeAssignOperator(c)
		if err != nil {
			return nil, err
		}
		value, err := decodeNodeField(c, "Value")
		return &AssignVariableStatement{NodeBase: base, Name: name, Operator: operator, Value: value}, err
	})
	registerStatementDecoder(SetItemStatementTag, func(c compound.Compound, base NodeBase) (Statement, error) {
		stmt := &SetItemStatement{NodeBase: base}
		var err error
		if stmt.Target, err = decodeNodeField(c, "Target"); err != nil {
			return nil, err
		}
		if stmt.Key, err = decodeNodeField(c, "Key"); err != nil {
			return nil, err
		}
		if stmt.Operator, err = decodeAssignOperator(c); err != nil {
			return nil, err
		}
		stmt.Value, err = decodeNodeField(c, "Value")
		return stmt, err
	})
	registerStatementDecoder(SetPropertyStatementTag, func(c compound.Compound, base NodeBase) (Statement, error) {
		stmt := &SetPropertyStatement{NodeBase: base}
		var err error
		if stmt.Target, err = decodeNodeField(c, "Target"); err != nil {
			return nil, err
		}
		if stmt.Property, err = c.String("Property"); err != nil {
			return nil, err
		}
		if stmt.Operator, err = decodeAssignOperator(c); err != nil {
			return nil, err
		}
		stmt.Value, err = decodeNodeField(c, "Value")
		return stmt, err
	})
	registerStatementDecoder(DeleteVariableStatementTag, func(c compound.Compound, base NodeBase) (Statement, error) {
		name, err := c.String("Name")
		return &DeleteVariableStatement{NodeBase: base, Name: name}, err
	})
	registerStatementDecoder(DeleteItemStatementTag, func(c compound.Compound, base NodeBase) (Statement, error) {
		target, err := decodeNodeField(c, "Target")
		if err != nil {
			return nil, err
		}
		key, err := decodeNodeField(c, "Key")
		return &DeleteItemStatement{NodeBase: base, Target: target, Key: key}, err
	})
	registerStatementDecoder(IfStatementTag, func(c compound.Compound, base NodeBase) (Statement, error) {
		branches, err := c.Compounds("Branches")
		if err != nil {
			return nil, err
		}
		stmt := &IfStatement{NodeBase: base, Branches: make([]IfBranch, len(branches))}
		for i, branch := range branches {
			condition, err := decodeNodeField(branch, "Condition")
			if err != nil {
				return nil, err
			}
			body, err := decodeStatements(branch, "Body")
			if err != nil {
				return nil, err
			}
			stmt.Branches[i] = IfBranch{Condition: condition, Body: body}
		}
		if c.Has("Else") {
			stmt.Else, err = decodeStatements(c, "Else")
		}
		return stmt, err
	})
	registerStatementDecoder(WhileLoopStatementTag, func(c compound.Compound, base NodeBase) (Statement, error) {
		condition, err := decodeNodeField(c, "Condition")
		if err != nil {
			return nil, err
		}
		body, err := decodeStatements(c, "Body")
		return &WhileLoopStatement{NodeBase: base, Condition: condition, Body: body}, err
	})
	registerStatementDecoder(ForLoopStatementTag, func(c compound.Compound, base NodeBase) (Statement, error) {
		variable, err := c.String("Variable")
		if err != nil {
			return nil, err
		}
		iterable, err := decodeNodeField(c, "Iterable")
		if err != nil {
			return nil, err
		}
		body, err := decodeStatements(c, "Body")
		return &ForLoopStatement{NodeBase: base, Variable: variable, Iterable: iterable, Body: body}, err
	})
	registerStatementDecoder(TryExceptStatementTag, func(c compound.Compound, base NodeBase) (Statement, error) {
		body, err := decodeStatements(c, "Body")
		if err != nil {
			return nil, err
		}
		errorVariable, err := c.String("ErrorVariable")
		if err != nil {
			return nil, err
		}
		except, err := decodeStatements(c, "Except")
		return &TryExceptStatement{NodeBase: base, Body: body, ErrorVariable: errorVariable, Except: except}, err
	})
	registerStatementDecoder(DefineFunctionStatementTag, func(c compound.Compound, base NodeBase) (Statement, error) {
		stmt := &DefineFunctionStatement{NodeBase: base}
		var err error
		if stmt.Name, err = c.String("Name"); err != nil {
			return nil, err
		}
		if stmt.Parameters, err = c.Strings("Parameters"); err != nil {
			return nil, err
		}
		if stmt.Public, err = c.Bool("Public"); err != nil {
			return nil, err
		}
		stmt.Body, err = decodeStatements(c, "Body")
		return stmt, err
	})
	registerStatementDecoder(WaitStatementTag, func(c compound.Compound, base NodeBase) (Statement, error) {
		ticks, err := decodeNodeField(c, "Ticks")
		return &WaitStatement{NodeBase: base, Ticks: ticks}, err
	})
	registerStatementDecoder(BreakStatementTag, func(c compound.Compound, base NodeBase) (Statement, error) {
		return &BreakStatement{NodeBase: base}, nil
	})
	registerStatementDecoder(ContinueStatementTag, func(c compound.Compound, base NodeBase) (Statement, error) {
		return &ContinueStatement{NodeBase: base}, nil
	})
	registerStatementDecoder(ReturnStatementTag, func(c compound.Compound, base NodeBase) (Statement, error) {
		stmt := &ReturnStatement{NodeBase: base}
		if !c.Has("Value") {
			return stmt, nil
		}
		var err error
		stmt.Value, err = decodeNodeField(c, "Value")
		return stmt, err
	})
	registerStatementDecoder(ExpressionStatementTag, func(c compound.Compound, base NodeBase) (Statement, error) {
		expr, err := decodeNodeField(c, "Expression")
		return &ExpressionStatement{NodeBase: base, Expression: expr}, err
	})
}

func registerNodeDecoder(tag NodeTag, decoder nodeDecoder) {
	if definedNodeTags.Test(uint(tag)) {
		panic(fmt.Errorf("node tag %d registered twice", tag))
	}
	definedNodeTags.Set(uint(tag))
	nodeDecoders[tag] = decoder
}

func registerStatementDecoder(tag StatementTag, decoder statementDecoder) {
	if definedStatementTags.Test(uint(tag)) {
		panic(fmt.Errorf("statement tag %d registered twice", tag))
	}
	definedStatementTags.Set(uint(tag))
	statementDecoders[tag] = decoder
}

// DefinedNodeTags returns the sorted list of node tags accepted by DecodeNode.
func DefinedNodeTags() []NodeTag {
	tags := maps.Keys(nodeDecoders)
	slices.Sort(tags)
	return tags
}

// DefinedStatementTags returns the sorted list of statement tags accepted by DecodeStatement.
func DefinedStatementTags() []StatementTag {
	tags := maps.Keys(statementDecoders)
	slices.Sort(tags)
	return tags
}

func isDefinedTag(set *bitset.BitSet, tag int64) bool {
	return tag >= 0 && tag <= MAX_TAG && set.Test(uint(tag))
}

func decodeBase(c compound.Compound) (tag int64, base NodeBase, err error) {
	tag, err = c.Int(TAG_FIELD)
	if err != nil {
		return
	}
	line, err := c.IntOr(LINE_FIELD, 0)
	if err != nil {
		return
	}
	column, err := c.IntOr(COLUMN_FIELD, 0)
	if err != nil {
		return
	}
	return tag, At(int(line), int(column)), nil
}

func encodeBase(tag int, base NodeBase) compound.Compound {
	return compound.New().
		PutInt(TAG_FIELD, int64(tag)).
		PutInt(LINE_FIELD, int64(base.Line)).
		PutInt(COLUMN_FIELD, int64(base.Column))
}

func DecodeNode(c compound.Compound) (Node, error) {
	tag, base, err := decodeBase(c)
	if err != nil {
		return nil, err
	}
	if !isDefinedTag(definedNodeTags, tag) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownNodeTag, tag)
	}
	return nodeDecoders[NodeTag(tag)](c, base)
}

func DecodeStatement(c compound.Compound) (Statement, error) {
	tag, base, err := decodeBase(c)
	if err != nil {
		return nil, err
	}
	if !isDefinedTag(definedStatementTags, tag) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStatementTag, tag)
	}
	return statementDecoders[StatementTag(tag)](c, base)
}

func decodeNodeField(c compound.Compound, key string) (Node, error) {
	child, err := c.Compound(key)
	if err != nil {
		return nil, err
	}
	return DecodeNode(child)
}

func decodeNodes(c compound.Compound, key string) ([]Node, error) {
	list, err := c.Compounds(key)
	if err != nil {
		return nil, err
	}
	nodes := make([]Node, len(list))
	for i, e := range list {
		nodes[i], err = DecodeNode(e)
		if err != nil {
			return nil, err
		}
	}
	return nodes, nil
}

func decodeStatements(c compound.Compound, key string) ([]Statement, error) {
	list, err := c.Compounds(key)
	if err != nil {
		return nil, err
	}
	return DecodeStatements(list)
}

func DecodeStatements(list []compound.Compound) ([]Statement, error) {
	statements := make([]Statement, len(list))
	for i, e := range list {
		var err error
		statements[i], err = DecodeStatement(e)
		if err != nil {
			return nil, fmt.Errorf("statement %d: %w", i, err)
		}
	}
	return statements, nil
}

func decodeAssignOperator(c compound.Compound) (AssignOperator, error) {
	symbol, err := c.String("Operator")
	if err != nil {
		return 0, err
	}
	operator, ok := AssignOperatorFromSymbol(symbol)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOperator, symbol)
	}
	return operator, nil
}

// EncodeFloat returns the serialized form of f: NaN and infinities have no JSON representation
// so they are stored as strings.
func EncodeFloat(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return f
}

func DecodeFloat(c compound.Compound, key string) (float64, error) {
	if s, ok := c[key].(string); ok {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: field %q: %w", compound.ErrInvalidFieldType, key, err)
		}
		return f, nil
	}
	return c.Float(key)
}

func EncodeNode(node Node) compound.Compound {
	c := encodeBase(int(node.Tag()), node.Base())

	switch n := node.(type) {
	case *NullLiteral:
	case *BooleanLiteral:
		c.PutBool("Value", n.Value)
	case *IntLiteral:
		c.PutInt("Value", n.Value)
	case *FloatLiteral:
		c.Put("Value", EncodeFloat(n.Value))
	case *StringLiteral:
		c.PutString("Value", n.Value)
	case *ListLiteral:
		c.PutCompounds("Elements", encodeNodes(n.Elements))
	case *SetLiteral:
		c.PutCompounds("Elements", encodeNodes(n.Elements))
	case *MapLiteral:
		entries := make([]compound.Compound, len(n.Entries))
		for i, e := range n.Entries {
			entries[i] = compound.New().PutString("Key", e.Key).PutCompound("Value", EncodeNode(e.Value))
		}
		c.PutCompounds("Entries", entries)
	case *Variable:
		c.PutString("Name", n.Name)
	case *GetProperty:
		c.PutCompound("Object", EncodeNode(n.Object)).PutString("Property", n.Property)
	case *MethodCall:
		c.PutCompound("Object", EncodeNode(n.Object)).
			PutString("Method", n.Method).
			PutCompounds("Arguments", encodeNodes(n.Arguments))
	case *FunctionCall:
		c.PutCompound("Function", EncodeNode(n.Function)).PutCompounds("Arguments", encodeNodes(n.Arguments))
	case *GetItem:
		c.PutCompound("Container", EncodeNode(n.Container)).PutCompound("Key", EncodeNode(n.Key))
	case *UnaryOperation:
		c.PutString("Operator", n.Operator.String()).PutCompound("Operand", EncodeNode(n.Operand))
	case *BinaryOperation:
		c.PutString("Operator", n.Operator.String()).
			PutCompound("Left", EncodeNode(n.Left)).
			PutCompound("Right", EncodeNode(n.Right))
	default:
		panic(fmt.Errorf("cannot encode node of type %T", node))
	}
	return c
}

func EncodeStatement(stmt Statement) compound.Compound {
	c := encodeBase(int(stmt.Tag()), stmt.Base())

	switch s := stmt.(type) {
	case *ImportStatement:
		c.PutStrings("ModulePath", s.ModulePath).PutString("Alias", s.Alias)
	case *DeclareVariableStatement:
		c.PutString("Name", s.Name).
			PutCompound("Value", EncodeNode(s.Value)).
			PutBool("Public", s.Public).
			PutBool("Editable", s.Editable).
			PutBool("Constant", s.Constant)
	case *AssignVariableStatement:
		c.PutString("Name", s.Name).
			PutString("Operator", s.Operator.String()).
			PutCompound("Value", EncodeNode(s.Value))
	case *SetItemStatement:
		c.PutCompound("Target", EncodeNode(s.Target)).
			PutCompound("Key", EncodeNode(s.Key)).
			PutString("Operator", s.Operator.String()).
			PutCompound("Value", EncodeNode(s.Value))
	case *SetPropertyStatement:
		c.PutCompound("Target", EncodeNode(s.Target)).
			PutString("Property", s.Property).
			PutString("Operator", s.Operator.String()).
			PutCompound("Value", EncodeNode(s.Value))
	case *DeleteVariableStatement:
		c.PutString("Name", s.Name)
	case *DeleteItemStatement:
		c.PutCompound("Target", EncodeNode(s.Target)).PutCompound("Key", EncodeNode(s.Key))
	case *IfStatement:
		branches := make([]compound.Compound, len(s.Branches))
		for i, branch := range s.Branches {
			branches[i] = compound.New().
				PutCompound("Condition", EncodeNode(branch.Condition)).
				PutCompounds("Body", EncodeStatements(branch.Body))
		}
		c.PutCompounds("Branches", branches)
		if s.Else != nil {
			c.PutCompounds("Else", EncodeStatements(s.Else))
		}
	case *WhileLoopStatement:
		c.PutCompound("Condition", EncodeNode(s.Condition)).PutCompounds("Body", EncodeStatements(s.Body))
	case *ForLoopStatement:
		c.PutString("Variable", s.Variable).
			PutCompound("Iterable", EncodeNode(s.Iterable)).
			PutCompounds("Body", EncodeStatements(s.Body))
	case *TryExceptStatement:
		c.PutCompounds("Body", EncodeStatements(s.Body)).
			PutString("ErrorVariable", s.ErrorVariable).
			PutCompounds("Except", EncodeStatements(s.Except))
	case *DefineFunctionStatement:
		c.PutString("Name", s.Name).
			PutStrings("Parameters", s.Parameters).
			PutBool("Public", s.Public).
			PutCompounds("Body", EncodeStatements(s.Body))
	case *WaitStatement:
		c.PutCompound("Ticks", EncodeNode(s.Ticks))
	case *BreakStatement, *ContinueStatement:
	case *ReturnStatement:
		if s.Value != nil {
			c.PutCompound("Value", EncodeNode(s.Value))
		}
	case *ExpressionStatement:
		c.PutCompound("Expression", EncodeNode(s.Expression))
	default:
		panic(fmt.Errorf("cannot encode statement of type %T", stmt))
	}
	return c
}

func encodeNodes(nodes []Node) []compound.Compound {
	list := make([]compound.Compound, len(nodes))
	for i, n := range nodes {
		list[i] = EncodeNode(n)
	}
	return list
}

func EncodeStatements(statements []Statement) []compound.Compound {
	list := make([]compound.Compound, len(statements))
	for i, s := range statements {
		list[i] = EncodeStatement(s)
	}
	return list
}

func EncodeModule(module *Module) compound.Compound {
	c := compound.New().PutCompounds("Statements", EncodeStatements(module.Statements))
	if module.Schedule != nil {
		c.PutCompound("Schedule", compound.New().
			PutInt("Delay", module.Schedule.Delay).
			PutInt("Repeat", module.Schedule.Repeat))
	}
	return c
}

func DecodeModule(c compound.Compound) (*Module, error) {
	statements, err := decodeStatements(c, "Statements")
	if err != nil {
		return nil, err
	}
	module := &Module{Statements: statements}

	if c.Has("Schedule") {
		schedule, err := c.Compound("Schedule")
		if err != nil {
			return nil, err
		}
		delay, err := schedule.Int("Delay")
		if err != nil {
			return nil, err
		}
		repeat, err := schedule.IntOr("Repeat", 0)
		if err != nil {
			return nil, err
		}
		module.Schedule = &Schedule{Delay: delay, Repeat: repeat}
	}
	return module, nil
}
