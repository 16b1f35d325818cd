package ast

import (
	"errors"
	"math"
	"testing"

	"github.com/inoxlang/tickscript/internal/compound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleModule() *Module {
	x := &Variable{NodeBase: At(1, 5), Name: "x"}
	return &Module{
		Schedule: &Schedule{Delay: 3, Repeat: REPEAT_FOREVER},
		Statements: []Statement{
			&ImportStatement{NodeBase: At(1, 1), ModulePath: []string{"lib", "math"}, Alias: "m"},
			&DeclareVariableStatement{NodeBase: At(2, 1), Name: "x", Value: &IntLiteral{Value: 1}, Public: true},
			&DeclareVariableStatement{NodeBase: At(3, 1), Name: "F", Value: &FloatLiteral{Value: math.Inf(1)}, Constant: true},
			&AssignVariableStatement{NodeBase: At(4, 1), Name: "x", Operator: AddAssign, Value: &IntLiteral{Value: 2}},
			&ExpressionStatement{Expression: &MapLiteral{Entries: []MapEntry{
				{Key: "a", Value: &ListLiteral{Elements: []Node{&NullLiteral{}, &BooleanLiteral{Value: true}}}},
				{Key: "b", Value: &SetLiteral{Elements: []Node{&StringLiteral{Value: "s"}, &FloatLiteral{Value: 2.5}}}},
			}}},
			&SetItemStatement{Target: x, Key: &IntLiteral{Value: 0}, Operator: Assign, Value: &FloatLiteral{Value: math.NaN()}},
			&SetPropertyStatement{Target: x, Property: "p", Operator: PowAssign, Value: &IntLiteral{Value: 2}},
			&IfStatement{
				Branches: []IfBranch{
					{Condition: &BinaryOperation{Operator: NotIn, Left: x, Right: &ListLiteral{}}, Body: []Statement{&BreakStatement{}}},
					{Condition: &UnaryOperation{Operator: Not, Operand: x}, Body: []Statement{&ContinueStatement{}}},
				},
				Else: []Statement{&ReturnStatement{}},
			},
			&IfStatement{Branches: []IfBranch{{Condition: x, Body: nil}}},
			&WhileLoopStatement{
				Condition: &BinaryOperation{Operator: LessThan, Left: x, Right: &IntLiteral{Value: 3}},
				Body: []Statement{
					&WaitStatement{Ticks: &IntLiteral{Value: 1}},
					&DeleteItemStatement{Target: x, Key: &StringLiteral{Value: "k"}},
				},
			},
			&ForLoopStatement{Variable: "e", Iterable: &FunctionCall{Function: &Variable{Name: "range"}, Arguments: []Node{&IntLiteral{Value: 3}}}},
			&TryExceptStatement{
				Body:          []Statement{&ExpressionStatement{Expression: &MethodCall{Object: x, Method: "m", Arguments: []Node{x}}}},
				ErrorVariable: "err",
				Except:        []Statement{&ExpressionStatement{Expression: &GetProperty{Object: &Variable{Name: "err"}, Property: "key"}}},
			},
			&DefineFunctionStatement{Name: "f", Parameters: []string{"a", "b"}, Public: true, Body: []Statement{
				&ReturnStatement{Value: &GetItem{Container: &Variable{Name: "a"}, Key: &Variable{Name: "b"}}},
			}},
			&DeleteVariableStatement{Name: "x"},
		},
	}
}

func TestModuleRoundTrip(t *testing.T) {
	module := sampleModule()

	first, err := compound.Marshal(EncodeModule(module))
	require.NoError(t, err)

	c, err := compound.Unmarshal(first)
	require.NoError(t, err)

	decoded, err := DecodeModule(c)
	require.NoError(t, err)

	second, err := compound.Marshal(EncodeModule(decoded))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	assert.Equal(t, module.String(), decoded.String())

	t.Run("non finite floats", func(t *testing.T) {
		decl := decoded.Statements[2].(*DeclareVariableStatement)
		assert.True(t, math.IsInf(decl.Value.(*FloatLiteral).Value, 1))

		setItem := decoded.Statements[5].(*SetItemStatement)
		assert.True(t, math.IsNaN(setItem.Value.(*FloatLiteral).Value))
	})

	t.Run("positions are kept", func(t *testing.T) {
		assert.Equal(t, At(4, 1), decoded.Statements[3].Base())
	})

	t.Run("absent else stays absent", func(t *testing.T) {
		assert.Nil(t, decoded.Statements[8].(*IfStatement).Else)
		assert.NotNil(t, decoded.Statements[7].(*IfStatement).Else)
	})

	t.Run("schedule", func(t *testing.T) {
		require.NotNil(t, decoded.Schedule)
		assert.Equal(t, *module.Schedule, *decoded.Schedule)
	})
}

func TestDecodeUnknownTags(t *testing.T) {
	_, err := DecodeNode(compound.New().PutInt(TAG_FIELD, 42))
	assert.True(t, errors.Is(err, ErrUnknownNodeTag))

	_, err = DecodeNode(compound.New().PutInt(TAG_FIELD, -1))
	assert.True(t, errors.Is(err, ErrUnknownNodeTag))

	_, err = DecodeStatement(compound.New().PutInt(TAG_FIELD, 99))
	assert.True(t, errors.Is(err, ErrUnknownStatementTag))

	_, err = DecodeStatement(compound.New().PutInt(TAG_FIELD, 1000))
	assert.True(t, errors.Is(err, ErrUnknownStatementTag))

	t.Run("nested unknown tag", func(t *testing.T) {
		stmt := EncodeStatement(&ExpressionStatement{Expression: &NullLiteral{}})
		stmt.PutCompound("Expression", compound.New().PutInt(TAG_FIELD, 150))

		_, err := DecodeStatement(stmt)
		assert.True(t, errors.Is(err, ErrUnknownNodeTag))
	})

	t.Run("invalid operator", func(t *testing.T) {
		node := EncodeNode(&BinaryOperation{Operator: Add, Left: &NullLiteral{}, Right: &NullLiteral{}})
		node.PutString("Operator", "<>")

		_, err := DecodeNode(node)
		assert.True(t, errors.Is(err, ErrInvalidOperator))
	})
}

func TestRegistriesAreTotal(t *testing.T) {
	assert.Equal(t, []NodeTag{
		NullLiteralTag, BooleanLiteralTag, IntLiteralTag, FloatLiteralTag, StringLiteralTag,
		ListLiteralTag, MapLiteralTag, SetLiteralTag,
		VariableTag, GetPropertyTag, MethodCallTag, FunctionCallTag, GetItemTag,
		UnaryOperationTag, BinaryOperationTag,
	}, DefinedNodeTags())

	statementTags := DefinedStatementTags()
	require.Len(t, statementTags, int(ExpressionStatementTag)+1)
	for i, tag := range statementTags {
		assert.Equal(t, StatementTag(i), tag)
	}
}
