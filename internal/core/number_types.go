package core

import (
	"cmp"
	"math"
	"strconv"
	"strings"

	"github.com/inoxlang/tickscript/internal/ast"
	"github.com/inoxlang/tickscript/internal/compound"
)

func init() {
	for _, t := range []*Type{INT_TYPE, FLOAT_TYPE} {
		t.Equal = numberEqual
		t.Compare = numberCompare
		t.Truthy = func(self Value) bool {
			f, _ := toFloat(self)
			return f != 0
		}
		t.Add = numericOperator(ast.Add, addInts, func(a, b float64) (Value, error) { return Float(a + b), nil })
		t.Sub = numericOperator(ast.Sub, subInts, func(a, b float64) (Value, error) { return Float(a - b), nil })
		t.Mul = numericOperator(ast.Mul, mulInts, func(a, b float64) (Value, error) { return Float(a * b), nil })
		t.Div = numericOperator(ast.Div, divInts, divFloats)
		t.IntDiv = numericOperator(ast.IntDiv, floorDivInts, floorDivFloats)
		t.Mod = numericOperator(ast.Mod, modInts, modFloats)
		t.Pow = numericOperator(ast.Pow, powInts, func(a, b float64) (Value, error) { return Float(math.Pow(a, b)), nil })
	}

	INT_TYPE.Str = func(self Value) string {
		return strconv.FormatInt(int64(self.(Int)), 10)
	}
	INT_TYPE.Neg = func(scope *Scope, self Value) (Value, error) {
		return -self.(Int), nil
	}
	INT_TYPE.ExplicitCast = func(scope *Scope, v Value) (Value, error) {
		switch val := v.(type) {
		case Float:
			f := float64(val)
			if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= math.MaxInt64 {
				return nil, NewEvaluationError(ErrCastFailed, FLOAT_TYPE.Name, INT_TYPE.Name)
			}
			return Int(math.Trunc(f)), nil
		case String:
			i, err := strconv.ParseInt(strings.TrimSpace(string(val)), 10, 64)
			if err != nil {
				return nil, NewEvaluationError(ErrCastFailed, STRING_TYPE.Name, INT_TYPE.Name)
			}
			return Int(i), nil
		case Bool:
			if val {
				return Int(1), nil
			}
			return Int(0), nil
		}
		return nil, NewEvaluationError(ErrCastFailed, TypeOf(v).Name, INT_TYPE.Name)
	}
	INT_TYPE.Encode = func(ctx *EncodeContext, v Value) (compound.Compound, error) {
		return compound.New().PutInt("Value", int64(v.(Int))), nil
	}
	INT_TYPE.Decode = func(ctx *DecodeContext, c compound.Compound) (Value, error) {
		i, err := c.Int("Value")
		return Int(i), err
	}

	FLOAT_TYPE.Str = func(self Value) string {
		return formatFloat(float64(self.(Float)))
	}
	FLOAT_TYPE.Neg = func(scope *Scope, self Value) (Value, error) {
		return -self.(Float), nil
	}
	FLOAT_TYPE.ImplicitCast = func(v Value) (Value, bool) {
		if i, ok := v.(Int); ok {
			return Float(i), true
		}
		return nil, false
	}
	FLOAT_TYPE.ExplicitCast = func(scope *Scope, v Value) (Value, error) {
		switch val := v.(type) {
		case Int:
			return Float(val), nil
		case String:
			f, err := strconv.ParseFloat(strings.TrimSpace(string(val)), 64)
			if err != nil {
				return nil, NewEvaluationError(ErrCastFailed, STRING_TYPE.Name, FLOAT_TYPE.Name)
			}
			return Float(f), nil
		case Bool:
			if val {
				return Float(1), nil
			}
			return Float(0), nil
		}
		return nil, NewEvaluationError(ErrCastFailed, TypeOf(v).Name, FLOAT_TYPE.Name)
	}
	FLOAT_TYPE.Encode = func(ctx *EncodeContext, v Value) (compound.Compound, error) {
		return compound.New().Put("Value", ast.EncodeFloat(float64(v.(Float)))), nil
	}
	FLOAT_TYPE.Decode = func(ctx *DecodeContext, c compound.Compound) (Value, error) {
		f, err := ast.DecodeFloat(c, "Value")
		return Float(f), err
	}
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

func toFloat(v Value) (float64, bool) {
	switch n := v.(type) {
	case Int:
		return float64(n), true
	case Float:
		return float64(n), true
	}
	return 0, false
}

func numberEqual(self, other Value) bool {
	if a, ok := self.(Int); ok {
		if b, ok := other.(Int); ok {
			return a == b
		}
	}
	a, _ := toFloat(self)
	b, ok := toFloat(other)
	return ok && a == b
}

func numberCompare(scope *Scope, self, other Value) (int, error) {
	if a, ok := self.(Int); ok {
		if b, ok := other.(Int); ok {
			return cmp.Compare(a, b), nil
		}
	}
	a, _ := toFloat(self)
	b, ok := toFloat(other)
	if !ok {
		return 0, fmtUnsupportedOperation("comparison", self, other)
	}
	return cmp.Compare(a, b), nil
}

// numericOperator returns an operator hook that applies intOp if both operands are integers and floatOp
// if one of them is a float.
func numericOperator(
	op ast.BinaryOperator,
	intOp func(a, b int64) (Value, error),
	floatOp func(a, b float64) (Value, error),
) func(scope *Scope, self, other Value, inPlace bool) (Value, error) {
	return func(scope *Scope, self, other Value, inPlace bool) (Value, error) {
		if a, ok := self.(Int); ok {
			if b, ok := other.(Int); ok {
				return intOp(int64(a), int64(b))
			}
		}
		a, _ := toFloat(self)
		b, ok := toFloat(other)
		if !ok {
			return nil, fmtUnsupportedOperation(op.String(), self, other)
		}
		return floatOp(a, b)
	}
}

func addInts(a, b int64) (Value, error) { return Int(a + b), nil }
func subInts(a, b int64) (Value, error) { return Int(a - b), nil }
func mulInts(a, b int64) (Value, error) { return Int(a * b), nil }

func divInts(a, b int64) (Value, error) {
	return divFloats(float64(a), float64(b))
}

func divFloats(a, b float64) (Value, error) {
	if b == 0 {
		return nil, NewEvaluationError(ErrDivisionByZero)
	}
	return Float(a / b), nil
}

func floorDivInts(a, b int64) (Value, error) {
	if b == 0 {
		return nil, NewEvaluationError(ErrDivisionByZero)
	}
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return Int(q), nil
}

func floorDivFloats(a, b float64) (Value, error) {
	if b == 0 {
		return nil, NewEvaluationError(ErrDivisionByZero)
	}
	return Float(math.Floor(a / b)), nil
}

func modInts(a, b int64) (Value, error) {
	if b == 0 {
		return nil, NewEvaluationError(ErrDivisionByZero)
	}
	m := a % b
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return Int(m), nil
}

func modFloats(a, b float64) (Value, error) {
	if b == 0 {
		return nil, NewEvaluationError(ErrDivisionByZero)
	}
	m := math.Mod(a, b)
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return Float(m), nil
}

// powInts returns an integer for non-negative exponents, overflows wrap around.
func powInts(base, exp int64) (Value, error) {
	if exp < 0 {
		return Float(math.Pow(float64(base), float64(exp))), nil
	}
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return Int(result), nil
}
