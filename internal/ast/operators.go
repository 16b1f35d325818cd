package ast

type UnaryOperator int

const (
	Negate UnaryOperator = iota
	Not
)

var unaryOperatorSymbols = [...]string{
	Negate: "-",
	Not:    "not",
}

func (op UnaryOperator) String() string {
	if op < 0 || int(op) >= len(unaryOperatorSymbols) {
		return "<invalid unary operator>"
	}
	return unaryOperatorSymbols[op]
}

func UnaryOperatorFromSymbol(symbol string) (UnaryOperator, bool) {
	for i, s := range unaryOperatorSymbols {
		if s == symbol {
			return UnaryOperator(i), true
		}
	}
	return 0, false
}

type BinaryOperator int

const (
	Add BinaryOperator = iota
	Sub
	Mul
	Div
	IntDiv
	Mod
	Pow
	Equal
	NotEqual
	GreaterThan
	GreaterOrEqual
	LessThan
	LessOrEqual
	In
	NotIn
	And
	Or
)

var binaryOperatorSymbols = [...]string{
	Add:            "+",
	Sub:            "-",
	Mul:            "*",
	Div:            "/",
	IntDiv:         "//",
	Mod:            "%",
	Pow:            "^",
	Equal:          "==",
	NotEqual:       "!=",
	GreaterThan:    ">",
	GreaterOrEqual: ">=",
	LessThan:       "<",
	LessOrEqual:    "<=",
	In:             "in",
	NotIn:          "not in",
	And:            "and",
	Or:             "or",
}

func (op BinaryOperator) String() string {
	if op < 0 || int(op) >= len(binaryOperatorSymbols) {
		return "<invalid binary operator>"
	}
	return binaryOperatorSymbols[op]
}

func (op BinaryOperator) IsShortCircuit() bool {
	return op == And || op == Or
}

func BinaryOperatorFromSymbol(symbol string) (BinaryOperator, bool) {
	for i, s := range binaryOperatorSymbols {
		if s == symbol {
			return BinaryOperator(i), true
		}
	}
	return 0, false
}

type AssignOperator int

const (
	Assign AssignOperator = iota
	AddAssign
	SubAssign
	MulAssign
	DivAssign
	IntDivAssign
	ModAssign
	PowAssign
)

var assignOperatorSymbols = [...]string{
	Assign:       ":=",
	AddAssign:    "+=",
	SubAssign:    "-=",
	MulAssign:    "*=",
	DivAssign:    "/=",
	IntDivAssign: "//=",
	ModAssign:    "%=",
	PowAssign:    "^=",
}

var assignToBinaryOperator = [...]BinaryOperator{
	AddAssign:    Add,
	SubAssign:    Sub,
	MulAssign:    Mul,
	DivAssign:    Div,
	IntDivAssign: IntDiv,
	ModAssign:    Mod,
	PowAssign:    Pow,
}

func (op AssignOperator) String() string {
	if op < 0 || int(op) >= len(assignOperatorSymbols) {
		return "<invalid assignment operator>"
	}
	return assignOperatorSymbols[op]
}

// BinaryOperator returns the operator applied by a compound assignment (e.g. + for +=),
// ok is false for the plain assignment.
func (op AssignOperator) BinaryOperator() (_ BinaryOperator, ok bool) {
	if op == Assign || op < 0 || int(op) >= len(assignToBinaryOperator) {
		return 0, false
	}
	return assignToBinaryOperator[op], true
}

func AssignOperatorFromSymbol(symbol string) (AssignOperator, bool) {
	for i, s := range assignOperatorSymbols {
		if s == symbol {
			return AssignOperator(i), true
		}
	}
	return 0, false
}
