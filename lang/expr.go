package lang

import (
	"math"
	"strconv"
	"strings"
)

// Op is a binary arithmetic operator.
type Op uint8

const (
	OpAdd Op = iota + 1
	OpSubtract
	OpMultiply
	OpDivide
)

var opSymbols = [...]string{
	OpAdd:      "+",
	OpSubtract: "-",
	OpMultiply: "*",
	OpDivide:   "/",
}

var opNames = [...]string{
	OpAdd:      "add",
	OpSubtract: "subtract",
	OpMultiply: "multiply",
	OpDivide:   "divide",
}

// String returns the operator symbol.
func (o Op) String() string {
	if o.Valid() {
		return opSymbols[o]
	}

	return "Op(" + strconv.Itoa(int(o)) + ")"
}

// Name returns the operator name, such as "add".
func (o Op) Name() string {
	if o.Valid() {
		return opNames[o]
	}

	return o.String()
}

// Valid reports whether o is one of the four supported operators.
func (o Op) Valid() bool { return o >= OpAdd && o <= OpDivide }

func (o Op) precedence() int {
	if o == OpMultiply || o == OpDivide {
		return 2
	}

	return 1
}

// ParseOp maps an operator symbol to its Op.
func ParseOp(s string) (Op, bool) {
	for op := OpAdd; op <= OpDivide; op++ {
		if opSymbols[op] == s {
			return op, true
		}
	}

	return 0, false
}

// Expr is an immutable expression tree. The concrete types are
// [*IntegerExpr], [*FloatExpr], [*BinaryExpr], and [*ParenExpr].
type Expr interface {
	// Span returns the source range the expression was built from. It is
	// zero for expressions not built from source.
	Span() Span
	String() string
	expr()
}

type node struct{ span Span }

func (n node) Span() Span { return n.span }
func (node) expr()        {}

// IntegerExpr is an integer literal.
type IntegerExpr struct {
	node
	Value int64
}

// FloatExpr is a floating-point literal.
type FloatExpr struct {
	node
	Value float64
}

// BinaryExpr applies Op to Left and Right.
type BinaryExpr struct {
	node
	Left  Expr
	Right Expr
	Op    Op
}

// ParenExpr is an explicitly parenthesized expression.
type ParenExpr struct {
	node
	Inner Expr
}

// NewInteger returns an integer literal.
func NewInteger(v int64) *IntegerExpr { return &IntegerExpr{Value: v} }

// NewFloat returns a floating-point literal.
func NewFloat(v float64) *FloatExpr { return &FloatExpr{Value: v} }

// NewBinary returns left op right.
func NewBinary(left Expr, op Op, right Expr) *BinaryExpr {
	return &BinaryExpr{Left: left, Op: op, Right: right}
}

// NewParen returns (inner).
func NewParen(inner Expr) *ParenExpr { return &ParenExpr{Inner: inner} }

func (e *IntegerExpr) String() string { return formatExpr(e) }
func (e *FloatExpr) String() string   { return formatExpr(e) }
func (e *BinaryExpr) String() string  { return formatExpr(e) }
func (e *ParenExpr) String() string   { return formatExpr(e) }

// formatExpr renders e as source text that parses back to an expression
// with the same value, adding parentheses where the tree shape requires
// them.
func formatExpr(e Expr) string {
	var sb strings.Builder

	writeExpr(&sb, e, 0, false)

	return sb.String()
}

func writeExpr(sb *strings.Builder, e Expr, parent int, right bool) {
	switch e := e.(type) {
	case *IntegerExpr:
		sb.WriteString(strconv.FormatInt(e.Value, 10))

	case *FloatExpr:
		sb.WriteString(formatFloatLiteral(e.Value))

	case *ParenExpr:
		sb.WriteByte('(')
		writeExpr(sb, e.Inner, 0, false)
		sb.WriteByte(')')

	case *BinaryExpr:
		prec := e.Op.precedence()
		group := prec < parent || (right && prec == parent)

		if group {
			sb.WriteByte('(')
		}

		writeExpr(sb, e.Left, prec, false)
		sb.WriteByte(' ')
		sb.WriteString(e.Op.String())
		sb.WriteByte(' ')
		writeExpr(sb, e.Right, prec, true)

		if group {
			sb.WriteByte(')')
		}

	default:
		sb.WriteString("<nil>")
	}
}

// formatFloatLiteral always includes a fractional part so the text lexes as
// a float. Non-finite values have no literal form and are written as Go
// formats them.
func formatFloatLiteral(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}

	return s
}

// Equal reports whether a and b have identical structure and literals.
// Floats compare by bit pattern, matching [Hash].
func Equal(a, b Expr) bool {
	switch a := a.(type) {
	case *IntegerExpr:
		b, ok := b.(*IntegerExpr)

		return ok && a.Value == b.Value

	case *FloatExpr:
		b, ok := b.(*FloatExpr)

		return ok && math.Float64bits(a.Value) == math.Float64bits(b.Value)

	case *BinaryExpr:
		b, ok := b.(*BinaryExpr)

		return ok && a.Op == b.Op && Equal(a.Left, b.Left) && Equal(a.Right, b.Right)

	case *ParenExpr:
		b, ok := b.(*ParenExpr)

		return ok && Equal(a.Inner, b.Inner)

	default:
		return a == nil && b == nil
	}
}

// Walk calls fn for e and each subexpression in depth-first pre-order,
// stopping early if fn returns false.
func Walk(e Expr, fn func(Expr) bool) bool {
	if e == nil || !fn(e) {
		return e == nil
	}

	switch e := e.(type) {
	case *BinaryExpr:
		return Walk(e.Left, fn) && Walk(e.Right, fn)
	case *ParenExpr:
		return Walk(e.Inner, fn)
	default:
		return true
	}
}
