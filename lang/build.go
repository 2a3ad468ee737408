package lang

import (
	"strconv"

	"github.com/ardnew/keycalc/lang/syntax"
)

const hintOperators = "only +, -, *, and / operators are supported"

// Build converts a validated syntax tree into an [Expr]. Structural
// problems a validated tree cannot contain are still reported as
// [Diagnostic] values rather than panics.
func Build(root *syntax.Node, src []byte) (Expr, error) {
	b := builder{src: src}

	if root == nil {
		return nil, b.fail(KindParse, nil, "empty expression")
	}

	if root.Kind() == syntax.KindSource {
		if root.NamedChildCount() == 0 {
			return nil, diagnose(KindParse, src, 0, len(src), "empty expression")
		}

		root = root.NamedChild(0)
	}

	return b.build(root)
}

type builder struct {
	src []byte
}

func (b builder) fail(kind ErrorKind, n *syntax.Node, detail string) *Diagnostic {
	if n == nil {
		return diagnose(kind, b.src, 0, len(b.src), detail)
	}

	return diagnose(kind, b.src, n.StartByte(), n.EndByte(), detail)
}

func span(n *syntax.Node) Span {
	return Span{Offset: n.StartByte(), Length: n.Len()}
}

func (b builder) build(n *syntax.Node) (Expr, error) {
	switch n.Kind() {
	case syntax.KindExpression:
		if n.NamedChildCount() == 0 {
			return nil, b.fail(KindParse, n, "empty expression node")
		}

		return b.build(n.NamedChild(0))

	case syntax.KindNumber:
		if n.IsMissing() {
			return nil, b.fail(KindParse, n, "missing number")
		}

		return b.integer(n)

	case syntax.KindFloat:
		return b.float(n)

	case syntax.KindBinary:
		return b.binary(n)

	case syntax.KindParenthesized:
		return b.paren(n)

	default:
		return nil, b.fail(KindParse, n, "unexpected node type '"+n.Type()+"'")
	}
}

func (b builder) integer(n *syntax.Node) (Expr, error) {
	text := n.Content(b.src)

	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		d := b.fail(KindNumber, n, "failed to parse integer")
		d.Cause = err
		d.Hint = "integers must fit in 64 bits; write a float such as " + text + ".0"

		return nil, d
	}

	return &IntegerExpr{node: node{span(n)}, Value: v}, nil
}

func (b builder) float(n *syntax.Node) (Expr, error) {
	text := n.Content(b.src)

	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		d := b.fail(KindNumber, n, "failed to parse float")
		d.Cause = err

		return nil, d
	}

	return &FloatExpr{node: node{span(n)}, Value: v}, nil
}

func (b builder) paren(n *syntax.Node) (Expr, error) {
	inner := n.ChildByFieldName(syntax.FieldInner)
	if inner == nil || inner.IsMissing() {
		return nil, b.fail(KindParse, n, "empty parentheses")
	}

	e, err := b.build(inner)
	if err != nil {
		return nil, err
	}

	return &ParenExpr{node: node{span(n)}, Inner: e}, nil
}

func (b builder) binary(n *syntax.Node) (Expr, error) {
	left := n.ChildByFieldName(syntax.FieldLeft)
	if left == nil || left.IsMissing() {
		return nil, b.fail(KindParse, n, "missing left operand")
	}

	tok := n.ChildByFieldName(syntax.FieldOperator)
	if tok == nil || tok.IsMissing() {
		return nil, b.fail(KindParse, n, "missing operator")
	}

	right := n.ChildByFieldName(syntax.FieldRight)
	if right == nil || right.IsMissing() {
		return nil, b.fail(KindParse, n, "missing right operand")
	}

	l, err := b.build(left)
	if err != nil {
		return nil, err
	}

	op, ok := ParseOp(tok.Type())
	if !ok {
		d := b.fail(KindInvalidOperator, tok, "unsupported operator '"+tok.Type()+"'")
		d.Hint = hintOperators

		return nil, d
	}

	r, err := b.build(right)
	if err != nil {
		return nil, err
	}

	return &BinaryExpr{node: node{span(n)}, Left: l, Op: op, Right: r}, nil
}
