package lang

import (
	"errors"
	"strings"
	"testing"

	"github.com/ardnew/keycalc/lang/syntax"
)

func parseTree(t *testing.T, src string) *syntax.Node {
	t.Helper()

	tree, err := syntax.NewParser().Parse([]byte(src), nil)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", src, err)
	}

	return tree.Root()
}

func mustBuild(t *testing.T, src string) Expr {
	t.Helper()

	root := parseTree(t, src)

	if err := Validate(root, []byte(src)); err != nil {
		t.Fatalf("Validate(%q) error = %v", src, err)
	}

	e, err := Build(root, []byte(src))
	if err != nil {
		t.Fatalf("Build(%q) error = %v", src, err)
	}

	return e
}

func TestErrorNodes_Order(t *testing.T) {
	src := "(1 + ) + 2)"
	nodes := ErrorNodes(parseTree(t, src))

	if len(nodes) != 2 {
		t.Fatalf("ErrorNodes(%q) found %d nodes, want 2", src, len(nodes))
	}

	if !nodes[0].IsMissing() || nodes[0].StartByte() != 5 {
		t.Errorf("first = %s at %d, want MISSING at 5", nodes[0], nodes[0].StartByte())
	}

	if !nodes[1].IsError() || nodes[1].Content([]byte(src)) != ")" {
		t.Errorf("second = %s %q, want ERROR \")\"", nodes[1], nodes[1].Content([]byte(src)))
	}
}

func TestValidate_Clean(t *testing.T) {
	for _, src := range []string{"1", "1 + 2", "(1.5 * -2) / 3", "1 % 2"} {
		if err := Validate(parseTree(t, src), []byte(src)); err != nil {
			t.Errorf("Validate(%q) error = %v", src, err)
		}
	}
}

func TestValidate_NilRoot(t *testing.T) {
	err := Validate(nil, []byte("1"))
	if KindOf(err) != KindParse {
		t.Errorf("Validate(nil) kind = %v, want %v", KindOf(err), KindParse)
	}
}

func TestBuild_Shapes(t *testing.T) {
	tests := []struct {
		src  string
		want Expr
	}{
		{"7", NewInteger(7)},
		{"-7", NewInteger(-7)},
		{"2.50", NewFloat(2.5)},
		{"(7)", NewParen(NewInteger(7))},
		{"1 + 2 * 3", NewBinary(NewInteger(1), OpAdd, NewBinary(NewInteger(2), OpMultiply, NewInteger(3)))},
		{"1 - 2 - 3", NewBinary(NewBinary(NewInteger(1), OpSubtract, NewInteger(2)), OpSubtract, NewInteger(3))},
		{"(1 + 2) / 3.0", NewBinary(NewParen(NewBinary(NewInteger(1), OpAdd, NewInteger(2))), OpDivide, NewFloat(3))},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got := mustBuild(t, tt.src)
			if !Equal(got, tt.want) {
				t.Errorf("Build(%q) = %s, want %s", tt.src, got, tt.want)
			}
		})
	}
}

func TestBuild_Spans(t *testing.T) {
	src := " 12 + (3.5)"
	e := mustBuild(t, src)

	bin, ok := e.(*BinaryExpr)
	if !ok {
		t.Fatalf("Build(%q) = %T, want *BinaryExpr", src, e)
	}

	tests := []struct {
		name string
		expr Expr
		want Span
	}{
		{"binary", bin, Span{1, 10}},
		{"left", bin.Left, Span{1, 2}},
		{"right", bin.Right, Span{6, 5}},
		{"inner", bin.Right.(*ParenExpr).Inner, Span{7, 3}},
	}

	for _, tt := range tests {
		if got := tt.expr.Span(); got != tt.want {
			t.Errorf("%s span = %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

func TestBuild_MalformedTrees(t *testing.T) {
	src := []byte("1+2")

	num := func(start, end int) *syntax.Node {
		return syntax.NewNode(syntax.KindExpression, start, end).
			Append("", syntax.NewNode(syntax.KindNumber, start, end))
	}

	binary := func(left, op, right bool) *syntax.Node {
		n := syntax.NewNode(syntax.KindBinary, 0, 3)
		if left {
			n.Append(syntax.FieldLeft, num(0, 1))
		}

		if op {
			n.Append(syntax.FieldOperator, syntax.NewToken('+', 1))
		}

		if right {
			n.Append(syntax.FieldRight, num(2, 3))
		}

		return n
	}

	tests := []struct {
		name   string
		root   *syntax.Node
		detail string
	}{
		{"nil root", nil, "empty expression"},
		{"empty source", syntax.NewNode(syntax.KindSource, 0, 3), "empty expression"},
		{"empty expression node", syntax.NewNode(syntax.KindExpression, 0, 3), "empty expression node"},
		{"missing left", binary(false, true, true), "missing left operand"},
		{"missing operator", binary(true, false, true), "missing operator"},
		{"missing right", binary(true, true, false), "missing right operand"},
		{
			"empty parentheses",
			syntax.NewNode(syntax.KindParenthesized, 0, 2).
				Append("", syntax.NewToken('(', 0)).
				Append("", syntax.NewToken(')', 1)),
			"empty parentheses",
		},
		{"unexpected node", syntax.NewNode(syntax.KindError, 0, 3), "unexpected node type 'ERROR'"},
		{"missing number", syntax.NewMissing(syntax.KindNumber, 0, 1), "missing number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.root, src)

			var d *Diagnostic
			if !errors.As(err, &d) {
				t.Fatalf("Build() error = %v, want *Diagnostic", err)
			}

			if d.Kind != KindParse {
				t.Errorf("Kind = %v, want %v", d.Kind, KindParse)
			}

			if d.Detail != tt.detail {
				t.Errorf("Detail = %q, want %q", d.Detail, tt.detail)
			}

			if d.Source != string(src) {
				t.Errorf("Source = %q, want %q", d.Source, src)
			}
		})
	}
}

func TestBuild_NumberErrors(t *testing.T) {
	tests := []struct {
		src    string
		detail string
	}{
		{"9223372036854775808", "failed to parse integer"},
		{"1 + -9223372036854775809", "failed to parse integer"},
		{strings.Repeat("9", 400) + ".5", "failed to parse float"},
	}

	for _, tt := range tests {
		root := parseTree(t, tt.src)

		_, err := Build(root, []byte(tt.src))
		if KindOf(err) != KindNumber {
			t.Errorf("Build(%.20q...) kind = %v, want %v", tt.src, KindOf(err), KindNumber)

			continue
		}

		var d *Diagnostic
		if errors.As(err, &d) && d.Detail != tt.detail {
			t.Errorf("Detail = %q, want %q", d.Detail, tt.detail)
		}

		if !errors.Is(err, ErrNumber) {
			t.Errorf("errors.Is(err, ErrNumber) = false")
		}
	}
}
