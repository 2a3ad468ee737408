package syntax

import (
	"iter"
	"strconv"
	"strings"
)

// Kind identifies the grammar symbol of a [Node].
type Kind uint8

const (
	KindSource Kind = iota
	KindExpression
	KindNumber
	KindFloat
	KindBinary
	KindParenthesized
	KindError
	KindOperator
	KindPunctuation
)

var kindNames = [...]string{
	KindSource:        "source",
	KindExpression:    "expression",
	KindNumber:        "number",
	KindFloat:         "float",
	KindBinary:        "binary_expression",
	KindParenthesized: "parenthesized_expression",
	KindError:         "ERROR",
	KindOperator:      "operator",
	KindPunctuation:   "punctuation",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Named reports whether nodes of this kind are named grammar rules rather
// than anonymous tokens.
func (k Kind) Named() bool { return k < KindOperator }

// Field names assigned to children of binary and parenthesized nodes.
const (
	FieldLeft     = "left"
	FieldOperator = "operator"
	FieldRight    = "right"
	FieldInner    = "inner"
)

// Node is a node in a concrete syntax tree. Nil nodes are valid receivers
// for every accessor and behave as an absent node.
type Node struct {
	children []*Node
	fields   []string
	digest   uint64 // structural hash of error-free expressions
	start    int
	nest     int // parenthesis depth of error-free expressions
	end      int
	kind     Kind
	sym      byte // token text for operator and punctuation nodes
	missing  bool
	changed  bool
	hasError bool
}

// NewNode returns a node of the given kind covering [start, end).
// Children are attached with [Node.Append].
func NewNode(kind Kind, start, end int) *Node {
	return &Node{kind: kind, start: start, end: end, hasError: kind == KindError}
}

// NewToken returns an anonymous operator or punctuation token.
func NewToken(sym byte, start int) *Node {
	kind := KindOperator
	if sym == '(' || sym == ')' {
		kind = KindPunctuation
	}

	return &Node{kind: kind, sym: sym, start: start, end: start + 1}
}

// NewMissing returns a zero-width node standing in for a required symbol
// absent from the input. For tokens, kind is the token's kind and sym its
// text.
func NewMissing(kind Kind, sym byte, at int) *Node {
	return &Node{kind: kind, sym: sym, start: at, end: at, missing: true, hasError: true}
}

// Append adds child under the given field name ("" for none) and returns n.
func (n *Node) Append(field string, child *Node) *Node {
	if child == nil {
		return n
	}

	n.children = append(n.children, child)
	n.fields = append(n.fields, field)
	n.hasError = n.hasError || child.hasError

	return n
}

// Kind returns the grammar symbol of n.
func (n *Node) Kind() Kind {
	if n == nil {
		return KindError
	}

	return n.kind
}

// Type returns the grammar name of n. Anonymous tokens return their text.
func (n *Node) Type() string {
	if n == nil {
		return ""
	}

	if n.sym != 0 {
		return string(n.sym)
	}

	return n.kind.String()
}

// IsNamed reports whether n is a named grammar rule.
func (n *Node) IsNamed() bool { return n != nil && n.kind.Named() }

// StartByte returns the byte offset where n begins.
func (n *Node) StartByte() int {
	if n == nil {
		return 0
	}

	return n.start
}

// EndByte returns the byte offset just past the end of n.
func (n *Node) EndByte() int {
	if n == nil {
		return 0
	}

	return n.end
}

// Len returns the width of n in bytes.
func (n *Node) Len() int { return n.EndByte() - n.StartByte() }

// IsError reports whether n is an ERROR node.
func (n *Node) IsError() bool { return n != nil && n.kind == KindError }

// IsMissing reports whether n was inserted by the parser in place of a
// required symbol absent from the input.
func (n *Node) IsMissing() bool { return n != nil && n.missing }

// HasError reports whether n or any descendant is an ERROR or MISSING node.
func (n *Node) HasError() bool { return n != nil && n.hasError }

// HasChanges reports whether an edit applied with [Tree.Edit] touched n.
func (n *Node) HasChanges() bool { return n != nil && n.changed }

// ChildCount returns the number of children, named or anonymous.
func (n *Node) ChildCount() int {
	if n == nil {
		return 0
	}

	return len(n.children)
}

// Child returns the i-th child or nil if out of range.
func (n *Node) Child(i int) *Node {
	if n == nil || i < 0 || i >= len(n.children) {
		return nil
	}

	return n.children[i]
}

// FieldNameForChild returns the field name of the i-th child, if any.
func (n *Node) FieldNameForChild(i int) string {
	if n == nil || i < 0 || i >= len(n.fields) {
		return ""
	}

	return n.fields[i]
}

// NamedChildCount returns the number of named children.
func (n *Node) NamedChildCount() int {
	var count int

	for c := range n.Children() {
		if c.IsNamed() {
			count++
		}
	}

	return count
}

// NamedChild returns the i-th named child or nil if out of range.
func (n *Node) NamedChild(i int) *Node {
	for c := range n.Children() {
		if !c.IsNamed() {
			continue
		}

		if i == 0 {
			return c
		}

		i--
	}

	return nil
}

// ChildByFieldName returns the first child with the given field name.
func (n *Node) ChildByFieldName(name string) *Node {
	if n == nil {
		return nil
	}

	for i, f := range n.fields {
		if f == name {
			return n.children[i]
		}
	}

	return nil
}

// Children returns an iterator over the direct children of n.
func (n *Node) Children() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		if n == nil {
			return
		}

		for _, c := range n.children {
			if !yield(c) {
				return
			}
		}
	}
}

// Content returns the source text spanned by n. Offsets outside src are
// clamped.
func (n *Node) Content(src []byte) string {
	if n == nil {
		return ""
	}

	start, end := min(max(n.start, 0), len(src)), min(max(n.end, 0), len(src))
	if start >= end {
		return ""
	}

	return string(src[start:end])
}

// String returns n as an S-expression containing named nodes and fields.
func (n *Node) String() string {
	if n == nil {
		return "()"
	}

	var sb strings.Builder

	n.writeSexp(&sb)

	return sb.String()
}

func (n *Node) writeSexp(sb *strings.Builder) {
	sb.WriteByte('(')

	if n.missing {
		sb.WriteString("MISSING ")

		if n.sym != 0 {
			sb.WriteString(strconv.Quote(string(n.sym)))
		} else {
			sb.WriteString(n.kind.String())
		}

		sb.WriteByte(')')

		return
	}

	sb.WriteString(n.kind.String())

	for i, c := range n.children {
		if !c.IsNamed() && !c.missing {
			continue
		}

		sb.WriteByte(' ')

		if f := n.fields[i]; f != "" {
			sb.WriteString(f)
			sb.WriteString(": ")
		}

		c.writeSexp(sb)
	}

	sb.WriteByte(')')
}

// edit shifts or invalidates n and its descendants. It returns the number
// of nodes marked changed.
func (n *Node) edit(e InputEdit) int {
	switch {
	case n.end < e.StartByte:
		return 0

	case n.start > e.OldEndByte:
		n.shift(e.NewEndByte - e.OldEndByte)

		return 0
	}

	count := 1
	n.changed = true

	if n.end >= e.OldEndByte {
		n.end += e.NewEndByte - e.OldEndByte
	} else {
		n.end = e.NewEndByte
	}

	if n.start > e.StartByte {
		n.start = e.StartByte
	}

	for _, c := range n.children {
		count += c.edit(e)
	}

	// A shrinking edit may leave children reaching past their parent.
	n.end = max(n.end, n.start)

	return count
}

func (n *Node) shift(delta int) {
	n.start += delta
	n.end += delta

	for _, c := range n.children {
		c.shift(delta)
	}
}
