package syntax

import (
	"encoding/binary"
	"errors"
	"strconv"

	"github.com/zeebo/xxh3"
)

// ErrInputTooLarge is returned by [Parser.Parse] when the source exceeds
// the configured maximum length.
var ErrInputTooLarge = errors.New("input exceeds maximum length")

const (
	// DefaultMaxInput is the default maximum source length in bytes.
	DefaultMaxInput = 1 << 20
	// DefaultMaxDepth is the default maximum parenthesis nesting depth.
	DefaultMaxDepth = 512
)

// Parser parses calculator expressions. A Parser holds no per-parse state
// and is safe for concurrent use.
type Parser struct {
	maxInput int
	maxDepth int
}

// Option configures a [Parser].
type Option func(*Parser)

// WithMaxInput sets the maximum source length accepted by [Parser.Parse].
// Non-positive values select [DefaultMaxInput].
func WithMaxInput(n int) Option {
	return func(p *Parser) {
		if n <= 0 {
			n = DefaultMaxInput
		}

		p.maxInput = n
	}
}

// WithMaxDepth sets the maximum parenthesis nesting depth. Deeper input is
// wrapped in an ERROR node.
func WithMaxDepth(n int) Option {
	return func(p *Parser) {
		if n <= 0 {
			n = DefaultMaxDepth
		}

		p.maxDepth = n
	}
}

// NewParser returns a parser configured with opts.
func NewParser(opts ...Option) *Parser {
	p := &Parser{maxInput: DefaultMaxInput, maxDepth: DefaultMaxDepth}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Parse parses src. If old is non-nil it must have been edited with
// [Tree.Edit] to describe exactly the change to src, and its unchanged
// operand subtrees are reused. A reused literal is rescanned so that text
// appended after it, such as ".5" after "42", still extends it. Reused
// subtrees are shared, so old must not be edited again afterward. Reuse is
// skipped when old no longer describes a text of len(src) bytes.
func (p *Parser) Parse(src []byte, old *Tree) (*Tree, error) {
	if len(src) > p.maxInput {
		return nil, ErrInputTooLarge
	}

	s := state{src: src, maxDepth: p.maxDepth}

	if old != nil && old.length == len(src) {
		s.reuse = old.reusable()
	}

	root := s.parseSource()

	return &Tree{root: root, length: len(src), reused: s.reused}, nil
}

// state is the cursor over a single parse.
type state struct {
	src      []byte
	reuse    map[int]*Node
	pos      int
	depth    int
	maxDepth int
	reused   int
}

func (s *state) eof() bool { return s.pos >= len(s.src) }

func (s *state) peek() byte {
	if s.eof() {
		return 0
	}

	return s.src[s.pos]
}

func (s *state) skipSpace() {
	for !s.eof() && isSpace(s.src[s.pos]) {
		s.pos++
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

// precedence returns the binding power of a binary operator and whether it
// associates to the right. Zero means c is not an operator.
func precedence(c byte) (prec int, right bool) {
	switch c {
	case '+', '-':
		return 1, false
	case '*', '/', '%':
		return 2, false
	case '^':
		return 3, true
	default:
		return 0, false
	}
}

func (s *state) parseSource() *Node {
	root := NewNode(KindSource, 0, len(s.src))

	s.skipSpace()

	if s.eof() {
		return root
	}

	if expr := s.parseExpression(1); expr != nil {
		root.Append("", expr)
	}

	s.skipSpace()

	if !s.eof() {
		root.Append("", s.errorToEnd())
	}

	return root
}

// errorToEnd wraps the remaining input, less trailing whitespace, in an
// ERROR node.
func (s *state) errorToEnd() *Node {
	end := len(s.src)
	for end > s.pos && isSpace(s.src[end-1]) {
		end--
	}

	n := NewNode(KindError, s.pos, end)
	s.pos = len(s.src)

	return n
}

// parseExpression parses a chain of binary operations whose operators bind
// at least as tightly as minPrec. It returns nil if no operand is present.
func (s *state) parseExpression(minPrec int) *Node {
	left := s.parseOperand()
	if left == nil {
		return nil
	}

	for {
		save := s.pos

		s.skipSpace()

		prec, right := precedence(s.peek())
		if prec == 0 || prec < minPrec {
			s.pos = save

			return left
		}

		op := NewToken(s.peek(), s.pos)
		s.pos++

		next := prec + 1
		if right {
			next = prec
		}

		s.skipSpace()

		rhs := s.parseExpression(next)
		if rhs == nil {
			rhs = NewMissing(KindNumber, 0, s.pos)
		}

		bin := NewNode(KindBinary, left.start, max(rhs.end, op.end)).
			Append(FieldLeft, left).
			Append(FieldOperator, op).
			Append(FieldRight, rhs)

		left = s.seal(NewNode(KindExpression, bin.start, bin.end).Append("", bin))

		if rhs.missing {
			return left
		}
	}
}

// parseOperand parses a literal or parenthesized expression at the cursor,
// after any whitespace. It returns nil without consuming input if none is
// present.
func (s *state) parseOperand() *Node {
	s.skipSpace()

	if n, ok := s.reuse[s.pos]; ok && s.matches(n) {
		s.pos = n.end
		s.reused++

		return n
	}

	start := s.pos

	switch c := s.peek(); {
	case c == '(':
		return s.parseParenthesized()

	case isDigit(c), c == '.', c == '-':
		kind, end := s.scanNumber(start)
		if end == start {
			return nil
		}

		s.pos = end

		lit := NewNode(kind, start, end)

		return s.seal(NewNode(KindExpression, start, end).Append("", lit))

	default:
		return nil
	}
}

// scanNumber returns the kind and end offset of the numeric literal at
// start, or end == start if there is none.
func (s *state) scanNumber(start int) (Kind, int) {
	i := start
	if i < len(s.src) && s.src[i] == '-' {
		i++
	}

	digits := i
	for i < len(s.src) && isDigit(s.src[i]) {
		i++
	}

	intEnd := i

	if i+1 < len(s.src) && s.src[i] == '.' && isDigit(s.src[i+1]) {
		i++
		for i < len(s.src) && isDigit(s.src[i]) {
			i++
		}

		return KindFloat, i
	}

	if intEnd > digits {
		return KindNumber, intEnd
	}

	return KindNumber, start
}

func (s *state) parseParenthesized() *Node {
	start := s.pos

	if s.depth >= s.maxDepth {
		return s.errorToEnd()
	}

	s.depth++
	defer func() { s.depth-- }()

	open := NewToken('(', start)
	s.pos++

	s.skipSpace()

	if s.peek() == ')' {
		closing := NewToken(')', s.pos)
		s.pos++

		return NewNode(KindError, start, s.pos).
			Append("", open).
			Append("", closing)
	}

	inner := s.parseExpression(1)
	if inner == nil {
		inner = NewMissing(KindNumber, 0, s.pos)
	}

	s.skipSpace()

	var closing *Node

	if s.peek() == ')' {
		closing = NewToken(')', s.pos)
		s.pos++
	} else {
		closing = NewMissing(KindPunctuation, ')', max(inner.end, open.end))
	}

	paren := NewNode(KindParenthesized, start, max(closing.end, inner.end)).
		Append("", open).
		Append(FieldInner, inner).
		Append("", closing)

	return s.seal(NewNode(KindExpression, paren.start, paren.end).Append("", paren))
}

// Digest tags of the expression shapes.
const (
	tagLiteral byte = iota
	tagParenthesized
	tagBinary
)

// seal records the digest and nesting depth of an error-free expression
// wrapper. Literals hash their text once; composite expressions combine the
// digests of their operands, so no text is hashed twice.
func (s *state) seal(n *Node) *Node {
	if n.hasError || len(n.children) == 0 {
		return n
	}

	switch c := n.children[0]; c.kind {
	case KindNumber, KindFloat:
		n.digest = literalDigest(c.kind, s.src[c.start:c.end])

	case KindParenthesized:
		inner := c.ChildByFieldName(FieldInner)
		n.digest = combine(tagParenthesized, inner.digest)
		n.nest = inner.nest + 1

	case KindBinary:
		left, right := c.ChildByFieldName(FieldLeft), c.ChildByFieldName(FieldRight)
		op := c.ChildByFieldName(FieldOperator)
		n.digest = combine(tagBinary, left.digest, uint64(op.sym), right.digest)
		n.nest = max(left.nest, right.nest)
	}

	return n
}

// matches reports whether the reuse candidate n can stand at the cursor.
// Edit tracking guarantees its text is unchanged, but a literal may now be
// followed by text that extends it, so literals are rescanned.
func (s *state) matches(n *Node) bool {
	if n.start != s.pos || n.end > len(s.src) || len(n.children) == 0 {
		return false
	}

	switch c := n.children[0]; c.kind {
	case KindNumber, KindFloat:
		kind, end := s.scanNumber(s.pos)

		return kind == c.kind && end == n.end &&
			literalDigest(kind, s.src[n.start:n.end]) == n.digest

	case KindParenthesized:
		return n.nest <= s.maxDepth-s.depth &&
			s.src[n.start] == '(' && s.src[n.end-1] == ')' &&
			combine(tagParenthesized, c.ChildByFieldName(FieldInner).digest) == n.digest

	default:
		return false
	}
}

func literalDigest(kind Kind, text []byte) uint64 {
	buf := make([]byte, 0, 1+len(text))
	buf = append(buf, tagLiteral, byte(kind))
	buf = append(buf, text...)

	return nonzero(xxh3.Hash(buf))
}

func combine(tag byte, parts ...uint64) uint64 {
	buf := make([]byte, 1, 1+8*len(parts))
	buf[0] = tag

	for _, p := range parts {
		buf = binary.LittleEndian.AppendUint64(buf, p)
	}

	return nonzero(xxh3.Hash(buf))
}

// nonzero reserves the zero digest for expressions that cannot be reused.
func nonzero(h uint64) uint64 {
	if h == 0 {
		return 1
	}

	return h
}

// Sexp is a convenience that parses src without reuse and returns the
// S-expression of its root.
func Sexp(src string) string {
	t, err := NewParser().Parse([]byte(src), nil)
	if err != nil {
		return "(ERROR " + strconv.Quote(err.Error()) + ")"
	}

	return t.Root().String()
}
