package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Error is an error with optional structured logging attributes.
// It implements both error and [slog.LogValuer].
type Error struct {
	msg   string
	err   error
	attrs []slog.Attr
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError converts err into an *Error, returning err itself if it already
// is one.
func WrapError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return &Error{err: err}
}

func (e *Error) Error() string {
	// "<msg>: <err>", "<msg>", "<err>", or "" depending on which are set.
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is an *Error with the same message, so that
// errors derived from a sentinel with [Error.Wrap] or [Error.With] still
// match it.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t.msg != "" && t.msg == e.msg
}

func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap returns a copy of e wrapping err.
func (e *Error) Wrap(err error) *Error {
	return &Error{msg: e.msg, err: err, attrs: e.attrs}
}

// With returns a copy of e with attrs appended.
func (e *Error) With(attrs ...slog.Attr) *Error {
	merged := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(merged, e.attrs)
	copy(merged[len(e.attrs):], attrs)

	return &Error{msg: e.msg, err: e.err, attrs: merged}
}

// ErrorKind classifies a [Diagnostic].
type ErrorKind uint8

const (
	// KindParse is a grammar-level failure or an error-marked parse node.
	KindParse ErrorKind = iota
	// KindNumber is a literal accepted by the grammar whose value does not
	// fit its numeric type.
	KindNumber
	// KindInvalidOperator is an operator token the evaluator does not
	// implement.
	KindInvalidOperator
	// KindTypeMismatch is a disagreement between the resolved type of an
	// expression and the type inferred by the code generator backend.
	KindTypeMismatch
	// KindCompilation is a failure lowering or compiling an expression.
	KindCompilation
	// KindJIT is a failure declaring, defining, or finalizing a compiled
	// symbol, or running it.
	KindJIT
	// KindSystem is a backend or environment failure.
	KindSystem
)

// Sentinels matched by [Diagnostic] through errors.Is.
var (
	ErrParse            = NewError("parse error")
	ErrNumber           = NewError("number error")
	ErrInvalidOperator  = NewError("invalid operator")
	ErrTypeMismatch     = NewError("type mismatch")
	ErrCompilation      = NewError("compilation error")
	ErrJIT              = NewError("jit error")
	ErrSystem           = NewError("system error")
	ErrEngineClosed     = NewError("engine closed")
	ErrInvalidOption    = NewError("invalid option")
	ErrUnknownSymbol    = NewError("unknown symbol")
	ErrSymbolState      = NewError("symbol in wrong state")
	ErrUnexpectedResult = NewError("unexpected result type")
)

var kindErrors = [...]*Error{
	KindParse:           ErrParse,
	KindNumber:          ErrNumber,
	KindInvalidOperator: ErrInvalidOperator,
	KindTypeMismatch:    ErrTypeMismatch,
	KindCompilation:     ErrCompilation,
	KindJIT:             ErrJIT,
	KindSystem:          ErrSystem,
}

// Err returns the sentinel error for k.
func (k ErrorKind) Err() *Error {
	if int(k) < len(kindErrors) {
		return kindErrors[k]
	}

	return ErrSystem
}

func (k ErrorKind) String() string { return k.Err().msg }

// KindOf returns the kind of the first sentinel matched by err, or
// [KindSystem] if none match.
func KindOf(err error) ErrorKind {
	var d *Diagnostic
	if errors.As(err, &d) {
		return d.Kind
	}

	for k, sentinel := range kindErrors {
		if errors.Is(err, sentinel) {
			return ErrorKind(k)
		}
	}

	return KindSystem
}

// Span is a byte range in source text.
type Span struct {
	Offset int
	Length int
}

// End returns the offset just past the span.
func (s Span) End() int { return s.Offset + s.Length }

// Diagnostic describes why an input could not be evaluated. It is the only
// error type returned by [Calculator.Update].
type Diagnostic struct {
	Source string
	Span   Span
	Kind   ErrorKind
	Detail string
	Hint   string
	Cause  error
}

func (d *Diagnostic) Error() string {
	var sb strings.Builder

	sb.WriteString(d.Kind.String())

	if d.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(d.Detail)
	}

	if d.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(d.Cause.Error())
	}

	return sb.String()
}

// Unwrap exposes the kind sentinel and the underlying cause.
func (d *Diagnostic) Unwrap() []error {
	if d.Cause == nil {
		return []error{d.Kind.Err()}
	}

	return []error{d.Kind.Err(), d.Cause}
}

func (d *Diagnostic) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("kind", d.Kind.String()),
		slog.String("detail", d.Detail),
		slog.Int("offset", d.Span.Offset),
		slog.Int("length", d.Span.Length),
	}

	if d.Hint != "" {
		attrs = append(attrs, slog.String("hint", d.Hint))
	}

	if d.Cause != nil {
		attrs = append(attrs, slog.String("cause", d.Cause.Error()))
	}

	return slog.GroupValue(attrs...)
}

// Snippet returns the source line containing the start of the span and a
// marker line underlining it, both prefixed with a gutter.
func (d *Diagnostic) Snippet() (line, marker string) {
	src := d.Source
	off := min(max(d.Span.Offset, 0), len(src))

	lineStart := strings.LastIndexByte(src[:off], '\n') + 1

	lineEnd := strings.IndexByte(src[off:], '\n')
	if lineEnd < 0 {
		lineEnd = len(src)
	} else {
		lineEnd += off
	}

	lineNum := strings.Count(src[:lineStart], "\n") + 1
	gutter := strconv.Itoa(lineNum)

	end := min(max(d.Span.End(), off), lineEnd)

	col := utf8.RuneCountInString(src[lineStart:off])
	width := max(utf8.RuneCountInString(src[off:end]), 1)

	line = "  " + gutter + " | " + src[lineStart:lineEnd]
	marker = strings.Repeat(" ", len(gutter)+5+col) + strings.Repeat("^", width)

	return line, marker
}

// Render formats the diagnostic with its source snippet and hint.
func (d *Diagnostic) Render() string {
	var sb strings.Builder

	sb.WriteString(d.Error())
	sb.WriteByte('\n')

	line, marker := d.Snippet()
	sb.WriteString(line)
	sb.WriteByte('\n')
	sb.WriteString(marker)

	if d.Hint != "" {
		sb.WriteString("\n  = help: ")
		sb.WriteString(d.Hint)
	}

	return sb.String()
}

// diagnose builds a Diagnostic spanning [start, end) of src.
func diagnose(kind ErrorKind, src []byte, start, end int, detail string) *Diagnostic {
	return &Diagnostic{
		Source: string(src),
		Span:   Span{Offset: start, Length: max(end-start, 0)},
		Kind:   kind,
		Detail: detail,
	}
}
