package lang

import (
	"encoding/json"
	"strconv"
)

// ToMap converts e to a nested map keyed by node attributes, suitable for
// JSON and YAML encoding.
func ToMap(e Expr) map[string]any {
	if e == nil {
		return nil
	}

	sp := e.Span()
	m := map[string]any{
		"span": map[string]any{"offset": sp.Offset, "length": sp.Length},
		"type": Resolve(e).String(),
	}

	switch e := e.(type) {
	case *IntegerExpr:
		m["kind"] = "integer"
		m["value"] = e.Value

	case *FloatExpr:
		m["kind"] = "float"
		m["value"] = Float(e.Value)

	case *BinaryExpr:
		m["kind"] = "binary"
		m["op"] = e.Op.Name()
		m["left"] = ToMap(e.Left)
		m["right"] = ToMap(e.Right)

	case *ParenExpr:
		m["kind"] = "paren"
		m["inner"] = ToMap(e.Inner)
	}

	return m
}

// Result is the outcome of evaluating one input.
type Result struct {
	Input string
	Value Value
	Err   error
	Expr  Expr // set only when the expression tree is requested
}

// OK reports whether the input evaluated successfully.
func (r Result) OK() bool { return r.Err == nil }

// ToMap converts r to a map for structured output.
func (r Result) ToMap() map[string]any {
	m := map[string]any{"input": r.Input}

	if r.Err != nil {
		m["error"] = errorMap(r.Err)
	} else {
		m["value"] = r.Value
		m["type"] = r.Value.Type().String()
	}

	if r.Expr != nil {
		m["ast"] = ToMap(r.Expr)
		m["hash"] = strconv.FormatUint(Hash(r.Expr), 16)
	}

	return m
}

// MarshalJSON implements json.Marshaler for Result.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ToMap())
}

func errorMap(err error) map[string]any {
	d, ok := err.(*Diagnostic)
	if !ok {
		return map[string]any{"kind": KindOf(err).String(), "detail": err.Error()}
	}

	m := map[string]any{
		"kind":   d.Kind.String(),
		"detail": d.Detail,
		"offset": d.Span.Offset,
		"length": d.Span.Length,
	}

	if d.Hint != "" {
		m["hint"] = d.Hint
	}

	if d.Cause != nil {
		m["cause"] = d.Cause.Error()
	}

	return m
}
