package lang

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Epsilon is the relative tolerance used by [Value.Equal] for floats.
const Epsilon = 1e-12

// Value is the result of evaluating an expression. The zero Value is
// Integer(0).
type Value struct {
	typ Type
	i   int64
	f   float64
}

// Integer returns an integer Value.
func Integer(v int64) Value { return Value{typ: TypeInteger, i: v} }

// Float returns a float Value.
func Float(v float64) Value { return Value{typ: TypeFloat, f: v} }

// Type returns the domain of v.
func (v Value) Type() Type { return v.typ }

// IsFloat reports whether v is a float.
func (v Value) IsFloat() bool { return v.typ == TypeFloat }

// Int returns the integer payload and whether v is an integer.
func (v Value) Int() (int64, bool) { return v.i, v.typ == TypeInteger }

// Float64 returns v as a float64, converting integers.
func (v Value) Float64() float64 {
	if v.typ == TypeFloat {
		return v.f
	}

	return float64(v.i)
}

// Any returns the payload as an int64 or float64.
func (v Value) Any() any {
	if v.typ == TypeFloat {
		return v.f
	}

	return v.i
}

// Equal reports whether v and o are the same type and value. Floats are
// equal within a relative tolerance of [Epsilon]. Equal infinities are
// equal, and NaN equals NaN so that repeated evaluations compare equal.
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ {
		return false
	}

	if v.typ == TypeInteger {
		return v.i == o.i
	}

	a, b := v.f, o.f

	switch {
	case a == b:
		return true
	case math.IsNaN(a) || math.IsNaN(b):
		return math.IsNaN(a) && math.IsNaN(b)
	case math.IsInf(a, 0) || math.IsInf(b, 0):
		return false
	}

	scale := max(1, math.Abs(a), math.Abs(b))

	return math.Abs(a-b) <= Epsilon*scale
}

// String formats v. Finite floats always show a fractional part or an
// exponent so they are distinguishable from integers.
func (v Value) String() string {
	if v.typ != TypeFloat {
		return strconv.FormatInt(v.i, 10)
	}

	s := strconv.FormatFloat(v.f, 'g', -1, 64)
	if !math.IsInf(v.f, 0) && !math.IsNaN(v.f) && !strings.ContainsAny(s, ".e") {
		s += ".0"
	}

	return s
}

// GoString renders v as a constructor call, e.g. Float(5.5).
func (v Value) GoString() string {
	if v.typ == TypeFloat {
		return "Float(" + v.String() + ")"
	}

	return "Integer(" + v.String() + ")"
}

// MarshalJSON encodes v as a JSON number. Non-finite floats, which JSON
// cannot represent, are encoded as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.typ == TypeFloat && (math.IsInf(v.f, 0) || math.IsNaN(v.f)) {
		return json.Marshal(v.String())
	}

	return []byte(v.String()), nil
}

// MarshalYAML encodes v as a YAML scalar.
func (v Value) MarshalYAML() (any, error) { return v.Any(), nil }
