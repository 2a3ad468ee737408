package lang

import (
	"reflect"
	"strconv"
)

// Type is the result domain of an expression.
type Type uint8

const (
	TypeInteger Type = iota
	TypeFloat
)

func (t Type) String() string {
	switch t {
	case TypeInteger:
		return "integer"
	case TypeFloat:
		return "float"
	default:
		return "Type(" + strconv.Itoa(int(t)) + ")"
	}
}

// reflectKind is the Go kind the code generator backend produces for t.
func (t Type) reflectKind() reflect.Kind {
	if t == TypeFloat {
		return reflect.Float64
	}

	return reflect.Int
}

// Resolve returns the result type of e. A binary operation is float if
// either operand is float or the operator is divide, since there is no
// integer division.
func Resolve(e Expr) Type {
	switch e := e.(type) {
	case *FloatExpr:
		return TypeFloat

	case *ParenExpr:
		return Resolve(e.Inner)

	case *BinaryExpr:
		return promote(e.Op, Resolve(e.Left), Resolve(e.Right))

	default:
		return TypeInteger
	}
}

// promote is the per-operation domain rule shared by [Resolve] and the code
// generator.
func promote(op Op, left, right Type) Type {
	if op == OpDivide || left == TypeFloat || right == TypeFloat {
		return TypeFloat
	}

	return TypeInteger
}
