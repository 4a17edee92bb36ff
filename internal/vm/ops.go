package vm

import (
	"math"

	"github.com/xirelogy/go-pseudo/internal/bytecode"
	"github.com/xirelogy/go-pseudo/internal/value"
)

var opSymbols = map[byte]string{
	bytecode.OP_ADD:     "+",
	bytecode.OP_SUB:     "-",
	bytecode.OP_MUL:     "*",
	bytecode.OP_DIV:     "/",
	bytecode.OP_INT_DIV: "DIV",
	bytecode.OP_MOD:     "MOD",
	bytecode.OP_CONCAT:  "&",
	bytecode.OP_EQ:      "=",
	bytecode.OP_NEQ:     "<>",
	bytecode.OP_LT:      "<",
	bytecode.OP_LTE:     "<=",
	bytecode.OP_GT:      ">",
	bytecode.OP_GTE:     ">=",
	bytecode.OP_AND:     "AND",
	bytecode.OP_OR:      "OR",
}

func binaryOp(op byte, a, b value.Value) (value.Value, error) {
	switch op {
	case bytecode.OP_ADD, bytecode.OP_SUB, bytecode.OP_MUL, bytecode.OP_DIV,
		bytecode.OP_INT_DIV, bytecode.OP_MOD:
		return arith(op, a, b)
	case bytecode.OP_CONCAT:
		if !isText(a) || !isText(b) {
			return value.Value{}, operandError(op, a, b)
		}
		return value.String(a.Raw() + b.Raw()), nil
	case bytecode.OP_EQ:
		return value.Boolean(value.Equal(a, b)), nil
	case bytecode.OP_NEQ:
		return value.Boolean(!value.Equal(a, b)), nil
	case bytecode.OP_LT, bytecode.OP_LTE, bytecode.OP_GT, bytecode.OP_GTE:
		return compare(op, a, b)
	case bytecode.OP_AND, bytecode.OP_OR:
		if a.Kind != value.KindBoolean || b.Kind != value.KindBoolean {
			return value.Value{}, operandError(op, a, b)
		}
		if op == bytecode.OP_AND {
			return value.Boolean(a.Bool && b.Bool), nil
		}
		return value.Boolean(a.Bool || b.Bool), nil
	}
	return value.Value{}, Errorf(ErrType, "unsupported operator %s", bytecode.OpName(op))
}

func arith(op byte, a, b value.Value) (value.Value, error) {
	switch {
	case a.Kind == value.KindInteger && b.Kind == value.KindInteger:
		x, y := a.Int, b.Int
		switch op {
		case bytecode.OP_ADD:
			return value.Integer(x + y), nil
		case bytecode.OP_SUB:
			return value.Integer(x - y), nil
		case bytecode.OP_MUL:
			return value.Integer(x * y), nil
		case bytecode.OP_DIV, bytecode.OP_INT_DIV:
			if y == 0 {
				return value.Value{}, Errorf(ErrDivisionByZero, "division by zero")
			}
			return value.Integer(x / y), nil
		case bytecode.OP_MOD:
			if y == 0 {
				return value.Value{}, Errorf(ErrDivisionByZero, "division by zero")
			}
			return value.Integer(x % y), nil
		}
	case a.Kind == value.KindReal && b.Kind == value.KindReal:
		x, y := a.Real, b.Real
		switch op {
		case bytecode.OP_ADD:
			return value.Real(x + y), nil
		case bytecode.OP_SUB:
			return value.Real(x - y), nil
		case bytecode.OP_MUL:
			return value.Real(x * y), nil
		case bytecode.OP_DIV, bytecode.OP_INT_DIV:
			return value.Real(x / y), nil
		case bytecode.OP_MOD:
			return value.Real(math.Mod(x, y)), nil
		}
	}
	return value.Value{}, operandError(op, a, b)
}

func compare(op byte, a, b value.Value) (value.Value, error) {
	var c int
	switch {
	case a.Kind == value.KindInteger && b.Kind == value.KindInteger:
		c = cmpOrdered(a.Int, b.Int)
	case a.Kind == value.KindReal && b.Kind == value.KindReal:
		c = cmpOrdered(a.Real, b.Real)
	case a.Kind == value.KindChar && b.Kind == value.KindChar:
		c = cmpOrdered(a.Char, b.Char)
	default:
		return value.Value{}, operandError(op, a, b)
	}
	switch op {
	case bytecode.OP_LT:
		return value.Boolean(c < 0), nil
	case bytecode.OP_LTE:
		return value.Boolean(c <= 0), nil
	case bytecode.OP_GT:
		return value.Boolean(c > 0), nil
	default:
		return value.Boolean(c >= 0), nil
	}
}

func cmpOrdered[T int64 | float64 | byte](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func isText(v value.Value) bool {
	return v.Kind == value.KindString || v.Kind == value.KindChar
}

func operandError(op byte, a, b value.Value) error {
	return Errorf(ErrType, "binary operand '%s' cannot be used between %s and %s", opSymbols[op], a.Kind, b.Kind)
}
