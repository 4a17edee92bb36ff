package value

import (
	"math"
	"strconv"
	"strings"
)

// Kind is the runtime tag of a Value. It doubles as the declared type of a
// variable or array element.
type Kind uint8

const (
	KindUnbound Kind = iota
	KindInteger
	KindReal
	KindChar
	KindString
	KindBoolean
)

// Value is a tagged union. The zero Value is Unbound.
type Value struct {
	Kind Kind    `cbor:"k"`
	Int  int64   `cbor:"i,omitempty"`
	Real float64 `cbor:"r,omitempty"`
	Char byte    `cbor:"c,omitempty"`
	Str  string  `cbor:"s,omitempty"`
	Bool bool    `cbor:"b,omitempty"`
}

func Unbound() Value { return Value{} }
func Integer(n int64) Value {
	return Value{Kind: KindInteger, Int: n}
}
func Real(f float64) Value {
	return Value{Kind: KindReal, Real: f}
}
func Char(c byte) Value {
	return Value{Kind: KindChar, Char: c}
}
func String(s string) Value {
	return Value{Kind: KindString, Str: s}
}
func Boolean(b bool) Value {
	return Value{Kind: KindBoolean, Bool: b}
}

// IsBound reports whether v holds a typed value.
func (v Value) IsBound() bool {
	return v.Kind != KindUnbound
}

// IsNumeric reports whether v is an Integer or a Real.
func (v Value) IsNumeric() bool {
	return v.Kind == KindInteger || v.Kind == KindReal
}

// Equal compares two values. Values of different kinds are never equal.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindUnbound:
		return true
	case KindInteger:
		return a.Int == b.Int
	case KindReal:
		return a.Real == b.Real
	case KindChar:
		return a.Char == b.Char
	case KindString:
		return a.Str == b.Str
	case KindBoolean:
		return a.Bool == b.Bool
	default:
		return false
	}
}

// String renders v canonically: strings and chars are quoted.
func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return `"` + v.Str + `"`
	case KindChar:
		return "'" + string(v.Char) + "'"
	default:
		return v.Raw()
	}
}

// Raw renders v without quoting strings or chars.
func (v Value) Raw() string {
	switch v.Kind {
	case KindInteger:
		return strconv.FormatInt(v.Int, 10)
	case KindReal:
		return FormatReal(v.Real)
	case KindChar:
		return string(v.Char)
	case KindString:
		return v.Str
	case KindBoolean:
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	default:
		return "UNBOUND"
	}
}

// FormatReal renders f as the shortest decimal that round-trips, always
// with a fractional part.
func FormatReal(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	case math.IsNaN(f):
		return "NAN"
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// String returns the pseudocode type name of k.
func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "INTEGER"
	case KindReal:
		return "REAL"
	case KindChar:
		return "CHAR"
	case KindString:
		return "STRING"
	case KindBoolean:
		return "BOOLEAN"
	default:
		return "UNBOUND"
	}
}

// TypeName reports the kind name of v.
func TypeName(v Value) string {
	return v.Kind.String()
}
