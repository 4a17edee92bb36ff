package strfn

import (
	"github.com/xirelogy/go-pseudo/internal/bytecode"
	"github.com/xirelogy/go-pseudo/internal/runtime"
	"github.com/xirelogy/go-pseudo/internal/value"
	"github.com/xirelogy/go-pseudo/internal/vm"
)

func init() {
	runtime.Register(runtime.Spec{Name: "MID", ID: bytecode.BuiltinMid, Arity: 3, Handler: runMid})
	runtime.Register(runtime.Spec{Name: "REVERSE", ID: bytecode.BuiltinReverse, Arity: 1, Handler: runReverse})
	runtime.Register(runtime.Spec{Name: "LENGTH", ID: bytecode.BuiltinLength, Arity: 1, Handler: runLength})
}

// runMid returns len bytes of s starting at the 0-based start.
func runMid(rt *vm.VM, args []value.Value) (value.Value, error) {
	s, start, length := args[0], args[1], args[2]
	if s.Kind != value.KindString || start.Kind != value.KindInteger || length.Kind != value.KindInteger {
		return value.Value{}, vm.Errorf(vm.ErrType, "MID expects (STRING, INTEGER, INTEGER), got (%s, %s, %s)", s.Kind, start.Kind, length.Kind)
	}
	n := int64(len(s.Str))
	if start.Int < 0 || length.Int < 0 || start.Int > n || length.Int > n-start.Int {
		return value.Value{}, vm.Errorf(vm.ErrOutOfBounds, "MID range %d+%d exceeds length %d", start.Int, length.Int, len(s.Str))
	}
	return value.String(s.Str[start.Int : start.Int+length.Int]), nil
}

func runReverse(rt *vm.VM, args []value.Value) (value.Value, error) {
	s := args[0]
	switch s.Kind {
	case value.KindString:
		b := []byte(s.Str)
		for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
			b[i], b[j] = b[j], b[i]
		}
		return value.String(string(b)), nil
	case value.KindChar:
		return s, nil
	default:
		return value.Value{}, vm.Errorf(vm.ErrType, "REVERSE expects STRING, got %s", s.Kind)
	}
}

func runLength(rt *vm.VM, args []value.Value) (value.Value, error) {
	s := args[0]
	switch s.Kind {
	case value.KindString:
		return value.Integer(int64(len(s.Str))), nil
	case value.KindChar:
		return value.Integer(1), nil
	default:
		return value.Value{}, vm.Errorf(vm.ErrType, "LENGTH expects STRING or CHAR, got %s", s.Kind)
	}
}
