package cast

import (
	"math"
	"strconv"
	"strings"

	"github.com/xirelogy/go-pseudo/internal/bytecode"
	"github.com/xirelogy/go-pseudo/internal/runtime"
	"github.com/xirelogy/go-pseudo/internal/value"
	"github.com/xirelogy/go-pseudo/internal/vm"
)

func init() {
	runtime.Register(runtime.Spec{Name: "INTEGER_CAST", ID: bytecode.BuiltinIntegerCast, Arity: 1, Handler: runIntegerCast})
	runtime.Register(runtime.Spec{Name: "REAL_CAST", ID: bytecode.BuiltinRealCast, Arity: 1, Handler: runRealCast})
	runtime.Register(runtime.Spec{Name: "STRING_CAST", ID: bytecode.BuiltinStringCast, Arity: 1, Handler: runStringCast})
}

func runIntegerCast(rt *vm.VM, args []value.Value) (value.Value, error) {
	v := args[0]
	switch v.Kind {
	case value.KindInteger:
		return v, nil
	case value.KindReal:
		if math.IsNaN(v.Real) || math.IsInf(v.Real, 0) || math.Abs(v.Real) >= math.MaxInt64 {
			return value.Value{}, vm.Errorf(vm.ErrArgument, "INTEGER_CAST of %s is out of range", v)
		}
		return value.Integer(int64(v.Real)), nil
	case value.KindChar:
		if v.Char < '0' || v.Char > '9' {
			return value.Value{}, vm.Errorf(vm.ErrArgument, "INTEGER_CAST of %s is not a digit", v)
		}
		return value.Integer(int64(v.Char - '0')), nil
	case value.KindString:
		n, err := strconv.ParseInt(strings.TrimSpace(v.Str), 10, 64)
		if err != nil {
			return value.Value{}, vm.Errorf(vm.ErrArgument, "INTEGER_CAST of %s is not an integer", v)
		}
		return value.Integer(n), nil
	default:
		return value.Value{}, vm.Errorf(vm.ErrType, "INTEGER_CAST cannot convert %s", v.Kind)
	}
}

func runRealCast(rt *vm.VM, args []value.Value) (value.Value, error) {
	v := args[0]
	switch v.Kind {
	case value.KindReal:
		return v, nil
	case value.KindInteger:
		return value.Real(float64(v.Int)), nil
	case value.KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return value.Value{}, vm.Errorf(vm.ErrArgument, "REAL_CAST of %s is not a number", v)
		}
		return value.Real(f), nil
	default:
		return value.Value{}, vm.Errorf(vm.ErrType, "REAL_CAST cannot convert %s", v.Kind)
	}
}

func runStringCast(rt *vm.VM, args []value.Value) (value.Value, error) {
	v := args[0]
	switch v.Kind {
	case value.KindString:
		return v, nil
	case value.KindInteger, value.KindReal, value.KindChar, value.KindBoolean:
		return value.String(v.Raw()), nil
	default:
		return value.Value{}, vm.Errorf(vm.ErrType, "STRING_CAST cannot convert %s", v.Kind)
	}
}
