package mathfn

import (
	"math"

	"github.com/xirelogy/go-pseudo/internal/bytecode"
	"github.com/xirelogy/go-pseudo/internal/runtime"
	"github.com/xirelogy/go-pseudo/internal/value"
	"github.com/xirelogy/go-pseudo/internal/vm"
)

func init() {
	runtime.Register(runtime.Spec{Name: "SIN", ID: bytecode.BuiltinSin, Arity: 1, Handler: realFunc("SIN", math.Sin)})
	runtime.Register(runtime.Spec{Name: "COS", ID: bytecode.BuiltinCos, Arity: 1, Handler: realFunc("COS", math.Cos)})
	runtime.Register(runtime.Spec{Name: "TAN", ID: bytecode.BuiltinTan, Arity: 1, Handler: realFunc("TAN", math.Tan)})
	runtime.Register(runtime.Spec{Name: "SQRT", ID: bytecode.BuiltinSqrt, Arity: 1, Handler: runSqrt})
	runtime.Register(runtime.Spec{Name: "ABS", ID: bytecode.BuiltinAbs, Arity: 1, Handler: runAbs})
}

func toReal(name string, v value.Value) (float64, error) {
	switch v.Kind {
	case value.KindInteger:
		return float64(v.Int), nil
	case value.KindReal:
		return v.Real, nil
	default:
		return 0, vm.Errorf(vm.ErrType, "%s expects INTEGER or REAL, got %s", name, v.Kind)
	}
}

func realFunc(name string, fn func(float64) float64) vm.BuiltinHandler {
	return func(rt *vm.VM, args []value.Value) (value.Value, error) {
		x, err := toReal(name, args[0])
		if err != nil {
			return value.Value{}, err
		}
		return value.Real(fn(x)), nil
	}
}

func runSqrt(rt *vm.VM, args []value.Value) (value.Value, error) {
	x, err := toReal("SQRT", args[0])
	if err != nil {
		return value.Value{}, err
	}
	if x < 0 {
		return value.Value{}, vm.Errorf(vm.ErrArgument, "SQRT of negative number %s", args[0])
	}
	return value.Real(math.Sqrt(x)), nil
}

func runAbs(rt *vm.VM, args []value.Value) (value.Value, error) {
	v := args[0]
	switch v.Kind {
	case value.KindInteger:
		if v.Int == math.MinInt64 {
			return value.Value{}, vm.Errorf(vm.ErrArgument, "ABS of %d overflows INTEGER", v.Int)
		}
		if v.Int < 0 {
			return value.Integer(-v.Int), nil
		}
		return v, nil
	case value.KindReal:
		return value.Real(math.Abs(v.Real)), nil
	default:
		return value.Value{}, vm.Errorf(vm.ErrType, "ABS expects INTEGER or REAL, got %s", v.Kind)
	}
}
