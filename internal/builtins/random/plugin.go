package random

import (
	"github.com/xirelogy/go-pseudo/internal/bytecode"
	"github.com/xirelogy/go-pseudo/internal/runtime"
	"github.com/xirelogy/go-pseudo/internal/value"
	"github.com/xirelogy/go-pseudo/internal/vm"
)

func init() {
	runtime.Register(runtime.Spec{Name: "RANDOM_INTEGER", ID: bytecode.BuiltinRandomInt, Arity: 2, Handler: runRandomInt})
	runtime.Register(runtime.Spec{Name: "RANDOM_REAL", ID: bytecode.BuiltinRandomReal, Arity: 2, Handler: runRandomReal})
}

// runRandomInt returns a uniform integer in [lb, ub].
func runRandomInt(rt *vm.VM, args []value.Value) (value.Value, error) {
	lb, ub := args[0], args[1]
	if lb.Kind != value.KindInteger || ub.Kind != value.KindInteger {
		return value.Value{}, vm.Errorf(vm.ErrType, "RANDOM_INTEGER expects (INTEGER, INTEGER), got (%s, %s)", lb.Kind, ub.Kind)
	}
	if lb.Int > ub.Int {
		return value.Value{}, vm.Errorf(vm.ErrArgument, "RANDOM_INTEGER lower bound %d exceeds upper bound %d", lb.Int, ub.Int)
	}
	span := uint64(ub.Int-lb.Int) + 1
	if span == 0 {
		// full int64 range
		return value.Integer(int64(rt.Rand().Uint64())), nil
	}
	return value.Integer(lb.Int + int64(rt.Rand().Uint64N(span))), nil
}

// runRandomReal returns a uniform real in [lb, ub).
func runRandomReal(rt *vm.VM, args []value.Value) (value.Value, error) {
	lb, err := numeric(args[0])
	if err != nil {
		return value.Value{}, err
	}
	ub, err := numeric(args[1])
	if err != nil {
		return value.Value{}, err
	}
	if lb > ub {
		return value.Value{}, vm.Errorf(vm.ErrArgument, "RANDOM_REAL lower bound %s exceeds upper bound %s", args[0], args[1])
	}
	return value.Real(lb + rt.Rand().Float64()*(ub-lb)), nil
}

func numeric(v value.Value) (float64, error) {
	switch v.Kind {
	case value.KindInteger:
		return float64(v.Int), nil
	case value.KindReal:
		return v.Real, nil
	default:
		return 0, vm.Errorf(vm.ErrType, "RANDOM_REAL expects INTEGER or REAL bounds, got %s", v.Kind)
	}
}
