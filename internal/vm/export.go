package vm

import (
	"context"
	"io"
	"math/rand/v2"

	"github.com/xirelogy/go-pseudo/internal/value"
)

// Rand returns the VM's random source.
func (vm *VM) Rand() *rand.Rand {
	return vm.rng
}

// Output returns the writer OUTPUT prints to.
func (vm *VM) Output() io.Writer {
	return vm.out
}

// Context returns the context of the running Execute call.
func (vm *VM) Context() context.Context {
	return vm.ctx
}

// RunSystem runs command through the configured SystemRunner.
func (vm *VM) RunSystem(command string) (int, error) {
	if vm.system == nil {
		return 0, Errorf(ErrSystemDisabled, "SYSTEM is disabled")
	}
	return vm.system(vm.ctx, command, vm.out)
}

// Global reports the current value of a global scalar.
func (vm *VM) Global(name string) (value.Value, bool) {
	s, ok := vm.globals.vars[name]
	if !ok {
		return value.Value{}, false
	}
	return s.val, true
}

// GlobalArray returns a copy of a global array.
func (vm *VM) GlobalArray(name string) (Array, bool) {
	arr, ok := vm.globals.arrays[name]
	if !ok {
		return Array{}, false
	}
	out := *arr
	out.Items = append([]value.Value(nil), arr.Items...)
	return out, true
}
