package vm

import (
	"fmt"

	"github.com/xirelogy/go-pseudo/internal/value"
)

// BuiltinHandler evaluates a builtin over its arguments (in source order).
// The returned value is pushed onto the stack.
type BuiltinHandler func(rt *VM, args []value.Value) (value.Value, error)

type builtinEntry struct {
	name    string
	id      byte
	arity   int
	handler BuiltinHandler
}

var builtinRegistry = map[byte]builtinEntry{}

// RegisterBuiltin installs a built-in handler for a given discriminant.
func RegisterBuiltin(name string, id byte, arity int, handler BuiltinHandler) {
	if handler == nil {
		panic("nil builtin handler")
	}
	if _, exists := builtinRegistry[id]; exists {
		panic(fmt.Sprintf("builtin id 0x%X already registered", id))
	}
	builtinRegistry[id] = builtinEntry{
		name:    name,
		id:      id,
		arity:   arity,
		handler: handler,
	}
}

func lookupBuiltin(id byte) (builtinEntry, bool) {
	entry, ok := builtinRegistry[id]
	return entry, ok
}

func (vm *VM) runBuiltin(id byte) error {
	entry, ok := lookupBuiltin(id)
	if !ok {
		return vm.errorf(ErrUndefined, "unknown builtin 0x%02X", id)
	}
	if len(vm.stack) < entry.arity {
		return vm.errorf(ErrArgument, "builtin %s expects %d args, stack has %d", entry.name, entry.arity, len(vm.stack))
	}
	args := make([]value.Value, entry.arity)
	copy(args, vm.stack[len(vm.stack)-entry.arity:])
	vm.stack = vm.stack[:len(vm.stack)-entry.arity]
	res, err := entry.handler(vm, args)
	if err != nil {
		return vm.wrapError(err)
	}
	vm.push(res)
	return nil
}
