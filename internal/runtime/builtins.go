package runtime

import (
	"fmt"

	"github.com/xirelogy/go-pseudo/internal/bytecode"
	"github.com/xirelogy/go-pseudo/internal/vm"
)

// Spec describes a built-in function discriminant and handler.
type Spec struct {
	Name    string
	ID      byte
	Arity   int
	Handler vm.BuiltinHandler
}

var (
	byName = map[string]Spec{}
	byID   = map[byte]Spec{}
)

// Register installs a built-in for both lookup tables, the VM and the
// disassembler.
func Register(spec Spec) {
	if spec.Handler == nil {
		panic(fmt.Sprintf("builtin %s has nil handler", spec.Name))
	}
	if _, exists := byName[spec.Name]; exists {
		panic(fmt.Sprintf("builtin %s already registered", spec.Name))
	}
	if _, exists := byID[spec.ID]; exists {
		panic(fmt.Sprintf("builtin id 0x%X already registered", spec.ID))
	}
	byName[spec.Name] = spec
	byID[spec.ID] = spec
	vm.RegisterBuiltin(spec.Name, spec.ID, spec.Arity, spec.Handler)
	bytecode.RegisterBuiltinInfo(spec.Name, spec.ID, spec.Arity)
}

// LookupByName finds a builtin by its script-visible name.
func LookupByName(name string) (Spec, bool) {
	spec, ok := byName[name]
	return spec, ok
}
