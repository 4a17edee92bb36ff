package bytecode

import "fmt"

// BuiltinInfo describes a registered builtin discriminant.
type BuiltinInfo struct {
	Name  string
	ID    byte
	Arity int
}

var builtinInfo = map[byte]BuiltinInfo{}

// RegisterBuiltinInfo registers builtin metadata for diagnostics/disassembly.
func RegisterBuiltinInfo(name string, id byte, arity int) {
	if name == "" {
		name = fmt.Sprintf("0x%02X", id)
	}
	if _, exists := builtinInfo[id]; exists {
		panic(fmt.Sprintf("builtin id 0x%X already registered", id))
	}
	builtinInfo[id] = BuiltinInfo{Name: name, ID: id, Arity: arity}
}

// LookupBuiltinInfo returns builtin metadata if registered.
func LookupBuiltinInfo(id byte) (BuiltinInfo, bool) {
	info, ok := builtinInfo[id]
	return info, ok
}
