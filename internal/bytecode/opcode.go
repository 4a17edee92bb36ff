package bytecode

// OpCode enumerates bytecode operations.
// Operands are big-endian; NAME is a u16 constant index holding a String,
// KIND is a u8 value.Kind, DIST is a u16 jump distance.
const (
	OP_CONST byte = iota // CONST
	OP_POP
	OP_DUP2
	_ // reserved
	_ // reserved
	_ // reserved
	_ // reserved
	_ // reserved

	OP_ADD
	OP_SUB
	OP_MUL
	OP_DIV
	OP_INT_DIV
	OP_MOD
	OP_NEG
	OP_CONCAT

	OP_EQ
	OP_NEQ
	OP_LT
	OP_LTE
	OP_GT
	OP_GTE
	OP_AND
	OP_OR

	OP_NOT
	_ // reserved
	_ // reserved
	_ // reserved
	_ // reserved
	_ // reserved
	_ // reserved
	_ // reserved

	OP_DEFINE_GLOBAL       // NAME KIND
	OP_DEFINE_GLOBAL_ARRAY // NAME KIND; pops upper, lower
	OP_GET_GLOBAL          // NAME
	OP_SET_GLOBAL          // NAME; pops value
	OP_GET_GLOBAL_ARRAY    // NAME; pops index
	OP_SET_GLOBAL_ARRAY    // NAME; pops value, index
	OP_INCREMENT_GLOBAL    // NAME CONST(step)
	_                      // reserved

	OP_DEFINE_LOCAL
	OP_DEFINE_LOCAL_ARRAY
	OP_GET_LOCAL
	OP_SET_LOCAL
	OP_GET_LOCAL_ARRAY
	OP_SET_LOCAL_ARRAY
	OP_INCREMENT_LOCAL
	OP_POP_LOCAL // NAME

	OP_JUMP          // DIST forward
	OP_JUMP_IF_FALSE // DIST forward; peeks the condition
	OP_LOOP          // DIST backward
	_                // reserved
	_                // reserved
	_                // reserved
	_                // reserved
	_                // reserved

	OP_CALL          // CONST(entry offset)
	OP_END_PROCEDURE //
	OP_RETURN
	_ // reserved
	_ // reserved
	_ // reserved
	_ // reserved
	_ // reserved

	OP_OUTPUT // u8 count
	OP_INPUT
	_ // reserved
	_ // reserved
	_ // reserved
	_ // reserved
	_ // reserved
	_ // reserved

	OP_BUILTIN // u8 builtin id
)

// Builtin discriminants carried by OP_BUILTIN.
const (
	BuiltinMid byte = iota + 1
	BuiltinReverse
	BuiltinLength
	BuiltinSin
	BuiltinCos
	BuiltinTan
	BuiltinSqrt
	BuiltinAbs
	BuiltinIntegerCast
	BuiltinRealCast
	BuiltinStringCast
	BuiltinRandomInt
	BuiltinRandomReal
	BuiltinSystem
)
