package bytecode

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// FormatVersion is bumped whenever the opcode layout changes.
const FormatVersion = 1

const formatMagic = "PSEUDO-BC"

// ErrFormat reports a saved program that cannot be loaded.
var ErrFormat = errors.New("invalid bytecode file")

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type envelope struct {
	Magic   string `cbor:"magic"`
	Version int    `cbor:"version"`
	Chunk   *Chunk `cbor:"chunk"`
}

// MarshalChunk serializes a Chunk to CBOR bytes.
func MarshalChunk(c *Chunk) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("nil chunk")
	}
	return cborEncMode.Marshal(envelope{Magic: formatMagic, Version: FormatVersion, Chunk: c})
}

// UnmarshalChunk deserializes and validates a Chunk from CBOR bytes.
func UnmarshalChunk(data []byte) (*Chunk, error) {
	var env envelope
	if err := cbor.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if env.Magic != formatMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrFormat, env.Magic)
	}
	if env.Version != FormatVersion {
		return nil, fmt.Errorf("%w: version %d, want %d", ErrFormat, env.Version, FormatVersion)
	}
	if env.Chunk == nil {
		return nil, fmt.Errorf("%w: missing chunk", ErrFormat)
	}
	if err := Validate(env.Chunk); err != nil {
		return nil, err
	}
	return env.Chunk, nil
}

// Validate checks that every instruction decodes, every constant reference
// is in range and every jump lands inside the code.
func Validate(c *Chunk) error {
	code := c.Code
	for ip := 0; ip < len(code); {
		offset := ip
		op := code[ip]
		ip++
		if _, ok := opNames[op]; !ok {
			return fmt.Errorf("%w: unknown opcode 0x%02X at %04d", ErrFormat, op, offset)
		}
		operandStart := ip
		if _, err := decodeOperands(op, c, &ip); err != nil {
			return fmt.Errorf("%w: %v at %04d", ErrFormat, err, offset)
		}
		switch op {
		case OP_CONST, OP_CALL, OP_DEFINE_GLOBAL, OP_DEFINE_GLOBAL_ARRAY, OP_DEFINE_LOCAL, OP_DEFINE_LOCAL_ARRAY,
			OP_GET_GLOBAL, OP_SET_GLOBAL, OP_GET_GLOBAL_ARRAY, OP_SET_GLOBAL_ARRAY,
			OP_GET_LOCAL, OP_SET_LOCAL, OP_GET_LOCAL_ARRAY, OP_SET_LOCAL_ARRAY, OP_POP_LOCAL,
			OP_INCREMENT_GLOBAL, OP_INCREMENT_LOCAL:
			if idx := int(c.ReadU16(operandStart)); idx >= len(c.Consts) {
				return fmt.Errorf("%w: constant %d out of range at %04d", ErrFormat, idx, offset)
			}
		case OP_JUMP, OP_JUMP_IF_FALSE:
			if target := ip + int(c.ReadU16(operandStart)); target > len(code) {
				return fmt.Errorf("%w: jump past end at %04d", ErrFormat, offset)
			}
		case OP_LOOP:
			if target := ip - int(c.ReadU16(operandStart)); target < 0 {
				return fmt.Errorf("%w: loop before start at %04d", ErrFormat, offset)
			}
		}
	}
	return nil
}
