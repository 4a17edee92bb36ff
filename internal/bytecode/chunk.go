package bytecode

import (
	"fmt"

	"github.com/xirelogy/go-pseudo/internal/value"
)

// MaxConsts is the size limit of a chunk's constant pool (16-bit index).
const MaxConsts = 1 << 16

// Chunk is a compiled bytecode sequence with its constant pool.
type Chunk struct {
	Code      []byte        `cbor:"code"`
	Consts    []value.Value `cbor:"consts"`
	Positions []PosInfo     `cbor:"pos"`

	constIndex map[value.Value]uint16
}

// PosInfo maps bytecode offsets to source positions (start-inclusive).
type PosInfo struct {
	Offset int `cbor:"o"`
	Line   int `cbor:"l"`
	Column int `cbor:"c"`
}

// Write appends one byte attributed to the given source position.
func (c *Chunk) Write(b byte, line, column int) {
	c.recordPosition(line, column)
	c.Code = append(c.Code, b)
}

// AddConst appends v to the constant pool and returns its index.
// Identical constants are shared.
func (c *Chunk) AddConst(v value.Value) (uint16, error) {
	if c.constIndex == nil {
		c.constIndex = make(map[value.Value]uint16, len(c.Consts))
		for i, existing := range c.Consts {
			if _, ok := c.constIndex[existing]; !ok {
				c.constIndex[existing] = uint16(i)
			}
		}
	}
	if i, ok := c.constIndex[v]; ok {
		return i, nil
	}
	if len(c.Consts) >= MaxConsts {
		return 0, fmt.Errorf("too many constants in one chunk")
	}
	c.Consts = append(c.Consts, v)
	i := uint16(len(c.Consts) - 1)
	c.constIndex[v] = i
	return i, nil
}

// PositionAt returns the source line and column of the instruction at offset.
func (c *Chunk) PositionAt(offset int) (int, int) {
	line, column := 0, 0
	for _, info := range c.Positions {
		if info.Offset > offset {
			break
		}
		line, column = info.Line, info.Column
	}
	return line, column
}

func (c *Chunk) recordPosition(line, column int) {
	if line == 0 {
		return
	}
	if n := len(c.Positions); n > 0 {
		last := c.Positions[n-1]
		if last.Line == line && last.Column == column {
			return
		}
		if last.Offset == len(c.Code) {
			c.Positions[n-1] = PosInfo{Offset: len(c.Code), Line: line, Column: column}
			return
		}
	}
	c.Positions = append(c.Positions, PosInfo{Offset: len(c.Code), Line: line, Column: column})
}

// ReadU16 decodes a big-endian operand at offset.
func (c *Chunk) ReadU16(offset int) uint16 {
	return uint16(c.Code[offset])<<8 | uint16(c.Code[offset+1])
}
