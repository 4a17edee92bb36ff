package bytecode

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xirelogy/go-pseudo/internal/value"
)

// Disassembler formats bytecode as a readable assembly-style dump.
type Disassembler struct {
	w io.Writer
}

// NewDisassembler constructs a disassembler that writes to w.
func NewDisassembler(w io.Writer) *Disassembler {
	return &Disassembler{w: w}
}

// DisassembleChunk emits a listing for chunk under the given label.
func (d *Disassembler) DisassembleChunk(label string, chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("nil chunk")
	}
	if label == "" {
		label = "<main>"
	}
	fmt.Fprintf(d.w, "== %s (code=%d, consts=%d) ==\n", label, len(chunk.Code), len(chunk.Consts))
	for ip := 0; ip < len(chunk.Code); {
		next, err := d.DisassembleInstruction(chunk, ip)
		if err != nil {
			return err
		}
		ip = next
	}
	return nil
}

// DisassembleInstruction prints the instruction at offset and returns the
// offset of the next one.
func (d *Disassembler) DisassembleInstruction(chunk *Chunk, offset int) (int, error) {
	line, column := chunk.PositionAt(offset)
	posStr := "-"
	if line > 0 {
		posStr = strconv.Itoa(line) + ":" + strconv.Itoa(column)
	}
	ip := offset
	op := chunk.Code[ip]
	ip++
	operands, err := decodeOperands(op, chunk, &ip)
	if err != nil {
		return ip, err
	}
	fmt.Fprintf(d.w, "%04d %6s %-22s", offset, posStr, OpName(op))
	if detail := strings.TrimSpace(operands); detail != "" {
		fmt.Fprintf(d.w, " %s", detail)
	}
	fmt.Fprintln(d.w)
	return ip, nil
}

func decodeOperands(op byte, chunk *Chunk, ip *int) (string, error) {
	code := chunk.Code
	switch op {
	case OP_CONST, OP_CALL:
		idx, err := readU16(code, ip)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d ; %s", idx, formatConstRef(chunk, idx)), nil
	case OP_DEFINE_GLOBAL, OP_DEFINE_GLOBAL_ARRAY, OP_DEFINE_LOCAL, OP_DEFINE_LOCAL_ARRAY:
		idx, err := readU16(code, ip)
		if err != nil {
			return "", err
		}
		kind, err := readU8(code, ip)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d %d ; %s : %s", idx, kind, formatNameRef(chunk, idx), value.Kind(kind)), nil
	case OP_GET_GLOBAL, OP_SET_GLOBAL, OP_GET_GLOBAL_ARRAY, OP_SET_GLOBAL_ARRAY,
		OP_GET_LOCAL, OP_SET_LOCAL, OP_GET_LOCAL_ARRAY, OP_SET_LOCAL_ARRAY, OP_POP_LOCAL:
		idx, err := readU16(code, ip)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d ; %s", idx, formatNameRef(chunk, idx)), nil
	case OP_INCREMENT_GLOBAL, OP_INCREMENT_LOCAL:
		idx, err := readU16(code, ip)
		if err != nil {
			return "", err
		}
		step, err := readU16(code, ip)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d %d ; %s += %s", idx, step, formatNameRef(chunk, idx), formatConstRef(chunk, step)), nil
	case OP_JUMP, OP_JUMP_IF_FALSE:
		dist, err := readU16(code, ip)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d ; -> %04d", dist, *ip+int(dist)), nil
	case OP_LOOP:
		dist, err := readU16(code, ip)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d ; -> %04d", dist, *ip-int(dist)), nil
	case OP_OUTPUT:
		count, err := readU8(code, ip)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d", count), nil
	case OP_BUILTIN:
		id, err := readU8(code, ip)
		if err != nil {
			return "", err
		}
		if info, ok := LookupBuiltinInfo(id); ok {
			return fmt.Sprintf("%d ; %s arity=%d", id, info.Name, info.Arity), nil
		}
		return fmt.Sprintf("%d ; <unregistered>", id), nil
	default:
		return "", nil
	}
}

var opNames = map[byte]string{
	OP_CONST:               "OP_CONST",
	OP_POP:                 "OP_POP",
	OP_DUP2:                "OP_DUP2",
	OP_ADD:                 "OP_ADD",
	OP_SUB:                 "OP_SUB",
	OP_MUL:                 "OP_MUL",
	OP_DIV:                 "OP_DIV",
	OP_INT_DIV:             "OP_INT_DIV",
	OP_MOD:                 "OP_MOD",
	OP_NEG:                 "OP_NEG",
	OP_CONCAT:              "OP_CONCAT",
	OP_EQ:                  "OP_EQ",
	OP_NEQ:                 "OP_NEQ",
	OP_LT:                  "OP_LT",
	OP_LTE:                 "OP_LTE",
	OP_GT:                  "OP_GT",
	OP_GTE:                 "OP_GTE",
	OP_AND:                 "OP_AND",
	OP_OR:                  "OP_OR",
	OP_NOT:                 "OP_NOT",
	OP_DEFINE_GLOBAL:       "OP_DEFINE_GLOBAL",
	OP_DEFINE_GLOBAL_ARRAY: "OP_DEFINE_GLOBAL_ARRAY",
	OP_GET_GLOBAL:          "OP_GET_GLOBAL",
	OP_SET_GLOBAL:          "OP_SET_GLOBAL",
	OP_GET_GLOBAL_ARRAY:    "OP_GET_GLOBAL_ARRAY",
	OP_SET_GLOBAL_ARRAY:    "OP_SET_GLOBAL_ARRAY",
	OP_INCREMENT_GLOBAL:    "OP_INCREMENT_GLOBAL",
	OP_DEFINE_LOCAL:        "OP_DEFINE_LOCAL",
	OP_DEFINE_LOCAL_ARRAY:  "OP_DEFINE_LOCAL_ARRAY",
	OP_GET_LOCAL:           "OP_GET_LOCAL",
	OP_SET_LOCAL:           "OP_SET_LOCAL",
	OP_GET_LOCAL_ARRAY:     "OP_GET_LOCAL_ARRAY",
	OP_SET_LOCAL_ARRAY:     "OP_SET_LOCAL_ARRAY",
	OP_INCREMENT_LOCAL:     "OP_INCREMENT_LOCAL",
	OP_POP_LOCAL:           "OP_POP_LOCAL",
	OP_JUMP:                "OP_JUMP",
	OP_JUMP_IF_FALSE:       "OP_JUMP_IF_FALSE",
	OP_LOOP:                "OP_LOOP",
	OP_CALL:                "OP_CALL",
	OP_END_PROCEDURE:       "OP_END_PROCEDURE",
	OP_RETURN:              "OP_RETURN",
	OP_OUTPUT:              "OP_OUTPUT",
	OP_INPUT:               "OP_INPUT",
	OP_BUILTIN:             "OP_BUILTIN",
}

// OpName returns the mnemonic for op.
func OpName(op byte) string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("OP_0x%02X", op)
}

func readU8(code []byte, ip *int) (byte, error) {
	if *ip >= len(code) {
		return 0, fmt.Errorf("unexpected end of bytecode")
	}
	val := code[*ip]
	*ip = *ip + 1
	return val, nil
}

func readU16(code []byte, ip *int) (uint16, error) {
	if *ip+1 >= len(code) {
		return 0, fmt.Errorf("unexpected end of bytecode")
	}
	hi := code[*ip]
	lo := code[*ip+1]
	*ip += 2
	return uint16(hi)<<8 | uint16(lo), nil
}

func formatConstRef(chunk *Chunk, idx uint16) string {
	if chunk == nil || int(idx) >= len(chunk.Consts) {
		return "<invalid>"
	}
	return "const[" + strconv.Itoa(int(idx)) + "]=" + formatConst(chunk.Consts[idx])
}

func formatNameRef(chunk *Chunk, idx uint16) string {
	if chunk == nil || int(idx) >= len(chunk.Consts) || chunk.Consts[idx].Kind != value.KindString {
		return "<invalid>"
	}
	return chunk.Consts[idx].Str
}

func formatConst(v value.Value) string {
	if v.Kind == value.KindString {
		return strconv.Quote(v.Str)
	}
	return v.String()
}
