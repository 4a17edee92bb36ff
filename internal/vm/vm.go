package vm

import (
	"bufio"
	"context"
	"io"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/tliron/commonlog"

	"github.com/xirelogy/go-pseudo/internal/bytecode"
	"github.com/xirelogy/go-pseudo/internal/value"
)

var log = commonlog.GetLogger("pseudo.vm")

// SystemRunner executes a host command for the SYSTEM builtin and returns
// its exit status.
type SystemRunner func(ctx context.Context, command string, stdout io.Writer) (int, error)

// VM is a stack-based bytecode interpreter. Globals and global arrays
// survive across Execute calls; locals, the operand stack and the call
// stack do not.
type VM struct {
	chunk        *bytecode.Chunk
	ip           int
	lastOp       int
	stack        []value.Value
	calls        []int
	globals      *table
	locals       *table
	maxCalls     int
	traceHook    TraceHook
	instLimit    int
	instCount    int
	out          io.Writer
	in           *bufio.Reader
	rng          *rand.Rand
	system       SystemRunner
	quoteStrings bool
	ctx          context.Context
}

const (
	defaultMaxCalls = 256
	maxArraySize    = 1 << 24
	ctxCheckEvery   = 1024
)

// New constructs an empty VM instance writing to io.Discard with no input.
func New() *VM {
	return &VM{
		stack:        make([]value.Value, 0, 64),
		calls:        make([]int, 0, 8),
		globals:      newTable("global"),
		locals:       newTable("local"),
		maxCalls:     defaultMaxCalls,
		out:          io.Discard,
		rng:          rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
		quoteStrings: true,
		ctx:          context.Background(),
	}
}

// SetTraceHook registers a callback for instruction-level tracing.
func (vm *VM) SetTraceHook(h TraceHook) {
	vm.traceHook = h
}

// SetInstructionLimit caps the number of instructions executed per Execute (0 for unlimited).
func (vm *VM) SetInstructionLimit(limit int) {
	if limit < 0 {
		limit = 0
	}
	vm.instLimit = limit
}

// SetMaxCallDepth caps nested procedure calls.
func (vm *VM) SetMaxCallDepth(depth int) {
	if depth <= 0 {
		depth = defaultMaxCalls
	}
	vm.maxCalls = depth
}

// SetOutput directs OUTPUT to w.
func (vm *VM) SetOutput(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	vm.out = w
}

// SetInput makes INPUT read lines from r.
func (vm *VM) SetInput(r io.Reader) {
	if r == nil {
		vm.in = nil
		return
	}
	if br, ok := r.(*bufio.Reader); ok {
		vm.in = br
		return
	}
	vm.in = bufio.NewReader(r)
}

// SetSeed makes the random builtins deterministic.
func (vm *VM) SetSeed(seed uint64) {
	vm.rng = rand.New(rand.NewPCG(seed, 0x5eed))
}

// SetSystemRunner enables the SYSTEM builtin. A nil runner disables it.
func (vm *VM) SetSystemRunner(r SystemRunner) {
	vm.system = r
}

// SetQuoteStrings controls whether OUTPUT renders strings and chars with quotes.
func (vm *VM) SetQuoteStrings(quote bool) {
	vm.quoteStrings = quote
}

// ResetState clears transient execution state (stack, call stack, locals).
func (vm *VM) ResetState() {
	vm.stack = vm.stack[:0]
	vm.calls = vm.calls[:0]
	vm.locals = newTable("local")
	vm.ip = 0
	vm.lastOp = 0
	vm.instCount = 0
}

// Reset clears all session state, including globals.
func (vm *VM) Reset() {
	vm.ResetState()
	vm.globals = newTable("global")
}

// Execute runs chunk to completion. Errors are *RuntimeError values.
func (vm *VM) Execute(ctx context.Context, chunk *bytecode.Chunk) error {
	if ctx == nil {
		ctx = context.Background()
	}
	vm.ResetState()
	vm.chunk = chunk
	vm.ctx = ctx
	defer func() { vm.ctx = context.Background() }()
	log.Debugf("execute: %d bytes, %d constants", len(chunk.Code), len(chunk.Consts))

	code := chunk.Code
	for vm.ip < len(code) {
		vm.lastOp = vm.ip
		op := code[vm.ip]
		vm.ip++
		vm.instCount++
		if vm.instLimit > 0 && vm.instCount > vm.instLimit {
			return vm.errorf(ErrInstructionLimit, "instruction limit exceeded")
		}
		if vm.instCount%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return vm.wrapError(err)
			}
		}
		vm.trace(op)

		switch op {
		case bytecode.OP_CONST:
			vm.push(vm.readConst())
		case bytecode.OP_POP:
			vm.pop()
		case bytecode.OP_DUP2:
			if len(vm.stack) < 2 {
				return vm.errorf(ErrArgument, "stack underflow")
			}
			vm.push(vm.stack[len(vm.stack)-2])
			vm.push(vm.stack[len(vm.stack)-2])
		case bytecode.OP_ADD, bytecode.OP_SUB, bytecode.OP_MUL, bytecode.OP_DIV,
			bytecode.OP_INT_DIV, bytecode.OP_MOD, bytecode.OP_CONCAT,
			bytecode.OP_EQ, bytecode.OP_NEQ, bytecode.OP_LT, bytecode.OP_LTE, bytecode.OP_GT, bytecode.OP_GTE,
			bytecode.OP_AND, bytecode.OP_OR:
			b := vm.pop()
			a := vm.pop()
			res, err := binaryOp(op, a, b)
			if err != nil {
				return vm.wrapError(err)
			}
			vm.push(res)
		case bytecode.OP_NEG:
			v := vm.pop()
			switch v.Kind {
			case value.KindInteger:
				vm.push(value.Integer(-v.Int))
			case value.KindReal:
				vm.push(value.Real(-v.Real))
			default:
				return vm.errorf(ErrType, "unary operand '-' cannot be used on %s", v.Kind)
			}
		case bytecode.OP_NOT:
			v := vm.pop()
			if v.Kind != value.KindBoolean {
				return vm.errorf(ErrType, "unary operand 'NOT' cannot be used on %s", v.Kind)
			}
			vm.push(value.Boolean(!v.Bool))

		case bytecode.OP_DEFINE_GLOBAL, bytecode.OP_DEFINE_LOCAL:
			name := vm.readName()
			kind := value.Kind(vm.readU8())
			if err := vm.scope(op).define(name, kind); err != nil {
				return vm.wrapError(err)
			}
		case bytecode.OP_DEFINE_GLOBAL_ARRAY, bytecode.OP_DEFINE_LOCAL_ARRAY:
			name := vm.readName()
			kind := value.Kind(vm.readU8())
			upper := vm.pop()
			lower := vm.pop()
			if err := vm.scope(op).defineArray(name, kind, lower, upper); err != nil {
				return vm.wrapError(err)
			}
		case bytecode.OP_GET_GLOBAL, bytecode.OP_GET_LOCAL:
			v, err := vm.scope(op).get(vm.readName())
			if err != nil {
				return vm.wrapError(err)
			}
			vm.push(v)
		case bytecode.OP_SET_GLOBAL, bytecode.OP_SET_LOCAL:
			name := vm.readName()
			if err := vm.scope(op).set(name, vm.pop()); err != nil {
				return vm.wrapError(err)
			}
		case bytecode.OP_GET_GLOBAL_ARRAY, bytecode.OP_GET_LOCAL_ARRAY:
			arr, err := vm.scope(op).array(vm.readName())
			if err != nil {
				return vm.wrapError(err)
			}
			v, err := arr.get(vm.pop())
			if err != nil {
				return vm.wrapError(err)
			}
			vm.push(v)
		case bytecode.OP_SET_GLOBAL_ARRAY, bytecode.OP_SET_LOCAL_ARRAY:
			arr, err := vm.scope(op).array(vm.readName())
			if err != nil {
				return vm.wrapError(err)
			}
			v := vm.pop()
			index := vm.pop()
			if err := arr.set(index, v); err != nil {
				return vm.wrapError(err)
			}
		case bytecode.OP_INCREMENT_GLOBAL, bytecode.OP_INCREMENT_LOCAL:
			name := vm.readName()
			step := vm.readConst()
			if err := vm.scope(op).increment(name, step); err != nil {
				return vm.wrapError(err)
			}
		case bytecode.OP_POP_LOCAL:
			vm.locals.remove(vm.readName())

		case bytecode.OP_JUMP:
			dist := vm.readU16()
			vm.ip += dist
		case bytecode.OP_JUMP_IF_FALSE:
			dist := vm.readU16()
			cond := vm.peek()
			if cond.Kind != value.KindBoolean {
				return vm.errorf(ErrType, "condition must be BOOLEAN, got %s", cond.Kind)
			}
			if !cond.Bool {
				vm.ip += dist
			}
		case bytecode.OP_LOOP:
			dist := vm.readU16()
			vm.ip -= dist

		case bytecode.OP_CALL:
			entry := vm.readConst()
			if entry.Kind != value.KindInteger || entry.Int < 0 || entry.Int >= int64(len(code)) {
				return vm.errorf(ErrUndefined, "invalid procedure entry %s", entry)
			}
			if len(vm.calls) >= vm.maxCalls {
				return vm.errorf(ErrCallDepth, "call stack overflow (depth %d)", vm.maxCalls)
			}
			vm.calls = append(vm.calls, vm.ip)
			vm.ip = int(entry.Int)
		case bytecode.OP_END_PROCEDURE:
			if len(vm.calls) == 0 {
				return vm.errorf(ErrUndefined, "end of procedure reached without a call")
			}
			vm.ip = vm.calls[len(vm.calls)-1]
			vm.calls = vm.calls[:len(vm.calls)-1]
		case bytecode.OP_RETURN:
			return nil

		case bytecode.OP_OUTPUT:
			if err := vm.output(int(vm.readU8())); err != nil {
				return vm.wrapError(err)
			}
		case bytecode.OP_INPUT:
			v, err := vm.readInput()
			if err != nil {
				return vm.wrapError(err)
			}
			vm.push(v)
		case bytecode.OP_BUILTIN:
			if err := vm.runBuiltin(vm.readU8()); err != nil {
				return err
			}
		default:
			return vm.errorf(ErrUndefined, "unknown opcode 0x%02X", op)
		}
	}
	return nil
}

func (vm *VM) scope(op byte) *table {
	switch op {
	case bytecode.OP_DEFINE_LOCAL, bytecode.OP_DEFINE_LOCAL_ARRAY,
		bytecode.OP_GET_LOCAL, bytecode.OP_SET_LOCAL,
		bytecode.OP_GET_LOCAL_ARRAY, bytecode.OP_SET_LOCAL_ARRAY,
		bytecode.OP_INCREMENT_LOCAL:
		return vm.locals
	default:
		return vm.globals
	}
}

func (vm *VM) output(count int) error {
	if len(vm.stack) < count {
		return Errorf(ErrArgument, "OUTPUT expects %d values, stack has %d", count, len(vm.stack))
	}
	vals := vm.stack[len(vm.stack)-count:]
	parts := make([]string, len(vals))
	for i, v := range vals {
		if vm.quoteStrings {
			parts[i] = v.String()
		} else {
			parts[i] = v.Raw()
		}
	}
	vm.stack = vm.stack[:len(vm.stack)-count]
	_, err := io.WriteString(vm.out, strings.Join(parts, " ")+"\n")
	return err
}

func (vm *VM) push(v value.Value) {
	vm.stack = append(vm.stack, v)
}

func (vm *VM) pop() value.Value {
	if len(vm.stack) == 0 {
		return value.Unbound()
	}
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

func (vm *VM) peek() value.Value {
	if len(vm.stack) == 0 {
		return value.Unbound()
	}
	return vm.stack[len(vm.stack)-1]
}

func (vm *VM) readU16() int {
	v := vm.chunk.ReadU16(vm.ip)
	vm.ip += 2
	return int(v)
}

func (vm *VM) readU8() byte {
	b := vm.chunk.Code[vm.ip]
	vm.ip++
	return b
}

func (vm *VM) readConst() value.Value {
	return vm.chunk.Consts[vm.readU16()]
}

func (vm *VM) readName() string {
	return vm.readConst().Str
}
