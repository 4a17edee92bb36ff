package vm

import (
	"errors"
	"fmt"

	"github.com/xirelogy/go-pseudo/internal/bytecode"
)

// Runtime error kinds. A *RuntimeError unwraps to one of these.
var (
	ErrType             = errors.New("type mismatch")
	ErrOutOfBounds      = errors.New("out of bounds")
	ErrUnbound          = errors.New("unbound")
	ErrUndefined        = errors.New("undefined")
	ErrRedefined        = errors.New("already defined")
	ErrDivisionByZero   = errors.New("division by zero")
	ErrArgument         = errors.New("invalid argument")
	ErrInput            = errors.New("invalid input")
	ErrCallDepth        = errors.New("call stack overflow")
	ErrInstructionLimit = errors.New("instruction limit exceeded")
	ErrSystemDisabled   = errors.New("system calls disabled")
)

// TraceInfo describes a single instruction dispatch for debugging/tracing.
type TraceInfo struct {
	Op         byte
	Name       string
	Line       int
	Column     int
	IP         int
	StackDepth int
	CallDepth  int
}

// TraceHook observes instruction dispatch for debugging/profiling.
type TraceHook func(TraceInfo)

// RuntimeError carries the source position of the failing instruction.
type RuntimeError struct {
	Message string
	Line    int
	Column  int
	IP      int
	Cause   error
}

func (e *RuntimeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
	}
	return e.Message
}

// Unwrap exposes the original error, if any.
func (e *RuntimeError) Unwrap() error {
	return e.Cause
}

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// Errorf builds an error of the given kind; builtin handlers return these.
func Errorf(kind error, format string, args ...interface{}) error {
	return &kindError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func (vm *VM) errorf(kind error, format string, args ...interface{}) error {
	return vm.wrapError(Errorf(kind, format, args...))
}

func (vm *VM) wrapError(err error) error {
	if err == nil {
		return nil
	}
	var rte *RuntimeError
	if errors.As(err, &rte) {
		return err
	}
	line, column := 0, 0
	if vm.chunk != nil {
		line, column = vm.chunk.PositionAt(vm.lastOp)
	}
	return &RuntimeError{
		Message: err.Error(),
		Line:    line,
		Column:  column,
		IP:      vm.lastOp,
		Cause:   err,
	}
}

func (vm *VM) trace(op byte) {
	if vm.traceHook == nil {
		return
	}
	line, column := vm.chunk.PositionAt(vm.lastOp)
	vm.traceHook(TraceInfo{
		Op:         op,
		Name:       bytecode.OpName(op),
		Line:       line,
		Column:     column,
		IP:         vm.lastOp,
		StackDepth: len(vm.stack),
		CallDepth:  len(vm.calls),
	})
}
