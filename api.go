package pseudo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/tliron/commonlog"

	_ "github.com/xirelogy/go-pseudo/internal/builtins"
	"github.com/xirelogy/go-pseudo/internal/builtins/system"
	"github.com/xirelogy/go-pseudo/internal/bytecode"
	"github.com/xirelogy/go-pseudo/internal/compiler"
	"github.com/xirelogy/go-pseudo/internal/config"
	"github.com/xirelogy/go-pseudo/internal/lexer"
	"github.com/xirelogy/go-pseudo/internal/token"
	"github.com/xirelogy/go-pseudo/internal/value"
	"github.com/xirelogy/go-pseudo/internal/vm"
)

var log = commonlog.GetLogger("pseudo")

// ErrBusy is returned when an Interpreter is asked to run while it is
// already running a program.
var ErrBusy = errors.New("interpreter is busy; concurrent runs not allowed")

// Runtime error kinds, matched with errors.Is against a Runtime *Error.
var (
	ErrType             = vm.ErrType
	ErrOutOfBounds      = vm.ErrOutOfBounds
	ErrUnbound          = vm.ErrUnbound
	ErrUndefined        = vm.ErrUndefined
	ErrRedefined        = vm.ErrRedefined
	ErrDivisionByZero   = vm.ErrDivisionByZero
	ErrArgument         = vm.ErrArgument
	ErrInput            = vm.ErrInput
	ErrCallDepth        = vm.ErrCallDepth
	ErrInstructionLimit = vm.ErrInstructionLimit
	ErrSystemDisabled   = vm.ErrSystemDisabled
)

// Value is a runtime value held by a variable.
type Value = value.Value

// Token is a lexical token as produced by Tokenize.
type Token = token.Token

// Config holds settings loaded from pseudo.toml.
type Config = config.Config

// LoadConfig reads a pseudo.toml file.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// DefaultConfig returns the settings used when no file is present.
func DefaultConfig() *Config {
	return config.Default()
}

// Category classifies an Error by the stage that produced it.
type Category int

const (
	Lexical Category = iota
	Compile
	Runtime
)

func (c Category) String() string {
	switch c {
	case Lexical:
		return "Lexical"
	case Compile:
		return "Compile"
	case Runtime:
		return "Runtime"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Error is a categorized, source-aware error from any interpreter stage.
type Error struct {
	Category Category
	Message  string
	Line     int
	Column   int
	Cause    error
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s error: %s. Line %d, column %d", e.Category, e.Message, e.Line, e.Column)
	}
	return fmt.Sprintf("%s error: %s", e.Category, e.Message)
}

// Unwrap exposes the underlying cause (if any) for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

func convertError(err error) error {
	if err == nil {
		return nil
	}
	var lexErr *lexer.Error
	if errors.As(err, &lexErr) {
		return &Error{Category: Lexical, Message: lexErr.Message, Line: lexErr.Pos.Line, Column: lexErr.Pos.Column, Cause: err}
	}
	var compErr *compiler.Error
	if errors.As(err, &compErr) {
		return &Error{Category: Compile, Message: compErr.Message, Line: compErr.Pos.Line, Column: compErr.Pos.Column, Cause: err}
	}
	var rte *vm.RuntimeError
	if errors.As(err, &rte) {
		return &Error{Category: Runtime, Message: rte.Message, Line: rte.Line, Column: rte.Column, Cause: err}
	}
	return err
}

// KeywordCase selects how keywords are recognised in source text.
type KeywordCase int

const (
	UpperKeywords KeywordCase = iota
	LowerKeywords
	AnyKeywords
)

func (k KeywordCase) token() token.CaseMode {
	switch k {
	case LowerKeywords:
		return token.LowerCase
	case AnyKeywords:
		return token.AnyCase
	default:
		return token.UpperCase
	}
}

// SystemRunner executes a host command for the SYSTEM builtin, writing its
// standard output to stdout, and returns the exit status.
type SystemRunner func(ctx context.Context, command string, stdout io.Writer) (int, error)

// ShellRunner runs commands with "sh -c".
var ShellRunner SystemRunner = system.ShellRunner

// TraceInfo captures execution steps for debug hooks.
type TraceInfo struct {
	Op         string
	Line       int
	Column     int
	IP         int
	StackDepth int
	CallDepth  int
}

// TraceHook observes instruction dispatch for debugging/profiling.
type TraceHook func(TraceInfo)

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithOutput directs OUTPUT to w.
func WithOutput(w io.Writer) Option {
	return func(in *Interpreter) { in.core.SetOutput(w) }
}

// WithInput makes INPUT read lines from r.
func WithInput(r io.Reader) Option {
	return func(in *Interpreter) { in.core.SetInput(r) }
}

// WithKeywordCase selects keyword recognition; the default is UpperKeywords.
func WithKeywordCase(c KeywordCase) Option {
	return func(in *Interpreter) { in.keywordCase = c.token() }
}

// WithInstructionLimit caps the instructions a single run may execute (0 for unlimited).
func WithInstructionLimit(limit int) Option {
	return func(in *Interpreter) { in.core.SetInstructionLimit(limit) }
}

// WithMaxCallDepth caps nested procedure calls.
func WithMaxCallDepth(depth int) Option {
	return func(in *Interpreter) { in.core.SetMaxCallDepth(depth) }
}

// WithSeed makes RANDOM_INTEGER and RANDOM_REAL deterministic.
func WithSeed(seed uint64) Option {
	return func(in *Interpreter) { in.core.SetSeed(seed) }
}

// WithSystemRunner enables the SYSTEM builtin. It is disabled by default.
func WithSystemRunner(r SystemRunner) Option {
	return func(in *Interpreter) {
		if r == nil {
			in.core.SetSystemRunner(nil)
			return
		}
		in.core.SetSystemRunner(vm.SystemRunner(r))
	}
}

// WithQuoteStrings controls whether OUTPUT renders strings and chars with quotes.
func WithQuoteStrings(quote bool) Option {
	return func(in *Interpreter) { in.core.SetQuoteStrings(quote) }
}

// WithTraceHook attaches a debug hook that observes instruction dispatch.
func WithTraceHook(h TraceHook) Option {
	return func(in *Interpreter) {
		if h == nil {
			in.core.SetTraceHook(nil)
			return
		}
		in.core.SetTraceHook(func(info vm.TraceInfo) {
			h(TraceInfo{
				Op:         info.Name,
				Line:       info.Line,
				Column:     info.Column,
				IP:         info.IP,
				StackDepth: info.StackDepth,
				CallDepth:  info.CallDepth,
			})
		})
	}
}

// WithConfig applies settings loaded from a configuration file. Options
// given after it override the file.
func WithConfig(cfg *Config) Option {
	return func(in *Interpreter) {
		if cfg == nil {
			return
		}
		in.keywordCase = cfg.KeywordCase()
		in.core.SetInstructionLimit(cfg.VM.InstructionLimit)
		in.core.SetMaxCallDepth(cfg.VM.MaxCallDepth)
		if cfg.VM.Seed != 0 {
			in.core.SetSeed(cfg.VM.Seed)
		}
		if cfg.VM.AllowSystem {
			in.core.SetSystemRunner(system.ShellRunner)
		}
		in.core.SetQuoteStrings(cfg.Output.QuoteStrings)
	}
}

// Interpreter compiles and runs pseudocode. Declarations made by one
// Interpret call stay visible to the next until Reset.
type Interpreter struct {
	comp        *compiler.Compiler
	core        *vm.VM
	keywordCase token.CaseMode
	mu          sync.Mutex
	busy        bool
}

// New constructs an Interpreter. Output is discarded and INPUT sees end of
// input unless configured.
func New(opts ...Option) *Interpreter {
	in := &Interpreter{
		comp: compiler.New(),
		core: vm.New(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Program is a compiled chunk of bytecode ready to Run.
type Program struct {
	chunk *bytecode.Chunk
}

// Disassemble writes a human readable listing of the program to w.
func (p *Program) Disassemble(w io.Writer) error {
	return bytecode.NewDisassembler(w).DisassembleChunk("program", p.chunk)
}

// MarshalBinary encodes the program so it can be saved and loaded later.
func (p *Program) MarshalBinary() ([]byte, error) {
	return bytecode.MarshalChunk(p.chunk)
}

// LoadProgram decodes a program produced by MarshalBinary.
func LoadProgram(data []byte) (*Program, error) {
	chunk, err := bytecode.UnmarshalChunk(data)
	if err != nil {
		return nil, err
	}
	return &Program{chunk: chunk}, nil
}

// Tokenize lexes source with upper case keywords.
func Tokenize(source string) ([]Token, error) {
	toks, err := lexer.Tokenize(source)
	return toks, convertError(err)
}

// Tokenize lexes source with the interpreter's keyword case.
func (in *Interpreter) Tokenize(source string) ([]Token, error) {
	toks, err := lexer.Tokenize(source, lexer.WithCase(in.keywordCase))
	return toks, convertError(err)
}

// Compile lexes and compiles source against the interpreter's current
// declarations without running it.
func (in *Interpreter) Compile(source string) (*Program, error) {
	if err := in.acquire(); err != nil {
		return nil, err
	}
	defer in.release()
	return in.compile(source)
}

// Run executes a compiled program. A runtime error leaves any global
// changes made before it in place.
func (in *Interpreter) Run(ctx context.Context, p *Program) error {
	if p == nil || p.chunk == nil {
		return errors.New("nil program")
	}
	if err := in.acquire(); err != nil {
		return err
	}
	defer in.release()
	return convertError(in.core.Execute(ctx, p.chunk))
}

// Interpret compiles and runs source.
func (in *Interpreter) Interpret(ctx context.Context, source string) error {
	if err := in.acquire(); err != nil {
		return err
	}
	defer in.release()
	p, err := in.compile(source)
	if err != nil {
		return err
	}
	return convertError(in.core.Execute(ctx, p.chunk))
}

// Reset forgets every declaration and global value.
func (in *Interpreter) Reset() error {
	if err := in.acquire(); err != nil {
		return err
	}
	defer in.release()
	in.comp.Reset()
	in.core.Reset()
	log.Debugf("session reset")
	return nil
}

// Global reports the current value of a global variable, which may be
// unbound. It fails with ErrUndefined when name is not declared and with
// ErrBusy while a program is running.
func (in *Interpreter) Global(name string) (Value, error) {
	if err := in.acquire(); err != nil {
		return Value{}, err
	}
	defer in.release()
	v, ok := in.core.Global(name)
	if !ok {
		return Value{}, fmt.Errorf("global '%s': %w", name, ErrUndefined)
	}
	return v, nil
}

// GlobalArray returns a copy of a global array's elements and its bounds.
func (in *Interpreter) GlobalArray(name string) (items []Value, lower, upper int64, err error) {
	if err := in.acquire(); err != nil {
		return nil, 0, 0, err
	}
	defer in.release()
	arr, ok := in.core.GlobalArray(name)
	if !ok {
		return nil, 0, 0, fmt.Errorf("global array '%s': %w", name, ErrUndefined)
	}
	return arr.Items, arr.Lower, arr.Upper, nil
}

func (in *Interpreter) compile(source string) (*Program, error) {
	toks, err := lexer.Tokenize(source, lexer.WithCase(in.keywordCase))
	if err != nil {
		return nil, convertError(err)
	}
	chunk, err := in.comp.Compile(toks)
	if err != nil {
		return nil, convertError(err)
	}
	return &Program{chunk: chunk}, nil
}

func (in *Interpreter) acquire() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.busy {
		return ErrBusy
	}
	in.busy = true
	return nil
}

func (in *Interpreter) release() {
	in.mu.Lock()
	in.busy = false
	in.mu.Unlock()
}
