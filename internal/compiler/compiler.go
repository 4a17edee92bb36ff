package compiler

import (
	"fmt"
	"math"

	"github.com/tliron/commonlog"

	"github.com/xirelogy/go-pseudo/internal/bytecode"
	"github.com/xirelogy/go-pseudo/internal/token"
	"github.com/xirelogy/go-pseudo/internal/value"
)

var log = commonlog.GetLogger("pseudo.compiler")

// Error is a compile error at the offending token.
type Error struct {
	Message string
	Pos     token.Position
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at line %d, column %d", e.Message, e.Pos.Line, e.Pos.Column)
}

// Compiler turns a token stream into bytecode in a single pass. A Compiler
// is long-lived: depth-0 bindings survive across Compile calls so that a
// REPL session can refer to globals declared on earlier lines.
type Compiler struct {
	tokens []token.Token
	next   int
	cur    token.Token
	peek   token.Token

	chunk    *bytecode.Chunk
	line     int
	column   int
	depth    int
	bindings []binding
	procs    map[string]int
}

// New creates a compiler with no bindings.
func New() *Compiler {
	return &Compiler{}
}

// Reset forgets every binding, including globals.
func (c *Compiler) Reset() {
	c.bindings = nil
	c.depth = 0
}

// Compile compiles a whole token stream into one chunk ending in OP_RETURN.
// On error no chunk is returned and bindings added during this call are
// discarded.
func (c *Compiler) Compile(tokens []token.Token) (chunk *bytecode.Chunk, err error) {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != token.EOF {
		tokens = append(tokens, token.Token{Type: token.EOF})
	}
	c.tokens = tokens
	c.next = 0
	c.cur, c.peek = token.Token{}, token.Token{}
	c.chunk = &bytecode.Chunk{}
	c.line, c.column = 0, 0
	c.depth = 0
	c.procs = make(map[string]int)

	mark := len(c.bindings)
	defer func() {
		if err != nil {
			log.Debugf("compile failed, rolling back %d binding(s)", len(c.bindings)-mark)
			c.bindings = c.bindings[:mark]
			c.depth = 0
		}
	}()

	c.advance()
	c.advance()
	for {
		c.skipNewlines()
		if c.cur.Type == token.EOF {
			break
		}
		if err := c.statement(); err != nil {
			return nil, err
		}
	}
	c.at(c.cur)
	c.emitByte(bytecode.OP_RETURN)
	log.Debugf("compiled %d bytes, %d constants, %d procedure(s)", len(c.chunk.Code), len(c.chunk.Consts), len(c.procs))
	return c.chunk, nil
}

func (c *Compiler) advance() {
	c.cur = c.peek
	if c.next < len(c.tokens) {
		c.peek = c.tokens[c.next]
		c.next++
	} else {
		c.peek = c.tokens[len(c.tokens)-1]
	}
}

func (c *Compiler) skipNewlines() {
	for c.cur.Type == token.Newline {
		c.advance()
	}
}

// expect checks cur without consuming it.
func (c *Compiler) expect(t token.Type) error {
	if c.cur.Type != t {
		return c.errorf(c.cur, "expected %s, got %s", typeName(t), describe(c.cur))
	}
	return nil
}

// consume checks cur and advances past it.
func (c *Compiler) consume(t token.Type) error {
	if err := c.expect(t); err != nil {
		return err
	}
	c.advance()
	return nil
}

func (c *Compiler) errorf(tok token.Token, format string, args ...any) error {
	return &Error{Message: fmt.Sprintf(format, args...), Pos: tok.Pos}
}

// at attributes subsequently emitted bytes to tok's position.
func (c *Compiler) at(tok token.Token) {
	if tok.Pos.Line > 0 {
		c.line, c.column = tok.Pos.Line, tok.Pos.Column
	}
}

func (c *Compiler) emitByte(b byte) {
	c.chunk.Write(b, c.line, c.column)
}

func (c *Compiler) emitBytes(b ...byte) {
	for _, x := range b {
		c.emitByte(x)
	}
}

func (c *Compiler) makeConst(v value.Value) (uint16, error) {
	idx, err := c.chunk.AddConst(v)
	if err != nil {
		return 0, c.errorf(c.cur, "%v", err)
	}
	return idx, nil
}

func (c *Compiler) emitConst(v value.Value) error {
	idx, err := c.makeConst(v)
	if err != nil {
		return err
	}
	c.emitBytes(bytecode.OP_CONST, byte(idx>>8), byte(idx))
	return nil
}

// emitName writes op followed by the constant index of name.
func (c *Compiler) emitName(op byte, name string) error {
	idx, err := c.makeConst(value.String(name))
	if err != nil {
		return err
	}
	c.emitBytes(op, byte(idx>>8), byte(idx))
	return nil
}

// emitJump writes op with a placeholder distance and returns the offset
// just past the placeholder.
func (c *Compiler) emitJump(op byte) int {
	c.emitBytes(op, 0xff, 0xff)
	return len(c.chunk.Code)
}

func (c *Compiler) patchJump(at int) error {
	dist := len(c.chunk.Code) - at
	if dist > math.MaxUint16 {
		return c.errorf(c.cur, "jump too large")
	}
	c.chunk.Code[at-2] = byte(dist >> 8)
	c.chunk.Code[at-1] = byte(dist)
	return nil
}

func (c *Compiler) emitLoop(start int) error {
	c.emitByte(bytecode.OP_LOOP)
	dist := len(c.chunk.Code) + 2 - start
	if dist > math.MaxUint16 {
		return c.errorf(c.cur, "jump too large")
	}
	c.emitBytes(byte(dist>>8), byte(dist))
	return nil
}

var typeNames = map[token.Type]string{
	token.EOF:      "end of input",
	token.Newline:  "end of line",
	token.Ident:    "identifier",
	token.Integer:  "integer literal",
	token.Assign:   "'<-'",
	token.Colon:    "':'",
	token.Comma:    "','",
	token.LParen:   "'('",
	token.RParen:   "')'",
	token.LBracket: "'['",
	token.RBracket: "']'",
}

func typeName(t token.Type) string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return string(t)
}

func describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF, token.Newline:
		return typeName(tok.Type)
	}
	return "'" + tok.Literal + "'"
}
