package compiler

import (
	"github.com/xirelogy/go-pseudo/internal/bytecode"
	"github.com/xirelogy/go-pseudo/internal/token"
	"github.com/xirelogy/go-pseudo/internal/value"
)

// unsupported lists reserved words the language reserves but this
// interpreter does not implement.
var unsupported = map[token.Type]bool{
	token.Constant:    true,
	token.Case:        true,
	token.Otherwise:   true,
	token.EndCase:     true,
	token.TypeKw:      true,
	token.EndType:     true,
	token.Function:    true,
	token.Returns:     true,
	token.Return:      true,
	token.EndFunction: true,
	token.ByRef:       true,
	token.ByVal:       true,
	token.Break:       true,
	token.Continue:    true,
	token.OpenFile:    true,
	token.ReadFile:    true,
	token.WriteFile:   true,
	token.CloseFile:   true,
	token.Read:        true,
	token.Write:       true,
	token.Append:      true,
	token.Random:      true,
	token.Seek:        true,
	token.GetRecord:   true,
	token.PutRecord:   true,
	token.Caret:       true,
	token.Period:      true,
}

var kinds = map[token.Type]value.Kind{
	token.IntegerT: value.KindInteger,
	token.RealT:    value.KindReal,
	token.CharT:    value.KindChar,
	token.StringT:  value.KindString,
	token.BooleanT: value.KindBoolean,
}

func (c *Compiler) statement() error {
	var err error
	switch c.cur.Type {
	case token.Output:
		err = c.outputStatement()
	case token.Declare:
		err = c.declareStatement()
	case token.Input:
		err = c.inputStatement()
	case token.If:
		err = c.ifStatement()
	case token.While:
		err = c.whileStatement()
	case token.Repeat:
		err = c.repeatStatement()
	case token.For:
		err = c.forStatement()
	case token.Procedure:
		err = c.procedureStatement()
	case token.Call:
		err = c.callStatement()
	case token.Ident:
		err = c.assignmentStatement()
	default:
		if unsupported[c.cur.Type] {
			return c.errorf(c.cur, "'%s' is not supported", c.cur.Literal)
		}
		err = c.expressionStatement()
	}
	if err != nil {
		return err
	}
	switch c.cur.Type {
	case token.Newline, token.EOF:
		return nil
	}
	return c.errorf(c.cur, "expected end of line, got %s", describe(c.cur))
}

// block compiles statements until cur is one of the terminators, which is
// left unconsumed.
func (c *Compiler) block(terminators ...token.Type) error {
	for {
		c.skipNewlines()
		for _, t := range terminators {
			if c.cur.Type == t {
				return nil
			}
		}
		if c.cur.Type == token.EOF {
			return c.errorf(c.cur, "expected %s, got end of input", typeName(terminators[len(terminators)-1]))
		}
		if err := c.statement(); err != nil {
			return err
		}
	}
}

func (c *Compiler) scopedBlock(terminators ...token.Type) error {
	c.beginScope()
	if err := c.block(terminators...); err != nil {
		return err
	}
	return c.endScope()
}

func (c *Compiler) expressionStatement() error {
	if err := c.expression(); err != nil {
		return err
	}
	c.emitByte(bytecode.OP_POP)
	return nil
}

func (c *Compiler) outputStatement() error {
	tok := c.cur
	c.advance()
	count := 0
	for {
		if err := c.expression(); err != nil {
			return err
		}
		count++
		if c.cur.Type != token.Comma {
			break
		}
		c.advance()
	}
	if count > 255 {
		return c.errorf(tok, "too many values in OUTPUT")
	}
	c.at(tok)
	c.emitBytes(bytecode.OP_OUTPUT, byte(count))
	return nil
}

func (c *Compiler) declareStatement() error {
	c.advance()
	var names []token.Token
	for {
		if err := c.expect(token.Ident); err != nil {
			return err
		}
		names = append(names, c.cur)
		c.advance()
		if c.cur.Type != token.Comma {
			break
		}
		c.advance()
	}
	if err := c.consume(token.Colon); err != nil {
		return err
	}
	if c.cur.Type == token.Array {
		return c.declareArrays(names)
	}
	kind, err := c.typeKind()
	if err != nil {
		return err
	}
	op := scoped(c.depth == 0, bytecode.OP_DEFINE_GLOBAL, bytecode.OP_DEFINE_LOCAL)
	for _, name := range names {
		if err := c.declare(name); err != nil {
			return err
		}
		c.at(name)
		if err := c.emitDefine(op, name.Literal, kind); err != nil {
			return err
		}
	}
	return nil
}

// declareArrays evaluates the bounds once and duplicates them for every
// name but the last.
func (c *Compiler) declareArrays(names []token.Token) error {
	c.advance()
	if err := c.consume(token.LBracket); err != nil {
		return err
	}
	if err := c.expression(); err != nil {
		return err
	}
	if err := c.consume(token.Colon); err != nil {
		return err
	}
	if err := c.expression(); err != nil {
		return err
	}
	if err := c.consume(token.RBracket); err != nil {
		return err
	}
	if err := c.consume(token.Of); err != nil {
		return err
	}
	kind, err := c.typeKind()
	if err != nil {
		return err
	}
	op := scoped(c.depth == 0, bytecode.OP_DEFINE_GLOBAL_ARRAY, bytecode.OP_DEFINE_LOCAL_ARRAY)
	for i, name := range names {
		if err := c.declare(name); err != nil {
			return err
		}
		c.at(name)
		if i < len(names)-1 {
			c.emitByte(bytecode.OP_DUP2)
		}
		if err := c.emitDefine(op, name.Literal, kind); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) emitDefine(op byte, name string, kind value.Kind) error {
	if err := c.emitName(op, name); err != nil {
		return err
	}
	c.emitByte(byte(kind))
	return nil
}

func (c *Compiler) typeKind() (value.Kind, error) {
	tok := c.cur
	if tok.Type == token.DateT {
		return value.KindUnbound, c.errorf(tok, "DATE values are not supported")
	}
	kind, ok := kinds[tok.Type]
	if !ok {
		return value.KindUnbound, c.errorf(tok, "expected a type, got %s", describe(tok))
	}
	c.advance()
	return kind, nil
}

// assignmentStatement handles name <- expr and name[index] <- expr. A line
// that starts with a name but does not assign is an expression statement.
func (c *Compiler) assignmentStatement() error {
	name := c.cur
	switch c.peek.Type {
	case token.Assign:
		global, err := c.resolve(name)
		if err != nil {
			return err
		}
		c.advance()
		c.advance()
		if err := c.expression(); err != nil {
			return err
		}
		c.at(name)
		return c.emitName(scoped(global, bytecode.OP_SET_GLOBAL, bytecode.OP_SET_LOCAL), name.Literal)
	case token.LBracket:
		global, err := c.resolve(name)
		if err != nil {
			return err
		}
		c.advance()
		c.advance()
		if err := c.expression(); err != nil {
			return err
		}
		if err := c.consume(token.RBracket); err != nil {
			return err
		}
		if c.cur.Type == token.Assign {
			c.advance()
			if err := c.expression(); err != nil {
				return err
			}
			c.at(name)
			return c.emitName(scoped(global, bytecode.OP_SET_GLOBAL_ARRAY, bytecode.OP_SET_LOCAL_ARRAY), name.Literal)
		}
		c.at(name)
		if err := c.emitName(scoped(global, bytecode.OP_GET_GLOBAL_ARRAY, bytecode.OP_GET_LOCAL_ARRAY), name.Literal); err != nil {
			return err
		}
		if err := c.infix(precOr); err != nil {
			return err
		}
		c.emitByte(bytecode.OP_POP)
		return nil
	}
	return c.expressionStatement()
}

func (c *Compiler) inputStatement() error {
	tok := c.cur
	c.advance()
	if err := c.expect(token.Ident); err != nil {
		return err
	}
	name := c.cur
	global, err := c.resolve(name)
	if err != nil {
		return err
	}
	c.advance()
	if c.cur.Type != token.LBracket {
		c.at(tok)
		c.emitByte(bytecode.OP_INPUT)
		c.at(name)
		return c.emitName(scoped(global, bytecode.OP_SET_GLOBAL, bytecode.OP_SET_LOCAL), name.Literal)
	}
	c.advance()
	if err := c.expression(); err != nil {
		return err
	}
	if err := c.consume(token.RBracket); err != nil {
		return err
	}
	c.at(tok)
	c.emitByte(bytecode.OP_INPUT)
	c.at(name)
	return c.emitName(scoped(global, bytecode.OP_SET_GLOBAL_ARRAY, bytecode.OP_SET_LOCAL_ARRAY), name.Literal)
}

func (c *Compiler) ifStatement() error {
	tok := c.cur
	c.advance()
	if err := c.expression(); err != nil {
		return err
	}
	c.skipNewlines()
	if err := c.consume(token.Then); err != nil {
		return err
	}
	c.at(tok)
	elseJump := c.emitJump(bytecode.OP_JUMP_IF_FALSE)
	c.emitByte(bytecode.OP_POP)
	if err := c.scopedBlock(token.Else, token.EndIf); err != nil {
		return err
	}
	endJump := c.emitJump(bytecode.OP_JUMP)
	if err := c.patchJump(elseJump); err != nil {
		return err
	}
	c.emitByte(bytecode.OP_POP)
	if c.cur.Type == token.Else {
		c.advance()
		if err := c.scopedBlock(token.EndIf); err != nil {
			return err
		}
	}
	if err := c.consume(token.EndIf); err != nil {
		return err
	}
	return c.patchJump(endJump)
}

func (c *Compiler) whileStatement() error {
	tok := c.cur
	c.advance()
	start := len(c.chunk.Code)
	if err := c.expression(); err != nil {
		return err
	}
	if c.cur.Type == token.Do {
		c.advance()
	}
	c.at(tok)
	exitJump := c.emitJump(bytecode.OP_JUMP_IF_FALSE)
	c.emitByte(bytecode.OP_POP)
	if err := c.scopedBlock(token.EndWhile); err != nil {
		return err
	}
	c.at(c.cur)
	if err := c.emitLoop(start); err != nil {
		return err
	}
	if err := c.patchJump(exitJump); err != nil {
		return err
	}
	c.emitByte(bytecode.OP_POP)
	c.advance()
	return nil
}

// repeatStatement runs the body at least once and stops when the UNTIL
// condition is TRUE.
func (c *Compiler) repeatStatement() error {
	c.advance()
	start := len(c.chunk.Code)
	if err := c.scopedBlock(token.Until); err != nil {
		return err
	}
	until := c.cur
	c.advance()
	if err := c.expression(); err != nil {
		return err
	}
	c.at(until)
	again := c.emitJump(bytecode.OP_JUMP_IF_FALSE)
	c.emitByte(bytecode.OP_POP)
	exit := c.emitJump(bytecode.OP_JUMP)
	if err := c.patchJump(again); err != nil {
		return err
	}
	c.emitByte(bytecode.OP_POP)
	if err := c.emitLoop(start); err != nil {
		return err
	}
	return c.patchJump(exit)
}

func (c *Compiler) forStatement() error {
	tok := c.cur
	c.advance()
	if err := c.expect(token.Ident); err != nil {
		return err
	}
	counter := c.cur
	global, err := c.resolve(counter)
	if err != nil {
		return err
	}
	c.advance()
	if err := c.consume(token.Assign); err != nil {
		return err
	}
	if err := c.expression(); err != nil {
		return err
	}
	c.at(counter)
	if err := c.emitName(scoped(global, bytecode.OP_SET_GLOBAL, bytecode.OP_SET_LOCAL), counter.Literal); err != nil {
		return err
	}
	if err := c.consume(token.To); err != nil {
		return err
	}

	top := len(c.chunk.Code)
	if err := c.expression(); err != nil {
		return err
	}
	step, err := c.forStep()
	if err != nil {
		return err
	}
	c.at(tok)
	if err := c.emitName(scoped(global, bytecode.OP_GET_GLOBAL, bytecode.OP_GET_LOCAL), counter.Literal); err != nil {
		return err
	}
	if step < 0 {
		c.emitByte(bytecode.OP_LTE)
	} else {
		c.emitByte(bytecode.OP_GTE)
	}
	exitJump := c.emitJump(bytecode.OP_JUMP_IF_FALSE)
	c.emitByte(bytecode.OP_POP)

	if err := c.scopedBlock(token.Next); err != nil {
		return err
	}
	next := c.cur
	c.advance()
	if c.cur.Type == token.Ident {
		if c.cur.Literal != counter.Literal {
			return c.errorf(c.cur, "NEXT expected '%s', got '%s'", counter.Literal, c.cur.Literal)
		}
		c.advance()
	}

	idx, err := c.makeConst(value.Integer(step))
	if err != nil {
		return err
	}
	c.at(next)
	if err := c.emitName(scoped(global, bytecode.OP_INCREMENT_GLOBAL, bytecode.OP_INCREMENT_LOCAL), counter.Literal); err != nil {
		return err
	}
	c.emitBytes(byte(idx>>8), byte(idx))
	if err := c.emitLoop(top); err != nil {
		return err
	}
	if err := c.patchJump(exitJump); err != nil {
		return err
	}
	c.emitByte(bytecode.OP_POP)
	return nil
}

// forStep reads an optional STEP clause: a non-zero integer literal,
// optionally negated.
func (c *Compiler) forStep() (int64, error) {
	if c.cur.Type != token.Step {
		return 1, nil
	}
	c.advance()
	negative := false
	if c.cur.Type == token.Minus {
		negative = true
		c.advance()
	}
	if c.cur.Type != token.Integer {
		return 0, c.errorf(c.cur, "STEP must be an integer literal, got %s", describe(c.cur))
	}
	step := c.cur.Value.Int
	if negative {
		step = -step
	}
	if step == 0 {
		return 0, c.errorf(c.cur, "STEP must not be zero")
	}
	c.advance()
	return step, nil
}

func (c *Compiler) procedureStatement() error {
	tok := c.cur
	if c.depth != 0 {
		return c.errorf(tok, "PROCEDURE is only allowed at the top level")
	}
	c.advance()
	if err := c.expect(token.Ident); err != nil {
		return err
	}
	name := c.cur
	if _, exists := c.procs[name.Literal]; exists {
		return c.errorf(name, "procedure '%s' is already defined", name.Literal)
	}
	c.advance()
	if err := c.emptyParens(); err != nil {
		return err
	}

	c.at(tok)
	over := c.emitJump(bytecode.OP_JUMP)
	entry := len(c.chunk.Code)
	c.procs[name.Literal] = entry
	log.Debugf("procedure %s at %04d", name.Literal, entry)

	if err := c.scopedBlock(token.EndProcedure); err != nil {
		return err
	}
	c.at(c.cur)
	c.advance()
	c.emitByte(bytecode.OP_END_PROCEDURE)
	return c.patchJump(over)
}

func (c *Compiler) callStatement() error {
	tok := c.cur
	c.advance()
	if err := c.expect(token.Ident); err != nil {
		return err
	}
	name := c.cur
	entry, ok := c.procs[name.Literal]
	if !ok {
		return c.errorf(name, "procedure '%s' is undefined", name.Literal)
	}
	c.advance()
	if err := c.emptyParens(); err != nil {
		return err
	}
	idx, err := c.makeConst(value.Integer(int64(entry)))
	if err != nil {
		return err
	}
	c.at(tok)
	c.emitBytes(bytecode.OP_CALL, byte(idx>>8), byte(idx))
	return nil
}

// emptyParens accepts an optional "()" after a procedure name.
func (c *Compiler) emptyParens() error {
	if c.cur.Type != token.LParen {
		return nil
	}
	c.advance()
	if c.cur.Type != token.RParen {
		return c.errorf(c.cur, "procedure parameters are not supported")
	}
	c.advance()
	return nil
}
