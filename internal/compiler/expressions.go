package compiler

import (
	"github.com/xirelogy/go-pseudo/internal/bytecode"
	"github.com/xirelogy/go-pseudo/internal/token"
)

const (
	precNewline = iota
	precNone
	precAssignment
	precOr
	precAnd
	precEquality
	precComparison
	precTerm
	precFactor
	precUnary
	precCall
	precPrimary
)

var precedences = map[token.Type]int{
	token.Or:           precOr,
	token.And:          precAnd,
	token.Equal:        precEquality,
	token.NotEqual:     precEquality,
	token.Less:         precComparison,
	token.LessEqual:    precComparison,
	token.Greater:      precComparison,
	token.GreaterEqual: precComparison,
	token.Plus:         precTerm,
	token.Minus:        precTerm,
	token.Star:         precFactor,
	token.Slash:        precFactor,
	token.Div:          precFactor,
	token.Mod:          precFactor,
	token.Ampersand:    precFactor,
}

var binaryOps = map[token.Type]byte{
	token.Or:           bytecode.OP_OR,
	token.And:          bytecode.OP_AND,
	token.Equal:        bytecode.OP_EQ,
	token.NotEqual:     bytecode.OP_NEQ,
	token.Less:         bytecode.OP_LT,
	token.LessEqual:    bytecode.OP_LTE,
	token.Greater:      bytecode.OP_GT,
	token.GreaterEqual: bytecode.OP_GTE,
	token.Plus:         bytecode.OP_ADD,
	token.Minus:        bytecode.OP_SUB,
	token.Star:         bytecode.OP_MUL,
	token.Slash:        bytecode.OP_DIV,
	token.Div:          bytecode.OP_INT_DIV,
	token.Mod:          bytecode.OP_MOD,
	token.Ampersand:    bytecode.OP_CONCAT,
}

// precedenceOf returns precNewline for tokens with no binary production,
// which ends the climb.
func precedenceOf(t token.Type) int {
	if prec, ok := precedences[t]; ok {
		return prec
	}
	return precNewline
}

func (c *Compiler) expression() error {
	return c.parsePrecedence(precOr)
}

func (c *Compiler) parsePrecedence(min int) error {
	if err := c.prefix(); err != nil {
		return err
	}
	return c.infix(min)
}

// infix folds binary operators onto an already emitted left operand.
// The right operand binds one level tighter, so operators of equal
// precedence associate to the left.
func (c *Compiler) infix(min int) error {
	for {
		prec := precedenceOf(c.cur.Type)
		if prec == precNewline || prec < min {
			return nil
		}
		op := c.cur
		c.advance()
		if err := c.parsePrecedence(prec + 1); err != nil {
			return err
		}
		c.at(op)
		c.emitByte(binaryOps[op.Type])
	}
}

func (c *Compiler) prefix() error {
	tok := c.cur
	c.at(tok)
	switch tok.Type {
	case token.Integer, token.Real, token.String, token.Char, token.Boolean:
		c.advance()
		return c.emitConst(tok.Value)
	case token.Date, token.DateT:
		return c.errorf(tok, "DATE values are not supported")
	case token.Ident:
		return c.reference()
	case token.LParen:
		c.advance()
		if err := c.expression(); err != nil {
			return err
		}
		return c.consume(token.RParen)
	case token.Minus, token.Not:
		c.advance()
		if err := c.parsePrecedence(precUnary); err != nil {
			return err
		}
		c.at(tok)
		if tok.Type == token.Minus {
			c.emitByte(bytecode.OP_NEG)
		} else {
			c.emitByte(bytecode.OP_NOT)
		}
		return nil
	}
	if callBuiltins[tok.Type] {
		return c.callBuiltin()
	}
	if unaryBuiltins[tok.Type] {
		return c.unaryBuiltin()
	}
	if unsupported[tok.Type] {
		return c.errorf(tok, "'%s' is not supported", tok.Literal)
	}
	return c.errorf(tok, "unexpected token %s", describe(tok))
}

// reference compiles a read of name or name[index].
func (c *Compiler) reference() error {
	name := c.cur
	global, err := c.resolve(name)
	if err != nil {
		return err
	}
	c.advance()
	if c.cur.Type != token.LBracket {
		c.at(name)
		return c.emitName(scoped(global, bytecode.OP_GET_GLOBAL, bytecode.OP_GET_LOCAL), name.Literal)
	}
	c.advance()
	if err := c.expression(); err != nil {
		return err
	}
	if err := c.consume(token.RBracket); err != nil {
		return err
	}
	c.at(name)
	return c.emitName(scoped(global, bytecode.OP_GET_GLOBAL_ARRAY, bytecode.OP_GET_LOCAL_ARRAY), name.Literal)
}
