package compiler

import (
	"github.com/xirelogy/go-pseudo/internal/bytecode"
	"github.com/xirelogy/go-pseudo/internal/runtime"
	"github.com/xirelogy/go-pseudo/internal/token"
)

// unaryBuiltins take one operand parsed at unary precedence, so both
// SIN(x) and SIN x are accepted.
var unaryBuiltins = map[token.Type]bool{
	token.Sin:        true,
	token.Cos:        true,
	token.Tan:        true,
	token.Sqrt:       true,
	token.Abs:        true,
	token.IntCast:    true,
	token.RealCast:   true,
	token.StringCast: true,
	token.Reverse:    true,
	token.Length:     true,
	token.System:     true,
}

// callBuiltins require a parenthesised argument list.
var callBuiltins = map[token.Type]bool{
	token.Mid:        true,
	token.RandomInt:  true,
	token.RandomReal: true,
}

func (c *Compiler) unaryBuiltin() error {
	tok := c.cur
	c.advance()
	if err := c.parsePrecedence(precUnary); err != nil {
		return err
	}
	return c.emitBuiltin(tok, 1)
}

func (c *Compiler) callBuiltin() error {
	tok := c.cur
	c.advance()
	if err := c.consume(token.LParen); err != nil {
		return err
	}
	argc := 0
	if c.cur.Type != token.RParen {
		for {
			if err := c.expression(); err != nil {
				return err
			}
			argc++
			if c.cur.Type != token.Comma {
				break
			}
			c.advance()
		}
	}
	if err := c.consume(token.RParen); err != nil {
		return err
	}
	return c.emitBuiltin(tok, argc)
}

func (c *Compiler) emitBuiltin(tok token.Token, argc int) error {
	spec, ok := runtime.LookupByName(string(tok.Type))
	if !ok {
		return c.errorf(tok, "builtin '%s' is not available", tok.Literal)
	}
	if argc != spec.Arity {
		return c.errorf(tok, "builtin %s expects %d args, got %d", spec.Name, spec.Arity, argc)
	}
	c.at(tok)
	c.emitBytes(bytecode.OP_BUILTIN, spec.ID)
	return nil
}
