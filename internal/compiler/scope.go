package compiler

import (
	"github.com/xirelogy/go-pseudo/internal/bytecode"
	"github.com/xirelogy/go-pseudo/internal/token"
)

// binding records a declared name and the block depth it was declared at.
// Depth 0 is global.
type binding struct {
	name  string
	depth int
}

func (c *Compiler) beginScope() {
	c.depth++
}

// endScope drops bindings deeper than the enclosing depth and emits
// OP_POP_LOCAL for each, most recent first.
func (c *Compiler) endScope() error {
	c.depth--
	for len(c.bindings) > 0 {
		last := c.bindings[len(c.bindings)-1]
		if last.depth <= c.depth {
			break
		}
		if err := c.emitName(bytecode.OP_POP_LOCAL, last.name); err != nil {
			return err
		}
		c.bindings = c.bindings[:len(c.bindings)-1]
	}
	return nil
}

// declare adds a binding at the current depth.
func (c *Compiler) declare(name token.Token) error {
	for i := len(c.bindings) - 1; i >= 0; i-- {
		b := c.bindings[i]
		if b.depth < c.depth {
			break
		}
		if b.name == name.Literal {
			return c.errorf(name, "'%s' is already declared in this scope", name.Literal)
		}
	}
	c.bindings = append(c.bindings, binding{name: name.Literal, depth: c.depth})
	return nil
}

// resolve finds the innermost visible binding and reports whether it is
// global.
func (c *Compiler) resolve(name token.Token) (bool, error) {
	for i := len(c.bindings) - 1; i >= 0; i-- {
		b := c.bindings[i]
		if b.name == name.Literal && b.depth <= c.depth {
			return b.depth == 0, nil
		}
	}
	return false, c.errorf(name, "'%s' is not declared in this scope", name.Literal)
}

// scoped picks the global or local flavour of an opcode.
func scoped(global bool, globalOp, localOp byte) byte {
	if global {
		return globalOp
	}
	return localOp
}
