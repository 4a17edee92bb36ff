package vm

import (
	"github.com/xirelogy/go-pseudo/internal/value"
)

// Array is a declared one-dimensional array with inclusive bounds.
type Array struct {
	Name  string
	Lower int64
	Upper int64
	Elem  value.Kind
	Items []value.Value
}

type slot struct {
	kind value.Kind
	val  value.Value
}

// table holds the scalars and arrays of one scope (global or local).
type table struct {
	scope  string
	vars   map[string]*slot
	arrays map[string]*Array
}

func newTable(scope string) *table {
	return &table{
		scope:  scope,
		vars:   make(map[string]*slot),
		arrays: make(map[string]*Array),
	}
}

func (t *table) has(name string) bool {
	if _, ok := t.vars[name]; ok {
		return true
	}
	_, ok := t.arrays[name]
	return ok
}

func (t *table) define(name string, kind value.Kind) error {
	if t.has(name) {
		return Errorf(ErrRedefined, "%s '%s' is already defined", t.scope, name)
	}
	t.vars[name] = &slot{kind: kind}
	return nil
}

func (t *table) defineArray(name string, elem value.Kind, lower, upper value.Value) error {
	if t.has(name) {
		return Errorf(ErrRedefined, "%s '%s' is already defined", t.scope, name)
	}
	if lower.Kind != value.KindInteger || upper.Kind != value.KindInteger {
		return Errorf(ErrType, "bounds of array '%s' must be INTEGER, got %s and %s", name, lower.Kind, upper.Kind)
	}
	if lower.Int > upper.Int {
		return Errorf(ErrOutOfBounds, "invalid bounds for array '%s': %d > %d", name, lower.Int, upper.Int)
	}
	// Span in uint64 so bounds of opposite sign cannot wrap.
	span := uint64(upper.Int) - uint64(lower.Int)
	if span >= maxArraySize {
		return Errorf(ErrOutOfBounds, "array '%s' is too large (%d:%d)", name, lower.Int, upper.Int)
	}
	size := int64(span) + 1
	t.arrays[name] = &Array{
		Name:  name,
		Lower: lower.Int,
		Upper: upper.Int,
		Elem:  elem,
		Items: make([]value.Value, size),
	}
	return nil
}

func (t *table) lookup(name string) (*slot, error) {
	s, ok := t.vars[name]
	if !ok {
		if _, isArray := t.arrays[name]; isArray {
			return nil, Errorf(ErrType, "%s '%s' is an array and needs an index", t.scope, name)
		}
		return nil, Errorf(ErrUndefined, "%s '%s' is undefined", t.scope, name)
	}
	return s, nil
}

func (t *table) get(name string) (value.Value, error) {
	s, err := t.lookup(name)
	if err != nil {
		return value.Value{}, err
	}
	if !s.val.IsBound() {
		return value.Value{}, Errorf(ErrUnbound, "%s '%s' is unbound", t.scope, name)
	}
	return s.val, nil
}

func (t *table) set(name string, v value.Value) error {
	s, err := t.lookup(name)
	if err != nil {
		return err
	}
	if v.Kind != s.kind {
		return Errorf(ErrType, "cannot assign %s to %s '%s' declared %s", v.Kind, t.scope, name, s.kind)
	}
	s.val = v
	return nil
}

func (t *table) increment(name string, step value.Value) error {
	s, err := t.lookup(name)
	if err != nil {
		return err
	}
	if s.kind != value.KindInteger || step.Kind != value.KindInteger {
		return Errorf(ErrType, "loop variable '%s' must be INTEGER, got %s", name, s.kind)
	}
	if !s.val.IsBound() {
		return Errorf(ErrUnbound, "%s '%s' is unbound", t.scope, name)
	}
	next := s.val.Int + step.Int
	if (step.Int > 0 && next < s.val.Int) || (step.Int < 0 && next > s.val.Int) {
		return Errorf(ErrArgument, "loop variable '%s' overflows INTEGER", name)
	}
	s.val.Int = next
	return nil
}

func (t *table) array(name string) (*Array, error) {
	arr, ok := t.arrays[name]
	if !ok {
		if _, isScalar := t.vars[name]; isScalar {
			return nil, Errorf(ErrType, "%s '%s' is not an array", t.scope, name)
		}
		return nil, Errorf(ErrUndefined, "%s array '%s' is undefined", t.scope, name)
	}
	return arr, nil
}

func (t *table) remove(name string) {
	delete(t.vars, name)
	delete(t.arrays, name)
}

// slotIndex maps a pseudocode index onto the backing slice.
func (a *Array) slotIndex(index value.Value) (int, error) {
	if index.Kind != value.KindInteger {
		return 0, Errorf(ErrType, "index of array '%s' must be INTEGER, got %s", a.Name, index.Kind)
	}
	if index.Int < a.Lower || index.Int > a.Upper {
		return 0, Errorf(ErrOutOfBounds, "index %d is out of bounds for %s[%d:%d]", index.Int, a.Name, a.Lower, a.Upper)
	}
	return int(uint64(index.Int) - uint64(a.Lower)), nil
}

func (a *Array) get(index value.Value) (value.Value, error) {
	i, err := a.slotIndex(index)
	if err != nil {
		return value.Value{}, err
	}
	v := a.Items[i]
	if !v.IsBound() {
		return value.Value{}, Errorf(ErrUnbound, "%s[%d] is unbound", a.Name, index.Int)
	}
	return v, nil
}

func (a *Array) set(index, v value.Value) error {
	i, err := a.slotIndex(index)
	if err != nil {
		return err
	}
	if v.Kind != a.Elem {
		return Errorf(ErrType, "cannot assign %s to element of '%s' declared %s", v.Kind, a.Name, a.Elem)
	}
	a.Items[i] = v
	return nil
}
