package mathfn

import (
	"errors"
	"math"
	"testing"

	"github.com/xirelogy/go-pseudo/internal/value"
	"github.com/xirelogy/go-pseudo/internal/vm"
)

func TestAbs(t *testing.T) {
	tests := []struct {
		in   value.Value
		want value.Value
	}{
		{value.Integer(-3), value.Integer(3)},
		{value.Integer(math.MaxInt64), value.Integer(math.MaxInt64)},
		{value.Integer(-math.MaxInt64), value.Integer(math.MaxInt64)},
		{value.Real(-1.5), value.Real(1.5)},
	}
	for _, tt := range tests {
		got, err := runAbs(nil, []value.Value{tt.in})
		if err != nil {
			t.Fatalf("ABS(%v): unexpected error %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ABS(%v): expected %v, got %v", tt.in, tt.want, got)
		}
	}
	if _, err := runAbs(nil, []value.Value{value.Integer(math.MinInt64)}); !errors.Is(err, vm.ErrArgument) {
		t.Fatalf("ABS(MinInt64): expected overflow error, got %v", err)
	}
}
