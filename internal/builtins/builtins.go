// Package builtins links every builtin plugin into the runtime registry.
package builtins

import (
	_ "github.com/xirelogy/go-pseudo/internal/builtins/cast"
	_ "github.com/xirelogy/go-pseudo/internal/builtins/mathfn"
	_ "github.com/xirelogy/go-pseudo/internal/builtins/random"
	_ "github.com/xirelogy/go-pseudo/internal/builtins/strfn"
	_ "github.com/xirelogy/go-pseudo/internal/builtins/system"
)
