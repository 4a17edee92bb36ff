package vm

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/xirelogy/go-pseudo/internal/value"
)

func (vm *VM) readInput() (value.Value, error) {
	if vm.in == nil {
		return value.Value{}, Errorf(ErrInput, "no input available")
	}
	line, err := vm.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return value.Value{}, Errorf(ErrInput, "unexpected end of input")
		}
		return value.Value{}, err
	}
	return ParseInput(line)
}

// ParseInput classifies one line of interactive input.
func ParseInput(line string) (value.Value, error) {
	text := strings.TrimSpace(line)
	switch {
	case text == "":
		return value.Value{}, Errorf(ErrInput, "unrecognised input ''")
	case len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"':
		return value.String(text[1 : len(text)-1]), nil
	case len(text) == 3 && text[0] == '\'' && text[2] == '\'':
		return value.Char(text[1]), nil
	case text == "TRUE":
		return value.Boolean(true), nil
	case text == "FALSE":
		return value.Boolean(false), nil
	}

	digits := strings.TrimPrefix(text, "-")
	dots := 0
	for i := 0; i < len(digits); i++ {
		c := digits[i]
		if c == '.' {
			dots++
			continue
		}
		if c < '0' || c > '9' {
			return value.Value{}, Errorf(ErrInput, "unrecognised input '%s'", text)
		}
	}
	if digits == "" || digits == "." || dots > 1 {
		return value.Value{}, Errorf(ErrInput, "unrecognised input '%s'", text)
	}
	if dots == 1 {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return value.Value{}, Errorf(ErrInput, "unrecognised input '%s'", text)
		}
		return value.Real(f), nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return value.Value{}, Errorf(ErrInput, "integer input '%s' is out of range", text)
	}
	return value.Integer(n), nil
}
