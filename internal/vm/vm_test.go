package vm_test

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"testing"

	_ "github.com/xirelogy/go-pseudo/internal/builtins"
	"github.com/xirelogy/go-pseudo/internal/bytecode"
	"github.com/xirelogy/go-pseudo/internal/compiler"
	"github.com/xirelogy/go-pseudo/internal/lexer"
	"github.com/xirelogy/go-pseudo/internal/value"
	"github.com/xirelogy/go-pseudo/internal/vm"
)

func compileChunk(t *testing.T, c *compiler.Compiler, src string) *bytecode.Chunk {
	t.Helper()
	toks, err := lexer.Tokenize(src)
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	chunk, err := c.Compile(toks)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	return chunk
}

func run(t *testing.T, machine *vm.VM, src string) (string, error) {
	t.Helper()
	chunk := compileChunk(t, compiler.New(), src)
	var out strings.Builder
	machine.SetOutput(&out)
	err := machine.Execute(context.Background(), chunk)
	return out.String(), err
}

func mustRun(t *testing.T, src string) string {
	t.Helper()
	out, err := run(t, vm.New(), src)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	return out
}

func TestVMPrograms(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"declare assign output", "DECLARE X : INTEGER\nX <- 123\nOUTPUT X", "123\n"},
		{"div", "OUTPUT 10 DIV 5", "2\n"},
		{"mod", "OUTPUT 10 MOD 5", "0\n"},
		{"concat", `OUTPUT "10" & "5"`, "\"105\"\n"},
		{"literals", `OUTPUT 1, 2.5, "hi", 'c', TRUE`, "1 2.5 \"hi\" 'c' TRUE\n"},
		{"integer division truncates", "OUTPUT 7 / 2", "3\n"},
		{"real division", "OUTPUT 7.0 / 2.0", "3.5\n"},
		{"whole real keeps fraction", "OUTPUT 2.0 * 3.0", "6.0\n"},
		{"cross-kind equality", "OUTPUT 1 = 1.0", "FALSE\n"},
		{"unary", "OUTPUT -3 + 1, NOT FALSE", "-2 TRUE\n"},
		{"for", "DECLARE i : INTEGER\nFOR i <- 1 TO 3\nOUTPUT i\nNEXT i", "1\n2\n3\n"},
		{"for negative step", "DECLARE i : INTEGER\nFOR i <- 5 TO 1 STEP -2\nOUTPUT i\nNEXT", "5\n3\n1\n"},
		{"for empty range", "DECLARE i : INTEGER\nFOR i <- 3 TO 1\nOUTPUT i\nNEXT i\nOUTPUT 0", "0\n"},
		{"while", "DECLARE n : INTEGER\nn <- 0\nWHILE n < 3 DO\nn <- n + 1\nENDWHILE\nOUTPUT n", "3\n"},
		{"repeat", "DECLARE n : INTEGER\nn <- 0\nREPEAT\nn <- n + 1\nUNTIL n = 3\nOUTPUT n", "3\n"},
		{"repeat runs once", "DECLARE n : INTEGER\nn <- 0\nREPEAT\nn <- n + 1\nUNTIL TRUE\nOUTPUT n", "1\n"},
		{"if else", "DECLARE n : INTEGER\nn <- 4\nIF n > 3\nTHEN\nOUTPUT \"big\"\nELSE\nOUTPUT \"small\"\nENDIF", "\"big\"\n"},
		{"procedure", "DECLARE n : INTEGER\nn <- 0\nPROCEDURE Inc\nn <- n + 1\nENDPROCEDURE\nCALL Inc\nCALL Inc()\nOUTPUT n", "2\n"},
		{"recursion", "DECLARE n : INTEGER\nn <- 3\nPROCEDURE Down\nIF n > 0 THEN\nOUTPUT n\nn <- n - 1\nCALL Down\nENDIF\nENDPROCEDURE\nCALL Down", "3\n2\n1\n"},
		{"array", "DECLARE a : ARRAY[1:3] OF INTEGER\na[1] <- 10\na[3] <- 30\nOUTPUT a[1] + a[3]", "40\n"},
		{"shared bounds", "DECLARE a, b : ARRAY[0:1] OF CHAR\na[0] <- 'x'\nb[1] <- 'y'\nOUTPUT a[0] & b[1]", "\"xy\"\n"},
		{"shadowing", "DECLARE x : INTEGER\nx <- 1\nIF TRUE THEN\nDECLARE x : INTEGER\nx <- 2\nOUTPUT x\nENDIF\nOUTPUT x", "2\n1\n"},
		{"loop body locals", "DECLARE i : INTEGER\ni <- 0\nWHILE i < 2\nDECLARE t : INTEGER\nt <- i\ni <- i + 1\nENDWHILE\nOUTPUT i", "2\n"},
		{"mid", `OUTPUT MID("hello", 1, 3)`, "\"ell\"\n"},
		{"length", `OUTPUT LENGTH("abc"), LENGTH 'a'`, "3 1\n"},
		{"reverse", `OUTPUT REVERSE("abc")`, "\"cba\"\n"},
		{"abs", "OUTPUT ABS(-4), ABS(-1.5)", "4 1.5\n"},
		{"sqrt", "OUTPUT SQRT(16)", "4.0\n"},
		{"casts", `OUTPUT INTEGER_CAST("42") + 1, REAL_CAST(2), STRING_CAST(12), INTCAST(3.9)`, "43 2.0 \"12\" 3\n"},
		{"char comparison", "OUTPUT 'a' < 'b'", "TRUE\n"},
		{"logic", "OUTPUT TRUE AND FALSE OR TRUE", "TRUE\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mustRun(t, tt.src); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestVMRuntimeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind error
		msg  string
		line int
	}{
		{"mixed arithmetic", "OUTPUT 1 + 1.5", vm.ErrType, "binary operand '+' cannot be used between INTEGER and REAL", 1},
		{"divide by zero", "OUTPUT 1 / 0", vm.ErrDivisionByZero, "division by zero", 1},
		{"div by zero", "OUTPUT 1 DIV 0", vm.ErrDivisionByZero, "division by zero", 1},
		{"mod by zero", "OUTPUT 1 MOD 0", vm.ErrDivisionByZero, "division by zero", 1},
		{"out of bounds", "DECLARE arr : ARRAY[1:10] OF INTEGER\narr[11] <- 1", vm.ErrOutOfBounds, "index 11 is out of bounds for arr[1:10]", 2},
		{"unbound", "DECLARE x : INTEGER\nOUTPUT x", vm.ErrUnbound, "global 'x' is unbound", 2},
		{"unbound element", "DECLARE a : ARRAY[1:2] OF INTEGER\nOUTPUT a[1]", vm.ErrUnbound, "a[1] is unbound", 2},
		{"assign kind", "DECLARE x : INTEGER\nx <- \"a\"", vm.ErrType, "cannot assign STRING to global 'x' declared INTEGER", 2},
		{"inverted bounds", "DECLARE a : ARRAY[5:1] OF INTEGER", vm.ErrOutOfBounds, "invalid bounds for array 'a': 5 > 1", 1},
		{"non-boolean condition", "IF 1 THEN\nENDIF", vm.ErrType, "condition must be BOOLEAN, got INTEGER", 1},
		{"sqrt negative", "OUTPUT SQRT(-1)", vm.ErrArgument, "SQRT of negative number -1", 1},
		{"system disabled", `SYSTEM "true"`, vm.ErrSystemDisabled, "SYSTEM is disabled", 1},
		{"compare kinds", "OUTPUT 'a' < 1", vm.ErrType, "binary operand '<' cannot be used between CHAR and INTEGER", 1},
		{"mid range", `OUTPUT MID("abc", 2, 5)`, vm.ErrOutOfBounds, "MID range 2+5 exceeds length 3", 1},
		{"mid past end", `OUTPUT MID("abc", 9223372036854775807, 1)`, vm.ErrOutOfBounds, "MID range 9223372036854775807+1 exceeds length 3", 1},
		{"abs min integer", "OUTPUT ABS(-9223372036854775807 - 1)", vm.ErrArgument, "ABS of -9223372036854775808 overflows INTEGER", 1},
		{"wide array", "DECLARE a : ARRAY[-5000000000000000000:5000000000000000000] OF INTEGER", vm.ErrOutOfBounds, "array 'a' is too large (-5000000000000000000:5000000000000000000)", 1},
		{"huge array", "DECLARE a : ARRAY[0:16777216] OF INTEGER", vm.ErrOutOfBounds, "array 'a' is too large (0:16777216)", 1},
		{"for counter overflow", "DECLARE i : INTEGER\nFOR i <- 9223372036854775806 TO 9223372036854775807\nNEXT i", vm.ErrArgument, "loop variable 'i' overflows INTEGER", 3},
		{"recursive declare", "DECLARE n : INTEGER\nn <- 1\nPROCEDURE P\nDECLARE t : INTEGER\nIF n > 0 THEN\nn <- n - 1\nCALL P\nENDIF\nENDPROCEDURE\nCALL P", vm.ErrRedefined, "local 't' is already defined", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, vm.New(), tt.src)
			if err == nil {
				t.Fatalf("expected runtime error")
			}
			if !errors.Is(err, tt.kind) {
				t.Fatalf("expected %v, got %v", tt.kind, err)
			}
			var rte *vm.RuntimeError
			if !errors.As(err, &rte) {
				t.Fatalf("expected *vm.RuntimeError, got %T", err)
			}
			if rte.Message != tt.msg {
				t.Fatalf("expected message %q, got %q", tt.msg, rte.Message)
			}
			if rte.Line != tt.line {
				t.Fatalf("expected line %d, got %d", tt.line, rte.Line)
			}
		})
	}
}

func TestVMArrayBounds(t *testing.T) {
	for _, tt := range []struct {
		index int
		ok    bool
	}{
		{3, true},
		{7, true},
		{2, false},
		{8, false},
	} {
		src := "DECLARE a : ARRAY[3:7] OF INTEGER\na[" + strconv.Itoa(tt.index) + "] <- 1"
		_, err := run(t, vm.New(), src)
		if tt.ok && err != nil {
			t.Fatalf("index %d: unexpected error %v", tt.index, err)
		}
		if !tt.ok && !errors.Is(err, vm.ErrOutOfBounds) {
			t.Fatalf("index %d: expected out of bounds, got %v", tt.index, err)
		}
	}
}

func TestVMArrayAtIntegerLimits(t *testing.T) {
	out := mustRun(t, "DECLARE a : ARRAY[9223372036854775806:9223372036854775807] OF INTEGER\na[9223372036854775807] <- 5\nOUTPUT a[9223372036854775807]")
	if out != "5\n" {
		t.Fatalf("expected 5, got %q", out)
	}
}

func TestVMForStopsAtIntegerLimit(t *testing.T) {
	out, err := run(t, vm.New(), "DECLARE i : INTEGER\nFOR i <- 9223372036854775806 TO 9223372036854775807\nOUTPUT i\nNEXT i")
	if !errors.Is(err, vm.ErrArgument) {
		t.Fatalf("expected overflow error, got %v", err)
	}
	if out != "9223372036854775806\n9223372036854775807\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestVMCallDepth(t *testing.T) {
	machine := vm.New()
	machine.SetMaxCallDepth(16)
	_, err := run(t, machine, "PROCEDURE P\nCALL P\nENDPROCEDURE\nCALL P")
	if !errors.Is(err, vm.ErrCallDepth) {
		t.Fatalf("expected call stack overflow, got %v", err)
	}
}

func TestVMInput(t *testing.T) {
	machine := vm.New()
	machine.SetInput(strings.NewReader("42\n  \"hi there\"  \n'z'\nTRUE\n-1.25"))
	src := "DECLARE n : INTEGER\nDECLARE s : STRING\nDECLARE c : CHAR\nDECLARE b : BOOLEAN\nDECLARE r : REAL\n" +
		"INPUT n\nINPUT s\nINPUT c\nINPUT b\nINPUT r\nOUTPUT n, s, c, b, r"
	out, err := run(t, machine, src)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if want := "42 \"hi there\" 'z' TRUE -1.25\n"; out != want {
		t.Fatalf("expected %q, got %q", want, out)
	}
}

func TestVMInputIntoArray(t *testing.T) {
	machine := vm.New()
	machine.SetInput(strings.NewReader("5\n"))
	out, err := run(t, machine, "DECLARE a : ARRAY[1:2] OF INTEGER\nINPUT a[2]\nOUTPUT a[2]")
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if out != "5\n" {
		t.Fatalf("expected 5, got %q", out)
	}
}

func TestVMInputEOF(t *testing.T) {
	machine := vm.New()
	machine.SetInput(strings.NewReader(""))
	_, err := run(t, machine, "DECLARE n : INTEGER\nINPUT n")
	if !errors.Is(err, vm.ErrInput) || !strings.Contains(err.Error(), "unexpected end of input") {
		t.Fatalf("expected end of input error, got %v", err)
	}
}

func TestParseInput(t *testing.T) {
	tests := []struct {
		in   string
		want value.Value
		ok   bool
	}{
		{"12", value.Integer(12), true},
		{" -7 ", value.Integer(-7), true},
		{"3.5", value.Real(3.5), true},
		{"-0.5", value.Real(-0.5), true},
		{`"abc"`, value.String("abc"), true},
		{`""`, value.String(""), true},
		{"'q'", value.Char('q'), true},
		{"TRUE", value.Boolean(true), true},
		{"FALSE", value.Boolean(false), true},
		{"true", value.Value{}, false},
		{"1.2.3", value.Value{}, false},
		{"abc", value.Value{}, false},
		{"", value.Value{}, false},
		{"-", value.Value{}, false},
	}
	for _, tt := range tests {
		got, err := vm.ParseInput(tt.in)
		if tt.ok {
			if err != nil {
				t.Fatalf("%q: unexpected error %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("%q: expected %v, got %v", tt.in, tt.want, got)
			}
			continue
		}
		if !errors.Is(err, vm.ErrInput) {
			t.Fatalf("%q: expected input error, got %v", tt.in, err)
		}
	}
}

func TestVMCastIdempotence(t *testing.T) {
	src := `OUTPUT INTEGER_CAST(INTEGER_CAST(-5)) = -5, REAL_CAST(REAL_CAST(1.5)) = 1.5, STRING_CAST(STRING_CAST("x")) = "x"`
	if got := mustRun(t, src); got != "TRUE TRUE TRUE\n" {
		t.Fatalf("expected casts to be idempotent, got %q", got)
	}
}

func TestVMInstructionLimit(t *testing.T) {
	machine := vm.New()
	machine.SetInstructionLimit(1000)
	_, err := run(t, machine, "DECLARE n : INTEGER\nn <- 0\nWHILE TRUE\nn <- n + 1\nENDWHILE")
	if !errors.Is(err, vm.ErrInstructionLimit) {
		t.Fatalf("expected instruction limit error, got %v", err)
	}
	n, ok := machine.Global("n")
	if !ok || n.Kind != value.KindInteger || n.Int == 0 {
		t.Fatalf("expected partial progress to be kept, got %v", n)
	}
}

func TestVMContextCancel(t *testing.T) {
	chunk := compileChunk(t, compiler.New(), "WHILE TRUE\nENDWHILE")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := vm.New().Execute(ctx, chunk)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestVMTraceHook(t *testing.T) {
	machine := vm.New()
	var trace []vm.TraceInfo
	machine.SetTraceHook(func(info vm.TraceInfo) {
		trace = append(trace, info)
	})
	if _, err := run(t, machine, "OUTPUT 1 + 2"); err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if len(trace) != 5 {
		t.Fatalf("expected 5 traced instructions, got %d", len(trace))
	}
	if trace[0].Name != "OP_CONST" || trace[2].Name != "OP_ADD" || trace[4].Name != "OP_RETURN" {
		t.Fatalf("unexpected trace %+v", trace)
	}
	if trace[2].StackDepth != 2 || trace[0].Line != 1 {
		t.Fatalf("unexpected trace details %+v", trace[2])
	}
}

func TestVMGlobalsPersistAcrossExecutions(t *testing.T) {
	c := compiler.New()
	machine := vm.New()
	var out strings.Builder
	machine.SetOutput(&out)
	if err := machine.Execute(context.Background(), compileChunk(t, c, "DECLARE x : INTEGER\nx <- 5")); err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if err := machine.Execute(context.Background(), compileChunk(t, c, "OUTPUT x * 2")); err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if out.String() != "10\n" {
		t.Fatalf("expected 10, got %q", out.String())
	}
	machine.Reset()
	if _, ok := machine.Global("x"); ok {
		t.Fatalf("expected Reset to clear globals")
	}
}

func TestVMSeededRandom(t *testing.T) {
	src := "OUTPUT RANDOM_INTEGER(1, 100), RANDOM_REAL(0, 1)"
	first, second := vm.New(), vm.New()
	first.SetSeed(7)
	second.SetSeed(7)
	a, err := run(t, first, src)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	b, err := run(t, second, src)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if a != b {
		t.Fatalf("expected equal output for equal seeds, got %q and %q", a, b)
	}
	for i := 0; i < 50; i++ {
		out := mustRun(t, "DECLARE r : INTEGER\nr <- RANDOM_INTEGER(3, 4)\nOUTPUT r >= 3 AND r <= 4")
		if out != "TRUE\n" {
			t.Fatalf("RANDOM_INTEGER out of range")
		}
	}
}

func TestVMSystemRunner(t *testing.T) {
	machine := vm.New()
	var commands []string
	machine.SetSystemRunner(func(ctx context.Context, command string, stdout io.Writer) (int, error) {
		commands = append(commands, command)
		_, err := io.WriteString(stdout, "ran "+command+"\n")
		return 3, err
	})
	out, err := run(t, machine, "OUTPUT SYSTEM(\"a\")\nSYSTEM \"b\"")
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if out != "ran a\n3\nran b\n" {
		t.Fatalf("unexpected output %q", out)
	}
	if len(commands) != 2 {
		t.Fatalf("expected 2 commands, got %v", commands)
	}
}

func TestVMRawStrings(t *testing.T) {
	machine := vm.New()
	machine.SetQuoteStrings(false)
	out, err := run(t, machine, `OUTPUT "a", 'b', 1`)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if out != "a b 1\n" {
		t.Fatalf("expected raw rendering, got %q", out)
	}
}
