package pseudo

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/xirelogy/go-pseudo/internal/value"
)

func interpret(t *testing.T, src string, opts ...Option) (string, error) {
	t.Helper()
	var out bytes.Buffer
	in := New(append([]Option{WithOutput(&out)}, opts...)...)
	err := in.Interpret(context.Background(), src)
	return out.String(), err
}

func TestAPIInterpretScenarios(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"DECLARE X : INTEGER\nX <- 123\nOUTPUT X", "123\n"},
		{"OUTPUT 10 DIV 5", "2\n"},
		{"OUTPUT 10 MOD 5", "0\n"},
		{`OUTPUT "10" & "5"`, "\"105\"\n"},
		{"DECLARE arr : ARRAY[1:10] OF INTEGER\narr[1] <- 3231\nOUTPUT arr[1]", "3231\n"},
		{"DECLARE i : INTEGER\nFOR i <- 1 TO 3\nOUTPUT i\nNEXT i", "1\n2\n3\n"},
	}
	for _, tt := range tests {
		out, err := interpret(t, tt.src)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tt.src, err)
		}
		if out != tt.want {
			t.Fatalf("%q: expected %q, got %q", tt.src, tt.want, out)
		}
	}
}

func TestAPIErrorCategories(t *testing.T) {
	tests := []struct {
		src      string
		category Category
		kind     error
	}{
		{"OUTPUT 1 ?", Lexical, nil},
		{`OUTPUT "\q"`, Lexical, nil},
		{"CALL Foo", Compile, nil},
		{"x <- 1", Compile, nil},
		{"DECLARE arr : ARRAY[1:10] OF INTEGER\narr[11] <- 0", Runtime, ErrOutOfBounds},
		{"OUTPUT 1 / 0", Runtime, ErrDivisionByZero},
		{"OUTPUT 1 + 1.5", Runtime, ErrType},
	}
	for _, tt := range tests {
		_, err := interpret(t, tt.src)
		var perr *Error
		if !errors.As(err, &perr) {
			t.Fatalf("%q: expected *Error, got %T (%v)", tt.src, err, err)
		}
		if perr.Category != tt.category {
			t.Fatalf("%q: expected %s error, got %s", tt.src, tt.category, perr.Category)
		}
		if perr.Line < 1 || perr.Column < 1 {
			t.Fatalf("%q: expected a source position, got %d:%d", tt.src, perr.Line, perr.Column)
		}
		if tt.kind != nil && !errors.Is(err, tt.kind) {
			t.Fatalf("%q: expected errors.Is(%v), got %v", tt.src, tt.kind, err)
		}
	}
}

func TestAPIErrorRendering(t *testing.T) {
	_, err := interpret(t, "x <- 1")
	want := "Compile error: 'x' is not declared in this scope. Line 1, column 1"
	if err == nil || err.Error() != want {
		t.Fatalf("expected %q, got %v", want, err)
	}
	_, err = interpret(t, "DECLARE x : INTEGER\nOUTPUT x")
	if err == nil || !strings.HasPrefix(err.Error(), "Runtime error: global 'x' is unbound. Line 2") {
		t.Fatalf("unexpected runtime rendering %v", err)
	}
}

func TestAPICompileErrorProducesNoOutput(t *testing.T) {
	out, err := interpret(t, "OUTPUT 1\nCALL Foo")
	if err == nil {
		t.Fatalf("expected compile error")
	}
	if out != "" {
		t.Fatalf("expected nothing to run, got %q", out)
	}
}

func TestAPISessionKeepsDeclarations(t *testing.T) {
	var out bytes.Buffer
	in := New(WithOutput(&out))
	ctx := context.Background()
	for _, line := range []string{"DECLARE n : INTEGER", "n <- 41", "n <- n + 1", "OUTPUT n"} {
		if err := in.Interpret(ctx, line); err != nil {
			t.Fatalf("%q: %v", line, err)
		}
	}
	if out.String() != "42\n" {
		t.Fatalf("expected 42, got %q", out.String())
	}
	v, err := in.Global("n")
	if err != nil || v != value.Integer(42) {
		t.Fatalf("expected global n = 42, got %v (%v)", v, err)
	}
	if err := in.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := in.Global("n"); !errors.Is(err, ErrUndefined) {
		t.Fatalf("expected n to be cleared by Reset, got %v", err)
	}
	err = in.Interpret(ctx, "OUTPUT n")
	var perr *Error
	if !errors.As(err, &perr) || perr.Category != Compile {
		t.Fatalf("expected compile error after reset, got %v", err)
	}
}

func TestAPIRuntimeErrorKeepsPartialEffects(t *testing.T) {
	in := New()
	ctx := context.Background()
	if err := in.Interpret(ctx, "DECLARE n : INTEGER\nn <- 7\nOUTPUT 1 / 0"); err == nil {
		t.Fatalf("expected runtime error")
	}
	v, err := in.Global("n")
	if err != nil || v != value.Integer(7) {
		t.Fatalf("expected n = 7 to survive the failed run, got %v (%v)", v, err)
	}
}

func TestAPIGlobalArray(t *testing.T) {
	in := New()
	if err := in.Interpret(context.Background(), "DECLARE a : ARRAY[2:4] OF INTEGER\na[3] <- 9"); err != nil {
		t.Fatalf("interpret: %v", err)
	}
	items, lower, upper, err := in.GlobalArray("a")
	if err != nil || lower != 2 || upper != 4 || len(items) != 3 {
		t.Fatalf("unexpected array %v [%d:%d] %v", items, lower, upper, err)
	}
	if items[1] != value.Integer(9) || items[0].IsBound() {
		t.Fatalf("unexpected elements %v", items)
	}
}

func TestAPIProgramRoundTrip(t *testing.T) {
	in := New()
	prog, err := in.Compile("DECLARE i : INTEGER\nFOR i <- 1 TO 2\nOUTPUT i * 10\nNEXT i")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	data, err := prog.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	loaded, err := LoadProgram(data)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var out bytes.Buffer
	if err := New(WithOutput(&out)).Run(context.Background(), loaded); err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.String() != "10\n20\n" {
		t.Fatalf("expected 10 and 20, got %q", out.String())
	}
	var listing bytes.Buffer
	if err := loaded.Disassemble(&listing); err != nil {
		t.Fatalf("disassemble: %v", err)
	}
	if !strings.Contains(listing.String(), "OP_LOOP") {
		t.Fatalf("expected OP_LOOP in listing:\n%s", listing.String())
	}
	if _, err := LoadProgram([]byte("not a program")); err == nil {
		t.Fatalf("expected error for garbage input")
	}
}

func TestAPITokenize(t *testing.T) {
	toks, err := Tokenize("OUTPUT 1")
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if len(toks) != 3 {
		t.Fatalf("expected OUTPUT, INTEGER and EOF, got %v", toks)
	}
	_, err = Tokenize("OUTPUT #")
	var perr *Error
	if !errors.As(err, &perr) || perr.Category != Lexical {
		t.Fatalf("expected lexical error, got %v", err)
	}
}

func TestAPIKeywordCase(t *testing.T) {
	out, err := interpret(t, "output 1 + 1", WithKeywordCase(LowerKeywords))
	if err != nil || out != "2\n" {
		t.Fatalf("expected lower case keywords to work, got %q (%v)", out, err)
	}
	if _, err := interpret(t, "output 1"); err == nil {
		t.Fatalf("expected upper case keywords by default")
	}
}

func TestAPIWithConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Lexer.KeywordCase = "any"
	cfg.Output.QuoteStrings = false
	cfg.VM.InstructionLimit = 100
	out, err := interpret(t, `Output "hi"`, WithConfig(cfg))
	if err != nil || out != "hi\n" {
		t.Fatalf("expected config to apply, got %q (%v)", out, err)
	}
	_, err = interpret(t, "WHILE TRUE\nENDWHILE", WithConfig(cfg))
	if !errors.Is(err, ErrInstructionLimit) {
		t.Fatalf("expected instruction limit, got %v", err)
	}
}

func TestAPISystemRunner(t *testing.T) {
	var got []string
	runner := func(ctx context.Context, command string, stdout io.Writer) (int, error) {
		got = append(got, command)
		return 7, nil
	}
	out, err := interpret(t, `OUTPUT SYSTEM("ls")`, WithSystemRunner(runner))
	if err != nil || out != "7\n" {
		t.Fatalf("unexpected result %q (%v)", out, err)
	}
	if len(got) != 1 || got[0] != "ls" {
		t.Fatalf("expected runner to see ls, got %v", got)
	}
	if _, err := interpret(t, `SYSTEM "ls"`); !errors.Is(err, ErrSystemDisabled) {
		t.Fatalf("expected SYSTEM to be disabled by default, got %v", err)
	}
}

func TestAPITraceHook(t *testing.T) {
	var ops []string
	_, err := interpret(t, "OUTPUT 1", WithTraceHook(func(info TraceInfo) {
		ops = append(ops, info.Op)
	}))
	if err != nil {
		t.Fatalf("interpret: %v", err)
	}
	want := []string{"OP_CONST", "OP_OUTPUT", "OP_RETURN"}
	if strings.Join(ops, ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, ops)
	}
}

type gateReader struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (g *gateReader) Read(p []byte) (int, error) {
	g.once.Do(func() { close(g.started) })
	<-g.release
	return copy(p, "1\n"), io.EOF
}

func TestAPIBusy(t *testing.T) {
	gate := &gateReader{started: make(chan struct{}), release: make(chan struct{})}
	in := New(WithInput(gate))
	done := make(chan error, 1)
	go func() {
		done <- in.Interpret(context.Background(), "DECLARE n : INTEGER\nINPUT n")
	}()
	select {
	case <-gate.started:
	case <-time.After(5 * time.Second):
		t.Fatalf("program never reached INPUT")
	}
	if err := in.Interpret(context.Background(), "OUTPUT 1"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if _, err := in.Global("n"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected Global to report ErrBusy, got %v", err)
	}
	if _, _, _, err := in.GlobalArray("a"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected GlobalArray to report ErrBusy, got %v", err)
	}
	close(gate.release)
	if err := <-done; err != nil {
		t.Fatalf("first run: %v", err)
	}
	v, err := in.Global("n")
	if err != nil || v != value.Integer(1) {
		t.Fatalf("expected n = 1, got %v (%v)", v, err)
	}
}

func TestAPIContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New().Interpret(ctx, "WHILE TRUE\nENDWHILE")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
