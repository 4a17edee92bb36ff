package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/muesli/termenv"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"golang.org/x/term"

	pseudo "github.com/xirelogy/go-pseudo"
	"github.com/xirelogy/go-pseudo/internal/config"
	"github.com/xirelogy/go-pseudo/internal/conformance"
)

var log = commonlog.GetLogger("pseudo.cli")

func main() {
	os.Exit(run())
}

func run() int {
	lexOnly := flag.Bool("lexer", false, "Print the token stream instead of running")
	bench := flag.Bool("bench", false, "Print the wall time of each run")
	testDir := flag.String("test", "", "Run the YAML conformance suites in `dir`")
	disasm := flag.Bool("disasm", false, "Print the bytecode listing before running")
	outPath := flag.String("o", "", "Compile to `file` instead of running")
	trace := flag.Bool("trace", false, "Log every executed instruction")
	verbosity := flag.Int("v", 0, "Log verbosity (higher is chattier)")
	logPath := flag.String("log", "", "Write logs to `file` instead of stderr")
	configPath := flag.String("config", "", "Read settings from `file` (default ./"+config.FileName+")")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pseudo [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Runs a pseudocode source file or compiled .pbc program, or starts a REPL.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  pseudo                       # Start REPL\n")
		fmt.Fprintf(os.Stderr, "  pseudo -lexer                # Start the token REPL\n")
		fmt.Fprintf(os.Stderr, "  pseudo prog.txt              # Run a program\n")
		fmt.Fprintf(os.Stderr, "  pseudo -o prog.pbc prog.txt  # Compile without running\n")
		fmt.Fprintf(os.Stderr, "  pseudo prog.pbc              # Run a compiled program\n")
		fmt.Fprintf(os.Stderr, "  pseudo -test ./suites        # Run conformance suites\n")
	}
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}
	configureLogging(cfg, *verbosity, *logPath, *trace)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *testDir != "" {
		return runSuites(ctx, *testDir, os.Stdout)
	}

	// INPUT and the REPL read from the same buffered stdin.
	stdin := bufio.NewReader(os.Stdin)
	opts := []pseudo.Option{
		pseudo.WithConfig(cfg),
		pseudo.WithOutput(os.Stdout),
		pseudo.WithInput(stdin),
	}
	if *trace {
		opts = append(opts, pseudo.WithTraceHook(traceInstruction))
	}
	interp := pseudo.New(opts...)
	errs := newPrinter(os.Stderr)

	args := flag.Args()
	if len(args) == 0 {
		if *outPath != "" {
			fmt.Fprintln(os.Stderr, "-o needs a source file")
			flag.Usage()
			return 2
		}
		mode := replMode{
			interactive: term.IsTerminal(int(os.Stdin.Fd())),
			bench:       *bench,
			disasm:      *disasm,
		}
		if *lexOnly {
			runLexerREPL(interp, stdin, os.Stdout, mode)
			return 0
		}
		runREPL(ctx, interp, stdin, os.Stdout, mode)
		return 0
	}
	if len(args) > 1 {
		flag.Usage()
		return 2
	}

	path := args[0]
	if *lexOnly {
		return dumpTokens(interp, path, os.Stdout, errs)
	}

	prog, err := loadProgram(interp, path)
	if err != nil {
		errs.error(err)
		return 1
	}
	if *outPath != "" {
		data, err := prog.MarshalBinary()
		if err == nil {
			err = os.WriteFile(*outPath, data, 0o644)
		}
		if err != nil {
			errs.error(fmt.Errorf("writing %s: %w", *outPath, err))
			return 1
		}
		return 0
	}
	if *disasm {
		if err := prog.Disassemble(os.Stdout); err != nil {
			errs.error(err)
			return 1
		}
	}

	start := time.Now()
	err = interp.Run(ctx, prog)
	if *bench {
		reportElapsed(os.Stderr, time.Since(start))
	}
	if err != nil {
		errs.error(err)
		return 1
	}
	return 0
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return config.Default(), nil
		}
		found, ok := config.Find(wd)
		if !ok {
			return config.Default(), nil
		}
		path = found
	}
	return config.Load(path)
}

func configureLogging(cfg *config.Config, verbosity int, logPath string, trace bool) {
	if cfg.Log.Verbosity > verbosity {
		verbosity = cfg.Log.Verbosity
	}
	if trace && verbosity < 2 {
		verbosity = 2
	}
	if logPath == "" {
		logPath = cfg.Log.File
	}
	var path *string
	if logPath != "" {
		path = &logPath
	}
	commonlog.Configure(verbosity, path)
}

func traceInstruction(info pseudo.TraceInfo) {
	log.Debugf("%04d %d:%d %-22s stack=%d calls=%d", info.IP, info.Line, info.Column, info.Op, info.StackDepth, info.CallDepth)
}

// loadProgram compiles a source file, or decodes it when it has the
// compiled program extension.
func loadProgram(interp *pseudo.Interpreter, path string) (*pseudo.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if filepath.Ext(path) == ".pbc" {
		log.Debugf("loading compiled program %s", path)
		return pseudo.LoadProgram(data)
	}
	return interp.Compile(string(data))
}

func dumpTokens(interp *pseudo.Interpreter, path string, w io.Writer, errs *printer) int {
	data, err := os.ReadFile(path)
	if err != nil {
		errs.error(err)
		return 1
	}
	toks, err := interp.Tokenize(string(data))
	if err != nil {
		errs.error(err)
		return 1
	}
	printTokens(w, toks)
	return 0
}

func printTokens(w io.Writer, toks []pseudo.Token) {
	for _, tok := range toks {
		fmt.Fprintf(w, "%4d:%-3d %s\n", tok.Pos.Line, tok.Pos.Column, tok.String())
	}
}

func runSuites(ctx context.Context, dir string, w io.Writer) int {
	tests, err := conformance.LoadDir(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading suites: %v\n", err)
		return 1
	}
	results := conformance.NewRunner(ctx).RunAll(tests)
	p := newPrinter(w)
	for _, r := range results {
		if r.Skipped || r.Passed {
			continue
		}
		p.fail(fmt.Sprintf("FAIL %s/%s: %v", r.Test.File, r.Test.Test.Name, r.Error))
	}
	stats := conformance.ComputeStats(results)
	fmt.Fprintln(w, conformance.FormatStats(stats))
	if stats.Failed > 0 {
		return 1
	}
	return 0
}

func reportElapsed(w io.Writer, d time.Duration) {
	fmt.Fprintf(w, "took %.3f ms\n", float64(d.Microseconds())/1000)
}

// printer renders diagnostics, coloured when w is a terminal.
type printer struct {
	out *termenv.Output
}

func newPrinter(w io.Writer) *printer {
	return &printer{out: termenv.NewOutput(w)}
}

var categoryColors = map[pseudo.Category]string{
	pseudo.Lexical: "5",
	pseudo.Compile: "3",
	pseudo.Runtime: "1",
}

func (p *printer) error(err error) {
	color := "1"
	var perr *pseudo.Error
	if errors.As(err, &perr) {
		color = categoryColors[perr.Category]
	}
	fmt.Fprintln(p.out, p.out.String(err.Error()).Foreground(p.out.Color(color)).Bold().String())
}

func (p *printer) fail(msg string) {
	fmt.Fprintln(p.out, p.out.String(msg).Foreground(p.out.Color("1")).String())
}

func (p *printer) prompt(s string) string {
	return p.out.String(s).Foreground(p.out.Color("6")).String()
}
