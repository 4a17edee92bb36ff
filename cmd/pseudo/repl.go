package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	pseudo "github.com/xirelogy/go-pseudo"
	"github.com/xirelogy/go-pseudo/internal/token"
)

var blockOpeners = map[token.Type]bool{
	token.If:        true,
	token.While:     true,
	token.For:       true,
	token.Repeat:    true,
	token.Procedure: true,
}

var blockClosers = map[token.Type]bool{
	token.EndIf:        true,
	token.EndWhile:     true,
	token.Next:         true,
	token.Until:        true,
	token.EndProcedure: true,
}

// blockDelta reports how many blocks line opens (positive) or closes
// (negative). Lines that do not lex count as zero so the interpreter
// reports the error.
func blockDelta(interp *pseudo.Interpreter, line string) int {
	toks, err := interp.Tokenize(line)
	if err != nil {
		return 0
	}
	delta := 0
	for _, tok := range toks {
		switch {
		case blockOpeners[tok.Type]:
			delta++
		case blockClosers[tok.Type]:
			delta--
		}
	}
	return delta
}

// replMode carries the command line switches that apply to each entry.
type replMode struct {
	interactive bool
	bench       bool
	disasm      bool
}

// runREPL reads statements from r and interprets each one once every block
// it opens has been closed. Declarations persist between entries.
func runREPL(ctx context.Context, interp *pseudo.Interpreter, r *bufio.Reader, w io.Writer, mode replMode) {
	p := newPrinter(w)
	if mode.interactive {
		fmt.Fprintln(w, "Pseudocode REPL (type 'quit' to exit, 'clear' to reset)")
	}

	var buf strings.Builder
	depth := 0
	for {
		if mode.interactive {
			if buf.Len() == 0 {
				fmt.Fprint(w, p.prompt("> "))
			} else {
				fmt.Fprint(w, p.prompt(". "))
			}
		}

		line, ok := readLine(r, p)
		if !ok {
			break
		}

		if buf.Len() == 0 {
			switch strings.TrimSpace(line) {
			case "":
				continue
			case "quit", "exit":
				return
			case "clear":
				if err := interp.Reset(); err != nil {
					p.error(err)
				}
				continue
			}
		}

		buf.WriteString(line)
		buf.WriteString("\n")
		depth += blockDelta(interp, line)
		if depth > 0 {
			continue
		}

		source := buf.String()
		buf.Reset()
		depth = 0
		runEntry(ctx, interp, source, w, p, mode)
	}

	if buf.Len() > 0 {
		runEntry(ctx, interp, buf.String(), w, p, mode)
	}
	if mode.interactive {
		fmt.Fprintln(w)
	}
}

func runEntry(ctx context.Context, interp *pseudo.Interpreter, source string, w io.Writer, p *printer, mode replMode) {
	prog, err := interp.Compile(source)
	if err != nil {
		p.error(err)
		return
	}
	if mode.disasm {
		if err := prog.Disassemble(w); err != nil {
			p.error(err)
			return
		}
	}
	start := time.Now()
	err = interp.Run(ctx, prog)
	if mode.bench {
		reportElapsed(w, time.Since(start))
	}
	if err != nil {
		p.error(err)
	}
}

// runLexerREPL prints the token stream of each line read from r.
func runLexerREPL(interp *pseudo.Interpreter, r *bufio.Reader, w io.Writer, mode replMode) {
	p := newPrinter(w)
	if mode.interactive {
		fmt.Fprintln(w, "Pseudocode lexer (type 'quit' to exit)")
	}
	for {
		if mode.interactive {
			fmt.Fprint(w, p.prompt(">> "))
		}
		line, ok := readLine(r, p)
		if !ok {
			break
		}
		switch strings.TrimSpace(line) {
		case "":
			continue
		case "quit", "exit":
			return
		}

		start := time.Now()
		toks, err := interp.Tokenize(line)
		if mode.bench {
			reportElapsed(w, time.Since(start))
		}
		if err != nil {
			p.error(err)
			continue
		}
		printTokens(w, toks)
	}
	if mode.interactive {
		fmt.Fprintln(w)
	}
}

// readLine returns the next line without its terminator, or false at the
// end of input.
func readLine(r *bufio.Reader, p *printer) (string, bool) {
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		if !errors.Is(err, io.EOF) {
			p.error(err)
		}
		return "", false
	}
	return strings.TrimRight(line, "\r\n"), true
}
