// Package conformance runs YAML suites of pseudocode programs against the
// interpreter and compares their output and errors.
package conformance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tliron/commonlog"

	pseudo "github.com/xirelogy/go-pseudo"
)

var log = commonlog.GetLogger("pseudo.conformance")

// TestResult represents the outcome of running a single test
type TestResult struct {
	Test       LoadedTest
	Passed     bool
	Skipped    bool
	SkipReason string
	Output     string
	Error      error
}

// Runner executes conformance tests
type Runner struct {
	ctx context.Context
}

// NewRunner creates a runner whose programs stop when ctx is done.
func NewRunner(ctx context.Context) *Runner {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Runner{ctx: ctx}
}

var kinds = map[string]error{
	"type":              pseudo.ErrType,
	"out_of_bounds":     pseudo.ErrOutOfBounds,
	"unbound":           pseudo.ErrUnbound,
	"undefined":         pseudo.ErrUndefined,
	"redefined":         pseudo.ErrRedefined,
	"division_by_zero":  pseudo.ErrDivisionByZero,
	"argument":          pseudo.ErrArgument,
	"input":             pseudo.ErrInput,
	"call_depth":        pseudo.ErrCallDepth,
	"instruction_limit": pseudo.ErrInstructionLimit,
	"system_disabled":   pseudo.ErrSystemDisabled,
}

var categories = map[string]pseudo.Category{
	"lexical": pseudo.Lexical,
	"compile": pseudo.Compile,
	"runtime": pseudo.Runtime,
}

// Run executes a single test case in a fresh interpreter
func (r *Runner) Run(test LoadedTest) TestResult {
	if skipped, reason := test.Test.IsSkipped(); skipped {
		return TestResult{Test: test, Skipped: true, SkipReason: reason}
	}

	opts, err := interpreterOptions(test.Suite.Options)
	if err != nil {
		return TestResult{Test: test, Error: err}
	}
	var out bytes.Buffer
	opts = append(opts, pseudo.WithOutput(&out), pseudo.WithInput(strings.NewReader(test.Test.Input)))
	in := pseudo.New(opts...)

	if test.Suite.Setup != "" {
		if err := in.Interpret(r.ctx, test.Suite.Setup); err != nil {
			return TestResult{Test: test, Error: fmt.Errorf("suite setup failed: %w", err)}
		}
		out.Reset()
	}

	runErr := in.Interpret(r.ctx, test.Test.Source)
	result := TestResult{Test: test, Output: out.String()}
	if err := checkExpectation(test.Test.Expect, out.String(), runErr); err != nil {
		result.Error = err
		log.Debugf("%s/%s failed: %s", test.File, test.Test.Name, err.Error())
		return result
	}
	result.Passed = true
	return result
}

// RunAll executes all loaded tests
func (r *Runner) RunAll(tests []LoadedTest) []TestResult {
	results := make([]TestResult, len(tests))
	for i, test := range tests {
		results[i] = r.Run(test)
	}
	return results
}

// SummaryStats computes statistics from test results
type SummaryStats struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
}

// ComputeStats generates statistics from test results
func ComputeStats(results []TestResult) SummaryStats {
	stats := SummaryStats{Total: len(results)}
	for _, r := range results {
		if r.Skipped {
			stats.Skipped++
		} else if r.Passed {
			stats.Passed++
		} else {
			stats.Failed++
		}
	}
	return stats
}

// FormatStats returns a human-readable summary
func FormatStats(stats SummaryStats) string {
	return fmt.Sprintf("%d passed, %d failed, %d skipped (%d total)",
		stats.Passed, stats.Failed, stats.Skipped, stats.Total)
}

func interpreterOptions(o SuiteOptions) ([]pseudo.Option, error) {
	var opts []pseudo.Option
	switch o.KeywordCase {
	case "", "upper":
	case "lower":
		opts = append(opts, pseudo.WithKeywordCase(pseudo.LowerKeywords))
	case "any":
		opts = append(opts, pseudo.WithKeywordCase(pseudo.AnyKeywords))
	default:
		return nil, fmt.Errorf("unknown keyword_case %q", o.KeywordCase)
	}
	if o.QuoteStrings != nil {
		opts = append(opts, pseudo.WithQuoteStrings(*o.QuoteStrings))
	}
	if o.Seed != 0 {
		opts = append(opts, pseudo.WithSeed(o.Seed))
	}
	if o.MaxCallDepth > 0 {
		opts = append(opts, pseudo.WithMaxCallDepth(o.MaxCallDepth))
	}
	if o.Limit > 0 {
		opts = append(opts, pseudo.WithInstructionLimit(o.Limit))
	}
	return opts, nil
}

// checkExpectation compares a run against the test's expectation
func checkExpectation(expect Expectation, output string, runErr error) error {
	if expect.Output != nil && output != *expect.Output {
		return fmt.Errorf("expected output %q, got %q", *expect.Output, output)
	}
	if expect.Lines != nil {
		got := strings.Split(strings.TrimSuffix(output, "\n"), "\n")
		if output == "" {
			got = nil
		}
		if len(got) != len(expect.Lines) {
			return fmt.Errorf("expected %d line(s) %q, got %d %q", len(expect.Lines), expect.Lines, len(got), got)
		}
		for i := range got {
			if got[i] != expect.Lines[i] {
				return fmt.Errorf("line %d: expected %q, got %q", i+1, expect.Lines[i], got[i])
			}
		}
	}

	if expect.Error == "" {
		if runErr != nil {
			return fmt.Errorf("unexpected error: %w", runErr)
		}
		return nil
	}

	category, ok := categories[expect.Error]
	if !ok {
		return fmt.Errorf("unknown error category %q", expect.Error)
	}
	if runErr == nil {
		return fmt.Errorf("expected %s error, got none", expect.Error)
	}
	var perr *pseudo.Error
	if !errors.As(runErr, &perr) {
		return fmt.Errorf("expected %s error, got %v", expect.Error, runErr)
	}
	if perr.Category != category {
		return fmt.Errorf("expected %s error, got %v", category, runErr)
	}
	if expect.Kind != "" {
		kind, ok := kinds[expect.Kind]
		if !ok {
			return fmt.Errorf("unknown error kind %q", expect.Kind)
		}
		if !errors.Is(runErr, kind) {
			return fmt.Errorf("expected %s error kind, got %v", expect.Kind, runErr)
		}
	}
	if expect.Contains != "" && !strings.Contains(perr.Message, expect.Contains) {
		return fmt.Errorf("expected error containing %q, got %q", expect.Contains, perr.Message)
	}
	if expect.Line > 0 && perr.Line != expect.Line {
		return fmt.Errorf("expected error on line %d, got line %d", expect.Line, perr.Line)
	}
	return nil
}
