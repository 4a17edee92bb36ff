package conformance

// TestSuite represents a complete YAML test file
type TestSuite struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description,omitempty"`
	Options     SuiteOptions `yaml:"options,omitempty"`
	Setup       string       `yaml:"setup,omitempty"` // run before every test in the same session
	Tests       []TestCase   `yaml:"tests"`
}

// SuiteOptions configures the interpreter each test runs in
type SuiteOptions struct {
	KeywordCase  string `yaml:"keyword_case,omitempty"` // upper|lower|any
	QuoteStrings *bool  `yaml:"quote_strings,omitempty"`
	Seed         uint64 `yaml:"seed,omitempty"`
	MaxCallDepth int    `yaml:"max_call_depth,omitempty"`
	Limit        int    `yaml:"instruction_limit,omitempty"`
}

// TestCase represents a single test within a suite
type TestCase struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Skip        interface{} `yaml:"skip,omitempty"` // bool or string
	Source      string      `yaml:"source"`
	Input       string      `yaml:"input,omitempty"` // fed to INPUT, one value per line
	Expect      Expectation `yaml:"expect"`
}

// Expectation defines what result is expected from a test
type Expectation struct {
	Output   *string  `yaml:"output,omitempty"`   // exact match of everything written
	Lines    []string `yaml:"lines,omitempty"`    // output split on newlines
	Error    string   `yaml:"error,omitempty"`    // lexical|compile|runtime
	Kind     string   `yaml:"kind,omitempty"`     // type, out_of_bounds, ...
	Contains string   `yaml:"contains,omitempty"` // substring of the error message
	Line     int      `yaml:"line,omitempty"`
}

// IsSkipped returns true if this test should be skipped
func (tc *TestCase) IsSkipped() (bool, string) {
	switch v := tc.Skip.(type) {
	case bool:
		if v {
			return true, "skipped"
		}
		return false, ""
	case string:
		return true, v
	default:
		return false, ""
	}
}
