package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xirelogy/go-pseudo/internal/token"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.KeywordCase() != token.UpperCase {
		t.Fatalf("expected upper case keywords by default")
	}
	if cfg.VM.MaxCallDepth != 256 || !cfg.Output.QuoteStrings || cfg.VM.AllowSystem {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[lexer]
keyword_case = "any"

[vm]
instruction_limit = 5000
seed = 42

[output]
quote_strings = false

[log]
verbosity = 2
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.KeywordCase() != token.AnyCase {
		t.Fatalf("expected any case, got %v", cfg.Lexer.KeywordCase)
	}
	if cfg.VM.InstructionLimit != 5000 || cfg.VM.Seed != 42 {
		t.Fatalf("unexpected vm settings %+v", cfg.VM)
	}
	if cfg.VM.MaxCallDepth != 256 {
		t.Fatalf("expected untouched default call depth, got %d", cfg.VM.MaxCallDepth)
	}
	if cfg.Output.QuoteStrings {
		t.Fatalf("expected quote_strings to be disabled")
	}
	if cfg.Log.Verbosity != 2 {
		t.Fatalf("expected verbosity 2, got %d", cfg.Log.Verbosity)
	}
}

func TestLoadIgnoresUnknownKeys(t *testing.T) {
	path := writeConfig(t, "[vm]\nturbo = true\n")
	if _, err := Load(path); err != nil {
		t.Fatalf("unknown keys must not fail: %v", err)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{"[lexer]\nkeyword_case = \"title\"\n", "keyword_case"},
		{"[vm]\ninstruction_limit = -1\n", "instruction_limit"},
		{"[vm]\nmax_call_depth = -3\n", "max_call_depth"},
		{"[vm\n", "parsing"},
	}
	for _, tt := range tests {
		_, err := Load(writeConfig(t, tt.body))
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Fatalf("%q: expected error mentioning %q, got %v", tt.body, tt.want, err)
		}
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	if _, ok := Find(dir); ok {
		t.Fatalf("expected no config in empty dir")
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, ok := Find(dir)
	if !ok || got != path {
		t.Fatalf("expected %s, got %s (%v)", path, got, ok)
	}
}
