// Package config loads interpreter settings from a TOML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/tliron/commonlog"

	"github.com/xirelogy/go-pseudo/internal/token"
)

var log = commonlog.GetLogger("pseudo.config")

// FileName is the configuration file looked up in the working directory.
const FileName = "pseudo.toml"

// Config is the full set of interpreter settings.
type Config struct {
	Lexer  LexerConfig  `toml:"lexer"`
	VM     VMConfig     `toml:"vm"`
	Output OutputConfig `toml:"output"`
	Log    LogConfig    `toml:"log"`
}

// LexerConfig controls keyword recognition.
type LexerConfig struct {
	KeywordCase string `toml:"keyword_case"`
}

// VMConfig bounds execution.
type VMConfig struct {
	InstructionLimit int    `toml:"instruction_limit"`
	MaxCallDepth     int    `toml:"max_call_depth"`
	Seed             uint64 `toml:"seed"`
	AllowSystem      bool   `toml:"allow_system"`
}

// OutputConfig controls how OUTPUT renders values.
type OutputConfig struct {
	QuoteStrings bool `toml:"quote_strings"`
}

// LogConfig is passed to commonlog.Configure by the CLI.
type LogConfig struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Default returns the settings used when no file is present.
func Default() *Config {
	return &Config{
		Lexer:  LexerConfig{KeywordCase: "upper"},
		VM:     VMConfig{MaxCallDepth: 256},
		Output: OutputConfig{QuoteStrings: true},
	}
}

// Load reads path over the defaults. Unknown keys are logged and ignored.
func Load(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		log.Warningf("%s: ignoring unknown key %s", path, key.String())
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Debugf("loaded %s", path)
	return cfg, nil
}

// Find returns the path of FileName in dir, if it exists.
func Find(dir string) (string, bool) {
	path := filepath.Join(dir, FileName)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}

// Validate rejects settings the interpreter cannot honour.
func (c *Config) Validate() error {
	if _, ok := token.ParseCase(c.Lexer.KeywordCase); !ok {
		return fmt.Errorf("lexer.keyword_case: unknown value %q (want upper, lower or any)", c.Lexer.KeywordCase)
	}
	if c.VM.InstructionLimit < 0 {
		return fmt.Errorf("vm.instruction_limit must not be negative")
	}
	if c.VM.MaxCallDepth < 0 {
		return fmt.Errorf("vm.max_call_depth must not be negative")
	}
	if c.Log.Verbosity < 0 {
		return fmt.Errorf("log.verbosity must not be negative")
	}
	return nil
}

// KeywordCase returns the parsed lexer.keyword_case.
func (c *Config) KeywordCase() token.CaseMode {
	kc, _ := token.ParseCase(c.Lexer.KeywordCase)
	return kc
}
