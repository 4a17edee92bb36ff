package conformance

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// LoadedTest represents a test with its source file path
type LoadedTest struct {
	File  string
	Suite TestSuite
	Test  TestCase
}

// LoadDir walks dir and loads every .yaml suite below it, in path order.
func LoadDir(dir string) ([]LoadedTest, error) {
	var paths []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if ext := filepath.Ext(path); ext == ".yaml" || ext == ".yml" {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var loaded []LoadedTest
	for _, path := range paths {
		tests, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		for _, test := range tests {
			test.File = rel
			loaded = append(loaded, test)
		}
	}
	log.Debugf("loaded %d test(s) from %d file(s) in %s", len(loaded), len(paths), dir)
	return loaded, nil
}

// LoadFile parses a single YAML suite and returns its test cases
func LoadFile(path string) ([]LoadedTest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var suite TestSuite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if suite.Name == "" {
		suite.Name = filepath.Base(path)
	}

	tests := make([]LoadedTest, 0, len(suite.Tests))
	for i, test := range suite.Tests {
		if test.Name == "" {
			return nil, fmt.Errorf("%s: test %d has no name", path, i+1)
		}
		tests = append(tests, LoadedTest{
			File:  path,
			Suite: suite,
			Test:  test,
		})
	}
	return tests, nil
}
