// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/mdbatch/pkg/types"
)

// File is the on-disk representation of a sources list. It can be kept next
// to a corpus and passed with --sources instead of editing the main config.
type File struct {
	Sources []types.Source `yaml:"sources"`
}

// ReadFile loads a sources file from disk.
func ReadFile(path string) ([]types.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sources file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing sources file %s: %w", path, err)
	}
	return f.Sources, nil
}

// WriteFile saves sources to path as YAML.
func WriteFile(path string, sources []types.Source) error {
	data, err := yaml.Marshal(&File{Sources: sources})
	if err != nil {
		return fmt.Errorf("marshaling sources file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Example returns a starter sources list covering each kind.
func Example() []types.Source {
	return []types.Source{
		{Kind: types.SourceFolder, Path: "_testing-files/pdf", Name: "pdf", Recursive: types.Bool(true)},
		{Kind: types.SourceFolder, Path: "_testing-files/html", Name: "html", Recursive: types.Bool(false)},
		{Kind: types.SourceFile, Path: "_testing-files/sample.csv", Name: "sample"},
		{Kind: types.SourceURL, Path: "https://arxiv.org/pdf/2408.09869", Name: "docling-paper"},
	}
}
