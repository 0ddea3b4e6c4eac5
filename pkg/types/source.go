// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for mdbatch: the source
// configuration list, tool options, per-item outcomes and the run history
// records written to the ledger.
package types

// SourceKind is the kind of a configured input origin.
type SourceKind string

const (
	SourceFolder SourceKind = "folder"
	SourceFile   SourceKind = "file"
	SourceURL    SourceKind = "url"
)

// Source is one configured input origin: a folder, a single file, or a URL.
// It is read once at start-up and never mutated by the runner.
type Source struct {
	// Kind is folder, file, or url.
	Kind SourceKind `json:"kind" yaml:"kind" mapstructure:"kind"`

	// Path is a filesystem path or, for url sources, the URL.
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// Name is the display name. It also names the output subdirectory for
	// folders and the output file for single files and URLs.
	Name string `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`

	// Recursive controls whether subdirectories of a folder are processed.
	// Nil means true.
	Recursive *bool `json:"recursive,omitempty" yaml:"recursive,omitempty" mapstructure:"recursive"`
}

// IsRecursive reports whether a folder source descends into subdirectories.
func (s Source) IsRecursive() bool {
	return s.Recursive == nil || *s.Recursive
}

// Bool returns a pointer to b, for populating Source.Recursive.
func Bool(b bool) *bool {
	return &b
}
