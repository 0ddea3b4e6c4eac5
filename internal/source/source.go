// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source resolves the configured list of input origins: default
// display names, validation, classification of ad-hoc CLI arguments, and the
// standalone YAML sources file.
package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/mdbatch/pkg/types"
)

const (
	// DefaultURLName names URL sources configured without a name.
	DefaultURLName = "web_content"
	// UnnamedSource is displayed for sources with neither name nor path.
	UnnamedSource = "unnamed source"
)

// ErrNoSources is returned when a run has nothing to process.
var ErrNoSources = errors.New("no sources configured")

// DisplayName returns the name a source is reported and written under.
// Folders default to the directory base name, files to the file stem and
// URLs to "web_content".
func DisplayName(s types.Source) string {
	if s.Name != "" {
		return s.Name
	}
	switch s.Kind {
	case types.SourceFolder:
		if s.Path != "" {
			return filepath.Base(filepath.Clean(s.Path))
		}
	case types.SourceFile:
		if s.Path != "" {
			base := filepath.Base(s.Path)
			return strings.TrimSuffix(base, filepath.Ext(base))
		}
	case types.SourceURL:
		return DefaultURLName
	}
	return UnnamedSource
}

// Normalize fills in default names and returns a new slice. The input is not
// modified.
func Normalize(sources []types.Source) []types.Source {
	out := make([]types.Source, len(sources))
	for i, s := range sources {
		s.Kind = types.SourceKind(strings.ToLower(strings.TrimSpace(string(s.Kind))))
		s.Name = DisplayName(s)
		out[i] = s
	}
	return out
}

// Problem describes one invalid source entry.
type Problem struct {
	Index  int
	Source types.Source
	Reason string
}

func (p Problem) String() string {
	return fmt.Sprintf("source #%d (%s): %s", p.Index+1, DisplayName(p.Source), p.Reason)
}

// Validate checks every entry and returns the problems found. An empty list
// is reported as ErrNoSources. Validation is advisory: the runner still
// processes a list with problems and reports bad entries as it meets them.
func Validate(sources []types.Source) ([]Problem, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}
	var problems []Problem
	for i, s := range sources {
		add := func(reason string) {
			problems = append(problems, Problem{Index: i, Source: s, Reason: reason})
		}
		if strings.TrimSpace(s.Path) == "" {
			add("path is empty")
		}
		switch s.Kind {
		case types.SourceFolder, types.SourceFile:
		case types.SourceURL:
			if !IsURL(s.Path) {
				add(fmt.Sprintf("url %q must start with http:// or https://", s.Path))
			}
		case "":
			add("kind is empty (expected folder, file, or url)")
		default:
			add(fmt.Sprintf("unsupported kind %q (expected folder, file, or url)", s.Kind))
		}
		if s.Recursive != nil && s.Kind != types.SourceFolder {
			add("recursive only applies to folder sources")
		}
	}
	return problems, nil
}

// IsURL reports whether s is an http or https URL.
func IsURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// FromArgs classifies positional CLI arguments: http(s) URLs become url
// sources, existing directories become folder sources, anything else is a
// file source (a missing file is reported as failed by the runner).
func FromArgs(args []string, recursive bool) []types.Source {
	out := make([]types.Source, 0, len(args))
	for _, arg := range args {
		s := types.Source{Path: arg}
		switch {
		case IsURL(arg):
			s.Kind = types.SourceURL
		case isDir(arg):
			s.Kind = types.SourceFolder
			s.Recursive = types.Bool(recursive)
		default:
			s.Kind = types.SourceFile
		}
		out = append(out, s)
	}
	return out
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
