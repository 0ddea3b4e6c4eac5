// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logger writes structured JSON diagnostics to
// <root>/.mdbatch/logs/mdbatch.log. Console progress is not logged here; it
// goes to the writer handed to the runner.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// StateDir is the hidden directory under the output root holding logs and
// the run ledger.
const StateDir = ".mdbatch"

// Config selects where logs go and how verbose they are.
type Config struct {
	Root  string
	Debug bool
}

var (
	mu      sync.RWMutex
	global  = discard()
	logFile *os.File
	logPath string
)

// Setup opens the log file and installs the logger as the process default.
// The returned cleanup closes the file and restores a discarding logger.
func Setup(cfg Config) (func() error, error) {
	root := cfg.Root
	if root == "" {
		root = "."
	}

	dir := filepath.Join(filepath.Clean(root), StateDir, "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		reset()
		return nil, err
	}

	path := filepath.Join(dir, "mdbatch.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		reset()
		return nil, err
	}

	l := New(f, cfg.Debug)

	mu.Lock()
	global = l
	logFile = f
	logPath = path
	mu.Unlock()
	slog.SetDefault(l)

	l.Info("logger.initialized", "path", path, "debug", cfg.Debug)

	cleanup := func() error {
		mu.Lock()
		var cerr error
		if logFile != nil {
			cerr = logFile.Close()
		}
		mu.Unlock()
		reset()
		return cerr
	}
	return cleanup, nil
}

// New builds a JSON logger on w. Timestamps are UTC RFC 3339.
func New(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
				a.Value = slog.StringValue(a.Value.Time().UTC().Format(time.RFC3339Nano))
			}
			return a
		},
	}))
}

// L returns the current logger; a discarding one before Setup.
func L() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// Path returns the active log file path, or "" before Setup.
func Path() string {
	mu.RLock()
	defer mu.RUnlock()
	return logPath
}

func reset() {
	mu.Lock()
	global = discard()
	logFile = nil
	logPath = ""
	mu.Unlock()
	slog.SetDefault(global)
}

func discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
