// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: gemini-api-key, openai-api-key, claude-api-key. They are
// handed to the marker container when use_llm is enabled.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LLMEnv maps secret key files to the environment variables the LLM-backed
// tools read inside their containers.
var LLMEnv = map[string]string{
	"gemini-api-key": "GOOGLE_API_KEY",
	"openai-api-key": "OPENAI_API_KEY",
	"claude-api-key": "CLAUDE_API_KEY",
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Env translates loaded secrets into environment variables using mapping
// (key file name to variable name). Secrets without a mapping are left out.
func Env(loaded map[string]string, mapping map[string]string) map[string]string {
	env := make(map[string]string)
	for key, variable := range mapping {
		if v, ok := loaded[key]; ok {
			env[variable] = v
		}
	}
	return env
}

// Names returns the loaded key names, sorted, for start-up reporting.
func Names(loaded map[string]string) []string {
	keys := make([]string, 0, len(loaded))
	for k := range loaded {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
