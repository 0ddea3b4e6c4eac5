// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_WritesJSONLines(t *testing.T) {
	root := t.TempDir()

	cleanup, err := Setup(Config{Root: root})
	require.NoError(t, err)

	wantPath := filepath.Join(root, StateDir, "logs", "mdbatch.log")
	assert.Equal(t, wantPath, Path())

	L().Info("run.started", "tool", "docling")
	L().Debug("hidden at info level")
	require.NoError(t, cleanup())

	assert.Empty(t, Path())

	data, err := os.ReadFile(wantPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &rec))
	assert.Equal(t, "run.started", rec["msg"])
	assert.Equal(t, "docling", rec["tool"])
	assert.True(t, strings.HasSuffix(rec["time"].(string), "Z"), "time should be UTC")
}

func TestSetup_BadRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(root, []byte("x"), 0o644))

	_, err := Setup(Config{Root: root})
	assert.Error(t, err)
	assert.Empty(t, Path())
}

func TestNew_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, true).Debug("visible")
	assert.Contains(t, buf.String(), `"msg":"visible"`)
	assert.Contains(t, buf.String(), `"source"`)
}
