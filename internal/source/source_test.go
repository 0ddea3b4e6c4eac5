// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/mdbatch/pkg/types"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		src  types.Source
		want string
	}{
		{"explicit name wins", types.Source{Kind: types.SourceFolder, Path: "a/b", Name: "docs"}, "docs"},
		{"folder defaults to base name", types.Source{Kind: types.SourceFolder, Path: "corpus/pdf/"}, "pdf"},
		{"file defaults to stem", types.Source{Kind: types.SourceFile, Path: "in/report.final.pdf"}, "report.final"},
		{"url defaults to web_content", types.Source{Kind: types.SourceURL, Path: "https://example.com"}, DefaultURLName},
		{"unknown kind", types.Source{Kind: "ftp", Path: "x"}, UnnamedSource},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayName(tt.src))
		})
	}
}

func TestNormalize(t *testing.T) {
	in := []types.Source{
		{Kind: " Folder ", Path: "corpus/html"},
		{Kind: types.SourceFile, Path: "x.csv", Name: "keep"},
	}
	out := Normalize(in)

	require.Len(t, out, 2)
	assert.Equal(t, types.SourceFolder, out[0].Kind)
	assert.Equal(t, "html", out[0].Name)
	assert.Equal(t, "keep", out[1].Name)
	assert.Empty(t, in[0].Name, "input must not be modified")
}

func TestValidate(t *testing.T) {
	_, err := Validate(nil)
	assert.ErrorIs(t, err, ErrNoSources)

	problems, err := Validate([]types.Source{
		{Kind: types.SourceFolder, Path: "ok"},
		{Kind: types.SourceURL, Path: "example.com"},
		{Kind: "", Path: "x"},
		{Kind: "ftp", Path: "x"},
		{Kind: types.SourceFile, Path: ""},
		{Kind: types.SourceFile, Path: "a.pdf", Recursive: types.Bool(true)},
	})
	require.NoError(t, err)
	require.Len(t, problems, 5)

	indexes := make([]int, len(problems))
	for i, p := range problems {
		indexes[i] = p.Index
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, indexes)
	assert.Contains(t, problems[0].String(), "http://")
	assert.Contains(t, problems[2].Reason, `unsupported kind "ftp"`)
}

func TestFromArgs(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.pdf")
	require.NoError(t, os.WriteFile(file, []byte("pdf"), 0o644))

	got := FromArgs([]string{"https://example.com/x.pdf", dir, file, filepath.Join(dir, "missing.docx")}, false)

	require.Len(t, got, 4)
	assert.Equal(t, types.SourceURL, got[0].Kind)
	assert.Equal(t, types.SourceFolder, got[1].Kind)
	assert.False(t, got[1].IsRecursive())
	assert.Equal(t, types.SourceFile, got[2].Kind)
	assert.Equal(t, types.SourceFile, got[3].Kind)
}

func TestIsRecursiveDefaultsTrue(t *testing.T) {
	assert.True(t, types.Source{Kind: types.SourceFolder}.IsRecursive())
	assert.False(t, types.Source{Recursive: types.Bool(false)}.IsRecursive())
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, WriteFile(path, Example()))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Example(), got)
}

func TestReadFile_Errors(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("sources: [:::"), 0o644))
	_, err = ReadFile(bad)
	assert.ErrorContains(t, err, "parsing sources file")
}
