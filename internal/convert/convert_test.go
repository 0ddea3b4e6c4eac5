// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/mdbatch/internal/httputil"
	"github.com/pdiddy/mdbatch/internal/report"
	"github.com/pdiddy/mdbatch/pkg/types"
)

const (
	testOut   = "/out/docling/output"
	testLimit = 100
)

// stubConverter records every document it is handed and returns canned
// output, or an error for names listed in failOn.
type stubConverter struct {
	calls   []Document
	content string
	ext     string
	failOn  map[string]bool
}

func (s *stubConverter) Convert(_ context.Context, doc Document) (Output, error) {
	s.calls = append(s.calls, doc)
	if s.failOn[doc.Name] {
		return Output{}, errors.New("container crashed")
	}
	content := s.content
	if content == "" {
		content = "# " + doc.Name + "\n\nbody"
	}
	return Output{Content: content, Ext: s.ext}, nil
}

func (s *stubConverter) names() []string {
	var out []string
	for _, d := range s.calls {
		out = append(out, d.Name)
	}
	return out
}

type memRecorder struct {
	items []types.ItemRecord
}

func (m *memRecorder) Record(item types.ItemRecord) error {
	m.items = append(m.items, item)
	return nil
}

type runnerFixture struct {
	fs     afero.Fs
	conv   *stubConverter
	rec    *memRecorder
	out    *bytes.Buffer
	runner *Runner
}

func newFixture(t *testing.T, tool types.ToolName) *runnerFixture {
	t.Helper()
	profile, err := LookupTool(tool)
	require.NoError(t, err)

	f := &runnerFixture{
		fs:   afero.NewMemMapFs(),
		conv: &stubConverter{},
		rec:  &memRecorder{},
		out:  &bytes.Buffer{},
	}
	f.runner = &Runner{
		Tool:         profile,
		Converter:    f.conv,
		Fs:           f.fs,
		OutputDir:    testOut,
		MaxFileBytes: testLimit,
		Recorder:     f.rec,
		Printer:      report.New(f.out),
		now:          func() time.Time { return time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC) },
	}
	return f
}

func (f *runnerFixture) file(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, f.fs.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, afero.WriteFile(f.fs, path, bytes.Repeat([]byte("x"), size), 0o644))
}

func (f *runnerFixture) read(t *testing.T, path string) string {
	t.Helper()
	data, err := afero.ReadFile(f.fs, path)
	require.NoError(t, err)
	return string(data)
}

func assertTotal(t *testing.T, res BatchResult) {
	t.Helper()
	assert.Equal(t, res.Converted+res.Failed+res.Skipped, res.Total())
}

func TestRun_FolderMirrorsTree(t *testing.T) {
	f := newFixture(t, types.ToolDocling)
	f.file(t, "/in/docs/a.pdf", 10)
	f.file(t, "/in/docs/big.pdf", testLimit+1)
	f.file(t, "/in/docs/notes.xyz", 5)
	f.file(t, "/in/docs/sub/B.DOCX", 20)

	res := f.runner.Run(context.Background(), []types.Source{
		{Kind: types.SourceFolder, Path: "/in/docs"},
	})

	assert.Equal(t, BatchResult{Converted: 2, Failed: 0, Skipped: 1}, res)
	assertTotal(t, res)
	assert.Equal(t, []string{"a.pdf", "B.DOCX"}, f.conv.names(), "lexical order, unlisted and oversized files never converted")
	assert.Equal(t, ".docx", f.conv.calls[1].Ext)

	assert.Contains(t, f.read(t, filepath.Join(testOut, "docs", "a.md")), "# a.pdf")
	assert.Contains(t, f.read(t, filepath.Join(testOut, "docs", "sub", "B.md")), "# B.DOCX")

	out := f.out.String()
	assert.Contains(t, out, "skipping large file: big.pdf")
	assert.Contains(t, out, "converting: sub/B.DOCX")
	assert.Contains(t, out, "source docs done: ✅2 ❌0 ⏭️1")
	assert.NotContains(t, out, "notes.xyz")
}

func TestRun_FolderNotRecursive(t *testing.T) {
	f := newFixture(t, types.ToolDocling)
	f.file(t, "/in/docs/a.pdf", 10)
	f.file(t, "/in/docs/sub/b.pdf", 10)

	res := f.runner.Run(context.Background(), []types.Source{
		{Kind: types.SourceFolder, Path: "/in/docs", Name: "papers", Recursive: types.Bool(false)},
	})

	assert.Equal(t, BatchResult{Converted: 1}, res)
	assert.Equal(t, []string{"a.pdf"}, f.conv.names())
	assert.Contains(t, f.read(t, filepath.Join(testOut, "papers", "a.md")), "body")
}

func TestRun_FolderMissingCountsFailed(t *testing.T) {
	f := newFixture(t, types.ToolDocling)

	res := f.runner.Run(context.Background(), []types.Source{
		{Kind: types.SourceFolder, Path: "/nowhere"},
	})

	assert.Equal(t, BatchResult{Failed: 1}, res)
	assert.Empty(t, f.conv.calls)
	require.Len(t, f.rec.items, 1)
	assert.Equal(t, types.OutcomeFailed, f.rec.items[0].Outcome)
}

func TestRun_FolderPathIsAFile(t *testing.T) {
	f := newFixture(t, types.ToolDocling)
	f.file(t, "/in/report.pdf", 10)

	res := f.runner.Run(context.Background(), []types.Source{
		{Kind: types.SourceFolder, Path: "/in/report.pdf"},
	})

	assert.Equal(t, BatchResult{Failed: 1}, res)
	assert.Empty(t, f.conv.calls)
	require.Len(t, f.rec.items, 1)
	assert.Contains(t, f.rec.items[0].Error, "/in/report.pdf is not a directory")
	assert.NotContains(t, f.rec.items[0].Error, ErrNotFound.Error())
}

func TestRun_FolderFollowsFileSymlinks(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	require.NoError(t, os.MkdirAll(filepath.Join(in, "sub"), 0o755))
	target := filepath.Join(dir, "elsewhere.pdf")
	require.NoError(t, os.WriteFile(target, []byte("pdf"), 0o644))
	if err := os.Symlink(target, filepath.Join(in, "sub", "linked.pdf")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(dir, "missing.pdf"), filepath.Join(in, "dangling.pdf")))

	for _, recursive := range []bool{true, false} {
		t.Run(fmt.Sprintf("recursive=%t", recursive), func(t *testing.T) {
			f := newFixture(t, types.ToolDocling)
			f.fs = afero.NewOsFs()
			f.runner.Fs = f.fs
			f.runner.OutputDir = filepath.Join(dir, fmt.Sprintf("out-%t", recursive))

			path := in
			if !recursive {
				path = filepath.Join(in, "sub")
			}
			res := f.runner.Run(context.Background(), []types.Source{
				{Kind: types.SourceFolder, Path: path, Name: "docs", Recursive: types.Bool(recursive)},
			})

			assert.Equal(t, BatchResult{Converted: 1}, res)
			assert.Equal(t, []string{"linked.pdf"}, f.conv.names())
			assert.Contains(t, f.read(t, filepath.Join(f.runner.OutputDir, "docs", filepath.FromSlash(relLinked(recursive)))), "# linked.pdf")
		})
	}
}

func relLinked(recursive bool) string {
	if recursive {
		return "sub/linked.md"
	}
	return "linked.md"
}

func TestRun_FolderWithoutSupportedFiles(t *testing.T) {
	f := newFixture(t, types.ToolPyMuPDF)
	f.file(t, "/in/docs/a.docx", 10)

	res := f.runner.Run(context.Background(), []types.Source{
		{Kind: types.SourceFolder, Path: "/in/docs"},
	})

	assert.Equal(t, BatchResult{}, res)
	assert.Contains(t, f.out.String(), "no supported files")
}

func TestRun_FileSource(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		size      int
		create    bool
		srcName   string
		want      BatchResult
		wantCalls int
		wantOut   string
	}{
		{name: "converted under default name", path: "/in/report.pdf", size: 10, create: true,
			want: BatchResult{Converted: 1}, wantCalls: 1, wantOut: "single_files/report.md"},
		{name: "converted under configured name", path: "/in/report.pdf", size: 10, create: true, srcName: "annual",
			want: BatchResult{Converted: 1}, wantCalls: 1, wantOut: "single_files/annual.md"},
		{name: "size equal to limit is converted", path: "/in/edge.pdf", size: testLimit, create: true,
			want: BatchResult{Converted: 1}, wantCalls: 1, wantOut: "single_files/edge.md"},
		{name: "over limit skipped", path: "/in/huge.pdf", size: testLimit + 1, create: true,
			want: BatchResult{Skipped: 1}},
		{name: "missing path failed", path: "/in/missing.pdf",
			want: BatchResult{Failed: 1}},
		{name: "unsupported extension failed", path: "/in/movie.mkv", size: 10, create: true,
			want: BatchResult{Failed: 1}},
		{name: "directory given as file failed", path: "/in", create: false,
			want: BatchResult{Failed: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, types.ToolDocling)
			require.NoError(t, f.fs.MkdirAll("/in", 0o755))
			if tt.create {
				f.file(t, tt.path, tt.size)
			}

			res := f.runner.Run(context.Background(), []types.Source{
				{Kind: types.SourceFile, Path: tt.path, Name: tt.srcName},
			})

			assert.Equal(t, tt.want, res)
			assertTotal(t, res)
			assert.Len(t, f.conv.calls, tt.wantCalls)
			if tt.wantOut != "" {
				ok, err := afero.Exists(f.fs, filepath.Join(testOut, tt.wantOut))
				require.NoError(t, err)
				assert.True(t, ok, "expected output %s", tt.wantOut)
			}
			require.Len(t, f.rec.items, 1)
			assert.Equal(t, tt.path, f.rec.items[0].Input)
		})
	}
}

func TestRun_ErrorsClassified(t *testing.T) {
	f := newFixture(t, types.ToolDocling)
	f.file(t, "/in/huge.pdf", testLimit+1)
	f.file(t, "/in/bad.mkv", 1)

	_, err := f.runner.loadFile("/in/huge.pdf")
	assert.ErrorIs(t, err, ErrTooLarge)
	var tl *TooLargeError
	require.ErrorAs(t, err, &tl)
	assert.Equal(t, int64(testLimit+1), tl.Size)

	_, err = f.runner.loadFile("/in/bad.mkv")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = f.runner.loadFile("/in/none.pdf")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRun_ConversionFailureContinues(t *testing.T) {
	f := newFixture(t, types.ToolDocling)
	f.conv.failOn = map[string]bool{"b.pdf": true}
	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		f.file(t, "/in/docs/"+name, 10)
	}

	res := f.runner.Run(context.Background(), []types.Source{
		{Kind: types.SourceFolder, Path: "/in/docs"},
	})

	assert.Equal(t, BatchResult{Converted: 2, Failed: 1}, res)
	assert.True(t, res.HasFailures())
	assert.Equal(t, []string{"a.pdf", "b.pdf", "c.pdf"}, f.conv.names())
	assert.Contains(t, f.out.String(), "container crashed")

	exists, _ := afero.Exists(f.fs, filepath.Join(testOut, "docs", "b.md"))
	assert.False(t, exists)

	require.Len(t, f.rec.items, 3)
	assert.Equal(t, types.OutcomeFailed, f.rec.items[1].Outcome)
	assert.Contains(t, f.rec.items[1].Error, "container crashed")
	assert.Equal(t, filepath.Join(testOut, "docs", "c.md"), f.rec.items[2].OutputPath)
}

func TestRun_IgnoredSourcesContributeNothing(t *testing.T) {
	f := newFixture(t, types.ToolPyMuPDF)

	res := f.runner.Run(context.Background(), []types.Source{
		{Kind: "bucket", Path: "s3://x", Name: "odd"},
		{Kind: types.SourceURL, Path: "https://example.com/a.pdf"},
	})

	assert.Equal(t, BatchResult{}, res)
	assert.Equal(t, 0, res.Total())
	out := f.out.String()
	assert.Contains(t, out, `unknown source kind "bucket"`)
	assert.Contains(t, out, "pymupdf does not support url sources")
	assert.NotContains(t, out, "source odd done")
	assert.Empty(t, f.rec.items)
}

func TestRun_URLSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/article":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, "<h1>Hello</h1>")
		case "/paper.pdf":
			w.Header().Set("Content-Type", "application/octet-stream")
			fmt.Fprint(w, "%PDF-1.7")
		case "/huge":
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, strings.Repeat("x", testLimit+1))
		case "/video":
			w.Header().Set("Content-Type", "video/x-matroska")
			fmt.Fprint(w, "data")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := newFixture(t, types.ToolDocling)
	f.runner.Fetcher = &httputil.Downloader{Client: srv.Client(), UserAgent: "mdbatch-test"}

	res := f.runner.Run(context.Background(), []types.Source{
		{Kind: types.SourceURL, Path: srv.URL + "/article"},
		{Kind: types.SourceURL, Path: srv.URL + "/paper.pdf", Name: "paper"},
		{Kind: types.SourceURL, Path: srv.URL + "/huge", Name: "huge"},
		{Kind: types.SourceURL, Path: srv.URL + "/video", Name: "video"},
		{Kind: types.SourceURL, Path: srv.URL + "/gone", Name: "gone"},
	})

	assert.Equal(t, BatchResult{Converted: 2, Failed: 2, Skipped: 1}, res)
	assertTotal(t, res)
	require.Len(t, f.conv.calls, 2)
	assert.Equal(t, ".html", f.conv.calls[0].Ext)
	assert.Equal(t, srv.URL+"/article", f.conv.calls[0].SourceURL)
	assert.Equal(t, ".pdf", f.conv.calls[1].Ext)
	assert.Equal(t, "paper.pdf", f.conv.calls[1].Name)

	for _, p := range []string{"urls/web_content.md", "urls/paper.md"} {
		ok, err := afero.Exists(f.fs, filepath.Join(testOut, p))
		require.NoError(t, err)
		assert.True(t, ok, p)
	}
}

func TestRun_URLWithoutFetcherFails(t *testing.T) {
	f := newFixture(t, types.ToolMarkitdown)
	res := f.runner.Run(context.Background(), []types.Source{
		{Kind: types.SourceURL, Path: "https://example.com"},
	})
	assert.Equal(t, BatchResult{Failed: 1}, res)
}

func TestRun_OutputExtensionFollowsConverter(t *testing.T) {
	f := newFixture(t, types.ToolMarker)
	f.conv.ext = ".json"
	f.conv.content = `{"blocks":[]}`
	f.file(t, "/in/docs/a.pdf", 10)

	f.runner.Frontmatter = true
	res := f.runner.Run(context.Background(), []types.Source{
		{Kind: types.SourceFolder, Path: "/in/docs"},
	})

	assert.Equal(t, BatchResult{Converted: 1}, res)
	assert.Equal(t, `{"blocks":[]}`, f.read(t, filepath.Join(testOut, "docs", "a.json")), "no frontmatter on json output")
}

func TestRun_Frontmatter(t *testing.T) {
	f := newFixture(t, types.ToolDocling)
	f.conv.content = "# Title\n"
	f.file(t, "/in/a.pdf", 10)
	f.runner.Frontmatter = true

	f.runner.Run(context.Background(), []types.Source{{Kind: types.SourceFile, Path: "/in/a.pdf"}})

	got := f.read(t, filepath.Join(testOut, "single_files", "a.md"))
	assert.True(t, strings.HasPrefix(got, "---\n"))
	assert.Contains(t, got, "source: /in/a.pdf\n")
	assert.Contains(t, got, "tool: docling\n")
	assert.Contains(t, got, "converted_at: \"2026-10-15T09:00:00Z\"")
	assert.True(t, strings.HasSuffix(got, "---\n\n# Title\n"))
}

func TestRun_OverwritesExistingOutput(t *testing.T) {
	f := newFixture(t, types.ToolDocling)
	f.file(t, "/in/a.pdf", 10)
	require.NoError(t, f.fs.MkdirAll(filepath.Join(testOut, "single_files"), 0o755))
	require.NoError(t, afero.WriteFile(f.fs, filepath.Join(testOut, "single_files", "a.md"), []byte("stale"), 0o644))

	res := f.runner.Run(context.Background(), []types.Source{{Kind: types.SourceFile, Path: "/in/a.pdf"}})

	assert.Equal(t, BatchResult{Converted: 1}, res)
	assert.NotEqual(t, "stale", f.read(t, filepath.Join(testOut, "single_files", "a.md")))
}

func TestRun_CancelledContextStops(t *testing.T) {
	f := newFixture(t, types.ToolDocling)
	f.file(t, "/in/a.pdf", 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := f.runner.Run(ctx, []types.Source{{Kind: types.SourceFile, Path: "/in/a.pdf"}})

	assert.Equal(t, 0, res.Total())
	assert.Empty(t, f.conv.calls)
}

func TestRun_SummaryAcrossSources(t *testing.T) {
	f := newFixture(t, types.ToolDocling)
	f.file(t, "/in/docs/a.pdf", 10)
	f.file(t, "/in/one.pdf", testLimit+5)

	res := f.runner.Run(context.Background(), []types.Source{
		{Kind: types.SourceFolder, Path: "/in/docs"},
		{Kind: types.SourceFile, Path: "/in/one.pdf"},
		{Kind: types.SourceFile, Path: "/in/none.pdf"},
	})

	assert.Equal(t, BatchResult{Converted: 1, Failed: 1, Skipped: 1}, res)
	out := f.out.String()
	assert.Contains(t, out, "converting from 3 source(s)")
	assert.Contains(t, out, "total processed: 3 file(s)")
}

func TestExtForContentType(t *testing.T) {
	assert.Equal(t, ".html", extForContentType(""))
	assert.Equal(t, ".pdf", extForContentType("application/PDF"))
	assert.Equal(t, "", extForContentType("application/x-unknown"))
}

func TestConvertURI(t *testing.T) {
	f := newFixture(t, types.ToolPyMuPDF)
	f.file(t, "/in/a.pdf", 10)
	f.file(t, "/in/big.pdf", testLimit+1)

	out, err := f.runner.ConvertURI(context.Background(), "/in/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, ".md", out.Ext)
	assert.Contains(t, out.Content, "# a.pdf")

	_, err = f.runner.ConvertURI(context.Background(), "/in/big.pdf")
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = f.runner.ConvertURI(context.Background(), "https://example.com/a.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not support url sources")

	exists, _ := afero.DirExists(f.fs, testOut)
	assert.False(t, exists, "nothing written")
}
