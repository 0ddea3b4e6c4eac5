// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/mdbatch/internal/httputil"
	"github.com/pdiddy/mdbatch/internal/report"
	"github.com/pdiddy/mdbatch/internal/source"
	"github.com/pdiddy/mdbatch/pkg/types"
)

const (
	singleFilesDir = "single_files"
	urlsDir        = "urls"
)

// Fetcher downloads url sources. *httputil.Downloader implements it.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, maxBytes int64) (*httputil.Download, error)
}

// Recorder receives one record per processed item. *ledger.Run implements it.
type Recorder interface {
	Record(item types.ItemRecord) error
}

// Runner drives one tool over a list of sources. Sources are processed one
// at a time and files within a folder in lexical order.
type Runner struct {
	Tool      Tool
	Converter Converter

	// Fs is read for inputs and written for outputs. Defaults to the OS
	// filesystem.
	Fs      afero.Fs
	Fetcher Fetcher

	// OutputDir is <output_root>/<tool>/<output_dir_name>.
	OutputDir string
	// MaxFileBytes is the size ceiling; inputs strictly larger are skipped.
	// Zero disables the ceiling.
	MaxFileBytes int64
	// Frontmatter prepends YAML frontmatter to Markdown output.
	Frontmatter bool

	Recorder Recorder
	Logger   *slog.Logger
	Printer  *report.Printer

	now func() time.Time
}

// item is one unit of work: a file found in a folder, a single file or a URL.
type item struct {
	src   types.Source
	input string
	label string
	load  func(ctx context.Context) (Document, error)
	dest  func(ext string) string
}

// Run processes every source and returns the combined counters. Item errors
// never stop the run; a cancelled context stops it between items.
func (r *Runner) Run(ctx context.Context, sources []types.Source) BatchResult {
	var total BatchResult
	r.Printer.Sources(len(sources))
	r.logger().Info("run.started", "tool", string(r.Tool.Name), "sources", len(sources), "output_dir", r.OutputDir)

	for _, src := range source.Normalize(sources) {
		if ctx.Err() != nil {
			r.logger().Warn("run.cancelled", "error", ctx.Err())
			break
		}
		res, counted := r.runSource(ctx, src)
		if counted {
			r.Printer.SourceDone(src.Name, res.Converted, res.Failed, res.Skipped)
		}
		total.add(res)
	}

	r.Printer.Summary(total.Converted, total.Failed, total.Skipped, r.OutputDir)
	r.logger().Info("run.finished", "tool", string(r.Tool.Name),
		"converted", total.Converted, "failed", total.Failed, "skipped", total.Skipped)
	return total
}

// runSource dispatches on the source kind. counted is false for sources that
// were ignored with a warning and contribute nothing.
func (r *Runner) runSource(ctx context.Context, src types.Source) (BatchResult, bool) {
	switch src.Kind {
	case types.SourceFolder:
		r.Printer.SourceInfo("📁", "folder", src.Name, src.Path)
		return r.runFolder(ctx, src), true
	case types.SourceFile:
		r.Printer.SourceInfo("📄", "file", src.Name, src.Path)
		return r.runItems(ctx, []item{r.fileItem(src)}), true
	case types.SourceURL:
		if !r.Tool.SupportsURL {
			r.Printer.Warn("%s does not support url sources, ignoring %s", r.Tool.Name, src.Path)
			r.logger().Warn("source.ignored", "source", src.Name, "reason", "url sources unsupported")
			return BatchResult{}, false
		}
		r.Printer.SourceInfo("🌐", "url", src.Name, src.Path)
		return r.runItems(ctx, []item{r.urlItem(src)}), true
	default:
		r.Printer.Warn("unknown source kind %q for %s, ignoring", src.Kind, src.Name)
		r.logger().Warn("source.ignored", "source", src.Name, "kind", string(src.Kind))
		return BatchResult{}, false
	}
}

func (r *Runner) runFolder(ctx context.Context, src types.Source) BatchResult {
	files, err := r.listFolder(src)
	if err != nil {
		r.Printer.Failed("folder %s: %v", src.Path, err)
		r.record(types.ItemRecord{
			SourceName: src.Name, SourceKind: src.Kind, Input: src.Path,
			Outcome: types.OutcomeFailed, Error: err.Error(),
		})
		r.logger().Warn("source.failed", "source", src.Name, "error", err)
		return BatchResult{Failed: 1}
	}
	if len(files) == 0 {
		r.Printer.Warn("no supported files in %s", src.Path)
		return BatchResult{}
	}
	r.Printer.Info("found %d file(s)", len(files))

	root := filepath.Clean(src.Path)
	items := make([]item, 0, len(files))
	for _, p := range files {
		p := p
		rel, err := filepath.Rel(root, p)
		if err != nil {
			rel = filepath.Base(p)
		}
		stem := strings.TrimSuffix(rel, filepath.Ext(rel))
		items = append(items, item{
			src:   src,
			input: p,
			label: filepath.ToSlash(rel),
			load:  func(context.Context) (Document, error) { return r.loadFile(p) },
			dest: func(ext string) string {
				return filepath.Join(r.OutputDir, src.Name, stem+ext)
			},
		})
	}
	return r.runItems(ctx, items)
}

// listFolder returns the allow-listed regular files under src in lexical
// order. A missing folder is ErrNotFound. Symlinks to files are followed;
// symlinked directories are not descended into.
func (r *Runner) listFolder(src types.Source) ([]string, error) {
	root := filepath.Clean(src.Path)
	info, err := r.fs().Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, src.Path)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", src.Path)
	}

	var files []string
	if !src.IsRecursive() {
		entries, err := afero.ReadDir(r.fs(), root)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", root, err)
		}
		for _, e := range entries {
			p := filepath.Join(root, e.Name())
			if r.isFile(p, e) && r.Tool.Accepts(filepath.Ext(p)) {
				files = append(files, p)
			}
		}
		return files, nil
	}

	err = afero.Walk(r.fs(), root, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			r.logger().Warn("walk.error", "path", p, "error", err)
			return nil
		}
		if r.isFile(p, info) && r.Tool.Accepts(filepath.Ext(p)) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return files, nil
}

// isFile reports whether p is a regular file, resolving a symlink once.
func (r *Runner) isFile(p string, info fs.FileInfo) bool {
	if info.Mode()&fs.ModeSymlink != 0 {
		target, err := r.fs().Stat(p)
		if err != nil {
			r.logger().Warn("walk.symlink", "path", p, "error", err)
			return false
		}
		info = target
	}
	return info.Mode().IsRegular()
}

func (r *Runner) fileItem(src types.Source) item {
	return item{
		src:   src,
		input: src.Path,
		label: filepath.Base(src.Path),
		load:  func(context.Context) (Document, error) { return r.loadFile(src.Path) },
		dest: func(ext string) string {
			return filepath.Join(r.OutputDir, singleFilesDir, src.Name+ext)
		},
	}
}

func (r *Runner) urlItem(src types.Source) item {
	return item{
		src:   src,
		input: src.Path,
		label: src.Path,
		load:  func(ctx context.Context) (Document, error) { return r.loadURL(ctx, src.Path) },
		dest: func(ext string) string {
			return filepath.Join(r.OutputDir, urlsDir, src.Name+ext)
		},
	}
}

func (r *Runner) runItems(ctx context.Context, items []item) BatchResult {
	var res BatchResult
	for _, it := range items {
		if ctx.Err() != nil {
			break
		}
		switch r.process(ctx, it) {
		case types.OutcomeConverted:
			res.Converted++
		case types.OutcomeSkipped:
			res.Skipped++
		case types.OutcomeFailed:
			res.Failed++
		}
	}
	return res
}

// process loads, converts and writes one item and reports its outcome.
func (r *Runner) process(ctx context.Context, it item) types.Outcome {
	start := r.clock()
	rec := types.ItemRecord{SourceName: it.src.Name, SourceKind: it.src.Kind, Input: it.input}
	finish := func(o types.Outcome, err error) types.Outcome {
		rec.Outcome = o
		rec.Duration = r.clock().Sub(start)
		if err != nil {
			rec.Error = err.Error()
		}
		r.record(rec)
		return o
	}

	doc, err := it.load(ctx)
	if err != nil {
		var tl *TooLargeError
		if errors.As(err, &tl) {
			r.Printer.Skipped(it.label, tl.Size, tl.Limit)
			r.logger().Info("item.skipped", "input", it.input, "size", tl.Size, "limit", tl.Limit)
			if tl.Size > 0 {
				rec.Bytes = tl.Size
			}
			return finish(types.OutcomeSkipped, err)
		}
		r.Printer.Failed("%s: %v", it.label, err)
		r.logger().Warn("item.failed", "input", it.input, "stage", "load", "error", err)
		return finish(types.OutcomeFailed, err)
	}
	rec.Bytes = int64(len(doc.Data))

	r.Printer.Item(it.label)
	out, err := r.Converter.Convert(ctx, doc)
	if err != nil {
		err = fmt.Errorf("converting %s: %w", it.label, err)
		r.Printer.Failed("conversion failed: %v", err)
		r.logger().Warn("item.failed", "input", it.input, "stage", "convert", "error", err)
		return finish(types.OutcomeFailed, err)
	}

	ext := out.Ext
	if ext == "" {
		ext = mdExt
	}
	dest := it.dest(ext)
	content := out.Content
	if r.Frontmatter && ext == mdExt {
		content, err = r.withFrontmatter(it.input, content)
		if err != nil {
			r.Printer.Failed("%s: %v", it.label, err)
			r.logger().Warn("item.failed", "input", it.input, "stage", "frontmatter", "error", err)
			return finish(types.OutcomeFailed, err)
		}
	}

	if err := r.write(dest, content); err != nil {
		r.Printer.Failed("%s: %v", it.label, err)
		r.logger().Warn("item.failed", "input", it.input, "stage", "write", "error", err)
		return finish(types.OutcomeFailed, err)
	}

	rec.OutputPath = dest
	r.Printer.Converted(int64(len(doc.Data)), dest, out.Content)
	r.logger().Info("item.converted", "input", it.input, "output", dest,
		"bytes", len(doc.Data), "chars", len([]rune(out.Content)))
	return finish(types.OutcomeConverted, nil)
}

// ConvertURI loads uri, a path or an http(s) URL, under the same rules as a
// batch item and returns the converted output without writing it.
func (r *Runner) ConvertURI(ctx context.Context, uri string) (Output, error) {
	var (
		doc Document
		err error
	)
	if source.IsURL(uri) {
		if !r.Tool.SupportsURL {
			return Output{}, fmt.Errorf("%s does not support url sources", r.Tool.Name)
		}
		doc, err = r.loadURL(ctx, uri)
	} else {
		doc, err = r.loadFile(uri)
	}
	if err != nil {
		return Output{}, err
	}
	out, err := r.Converter.Convert(ctx, doc)
	if err != nil {
		return Output{}, fmt.Errorf("converting %s: %w", doc.Name, err)
	}
	if out.Ext == "" {
		out.Ext = mdExt
	}
	r.logger().Info("uri.converted", "uri", uri, "bytes", len(doc.Data))
	return out, nil
}

// loadFile reads a local input after checking, in order, that it exists,
// that its extension is allow-listed and that it fits under the ceiling.
func (r *Runner) loadFile(p string) (Document, error) {
	info, err := r.fs().Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Document{}, fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return Document{}, fmt.Errorf("stat %s: %w", p, err)
	}
	if info.IsDir() {
		return Document{}, fmt.Errorf("%w: %s is a directory", ErrNotFound, p)
	}

	ext := strings.ToLower(filepath.Ext(p))
	if !r.Tool.Accepts(ext) {
		return Document{}, fmt.Errorf("%w: %q for %s", ErrUnsupportedFormat, ext, r.Tool.Name)
	}
	if r.MaxFileBytes > 0 && info.Size() > r.MaxFileBytes {
		return Document{}, &TooLargeError{Size: info.Size(), Limit: r.MaxFileBytes}
	}

	data, err := afero.ReadFile(r.fs(), p)
	if err != nil {
		return Document{}, fmt.Errorf("reading %s: %w", p, err)
	}
	return Document{Name: filepath.Base(p), Ext: ext, Data: data}, nil
}

// loadURL downloads a url source under the size ceiling. The document
// extension comes from the URL path when the tool accepts it, otherwise from
// the Content-Type.
func (r *Runner) loadURL(ctx context.Context, rawURL string) (Document, error) {
	if r.Fetcher == nil {
		return Document{}, errors.New("no fetcher configured for url sources")
	}
	dl, err := r.Fetcher.Fetch(ctx, rawURL, r.MaxFileBytes)
	if err != nil {
		var tl *httputil.TooLargeError
		if errors.As(err, &tl) {
			return Document{}, &TooLargeError{Size: tl.Size, Limit: tl.Limit}
		}
		return Document{}, fmt.Errorf("downloading %s: %w", rawURL, err)
	}

	ext := strings.ToLower(path.Ext(dl.Filename))
	if !r.Tool.Accepts(ext) {
		ext = extForContentType(dl.ContentType)
	}
	if !r.Tool.Accepts(ext) {
		return Document{}, fmt.Errorf("%w: content type %q for %s", ErrUnsupportedFormat, dl.ContentType, r.Tool.Name)
	}

	name := dl.Filename
	if name == "" || strings.ToLower(path.Ext(name)) != ext {
		name = strings.TrimSuffix(name, path.Ext(name))
		if name == "" {
			name = "index"
		}
		name += ext
	}
	return Document{Name: name, Ext: ext, Data: dl.Data, SourceURL: rawURL}, nil
}

var contentTypeExts = map[string]string{
	"":                      ".html",
	"text/html":             ".html",
	"application/xhtml+xml": ".html",
	"text/plain":            ".txt",
	"text/csv":              ".csv",
	"text/vtt":              ".vtt",
	"application/pdf":       ".pdf",
	"application/epub+zip":  ".epub",
	"application/rtf":       ".rtf",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   ".docx",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         ".xlsx",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": ".pptx",
	"application/vnd.ms-excel":                        ".xls",
	"application/vnd.oasis.opendocument.text":         ".odt",
	"image/png":                                       ".png",
	"image/jpeg":                                      ".jpg",
	"image/gif":                                       ".gif",
	"image/tiff":                                      ".tiff",
	"image/bmp":                                       ".bmp",
	"audio/mpeg":                                      ".mp3",
	"audio/wav":                                       ".wav",
	"audio/x-wav":                                     ".wav",
	"audio/mp4":                                       ".m4a",
	"video/mp4":                                       ".mp4",
	"video/quicktime":                                 ".mov",
}

func extForContentType(ct string) string {
	return contentTypeExts[strings.ToLower(ct)]
}

type frontmatter struct {
	Source      string `yaml:"source"`
	Tool        string `yaml:"tool"`
	ConvertedAt string `yaml:"converted_at"`
}

func (r *Runner) withFrontmatter(input, body string) (string, error) {
	fm, err := yaml.Marshal(frontmatter{
		Source:      input,
		Tool:        string(r.Tool.Name),
		ConvertedAt: r.clock().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return "", fmt.Errorf("marshaling frontmatter: %w", err)
	}
	return "---\n" + string(fm) + "---\n\n" + body, nil
}

func (r *Runner) write(dest, content string) error {
	if err := r.fs().MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dest), err)
	}
	if err := afero.WriteFile(r.fs(), dest, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	return nil
}

func (r *Runner) record(rec types.ItemRecord) {
	if r.Recorder == nil {
		return
	}
	if err := r.Recorder.Record(rec); err != nil {
		r.logger().Warn("ledger.record", "input", rec.Input, "error", err)
	}
}

func (r *Runner) fs() afero.Fs {
	if r.Fs == nil {
		r.Fs = afero.NewOsFs()
	}
	return r.Fs
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

func (r *Runner) clock() time.Time {
	if r.now == nil {
		return time.Now()
	}
	return r.now()
}
