// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report prints batch progress and summaries to the console.
package report

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

const (
	previewLines = 3
	previewRunes = 100
)

var (
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	skipStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	headerStyle = lipgloss.NewStyle().Bold(true)
)

// Printer writes human-readable progress lines to w. A nil *Printer or one
// with a nil writer prints nothing.
type Printer struct {
	w io.Writer
}

// New returns a Printer on w.
func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) printf(format string, args ...any) {
	if p == nil || p.w == nil {
		return
	}
	fmt.Fprintf(p.w, format, args...)
}

// Start announces the tool and the output directory.
func (p *Printer) Start(tool, outputDir string) {
	p.printf("%s\n", headerStyle.Render(fmt.Sprintf("🚀 %s batch conversion", tool)))
	p.printf("%s\n", strings.Repeat("=", 50))
	p.printf("📁 output directory: %s\n", outputDir)
}

// Info prints a neutral setup line, such as the converter in use.
func (p *Printer) Info(format string, args ...any) {
	p.printf("📋 "+format+"\n", args...)
}

// Sources announces how many sources are about to be processed.
func (p *Printer) Sources(n int) {
	p.printf("\n🔄 converting from %d source(s)\n", n)
}

// SourceInfo prints the origin of the source about to be processed.
func (p *Printer) SourceInfo(icon, kind, name, path string) {
	p.printf("\n%s processing %s source: %s (%s)\n", icon, kind, name, path)
}

// Item opens the block of one file.
func (p *Printer) Item(rel string) {
	p.printf("\n--- converting: %s ---\n", rel)
}

// Skipped reports a file over the size ceiling. size < 0 means unknown.
func (p *Printer) Skipped(rel string, size, limitBytes int64) {
	p.printf("\n%s\n", skipStyle.Render(fmt.Sprintf("--- skipping large file: %s ---", rel)))
	if size < 0 {
		p.printf("📄 file size: over the %d MB limit\n", limitBytes>>20)
		return
	}
	p.printf("📄 file size: %.1f MB (limit %d MB)\n", float64(size)/(1<<20), limitBytes>>20)
}

// Failed reports a failed item or source.
func (p *Printer) Failed(format string, args ...any) {
	p.printf("%s\n", failStyle.Render("❌ "+fmt.Sprintf(format, args...)))
}

// Warn reports something ignored without affecting the counters.
func (p *Printer) Warn(format string, args ...any) {
	p.printf("%s\n", skipStyle.Render("⚠️  "+fmt.Sprintf(format, args...)))
}

// Converted reports a successful conversion. inputBytes < 0 omits the size.
func (p *Printer) Converted(inputBytes int64, outPath, content string) {
	p.printf("%s\n", okStyle.Render("✅ converted"))
	if inputBytes >= 0 {
		p.printf("📄 input size: %d bytes\n", inputBytes)
	}
	p.printf("📂 output: %s\n", outPath)
	if strings.TrimSpace(content) == "" {
		p.printf("📊 content: empty\n")
		return
	}
	p.printf("📊 content length: %d characters\n", utf8.RuneCountInString(content))
	p.printf("📋 preview: %s\n", Preview(content))
}

// SourceDone prints the counters of one source.
func (p *Printer) SourceDone(name string, converted, failed, skipped int) {
	p.printf("source %s done: ✅%d ❌%d ⏭️%d\n", name, converted, failed, skipped)
}

// Summary prints the overall counters.
func (p *Printer) Summary(converted, failed, skipped int, outputDir string) {
	p.printf("\n%s\n", strings.Repeat("=", 50))
	p.printf("%s\n", headerStyle.Render("🎉 batch conversion finished"))
	p.printf("📊 total processed: %d file(s)\n", converted+failed+skipped)
	p.printf("   %s\n", okStyle.Render(fmt.Sprintf("✅ converted: %d", converted)))
	p.printf("   %s\n", failStyle.Render(fmt.Sprintf("❌ failed:    %d", failed)))
	p.printf("   %s\n", skipStyle.Render(fmt.Sprintf("⏭️  skipped:   %d (over size limit)", skipped)))
	p.printf("\n💡 output directory: %s\n", outputDir)
}

// Preview returns the first three lines of the trimmed content, cut at 100
// characters with a trailing "...".
func Preview(content string) string {
	trimmed := strings.TrimSpace(content)
	lines := strings.SplitN(trimmed, "\n", previewLines+1)
	if len(lines) > previewLines {
		lines = lines[:previewLines]
	}
	preview := strings.Join(lines, "\n")
	if utf8.RuneCountInString(preview) > previewRunes {
		preview = string([]rune(preview)[:previewRunes]) + "..."
	}
	return preview
}
