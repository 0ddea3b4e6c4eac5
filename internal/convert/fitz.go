// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/gen2brain/go-fitz"

	"github.com/pdiddy/mdbatch/pkg/types"
)

const (
	fitzTitle     = "# PDF Content"
	fitzNoContent = "*No text content could be extracted*"
)

// pageReader is the part of *fitz.Document the converter uses.
type pageReader interface {
	NumPage() int
	Text(pageNumber int) (string, error)
	HTML(pageNumber int, header bool) (string, error)
	Close() error
}

var openFitz = func(data []byte) (pageReader, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

var inlineImage = regexp.MustCompile(`!\[[^\]]*\]\(data:image/[^)]+\)`)

// FitzConverter extracts PDF text in-process with MuPDF. Each page with text
// becomes a "## Page N" section.
type FitzConverter struct {
	mode types.TextMode
	html *md.Converter
}

// NewFitzConverter returns a converter using mode; empty means text.
func NewFitzConverter(mode types.TextMode) *FitzConverter {
	if mode == "" {
		mode = types.TextModePlain
	}
	return &FitzConverter{mode: mode, html: md.NewConverter("", true, nil)}
}

// Convert implements Converter.
func (c *FitzConverter) Convert(_ context.Context, doc Document) (Output, error) {
	if doc.Ext != ".pdf" {
		return Output{}, fmt.Errorf("%w: %q is not a pdf", ErrUnsupportedFormat, doc.Ext)
	}

	pdf, err := openFitz(doc.Data)
	if err != nil {
		return Output{}, fmt.Errorf("opening pdf %s: %w", doc.Name, err)
	}
	defer pdf.Close()

	var b strings.Builder
	b.WriteString(fitzTitle + "\n\n")
	pages := 0
	for i := 0; i < pdf.NumPage(); i++ {
		text, err := c.page(pdf, i)
		if err != nil {
			return Output{}, fmt.Errorf("reading page %d of %s: %w", i+1, doc.Name, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		fmt.Fprintf(&b, "## Page %d\n\n%s\n\n", i+1, strings.TrimSpace(text))
		pages++
	}
	if pages == 0 {
		b.WriteString(fitzNoContent + "\n")
	}
	return Output{Content: b.String(), Ext: mdExt}, nil
}

func (c *FitzConverter) page(pdf pageReader, n int) (string, error) {
	switch c.mode {
	case types.TextModeHTML:
		html, err := pdf.HTML(n, false)
		if err != nil {
			return "", err
		}
		text, err := c.html.ConvertString(html)
		if err != nil {
			return "", fmt.Errorf("html to markdown: %w", err)
		}
		return inlineImage.ReplaceAllString(text, ""), nil
	case types.TextModeBlocks:
		text, err := pdf.Text(n)
		if err != nil {
			return "", err
		}
		return blocks(text), nil
	default:
		return pdf.Text(n)
	}
}

// blocks keeps the non-empty paragraphs of text, one per line.
func blocks(text string) string {
	var kept []string
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		if p := strings.TrimSpace(para); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}
