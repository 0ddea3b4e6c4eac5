// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
)

// NativeExtensions lists the formats NativeConverter handles in-process.
// Legacy .xls workbooks are not among them; excelize reads OOXML only.
var NativeExtensions = extSet(".html", ".htm", ".csv", ".txt", ".docx", ".xlsx", ".pdf")

// NativeConverter converts common office and text formats with Go
// libraries, no container needed. Formats outside NativeExtensions fail with
// ErrUnsupportedFormat.
type NativeConverter struct {
	html *md.Converter
}

// NewNativeConverter returns a ready converter.
func NewNativeConverter() *NativeConverter {
	return &NativeConverter{html: md.NewConverter("", true, nil)}
}

// Convert implements Converter.
func (c *NativeConverter) Convert(_ context.Context, doc Document) (Output, error) {
	if !NativeExtensions[doc.Ext] {
		return Output{}, fmt.Errorf("%w: %q has no native converter", ErrUnsupportedFormat, doc.Ext)
	}

	var (
		text string
		err  error
	)
	switch doc.Ext {
	case ".html", ".htm":
		text, err = c.html.ConvertString(string(doc.Data))
	case ".csv":
		text, err = csvToMarkdown(doc.Data)
	case ".txt":
		text = string(doc.Data)
	case ".docx":
		text, err = docxToMarkdown(doc.Data)
	case ".xlsx":
		text, err = sheetsToMarkdown(doc.Data)
	case ".pdf":
		text, err = pdfToMarkdown(doc.Data)
	}
	if err != nil {
		return Output{}, fmt.Errorf("converting %s: %w", doc.Name, err)
	}
	return Output{Content: text, Ext: mdExt}, nil
}

func csvToMarkdown(data []byte) (string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return fenced("csv", string(data)), nil
	}
	return markdownTable(records), nil
}

func fenced(lang, body string) string {
	return "```" + lang + "\n" + strings.TrimRight(body, "\n") + "\n```\n"
}

// sheetsToMarkdown renders each non-empty sheet as a level-2 heading
// followed by a table.
func sheetsToMarkdown(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("reading sheet %q: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		b.WriteString("## " + sheet + "\n\n")
		b.WriteString(markdownTable(rows))
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// pdfToMarkdown extracts the embedded text layer; pages are separated by a
// horizontal rule. Scanned PDFs yield empty output.
func pdfToMarkdown(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}

	fonts := make(map[string]*pdf.Font)
	var parts []string
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := p.Font(name)
				fonts[name] = &f
			}
		}
		text, err := p.GetPlainText(fonts)
		if err != nil {
			return "", fmt.Errorf("reading page %d: %w", i, err)
		}
		if t := strings.TrimSpace(text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n---\n\n"), nil
}
