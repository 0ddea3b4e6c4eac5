// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert runs batch document-to-Markdown conversions. A Runner walks
// the configured sources, filters inputs by the tool's extension allow-list
// and the size ceiling, hands each document to a Converter and writes the
// result into a mirrored output tree.
package convert

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors classify why an input could not be loaded. ErrTooLarge
// counts as skipped; everything else counts as failed.
var (
	ErrNotFound          = errors.New("path not found")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrTooLarge          = errors.New("input exceeds size limit")
)

// TooLargeError reports an input over the size ceiling. Size is -1 when the
// input is a stream whose length was unknown.
type TooLargeError struct {
	Size  int64
	Limit int64
}

func (e *TooLargeError) Error() string {
	if e.Size < 0 {
		return fmt.Sprintf("input exceeds %d bytes", e.Limit)
	}
	return fmt.Sprintf("input is %d bytes (limit %d)", e.Size, e.Limit)
}

func (e *TooLargeError) Is(target error) bool { return target == ErrTooLarge }

// Document is one input handed to a Converter.
type Document struct {
	// Name is the input's base file name (e.g. "report.pdf").
	Name string
	// Ext is the lower-cased extension with its dot (e.g. ".pdf").
	Ext  string
	Data []byte
	// SourceURL is set for documents downloaded from a url source.
	SourceURL string
}

// Output is the converted text and the extension it should be written with.
type Output struct {
	Content string
	// Ext is the output file extension with its dot, normally ".md".
	Ext string
}

// Converter transforms one document. Backends are container images
// (docling, marker, markitdown) or in-process Go libraries (pymupdf via
// MuPDF, markitdown native).
type Converter interface {
	Convert(ctx context.Context, doc Document) (Output, error)
}

// ConverterFunc adapts a function to Converter.
type ConverterFunc func(ctx context.Context, doc Document) (Output, error)

// Convert calls f.
func (f ConverterFunc) Convert(ctx context.Context, doc Document) (Output, error) {
	return f(ctx, doc)
}

// BatchResult holds the outcome counters of a batch conversion run.
type BatchResult struct {
	Converted int
	Failed    int
	Skipped   int
}

// Total returns the number of items processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Failed + r.Skipped
}

// HasFailures reports whether any item failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

func (r *BatchResult) add(o BatchResult) {
	r.Converted += o.Converted
	r.Failed += o.Failed
	r.Skipped += o.Skipped
}
