// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/mdbatch/pkg/types"
)

const mdExt = ".md"

// Tool is the static profile of a conversion tool: which inputs it accepts
// and whether it can take URL sources.
type Tool struct {
	Name        types.ToolName
	Extensions  map[string]bool
	SupportsURL bool
	// Description is shown by the tools command.
	Description string
}

// Accepts reports whether ext (any case, with dot) is allow-listed.
func (t Tool) Accepts(ext string) bool {
	return t.Extensions[strings.ToLower(ext)]
}

// SortedExtensions returns the allow-list in lexical order.
func (t Tool) SortedExtensions() []string {
	out := make([]string, 0, len(t.Extensions))
	for ext := range t.Extensions {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

func extSet(exts ...string) map[string]bool {
	m := make(map[string]bool, len(exts))
	for _, e := range exts {
		m[e] = true
	}
	return m
}

var tools = map[types.ToolName]Tool{
	types.ToolDocling: {
		Name: types.ToolDocling,
		Extensions: extSet(".pdf", ".docx", ".pptx", ".xlsx", ".xls", ".html", ".htm",
			".txt", ".csv", ".jpg", ".jpeg", ".png", ".tiff", ".bmp", ".wav", ".mp3", ".m4a", ".vtt"),
		SupportsURL: true,
		Description: "layout-aware conversion of office documents, images and audio",
	},
	types.ToolMarker: {
		Name: types.ToolMarker,
		Extensions: extSet(".pdf", ".docx", ".pptx", ".xlsx", ".xls", ".html", ".htm",
			".epub", ".png", ".jpg", ".jpeg", ".tiff", ".bmp", ".gif"),
		SupportsURL: true,
		Description: "high-accuracy PDF conversion with markdown, json or html output",
	},
	types.ToolMarkitdown: {
		Name: types.ToolMarkitdown,
		Extensions: extSet(".pdf", ".docx", ".xlsx", ".xls", ".txt", ".csv", ".html", ".htm",
			".epub", ".rtf", ".odt", ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff",
			".wav", ".mp3", ".m4a", ".mp4", ".mov", ".avi"),
		SupportsURL: true,
		Description: "general-purpose conversion of office, text and media files",
	},
	types.ToolPyMuPDF: {
		Name:        types.ToolPyMuPDF,
		Extensions:  extSet(".pdf"),
		SupportsURL: false,
		Description: "fast PDF text extraction",
	},
}

// LookupTool returns the profile of name.
func LookupTool(name types.ToolName) (Tool, error) {
	t, ok := tools[name]
	if !ok {
		return Tool{}, fmt.Errorf("unknown tool %q", name)
	}
	return t, nil
}

// OutputExt returns the output file extension a tool produces under cfg.
// Only marker varies: its json and html formats keep their own extension.
func OutputExt(name types.ToolName, cfg types.ToolsConfig) string {
	if name == types.ToolMarker {
		switch cfg.Marker.OutputFormat {
		case types.MarkerJSON:
			return ".json"
		case types.MarkerHTML:
			return ".html"
		}
	}
	return mdExt
}
