// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used when sources are URLs.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "mdbatch/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries is the number of retries on HTTP 429 (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// ToolName identifies the conversion tool a batch is driven through.
type ToolName string

const (
	ToolDocling    ToolName = "docling"
	ToolMarker     ToolName = "marker"
	ToolMarkitdown ToolName = "markitdown"
	ToolPyMuPDF    ToolName = "pymupdf"
)

// AllTools lists the supported tools in display order.
var AllTools = []ToolName{ToolDocling, ToolMarker, ToolMarkitdown, ToolPyMuPDF}

// Engine selects how a tool is executed.
type Engine string

const (
	// EngineContainer pipes documents through the tool's container image.
	EngineContainer Engine = "container"
	// EngineNative converts in-process with Go libraries.
	EngineNative Engine = "native"
)

// MarkerFormat is the output format produced by marker.
type MarkerFormat string

const (
	MarkerMarkdown MarkerFormat = "markdown"
	MarkerJSON     MarkerFormat = "json"
	MarkerHTML     MarkerFormat = "html"
)

// TextMode selects the pymupdf text extraction strategy.
type TextMode string

const (
	TextModePlain  TextMode = "text"
	TextModeBlocks TextMode = "blocks"
	TextModeHTML   TextMode = "html"
)

// DoclingOptions configures the docling tool.
type DoclingOptions struct {
	Engine Engine `json:"engine" yaml:"engine" mapstructure:"engine"`
	Image  string `json:"image" yaml:"image" mapstructure:"image"`

	// Pipeline names the docling pipeline (e.g. "default", "vlm").
	Pipeline string `json:"pipeline" yaml:"pipeline" mapstructure:"pipeline"`
}

// MarkerOptions configures the marker tool.
type MarkerOptions struct {
	Engine Engine `json:"engine" yaml:"engine" mapstructure:"engine"`
	Image  string `json:"image" yaml:"image" mapstructure:"image"`

	// OutputFormat selects markdown, json, or html output. The output file
	// extension follows the format.
	OutputFormat MarkerFormat `json:"output_format" yaml:"output_format" mapstructure:"output_format"`

	// UseLLM asks marker to refine its output with an LLM. Requires an API
	// key in .secrets/.
	UseLLM bool `json:"use_llm" yaml:"use_llm" mapstructure:"use_llm"`
}

// MarkitdownOptions configures the markitdown tool.
type MarkitdownOptions struct {
	Engine        Engine `json:"engine" yaml:"engine" mapstructure:"engine"`
	Image         string `json:"image" yaml:"image" mapstructure:"image"`
	EnablePlugins bool   `json:"enable_plugins" yaml:"enable_plugins" mapstructure:"enable_plugins"`
}

// PyMuPDFOptions configures the pymupdf tool.
type PyMuPDFOptions struct {
	Engine   Engine   `json:"engine" yaml:"engine" mapstructure:"engine"`
	TextMode TextMode `json:"text_mode" yaml:"text_mode" mapstructure:"text_mode"`
}

// ToolsConfig groups the per-tool options.
type ToolsConfig struct {
	Docling    DoclingOptions    `json:"docling" yaml:"docling" mapstructure:"docling"`
	Marker     MarkerOptions     `json:"marker" yaml:"marker" mapstructure:"marker"`
	Markitdown MarkitdownOptions `json:"markitdown" yaml:"markitdown" mapstructure:"markitdown"`
	PyMuPDF    PyMuPDFOptions    `json:"pymupdf" yaml:"pymupdf" mapstructure:"pymupdf"`
}

// EngineFor returns the configured engine of tool.
func (t ToolsConfig) EngineFor(tool ToolName) Engine {
	switch tool {
	case ToolDocling:
		return t.Docling.Engine
	case ToolMarker:
		return t.Marker.Engine
	case ToolMarkitdown:
		return t.Markitdown.Engine
	case ToolPyMuPDF:
		return t.PyMuPDF.Engine
	}
	return ""
}

// BatchConfig holds everything a conversion run needs.
type BatchConfig struct {
	// OutputRoot is the directory under which <tool>/<output_dir_name>/ is
	// created (default ".").
	OutputRoot string `json:"output_root" yaml:"output_root" mapstructure:"output_root"`

	// OutputDirName is the per-tool output directory name (default "output").
	OutputDirName string `json:"output_dir_name" yaml:"output_dir_name" mapstructure:"output_dir_name"`

	// MaxFileSizeMB is the size ceiling; larger inputs are skipped (default 50).
	MaxFileSizeMB int64 `json:"max_file_size_mb" yaml:"max_file_size_mb" mapstructure:"max_file_size_mb"`

	// Frontmatter prepends YAML frontmatter to Markdown output.
	Frontmatter bool `json:"frontmatter" yaml:"frontmatter" mapstructure:"frontmatter"`

	// Ledger enables the sqlite run history under <output_root>/.mdbatch/.
	Ledger bool `json:"ledger" yaml:"ledger" mapstructure:"ledger"`

	HTTP    HTTPConfig  `json:"http" yaml:"http" mapstructure:"http"`
	Tools   ToolsConfig `json:"tools" yaml:"tools" mapstructure:"tools"`
	Sources []Source    `json:"sources" yaml:"sources" mapstructure:"sources"`
}

// MaxFileBytes returns the size ceiling in bytes.
func (c BatchConfig) MaxFileBytes() int64 {
	return c.MaxFileSizeMB << 20
}
