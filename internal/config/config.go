// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config turns viper settings into a validated types.BatchConfig.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/mdbatch/pkg/types"
)

// Viper keys shared with the CLI flag bindings.
const (
	KeyOutputRoot    = "output_root"
	KeyOutputDirName = "output_dir_name"
	KeyMaxFileSizeMB = "max_file_size_mb"
	KeyFrontmatter   = "frontmatter"
	KeyLedger        = "ledger"
	KeySources       = "sources"
)

const (
	// DefaultMaxFileSizeMB is the size ceiling above which inputs are skipped.
	DefaultMaxFileSizeMB = 50
	// DefaultOutputDirName is the per-tool output directory.
	DefaultOutputDirName = "output"
	// DefaultUserAgent is sent with URL downloads.
	DefaultUserAgent = "mdbatch/0.1"
)

// ErrInvalid marks configuration errors.
var ErrInvalid = errors.New("invalid config")

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyOutputRoot, ".")
	v.SetDefault(KeyOutputDirName, DefaultOutputDirName)
	v.SetDefault(KeyMaxFileSizeMB, DefaultMaxFileSizeMB)
	v.SetDefault(KeyFrontmatter, false)
	v.SetDefault(KeyLedger, true)

	v.SetDefault("http.timeout", 60*time.Second)
	v.SetDefault("http.user_agent", DefaultUserAgent)
	v.SetDefault("http.max_retries", 3)

	v.SetDefault("tools.docling.engine", string(types.EngineContainer))
	v.SetDefault("tools.docling.image", "docling:latest")
	v.SetDefault("tools.docling.pipeline", "default")

	v.SetDefault("tools.marker.engine", string(types.EngineContainer))
	v.SetDefault("tools.marker.image", "marker:latest")
	v.SetDefault("tools.marker.output_format", string(types.MarkerMarkdown))
	v.SetDefault("tools.marker.use_llm", false)

	v.SetDefault("tools.markitdown.engine", string(types.EngineNative))
	v.SetDefault("tools.markitdown.image", "markitdown:latest")
	v.SetDefault("tools.markitdown.enable_plugins", false)

	v.SetDefault("tools.pymupdf.engine", string(types.EngineNative))
	v.SetDefault("tools.pymupdf.text_mode", string(types.TextModePlain))
}

// Load reads the batch configuration out of v. Defaults must already be
// registered with SetDefaults. Sources are returned as configured; callers
// add CLI or file sources and normalize them.
func Load(v *viper.Viper) (types.BatchConfig, error) {
	var cfg types.BatchConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func Validate(cfg types.BatchConfig) error {
	if cfg.MaxFileSizeMB <= 0 {
		return fmt.Errorf("%w: max_file_size_mb must be positive, got %d", ErrInvalid, cfg.MaxFileSizeMB)
	}
	if cfg.OutputDirName == "" {
		return fmt.Errorf("%w: output_dir_name is empty", ErrInvalid)
	}
	if cfg.HTTP.Timeout < 0 {
		return fmt.Errorf("%w: http.timeout must not be negative", ErrInvalid)
	}

	t := cfg.Tools
	for _, check := range []struct {
		tool    types.ToolName
		engine  types.Engine
		allowed []types.Engine
	}{
		{types.ToolDocling, t.Docling.Engine, []types.Engine{types.EngineContainer}},
		{types.ToolMarker, t.Marker.Engine, []types.Engine{types.EngineContainer}},
		{types.ToolMarkitdown, t.Markitdown.Engine, []types.Engine{types.EngineNative, types.EngineContainer}},
		{types.ToolPyMuPDF, t.PyMuPDF.Engine, []types.Engine{types.EngineNative}},
	} {
		if !containsEngine(check.allowed, check.engine) {
			return fmt.Errorf("%w: tools.%s.engine %q not supported (allowed: %v)", ErrInvalid, check.tool, check.engine, check.allowed)
		}
	}

	switch t.Marker.OutputFormat {
	case types.MarkerMarkdown, types.MarkerJSON, types.MarkerHTML:
	default:
		return fmt.Errorf("%w: tools.marker.output_format %q (expected markdown, json, or html)", ErrInvalid, t.Marker.OutputFormat)
	}

	switch t.PyMuPDF.TextMode {
	case types.TextModePlain, types.TextModeBlocks, types.TextModeHTML:
	default:
		return fmt.Errorf("%w: tools.pymupdf.text_mode %q (expected text, blocks, or html)", ErrInvalid, t.PyMuPDF.TextMode)
	}
	return nil
}

// ParseTool validates a tool name given on the command line.
func ParseTool(name string) (types.ToolName, error) {
	for _, t := range types.AllTools {
		if string(t) == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tool %q (expected one of %v)", name, types.AllTools)
}

func containsEngine(list []types.Engine, e types.Engine) bool {
	for _, x := range list {
		if x == e {
			return true
		}
	}
	return false
}
