// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/pdiddy/mdbatch/internal/container"
	"github.com/pdiddy/mdbatch/internal/secrets"
	"github.com/pdiddy/mdbatch/pkg/types"
)

// ErrNoRuntime is returned when a container engine is selected without a
// container runtime.
var ErrNoRuntime = errors.New("container runtime required")

// Options carries what NewConverter needs beyond the tool name.
type Options struct {
	Tools types.ToolsConfig
	// Runtime is required for the container engine only.
	Runtime container.Runtime
	// Secrets are the loaded .secrets/ files; LLM keys are forwarded to
	// marker when use_llm is set.
	Secrets map[string]string
}

// NewConverter builds the converter for tool under its configured engine.
func NewConverter(tool types.ToolName, opts Options) (Converter, error) {
	engine := opts.Tools.EngineFor(tool)
	if engine == types.EngineNative {
		switch tool {
		case types.ToolPyMuPDF:
			return NewFitzConverter(opts.Tools.PyMuPDF.TextMode), nil
		case types.ToolMarkitdown:
			return NewNativeConverter(), nil
		}
		return nil, fmt.Errorf("%s has no native engine", tool)
	}

	image, env, err := containerSettings(tool, opts)
	if err != nil {
		return nil, err
	}
	if opts.Runtime == nil {
		return nil, fmt.Errorf("%s: %w", tool, ErrNoRuntime)
	}
	return NewContainerConverter(opts.Runtime, image, env, OutputExt(tool, opts.Tools))
}

// Describe returns a one-line description of how tool will run.
func Describe(tool types.ToolName, cfg types.ToolsConfig) string {
	engine := cfg.EngineFor(tool)
	if engine == types.EngineNative {
		return fmt.Sprintf("engine: native (%s)", tool)
	}
	image, _, _ := containerSettings(tool, Options{Tools: cfg})
	return fmt.Sprintf("engine: container (%s)", image)
}

func containerSettings(tool types.ToolName, opts Options) (string, map[string]string, error) {
	cfg := opts.Tools
	switch tool {
	case types.ToolDocling:
		return cfg.Docling.Image, map[string]string{EnvPipeline: cfg.Docling.Pipeline}, nil
	case types.ToolMarker:
		env := map[string]string{
			EnvOutputFormat: string(cfg.Marker.OutputFormat),
			EnvUseLLM:       strconv.FormatBool(cfg.Marker.UseLLM),
		}
		if cfg.Marker.UseLLM {
			keys := secrets.Env(opts.Secrets, secrets.LLMEnv)
			if len(keys) == 0 && opts.Secrets != nil {
				return "", nil, errors.New("marker use_llm needs an API key in .secrets/ (gemini-api-key, openai-api-key or claude-api-key)")
			}
			for k, v := range keys {
				env[k] = v
			}
		}
		return cfg.Marker.Image, env, nil
	case types.ToolMarkitdown:
		return cfg.Markitdown.Image, map[string]string{
			EnvEnablePlugins: strconv.FormatBool(cfg.Markitdown.EnablePlugins),
		}, nil
	}
	return "", nil, fmt.Errorf("%s has no container image", tool)
}
