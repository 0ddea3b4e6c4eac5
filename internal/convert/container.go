// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/mdbatch/internal/container"
)

// Environment variables read by the tool images' entrypoints.
const (
	EnvExt           = "MDBATCH_EXT"
	EnvPipeline      = "MDBATCH_PIPELINE"
	EnvOutputFormat  = "MDBATCH_OUTPUT_FORMAT"
	EnvUseLLM        = "MDBATCH_USE_LLM"
	EnvEnablePlugins = "MDBATCH_ENABLE_PLUGINS"
	EnvSourceURL     = "MDBATCH_SOURCE_URL"
)

// ContainerConverter pipes documents through a tool image. The image reads
// the document on stdin and writes the converted text to stdout. It depends
// on a container.Runtime (docker or podman) injected at construction time.
type ContainerConverter struct {
	runtime container.Runtime
	image   string
	env     map[string]string
	ext     string
}

// NewContainerConverter creates a converter for image. env holds the tool
// options and API keys passed to every run; ext is the output extension.
// It verifies that the image exists locally before returning.
func NewContainerConverter(rt container.Runtime, image string, env map[string]string, ext string) (*ContainerConverter, error) {
	if err := rt.ImageExists(image); err != nil {
		return nil, fmt.Errorf("%s image not available in %s: %w", image, rt.Name(), err)
	}
	if ext == "" {
		ext = mdExt
	}
	copied := make(map[string]string, len(env))
	for k, v := range env {
		copied[k] = v
	}
	return &ContainerConverter{runtime: rt, image: image, env: copied, ext: ext}, nil
}

// Image returns the image the converter runs.
func (c *ContainerConverter) Image() string { return c.image }

// Convert runs one container for doc and returns its stdout.
func (c *ContainerConverter) Convert(ctx context.Context, doc Document) (Output, error) {
	env := make(map[string]string, len(c.env)+2)
	for k, v := range c.env {
		env[k] = v
	}
	env[EnvExt] = doc.Ext
	if doc.SourceURL != "" {
		env[EnvSourceURL] = doc.SourceURL
	}

	var out bytes.Buffer
	if err := c.runtime.Run(ctx, c.image, env, bytes.NewReader(doc.Data), &out); err != nil {
		return Output{}, fmt.Errorf("converting %s with %s: %w", doc.Name, c.image, err)
	}

	if strings.TrimSpace(out.String()) == "" {
		return Output{}, fmt.Errorf("%s produced empty output for %s", c.image, doc.Name)
	}

	return Output{Content: out.String(), Ext: c.ext}, nil
}
