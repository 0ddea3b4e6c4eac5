// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mcpserver exposes one conversion tool over the Model Context
// Protocol on stdio. Documents are converted in memory; nothing is written
// to the output tree.
package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/pdiddy/mdbatch/internal/convert"
)

const (
	serverName = "mdbatch"

	toolConvert = "convert_document"
	toolInfo    = "get_conversion_info"

	argURI = "uri"
)

// URIConverter converts a path or URL. *convert.Runner implements it.
type URIConverter interface {
	ConvertURI(ctx context.Context, uri string) (convert.Output, error)
}

// Server wraps an MCP server bound to one tool.
type Server struct {
	tool convert.Tool
	conv URIConverter
	info string
	mcp  *server.MCPServer
}

// New builds the server and registers its tools. engine is a one-line
// description of how the tool runs, reported by get_conversion_info.
func New(tool convert.Tool, conv URIConverter, engine, version string) *Server {
	s := &Server{
		tool: tool,
		conv: conv,
		info: engine,
		mcp:  server.NewMCPServer(serverName, version),
	}
	s.register()
	return s
}

// ServeStdio blocks serving requests on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) register() {
	s.mcp.AddTool(
		mcp.NewTool(toolConvert,
			mcp.WithDescription(fmt.Sprintf("Convert a document to Markdown with %s. "+
				"Pass a file path or an http:// / https:// URL. Supported extensions: %s.",
				s.tool.Name, strings.Join(s.tool.SortedExtensions(), " "))),
			mcp.WithString(argURI,
				mcp.Required(),
				mcp.Description("File path or http/https URL to convert"),
			),
		),
		s.handleConvert,
	)

	s.mcp.AddTool(
		mcp.NewTool(toolInfo,
			mcp.WithDescription("Return the active tool, its engine and the supported file extensions."),
		),
		s.handleInfo,
	)
}

func (s *Server) handleConvert(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uri, ok := req.Params.Arguments[argURI].(string)
	if !ok || strings.TrimSpace(uri) == "" {
		return mcp.NewToolResultError(argURI + " is required"), nil
	}
	out, err := s.conv.ConvertURI(ctx, uri)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(out.Content), nil
}

func (s *Server) handleInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "tool: %s\n", s.tool.Name)
	fmt.Fprintf(&b, "%s\n", s.info)
	fmt.Fprintf(&b, "url sources: %t\n", s.tool.SupportsURL)
	fmt.Fprintf(&b, "extensions: %s\n", strings.Join(s.tool.SortedExtensions(), " "))
	return mcp.NewToolResultText(b.String()), nil
}
