// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package mcp exposes registered actions as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jllopis/kairos-weaviate/pkg/core"
	"github.com/jllopis/kairos-weaviate/pkg/telemetry"
)

// Server wraps the mcp-go server.
type Server struct {
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP server.
func NewServer(name, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		mcpServer: server.NewMCPServer(name, version, server.WithToolCapabilities(false)),
		logger:    telemetry.Component(logger, "mcp"),
	}
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// RegisterTool registers a tool with the server.
func (s *Server) RegisterTool(name, description string, schema map[string]any, handler func(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error)) error {
	if schema == nil {
		schema = map[string]any{"type": "object"}
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("tool %q: encode input schema: %w", name, err)
	}
	tool := mcp.NewToolWithRawSchema(name, description, raw)
	s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handler(ctx, request.GetArguments())
	})
	return nil
}

// RegisterActions exposes every action of reg as a tool named after
// ToolName. It returns the tool names in registry order.
func (s *Server) RegisterActions(reg *core.Registry) ([]string, error) {
	var names []string
	for _, action := range reg.Actions() {
		name := ToolName(action)
		var schema map[string]any
		if sc, ok := action.(core.InputSchemer); ok {
			schema = sc.InputSchema()
		}
		if err := s.RegisterTool(name, action.Description(), schema, s.actionHandler(action)); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	s.logger.Debug("registered tools", "count", len(names))
	return names, nil
}

func (s *Server) actionHandler(action core.Action) func(context.Context, map[string]any) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
		var input any
		if len(args) > 0 {
			input = args
		}
		out, err := action.Call(ctx, input)
		if err != nil {
			s.logger.WarnContext(ctx, "tool call failed", "action", action.Name(), "kind", action.Kind(), "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		text, err := json.Marshal(out)
		if err != nil {
			return mcp.NewToolResultErrorFromErr("encode result", err), nil
		}
		return mcp.NewToolResultText(string(text)), nil
	}
}

// ToolName derives the tool name of an action: "weaviate/Docs" registered
// as an indexer becomes "weaviate_index_Docs".
func ToolName(action core.Action) string {
	ns, rest, found := strings.Cut(action.Name(), "/")
	if !found {
		ns, rest = "", ns
	}
	verb := string(action.Kind())
	switch action.Kind() {
	case core.KindIndexer:
		verb = "index"
	case core.KindRetriever:
		verb = "retrieve"
	}
	parts := []string{verb, rest}
	if ns != "" {
		parts = append([]string{ns}, parts...)
	}
	return sanitize(strings.Join(parts, "_"))
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, name)
}

// ServeStdio starts the server on Stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
