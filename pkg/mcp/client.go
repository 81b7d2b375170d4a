// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	clientName    = "kairos-weaviate-client"
	clientVersion = "0.1.0"

	defaultTimeout = 10 * time.Second
)

// ClientOption customizes the client.
type ClientOption func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// Client is a thin MCP client bound to an in-process Server, used to drive
// the published tools the way a remote host would.
type Client struct {
	mcpClient client.MCPClient
	timeout   time.Duration
}

// NewInProcessClient connects to s without a transport and runs the MCP
// initialize handshake.
func NewInProcessClient(ctx context.Context, s *Server, opts ...ClientOption) (*Client, error) {
	c, err := client.NewInProcessClient(s.mcpServer)
	if err != nil {
		return nil, err
	}
	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("mcp client: start: %w", err)
	}

	out := &Client{mcpClient: c, timeout: defaultTimeout}
	for _, opt := range opts {
		opt(out)
	}

	initCtx, cancel := context.WithTimeout(ctx, out.timeout)
	defer cancel()

	initRequest := mcp.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{
		Name:    clientName,
		Version: clientVersion,
	}
	if _, err := c.Initialize(initCtx, initRequest); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("mcp client: initialize: %w", err)
	}
	return out, nil
}

// ListTools retrieves the tools the server publishes.
func (c *Client) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.mcpClient.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, err
	}
	return resp.Tools, nil
}

// CallTool executes a tool on the server.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return c.mcpClient.CallTool(ctx, req)
}

// Close closes the client connection.
func (c *Client) Close() error {
	return c.mcpClient.Close()
}
