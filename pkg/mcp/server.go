// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

// Package mcp exposes template resolution as Model Context Protocol tools.
package mcp

import (
	"context"
	"fmt"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ToolHandler handles a tool call with decoded arguments.
type ToolHandler func(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error)

// Server wraps the mcp-go server.
type Server struct {
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server with tool support.
func NewServer(name, version string) *Server {
	return &Server{
		mcpServer: server.NewMCPServer(name, version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
	}
}

// RegisterTool registers a tool with the server.
func (s *Server) RegisterTool(name, description string, handler ToolHandler, opts ...mcp.ToolOption) {
	tool := mcp.NewTool(name, append([]mcp.ToolOption{mcp.WithDescription(description)}, opts...)...)

	s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		if args == nil {
			args = map[string]any{}
		}
		return handler(ctx, args)
	})
}

// Call invokes a registered tool directly, bypassing the transport.
func (s *Server) Call(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	tool := s.mcpServer.GetTool(name)
	if tool == nil {
		return nil, fmt.Errorf("unknown tool %q", name)
	}
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return tool.Handler(ctx, req)
}

// Tools returns the sorted names of the registered tools.
func (s *Server) Tools() []string {
	tools := s.mcpServer.ListTools()
	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ServeStdio serves the protocol on stdin/stdout until EOF or a signal.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
