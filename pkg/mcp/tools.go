// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jllopis/agentplate/pkg/resolver"
)

// Tool names.
const (
	ToolResolveTemplate  = "resolve_template"
	ToolValidateTemplate = "validate_template"
)

// ResolverProvider returns the resolver to use for a call. The serve
// command swaps resolvers on config reload, so tools look it up per call.
type ResolverProvider func() *resolver.Resolver

// RegisterResolverTools adds resolve_template and validate_template to s.
func RegisterResolverTools(s *Server, provider ResolverProvider) {
	s.RegisterTool(ToolResolveTemplate,
		"Resolve an agent template file into its execution-ready configuration",
		resolveHandler(provider),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the template file")),
		mcp.WithObject("variables", mcp.Description("Variables interpolated into the prompt and working directory")),
		mcp.WithBoolean("check_variables", mcp.Description("Check variables against the template's validation rules first")),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.RegisterTool(ToolValidateTemplate,
		"Check that a template, its ancestors, fragments and tool configs resolve",
		validateHandler(provider),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the template file")),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func resolveHandler(provider ResolverProvider) ToolHandler {
	return func(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
		path, _ := args["path"].(string)
		if path == "" {
			return mcp.NewToolResultError("path is required"), nil
		}
		vars, _ := args["variables"].(map[string]any)
		r := provider()

		if check, _ := args["check_variables"].(bool); check {
			if err := r.CheckFile(ctx, path, vars); err != nil {
				return errorResult(err), nil
			}
		}

		resolved, err := r.ResolveFile(ctx, path, vars)
		if err != nil {
			return errorResult(err), nil
		}
		out, err := json.MarshalIndent(resolved, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode resolved config: %w", err)
		}
		return mcp.NewToolResultText(string(out)), nil
	}
}

func validateHandler(provider ResolverProvider) ToolHandler {
	return func(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
		path, _ := args["path"].(string)
		if path == "" {
			return mcp.NewToolResultError("path is required"), nil
		}
		resolved, err := provider().ResolveFile(ctx, path, nil)
		if err != nil {
			return errorResult(err), nil
		}
		fingerprint, _ := resolved.Fingerprint()
		return mcp.NewToolResultText(fmt.Sprintf("ok %s (%d tools, fingerprint %s)", path, len(resolved.Tools), fingerprint)), nil
	}
}

// errorResult reports err as a tool error. Resolution errors are rendered
// as JSON so clients can read the code and template name.
func errorResult(err error) *mcp.CallToolResult {
	if data, jerr := json.Marshal(err); jerr == nil && string(data) != "{}" {
		return mcp.NewToolResultError(string(data))
	}
	return mcp.NewToolResultError(err.Error())
}
