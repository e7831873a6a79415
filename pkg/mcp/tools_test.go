// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jllopis/agentplate/pkg/loader"
	"github.com/jllopis/agentplate/pkg/resolver"
	"github.com/jllopis/agentplate/pkg/template"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"base.yaml": "metadata:\n  name: base\nagent:\n  prompt: Base.\n  tools: [Read]\n",
		"greeter.yaml": `metadata:
  name: greeter
  version: 2.0.0
  extends: base.yaml
agent:
  prompt: Hello {{name}}
validation:
  required: [name]
`,
		"broken.yaml": "metadata:\n  name: broken\n  extends: missing.yaml\nagent:\n  prompt: x\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	r, err := resolver.New(loader.NewFileLoader(),
		resolver.WithWorkingDirectory(dir),
		resolver.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	s := NewServer("agentplate-test", "v0.0.0")
	RegisterResolverTools(s, func() *resolver.Resolver { return r })
	return s, dir
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatalf("empty result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content %T", res.Content[0])
	}
	return text.Text
}

func TestRegisterResolverTools(t *testing.T) {
	s, _ := newTestServer(t)
	names := s.Tools()
	if len(names) != 2 || names[0] != ToolResolveTemplate || names[1] != ToolValidateTemplate {
		t.Errorf("tools = %v", names)
	}
}

func TestToolsSorted(t *testing.T) {
	s := NewServer("test", "0.0.0")
	noop := func(context.Context, map[string]any) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("ok"), nil
	}
	for _, name := range []string{"zeta", "alpha", "mu", "beta"} {
		s.RegisterTool(name, name, noop)
	}
	for i := 0; i < 5; i++ {
		if got := s.Tools(); !slices.Equal(got, []string{"alpha", "beta", "mu", "zeta"}) {
			t.Fatalf("tools = %v", got)
		}
	}
}

func TestResolveTemplateTool(t *testing.T) {
	s, dir := newTestServer(t)
	res, err := s.Call(context.Background(), ToolResolveTemplate, map[string]any{
		"path":      filepath.Join(dir, "greeter.yaml"),
		"variables": map[string]any{"name": "World"},
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}
	var resolved template.ResolvedAgentConfig
	if err := json.Unmarshal([]byte(resultText(t, res)), &resolved); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resolved.Prompt != "Base.\n\nHello World" || len(resolved.Tools) != 1 {
		t.Errorf("unexpected resolved config %+v", resolved)
	}
}

func TestResolveTemplateToolChecksVariables(t *testing.T) {
	s, dir := newTestServer(t)
	res, err := s.Call(context.Background(), ToolResolveTemplate, map[string]any{
		"path":            filepath.Join(dir, "greeter.yaml"),
		"check_variables": true,
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if !res.IsError || !strings.Contains(resultText(t, res), "INVALID_INPUT") {
		t.Errorf("expected INVALID_INPUT tool error, got %+v", res)
	}
}

func TestResolveTemplateToolErrors(t *testing.T) {
	s, dir := newTestServer(t)
	ctx := context.Background()

	res, err := s.Call(ctx, ToolResolveTemplate, map[string]any{})
	if err != nil || !res.IsError {
		t.Errorf("expected tool error for missing path, got %+v, %v", res, err)
	}

	res, err = s.Call(ctx, ToolResolveTemplate, map[string]any{"path": filepath.Join(dir, "broken.yaml")})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	text := resultText(t, res)
	if !res.IsError || !strings.Contains(text, `"code":"NOT_FOUND"`) || !strings.Contains(text, `"template":"broken"`) {
		t.Errorf("unexpected error result %s", text)
	}
}

func TestValidateTemplateTool(t *testing.T) {
	s, dir := newTestServer(t)
	ctx := context.Background()

	res, err := s.Call(ctx, ToolValidateTemplate, map[string]any{"path": filepath.Join(dir, "greeter.yaml")})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if res.IsError || !strings.HasPrefix(resultText(t, res), "ok ") {
		t.Errorf("unexpected result %s", resultText(t, res))
	}

	res, err = s.Call(ctx, ToolValidateTemplate, map[string]any{"path": filepath.Join(dir, "broken.yaml")})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if !res.IsError {
		t.Errorf("expected tool error for broken template")
	}
}

func TestCallUnknownTool(t *testing.T) {
	s, _ := newTestServer(t)
	if _, err := s.Call(context.Background(), "nope", nil); err == nil {
		t.Error("expected error for unknown tool")
	}
}
