// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jllopis/agentplate/pkg/template"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadTemplateFormats(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"agent.yaml": `
metadata:
  name: reviewer
  version: 1.0.0
agent:
  prompt: Review the code.
  tools: [Read, {name: Write, config: tools/write.yaml}]
`,
		"agent.jsonc": `{
	// comments are allowed
	"metadata": {"name": "reviewer", "version": "1.0.0"},
	"agent": {
		"prompt": "Review the code.",
		"tools": ["Read", {"name": "Write", "config": "tools/write.yaml"}],
	},
}`,
		"agent.toml": `
[metadata]
name = "reviewer"
version = "1.0.0"

[agent]
prompt = "Review the code."
tools = ["Read", { name = "Write", config = "tools/write.yaml" }]
`,
		"agent.tmpl": `{"metadata": {"name": "reviewer", "version": "1.0.0"}, "agent": {"prompt": "Review the code.", "tools": ["Read", {"name": "Write", "config": "tools/write.yaml"}]}}`,
	}

	l := NewFileLoader()
	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, dir, name, content)
			tmpl, err := l.LoadTemplate(context.Background(), path)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if tmpl.Metadata.Name != "reviewer" || tmpl.Agent.Prompt != "Review the code." {
				t.Errorf("unexpected template %+v", tmpl)
			}
			if len(tmpl.Agent.Tools) != 2 || tmpl.Agent.Tools[1].Config != "tools/write.yaml" {
				t.Errorf("unexpected tools %+v", tmpl.Agent.Tools)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	l := NewFileLoader()
	ctx := context.Background()

	if _, err := l.LoadTemplate(ctx, filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	empty := writeFile(t, dir, "empty.yaml", "  \n")
	if _, err := l.LoadTemplate(ctx, empty); err == nil {
		t.Error("expected error for empty file")
	}
	bad := writeFile(t, dir, "bad.yaml", "metadata: [unclosed\n")
	if _, err := l.LoadTemplate(ctx, bad); err == nil {
		t.Error("expected error for malformed yaml")
	}
	nameless := writeFile(t, dir, "nameless.yaml", "agent:\n  prompt: hi\n")
	if _, err := l.LoadTemplate(ctx, nameless); err == nil {
		t.Error("expected error for template without name")
	}
	if _, err := l.LoadTemplate(ctx, ""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestLoadFragmentAndToolConfig(t *testing.T) {
	dir := t.TempDir()
	l := NewFileLoader()
	ctx := context.Background()

	fragPath := writeFile(t, dir, "safety.yaml", `
fragment:
  name: safety
  instructions: Never delete files.
  safetyChecks: [no-rm]
`)
	frag, err := l.LoadFragment(ctx, fragPath)
	if err != nil {
		t.Fatalf("load fragment: %v", err)
	}
	if frag.Fragment.Instructions != "Never delete files." || len(frag.Fragment.SafetyChecks) != 1 {
		t.Errorf("unexpected fragment %+v", frag)
	}

	toolPath := writeFile(t, dir, "write.json", `{"tool": {"name": "Write", "permissions": {"requireConfirmation": true}}}`)
	cfg, err := l.LoadToolConfig(ctx, toolPath)
	if err != nil {
		t.Fatalf("load tool config: %v", err)
	}
	if cfg.Tool.Permissions["requireConfirmation"] != true {
		t.Errorf("unexpected tool config %+v", cfg)
	}

	noName := writeFile(t, dir, "noname.yaml", "tool:\n  permissions: {}\n")
	if _, err := l.LoadToolConfig(ctx, noName); err == nil {
		t.Error("expected error for tool config without name")
	}
}

func TestLoadRespectsCancelledContext(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.yaml", "metadata:\n  name: a\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewFileLoader().LoadTemplate(ctx, path); err == nil {
		t.Fatal("expected context error")
	}
}

type countingLoader struct {
	Loader
	templates int
}

func (c *countingLoader) LoadTemplate(ctx context.Context, path string) (*template.AgentTemplate, error) {
	c.templates++
	return c.Loader.LoadTemplate(ctx, path)
}

func TestCachingLoader(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.yaml", "metadata:\n  name: a\nagent:\n  prompt: p\n  tools: [Read]\n")

	counter := &countingLoader{Loader: NewFileLoader()}
	cached, err := NewCachingLoader(counter, 0)
	if err != nil {
		t.Fatalf("new caching loader: %v", err)
	}
	ctx := context.Background()

	first, err := cached.LoadTemplate(ctx, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	first.Agent.Prompt = "mutated"
	first.Agent.Tools[0].Name = "Mutated"

	second, err := cached.LoadTemplate(ctx, filepath.Join(dir, ".", "a.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if counter.templates != 1 {
		t.Errorf("expected one underlying load, got %d", counter.templates)
	}
	if second.Agent.Prompt != "p" || second.Agent.Tools[0].Name != "Read" {
		t.Errorf("cache returned shared state: %+v", second)
	}

	cached.Purge()
	if cached.Len() != 0 {
		t.Errorf("expected empty cache after purge")
	}
	if _, err := cached.LoadTemplate(ctx, path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if counter.templates != 2 {
		t.Errorf("expected reload after purge, got %d loads", counter.templates)
	}
}

func TestCachingLoaderReloadsChangedFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.yaml", "metadata:\n  name: a\nagent:\n  prompt: OLD\n")

	counter := &countingLoader{Loader: NewFileLoader()}
	cached, err := NewCachingLoader(counter, 0)
	if err != nil {
		t.Fatalf("new caching loader: %v", err)
	}
	ctx := context.Background()

	if _, err := cached.LoadTemplate(ctx, path); err != nil {
		t.Fatalf("load: %v", err)
	}
	writeFile(t, dir, "a.yaml", "metadata:\n  name: a\nagent:\n  prompt: NEW\n")
	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	got, err := cached.LoadTemplate(ctx, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Agent.Prompt != "NEW" {
		t.Errorf("prompt = %q, want NEW", got.Agent.Prompt)
	}
	if counter.templates != 2 {
		t.Errorf("expected a reload after the change, got %d loads", counter.templates)
	}

	if _, err := cached.LoadTemplate(ctx, path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if counter.templates != 2 {
		t.Errorf("unchanged file was reloaded, got %d loads", counter.templates)
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := cached.LoadTemplate(ctx, path); err == nil {
		t.Error("expected error after the file was removed")
	}
}
