// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/jllopis/agentplate/pkg/template"
)

// memLoader serves files from memory, keyed by cleaned path.
type memLoader struct {
	templates   map[string]*template.AgentTemplate
	fragments   map[string]*template.PromptFragment
	toolConfigs map[string]*template.ToolConfig

	mu    sync.Mutex
	loads map[string]int
}

func newMemLoader() *memLoader {
	return &memLoader{
		templates:   map[string]*template.AgentTemplate{},
		fragments:   map[string]*template.PromptFragment{},
		toolConfigs: map[string]*template.ToolConfig{},
		loads:       map[string]int{},
	}
}

func (m *memLoader) addTemplate(path string, t *template.AgentTemplate) *memLoader {
	m.templates[filepath.Clean(path)] = t
	return m
}

func (m *memLoader) addFragment(path, instructions string) *memLoader {
	m.fragments[filepath.Clean(path)] = &template.PromptFragment{
		Fragment: template.FragmentSpec{Name: filepath.Base(path), Instructions: instructions},
	}
	return m
}

func (m *memLoader) addToolConfig(path string, cfg *template.ToolConfig) *memLoader {
	m.toolConfigs[filepath.Clean(path)] = cfg
	return m
}

func (m *memLoader) count(path string) {
	m.mu.Lock()
	m.loads[filepath.Clean(path)]++
	m.mu.Unlock()
}

func (m *memLoader) loadCount(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads[filepath.Clean(path)]
}

func notFound(path string) error {
	return fmt.Errorf("%s: %w", path, fs.ErrNotExist)
}

func (m *memLoader) LoadTemplate(ctx context.Context, path string) (*template.AgentTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.count(path)
	t, ok := m.templates[filepath.Clean(path)]
	if !ok {
		return nil, notFound(path)
	}
	return t.Clone(), nil
}

func (m *memLoader) LoadFragment(ctx context.Context, path string) (*template.PromptFragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.count(path)
	f, ok := m.fragments[filepath.Clean(path)]
	if !ok {
		return nil, notFound(path)
	}
	return f.Clone(), nil
}

func (m *memLoader) LoadToolConfig(ctx context.Context, path string) (*template.ToolConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.count(path)
	c, ok := m.toolConfigs[filepath.Clean(path)]
	if !ok {
		return nil, notFound(path)
	}
	return c.Clone(), nil
}

func tmpl(name, prompt string, tools ...string) *template.AgentTemplate {
	t := &template.AgentTemplate{
		Metadata: template.Metadata{Name: name, Version: "1.0.0"},
		Agent:    template.AgentSpec{Prompt: prompt},
	}
	for _, tool := range tools {
		t.Agent.Tools = append(t.Agent.Tools, template.Tool(tool))
	}
	return t
}

func extending(t *template.AgentTemplate, parent string) *template.AgentTemplate {
	t.Metadata.Extends = parent
	return t
}

func toolConfig(name string, permissions map[string]any) *template.ToolConfig {
	return &template.ToolConfig{Tool: template.ToolSpec{Name: name, Permissions: permissions}}
}
