// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

// Package loader reads agent templates, prompt fragments and tool configs
// from disk.
package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jllopis/agentplate/pkg/template"
)

// Loader loads the three file kinds the resolver consumes. Implementations
// must return an error for missing or malformed files.
type Loader interface {
	LoadTemplate(ctx context.Context, path string) (*template.AgentTemplate, error)
	LoadFragment(ctx context.Context, path string) (*template.PromptFragment, error)
	LoadToolConfig(ctx context.Context, path string) (*template.ToolConfig, error)
}

// FileLoader reads files from the local filesystem. The format is chosen by
// extension (.yaml, .yml, .json, .jsonc, .toml) with content sniffing for
// anything else.
type FileLoader struct {
	readFile func(string) ([]byte, error)
}

// NewFileLoader returns a loader backed by os.ReadFile.
func NewFileLoader() *FileLoader {
	return &FileLoader{readFile: os.ReadFile}
}

// LoadTemplate implements Loader.
func (l *FileLoader) LoadTemplate(ctx context.Context, path string) (*template.AgentTemplate, error) {
	var tmpl template.AgentTemplate
	if err := l.load(ctx, path, &tmpl); err != nil {
		return nil, err
	}
	if strings.TrimSpace(tmpl.Metadata.Name) == "" {
		return nil, fmt.Errorf("template %s: metadata.name is required", path)
	}
	return &tmpl, nil
}

// LoadFragment implements Loader.
func (l *FileLoader) LoadFragment(ctx context.Context, path string) (*template.PromptFragment, error) {
	var frag template.PromptFragment
	if err := l.load(ctx, path, &frag); err != nil {
		return nil, err
	}
	if strings.TrimSpace(frag.Fragment.Name) == "" {
		return nil, fmt.Errorf("fragment %s: fragment.name is required", path)
	}
	return &frag, nil
}

// LoadToolConfig implements Loader.
func (l *FileLoader) LoadToolConfig(ctx context.Context, path string) (*template.ToolConfig, error) {
	var cfg template.ToolConfig
	if err := l.load(ctx, path, &cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Tool.Name) == "" {
		return nil, fmt.Errorf("tool config %s: tool.name is required", path)
	}
	return &cfg, nil
}

func (l *FileLoader) load(ctx context.Context, path string, out any) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("path is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := l.readFile(path)
	if err != nil {
		return err
	}
	if err := Decode(path, data, out); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
