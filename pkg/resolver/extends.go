// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"

	rerrors "github.com/jllopis/agentplate/pkg/errors"
	"github.com/jllopis/agentplate/pkg/template"
)

// ResolveExtends folds the extends chain of tmpl into a single template
// without an extends key. A template that extends nothing is returned as is.
func (r *Resolver) ResolveExtends(ctx context.Context, tmpl *template.AgentTemplate, baseDir string) (*template.AgentTemplate, error) {
	if tmpl == nil {
		return nil, rerrors.New(rerrors.CodeInvalidInput, "", "template is nil", nil)
	}
	if baseDir == "" {
		baseDir = "."
	}
	return r.resolveExtends(ctx, tmpl, baseDir, nil, 0)
}

// resolveExtends walks one step up the chain. visited is the ordered
// ancestor path of this branch and is never modified in place.
func (r *Resolver) resolveExtends(ctx context.Context, tmpl *template.AgentTemplate, baseDir string, visited []string, depth int) (*template.AgentTemplate, error) {
	name := tmpl.Name()
	if depth > r.maxDepth {
		return nil, rerrors.NewMaxDepthExceeded(depth, r.maxDepth, name)
	}
	if tmpl.Metadata.Extends == "" {
		return tmpl, nil
	}
	if slices.Contains(visited, name) {
		return nil, rerrors.NewCircularInheritance(visited, name)
	}

	path := append(slices.Clip(visited), name)
	parentPath := template.ResolvePath(baseDir, tmpl.Metadata.Extends)

	r.logger.DebugContext(ctx, "resolver.extends.load",
		slog.String("template", name),
		slog.String("parent", parentPath),
		slog.Int("depth", depth),
	)

	parent, err := r.loadTemplate(ctx, parentPath, depth+1)
	if err != nil {
		return nil, wrapLoad(err, name, PhaseExtends, parentPath)
	}

	parentDir := filepath.Dir(parentPath)
	resolvedParent, err := r.resolveExtends(ctx, parent, parentDir, path, depth+1)
	if err != nil {
		return nil, rerrors.Wrap(err, rerrors.CodeResolutionFailed, name, PhaseExtends)
	}

	merged := template.Merge(template.RebasePaths(resolvedParent, rebaseDir(baseDir, parentDir)), tmpl)
	return template.WithoutExtends(merged), nil
}

// rebaseDir expresses parentDir relative to baseDir, so inherited paths can
// later be resolved against the child's baseDir like its own paths.
func rebaseDir(baseDir, parentDir string) string {
	if filepath.IsAbs(parentDir) {
		return parentDir
	}
	if rel, err := filepath.Rel(baseDir, parentDir); err == nil {
		return rel
	}
	if abs, err := filepath.Abs(parentDir); err == nil {
		return abs
	}
	return parentDir
}
