// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"
	"path/filepath"

	rerrors "github.com/jllopis/agentplate/pkg/errors"
	"github.com/jllopis/agentplate/pkg/template"
)

// CheckVariables resolves the extends chain of tmpl and checks vars against
// the merged validation rules. It is not part of ResolveTemplate.
func (r *Resolver) CheckVariables(ctx context.Context, tmpl *template.AgentTemplate, vars map[string]any, baseDir string) error {
	merged, err := r.ResolveExtends(ctx, tmpl, baseDir)
	if err != nil {
		return err
	}
	if err := template.CheckVariables(merged.Validation, vars); err != nil {
		return rerrors.New(rerrors.CodeInvalidInput, merged.Name(), "variables do not satisfy validation", err).
			WithContext("phase", "variable check")
	}
	return nil
}

// CheckFile is CheckVariables for the template stored at path.
func (r *Resolver) CheckFile(ctx context.Context, path string, vars map[string]any) error {
	tmpl, err := r.loadTemplate(ctx, path, 0)
	if err != nil {
		return wrapLoad(err, "", PhaseResolution, path)
	}
	return r.CheckVariables(ctx, tmpl, vars, filepath.Dir(path))
}
