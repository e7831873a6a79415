// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	rerrors "github.com/jllopis/agentplate/pkg/errors"
	"github.com/jllopis/agentplate/pkg/template"
)

// ResolveSettings maps the model shorthand to its canonical identifier.
// Missing or unknown models fall back to the default shorthand.
func (r *Resolver) ResolveSettings(s *template.Settings) template.ResolvedSettings {
	out := template.ResolvedSettings{Model: r.models[r.defaultModel]}
	if s == nil {
		return out
	}
	if id, ok := r.models[s.Model]; ok {
		out.Model = id
	}
	if s.Temperature != nil {
		v := *s.Temperature
		out.Temperature = &v
	}
	if s.MaxTurns != nil {
		v := *s.MaxTurns
		out.MaxTurns = &v
	}
	out.PermissionMode = s.PermissionMode
	return out
}

// ResolveRuntime picks the working directory, interpolating it when vars
// is non-empty, and passes the timeout through.
func (r *Resolver) ResolveRuntime(rt *template.Runtime, vars map[string]any) (template.ResolvedRuntime, error) {
	return r.resolveRuntime(rt, vars, "")
}

func (r *Resolver) resolveRuntime(rt *template.Runtime, vars map[string]any, templateName string) (template.ResolvedRuntime, error) {
	out := template.ResolvedRuntime{WorkingDirectory: r.workingDir}
	if rt == nil {
		return out, nil
	}
	if rt.WorkingDirectory != "" {
		out.WorkingDirectory = rt.WorkingDirectory
	}
	if len(vars) > 0 {
		wd, err := r.interpolator.Interpolate(out.WorkingDirectory, vars)
		if err != nil {
			return template.ResolvedRuntime{}, rerrors.New(rerrors.CodeInterpolationFailed, templateName, "working directory interpolation failed", err).
				WithContext("phase", PhaseRuntime)
		}
		out.WorkingDirectory = wd
	}
	if rt.Timeout != nil {
		v := *rt.Timeout
		out.Timeout = &v
	}
	return out, nil
}
