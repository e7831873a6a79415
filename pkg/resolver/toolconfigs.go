// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"
	"log/slog"

	"github.com/knadh/koanf/maps"

	rerrors "github.com/jllopis/agentplate/pkg/errors"
	"github.com/jllopis/agentplate/pkg/template"
)

// Override sections deep-merged from a tool reference onto its config.
const (
	SectionDefaultSettings = "defaultSettings"
	SectionPermissions     = "permissions"
	SectionValidation      = "validation"
	SectionErrorHandling   = "errorHandling"
)

var overrideSections = []string{
	SectionDefaultSettings,
	SectionPermissions,
	SectionValidation,
	SectionErrorHandling,
}

// ResolveToolConfigs composes one ToolConfig per tool of tmpl. Layers, each
// overriding the previous:
//
//  1. {tool: {name}}
//  2. the config among agent.toolConfigs whose tool.name matches
//  3. the reference's own config file, which replaces layer 2
//  4. the reference's overrides, deep-merged per section
func (r *Resolver) ResolveToolConfigs(ctx context.Context, tmpl *template.AgentTemplate, baseDir string) (map[string]*template.ToolConfig, error) {
	if tmpl == nil {
		return nil, rerrors.New(rerrors.CodeInvalidInput, "", "template is nil", nil)
	}

	shared := make(map[string]*template.ToolConfig, len(tmpl.Agent.ToolConfigs))
	loaded := make(map[string]*template.ToolConfig, len(tmpl.Agent.ToolConfigs))
	for _, p := range tmpl.Agent.ToolConfigs {
		path := template.ResolvePath(baseDir, p)
		cfg, ok := loaded[path]
		if !ok {
			var err error
			cfg, err = r.loadToolConfig(ctx, path)
			if err != nil {
				return nil, wrapLoad(err, tmpl.Name(), PhaseToolConfigs, path)
			}
			loaded[path] = cfg
		}
		if _, dup := shared[cfg.Tool.Name]; dup {
			r.logger.DebugContext(ctx, "resolver.toolconfig.replaced",
				slog.String("template", tmpl.Name()),
				slog.String("tool", cfg.Tool.Name),
				slog.String("path", path),
			)
		}
		shared[cfg.Tool.Name] = cfg
	}

	result := make(map[string]*template.ToolConfig, len(tmpl.Agent.Tools))
	for _, ref := range tmpl.Agent.Tools {
		if ref.Name == "" {
			continue
		}
		if _, done := result[ref.Name]; done {
			continue
		}

		cfg := &template.ToolConfig{Tool: template.ToolSpec{Name: ref.Name}}
		if c, ok := shared[ref.Name]; ok {
			cfg = c.Clone()
		}
		if ref.Config != "" {
			path := template.ResolvePath(baseDir, ref.Config)
			inline, err := r.loadToolConfig(ctx, path)
			if err != nil {
				return nil, wrapLoad(err, tmpl.Name(), PhaseToolConfigs, path)
			}
			cfg = inline.Clone()
		}
		if len(ref.Overrides) > 0 {
			applyOverrides(cfg, ref.Overrides)
		}
		result[ref.Name] = cfg
	}
	return result, nil
}

// applyOverrides deep-merges overrides onto cfg. For every section the
// unwrapped form (overrides.permissions) is used when present, otherwise
// the namespaced form (overrides.tool.permissions). The two are never
// combined.
func applyOverrides(cfg *template.ToolConfig, overrides map[string]any) {
	namespaced, _ := asMap(overrides["tool"])
	for _, section := range overrideSections {
		src, ok := asMap(overrides[section])
		if !ok {
			src, ok = asMap(namespaced[section])
		}
		if !ok {
			continue
		}
		dst := sectionOf(&cfg.Tool, section)
		if *dst == nil {
			*dst = make(map[string]any, len(src))
		}
		maps.Merge(template.CopyMap(src), *dst)
	}
}

func sectionOf(spec *template.ToolSpec, section string) *map[string]any {
	switch section {
	case SectionDefaultSettings:
		return &spec.DefaultSettings
	case SectionPermissions:
		return &spec.Permissions
	case SectionValidation:
		return &spec.Validation
	default:
		return &spec.ErrorHandling
	}
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}
