// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"github.com/knadh/koanf/maps"
)

// Clone returns a deep copy of the template.
func (t *AgentTemplate) Clone() *AgentTemplate {
	if t == nil {
		return nil
	}
	out := &AgentTemplate{
		Metadata: Metadata{
			Name:        t.Metadata.Name,
			Version:     t.Metadata.Version,
			Description: t.Metadata.Description,
			Tags:        cloneStrings(t.Metadata.Tags),
			Extends:     t.Metadata.Extends,
			Mixins:      cloneStrings(t.Metadata.Mixins),
		},
		Agent: AgentSpec{
			Description: t.Agent.Description,
			Prompt:      t.Agent.Prompt,
			ToolConfigs: cloneStrings(t.Agent.ToolConfigs),
			ToolBundles: cloneStrings(t.Agent.ToolBundles),
			Settings:    t.Agent.Settings.Clone(),
		},
		Validation: t.Validation.Clone(),
		Runtime:    t.Runtime.Clone(),
	}
	if t.Agent.Tools != nil {
		out.Agent.Tools = make([]ToolReference, len(t.Agent.Tools))
		for i, ref := range t.Agent.Tools {
			out.Agent.Tools[i] = ref.clone()
		}
	}
	return out
}

// Clone returns a copy of the settings.
func (s *Settings) Clone() *Settings {
	if s == nil {
		return nil
	}
	out := *s
	if s.Temperature != nil {
		v := *s.Temperature
		out.Temperature = &v
	}
	if s.MaxTurns != nil {
		v := *s.MaxTurns
		out.MaxTurns = &v
	}
	return &out
}

// Clone returns a deep copy of the validation rules.
func (v *Validation) Clone() *Validation {
	if v == nil {
		return nil
	}
	out := &Validation{
		Required: cloneStrings(v.Required),
		Optional: cloneStrings(v.Optional),
	}
	if v.Types != nil {
		out.Types = make(map[string]TypeRule, len(v.Types))
		for name, rule := range v.Types {
			out.Types[name] = rule.clone()
		}
	}
	return out
}

// Clone returns a copy of the runtime settings.
func (r *Runtime) Clone() *Runtime {
	if r == nil {
		return nil
	}
	out := *r
	if r.Timeout != nil {
		v := *r.Timeout
		out.Timeout = &v
	}
	return &out
}

// Clone returns a deep copy of the tool config.
func (c *ToolConfig) Clone() *ToolConfig {
	if c == nil {
		return nil
	}
	return &ToolConfig{Tool: ToolSpec{
		Name:            c.Tool.Name,
		Permissions:     CopyMap(c.Tool.Permissions),
		Validation:      CopyMap(c.Tool.Validation),
		ErrorHandling:   CopyMap(c.Tool.ErrorHandling),
		DefaultSettings: CopyMap(c.Tool.DefaultSettings),
		Extends:         c.Tool.Extends,
	}}
}

// Clone returns a deep copy of the fragment.
func (f *PromptFragment) Clone() *PromptFragment {
	if f == nil {
		return nil
	}
	return &PromptFragment{Fragment: FragmentSpec{
		Name:         f.Fragment.Name,
		Instructions: f.Fragment.Instructions,
		Example:      f.Fragment.Example,
		Validation:   CopyMap(f.Fragment.Validation),
		SafetyChecks: cloneStrings(f.Fragment.SafetyChecks),
	}}
}

func (r ToolReference) clone() ToolReference {
	return ToolReference{
		Name:      r.Name,
		Config:    r.Config,
		Overrides: CopyMap(r.Overrides),
	}
}

func (r TypeRule) clone() TypeRule {
	out := r
	if r.Enum != nil {
		out.Enum = append([]any(nil), r.Enum...)
	}
	if r.Min != nil {
		v := *r.Min
		out.Min = &v
	}
	if r.Max != nil {
		v := *r.Max
		out.Max = &v
	}
	return out
}

// CopyMap deep-copies a nested map. A nil map stays nil.
func CopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return maps.Copy(m)
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
