// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"path/filepath"
)

// PromptSeparator joins concatenated prompt sections.
const PromptSeparator = "\n\n"

// Merge merges a child template over its parent.
//
// Merge rules:
//   - Metadata: child wins key by key when set; Extends and Mixins always
//     come from the child (the caller strips Extends afterwards)
//   - Prompt: parent + "\n\n" + child
//   - Tools: union by tool name, parent order first, then novel child tools
//   - ToolConfigs, ToolBundles: union, parent first
//   - Settings: child overlays parent per key; inherit: base is consumed
//   - Validation: required/optional unioned, types merged with child winning
//   - Runtime: child wins per key
//
// If either side is nil the other is returned unchanged.
func Merge(parent, child *AgentTemplate) *AgentTemplate {
	if parent == nil {
		return child
	}
	if child == nil {
		return parent
	}
	return &AgentTemplate{
		Metadata: mergeMetadata(parent.Metadata, child.Metadata),
		Agent: AgentSpec{
			Description: firstNonEmpty(child.Agent.Description, parent.Agent.Description),
			Prompt:      parent.Agent.Prompt + PromptSeparator + child.Agent.Prompt,
			Tools:       MergeTools(parent.Agent.Tools, child.Agent.Tools),
			ToolConfigs: mergeStringSlices(parent.Agent.ToolConfigs, child.Agent.ToolConfigs),
			ToolBundles: mergeStringSlices(parent.Agent.ToolBundles, child.Agent.ToolBundles),
			Settings:    MergeSettings(parent.Agent.Settings, child.Agent.Settings),
		},
		Validation: MergeValidation(parent.Validation, child.Validation),
		Runtime:    MergeRuntime(parent.Runtime, child.Runtime),
	}
}

func mergeMetadata(parent, child Metadata) Metadata {
	result := Metadata{
		Name:        firstNonEmpty(child.Name, parent.Name),
		Version:     firstNonEmpty(child.Version, parent.Version),
		Description: firstNonEmpty(child.Description, parent.Description),
		Tags:        cloneStrings(parent.Tags),
		Extends:     child.Extends,
		Mixins:      cloneStrings(child.Mixins),
	}
	if child.Tags != nil {
		result.Tags = cloneStrings(child.Tags)
	}
	return result
}

// MergeTools unions two tool lists keyed by tool name. Parent entries keep
// their position; child entries are appended in order when their name is new.
func MergeTools(parent, child []ToolReference) []ToolReference {
	if len(parent) == 0 && len(child) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(parent)+len(child))
	result := make([]ToolReference, 0, len(parent)+len(child))
	for _, list := range [][]ToolReference{parent, child} {
		for _, ref := range list {
			if seen[ref.Name] {
				continue
			}
			seen[ref.Name] = true
			result = append(result, ref.clone())
		}
	}
	return result
}

// MergeSettings overlays child settings onto the parent's. The inherit
// marker is dropped when it requested the overlay.
func MergeSettings(parent, child *Settings) *Settings {
	if parent == nil {
		return child.Clone()
	}
	if child == nil {
		return parent.Clone()
	}
	result := parent.Clone()
	if child.Model != "" {
		result.Model = child.Model
	}
	if child.Temperature != nil {
		v := *child.Temperature
		result.Temperature = &v
	}
	if child.MaxTurns != nil {
		v := *child.MaxTurns
		result.MaxTurns = &v
	}
	if child.PermissionMode != "" {
		result.PermissionMode = child.PermissionMode
	}
	if child.Inherit != "" {
		result.Inherit = child.Inherit
	}
	if child.Inherit == InheritBase {
		result.Inherit = ""
	}
	return result
}

// MergeValidation unions required and optional variable names and merges
// type rules, the child's rule replacing a same-named parent rule.
func MergeValidation(parent, child *Validation) *Validation {
	if parent == nil {
		return child.Clone()
	}
	if child == nil {
		return parent.Clone()
	}
	result := &Validation{
		Required: mergeStringSlices(parent.Required, child.Required),
		Optional: mergeStringSlices(parent.Optional, child.Optional),
	}
	if len(parent.Types) > 0 || len(child.Types) > 0 {
		result.Types = make(map[string]TypeRule, len(parent.Types)+len(child.Types))
		for name, rule := range parent.Types {
			result.Types[name] = rule.clone()
		}
		for name, rule := range child.Types {
			result.Types[name] = rule.clone()
		}
	}
	return result
}

// MergeRuntime merges runtime settings, child winning per key.
func MergeRuntime(parent, child *Runtime) *Runtime {
	if parent == nil {
		return child.Clone()
	}
	if child == nil {
		return parent.Clone()
	}
	result := parent.Clone()
	if child.WorkingDirectory != "" {
		result.WorkingDirectory = child.WorkingDirectory
	}
	if child.Timeout != nil {
		v := *child.Timeout
		result.Timeout = &v
	}
	return result
}

// WithoutExtends returns a copy of t whose metadata omits Extends. The
// original template and its metadata are left untouched.
func WithoutExtends(t *AgentTemplate) *AgentTemplate {
	if t == nil {
		return nil
	}
	out := t.Clone()
	out.Metadata.Extends = ""
	return out
}

// RebasePaths returns a copy of t whose relative file references (mixins,
// tool config files and inline tool config paths) are anchored at dir.
// Ancestors are rebased before merging so every path stays relative to the
// file that declared it.
func RebasePaths(t *AgentTemplate, dir string) *AgentTemplate {
	if t == nil {
		return nil
	}
	out := t.Clone()
	for i, p := range out.Metadata.Mixins {
		out.Metadata.Mixins[i] = ResolvePath(dir, p)
	}
	for i, p := range out.Agent.ToolConfigs {
		out.Agent.ToolConfigs[i] = ResolvePath(dir, p)
	}
	for i := range out.Agent.Tools {
		if out.Agent.Tools[i].Config != "" {
			out.Agent.Tools[i].Config = ResolvePath(dir, out.Agent.Tools[i].Config)
		}
	}
	return out
}

// ResolvePath resolves p against baseDir. Absolute paths pass through.
func ResolvePath(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}

// mergeStringSlices appends child strings after parent strings, removing
// duplicates. Always allocates.
func mergeStringSlices(parent, child []string) []string {
	if len(parent) == 0 && len(child) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(parent)+len(child))
	result := make([]string, 0, len(parent)+len(child))
	for _, list := range [][]string{parent, child} {
		for _, s := range list {
			if seen[s] {
				continue
			}
			seen[s] = true
			result = append(result, s)
		}
	}
	return result
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
