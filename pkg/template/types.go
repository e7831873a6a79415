// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

// Package template defines agent templates, prompt fragments and tool
// configurations, and the pure merge rules that combine a parent template
// with a child.
package template

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// AgentTemplate is a declarative agent definition as loaded from disk.
// Resolution never mutates a loaded template; every merge allocates.
type AgentTemplate struct {
	Metadata   Metadata    `yaml:"metadata" json:"metadata"`
	Agent      AgentSpec   `yaml:"agent" json:"agent"`
	Validation *Validation `yaml:"validation,omitempty" json:"validation,omitempty"`
	Runtime    *Runtime    `yaml:"runtime,omitempty" json:"runtime,omitempty"`
}

// Name returns metadata.name.
func (t *AgentTemplate) Name() string {
	if t == nil {
		return ""
	}
	return t.Metadata.Name
}

// Metadata identifies a template and declares its ancestors and mixins.
type Metadata struct {
	Name        string   `yaml:"name" json:"name"`
	Version     string   `yaml:"version" json:"version"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Tags        []string `yaml:"tags,omitempty" json:"tags,omitempty"`
	Extends     string   `yaml:"extends,omitempty" json:"extends,omitempty"`
	Mixins      []string `yaml:"mixins,omitempty" json:"mixins,omitempty"`
}

// AgentSpec holds the prompt, tools and settings of an agent.
type AgentSpec struct {
	Description string          `yaml:"description,omitempty" json:"description,omitempty"`
	Prompt      string          `yaml:"prompt" json:"prompt"`
	Tools       []ToolReference `yaml:"tools,omitempty" json:"tools,omitempty"`
	ToolConfigs []string        `yaml:"toolConfigs,omitempty" json:"toolConfigs,omitempty"`
	ToolBundles []string        `yaml:"toolBundles,omitempty" json:"toolBundles,omitempty"`
	Settings    *Settings       `yaml:"settings,omitempty" json:"settings,omitempty"`
}

// InheritBase marks settings that overlay the parent's settings.
const InheritBase = "base"

// Settings are the model settings declared by a template. Pointer fields
// distinguish "absent" from zero values for per-key overrides.
type Settings struct {
	Model          string   `yaml:"model,omitempty" json:"model,omitempty"`
	Temperature    *float64 `yaml:"temperature,omitempty" json:"temperature,omitempty"`
	MaxTurns       *int     `yaml:"maxTurns,omitempty" json:"maxTurns,omitempty"`
	PermissionMode string   `yaml:"permissionMode,omitempty" json:"permissionMode,omitempty"`
	Inherit        string   `yaml:"inherit,omitempty" json:"inherit,omitempty"`
}

// Validation describes the variables a template expects.
type Validation struct {
	Required []string            `yaml:"required,omitempty" json:"required,omitempty"`
	Optional []string            `yaml:"optional,omitempty" json:"optional,omitempty"`
	Types    map[string]TypeRule `yaml:"types,omitempty" json:"types,omitempty"`
}

// TypeRule constrains a single variable.
type TypeRule struct {
	Type        string   `yaml:"type" json:"type"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Pattern     string   `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Enum        []any    `yaml:"enum,omitempty" json:"enum,omitempty"`
	Min         *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max         *float64 `yaml:"max,omitempty" json:"max,omitempty"`
}

// Runtime is the execution environment declared by a template.
type Runtime struct {
	WorkingDirectory string `yaml:"workingDirectory,omitempty" json:"workingDirectory,omitempty"`
	// Timeout in milliseconds, passed through to the execution engine.
	Timeout *int `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// ToolReference is either a bare tool name or an object naming a tool with
// an optional config file and inline overrides. Identity is always Name.
type ToolReference struct {
	Name      string         `yaml:"name" json:"name"`
	Config    string         `yaml:"config,omitempty" json:"config,omitempty"`
	Overrides map[string]any `yaml:"overrides,omitempty" json:"overrides,omitempty"`
}

// Tool returns a bare reference to name.
func Tool(name string) ToolReference {
	return ToolReference{Name: name}
}

// IsBare reports whether the reference carries nothing but a name.
func (r ToolReference) IsBare() bool {
	return r.Config == "" && len(r.Overrides) == 0
}

// UnmarshalYAML accepts either a scalar name or a mapping.
func (r *ToolReference) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var name string
		if err := node.Decode(&name); err != nil {
			return err
		}
		*r = ToolReference{Name: name}
		return nil
	case yaml.MappingNode:
		type plain ToolReference
		var out plain
		if err := node.Decode(&out); err != nil {
			return err
		}
		if out.Name == "" {
			return fmt.Errorf("line %d: tool reference requires a name", node.Line)
		}
		*r = ToolReference(out)
		return nil
	default:
		return fmt.Errorf("line %d: tool reference must be a string or a mapping", node.Line)
	}
}

// MarshalYAML writes bare references back as plain strings.
func (r ToolReference) MarshalYAML() (interface{}, error) {
	if r.IsBare() {
		return r.Name, nil
	}
	type plain ToolReference
	return plain(r), nil
}

// UnmarshalJSON accepts either a string or an object.
func (r *ToolReference) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*r = ToolReference{Name: name}
		return nil
	}
	type plain ToolReference
	var out plain
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	if out.Name == "" {
		return fmt.Errorf("tool reference requires a name")
	}
	*r = ToolReference(out)
	return nil
}

// MarshalJSON writes bare references as plain strings.
func (r ToolReference) MarshalJSON() ([]byte, error) {
	if r.IsBare() {
		return json.Marshal(r.Name)
	}
	type plain ToolReference
	return json.Marshal(plain(r))
}

// ToolConfig is the permission, validation and error handling policy of one
// named tool.
type ToolConfig struct {
	Tool ToolSpec `yaml:"tool" json:"tool"`
}

// ToolSpec is the body of a ToolConfig. The policy sections are open maps so
// overrides can be deep-merged key by key.
type ToolSpec struct {
	Name            string         `yaml:"name" json:"name"`
	Permissions     map[string]any `yaml:"permissions,omitempty" json:"permissions,omitempty"`
	Validation      map[string]any `yaml:"validation,omitempty" json:"validation,omitempty"`
	ErrorHandling   map[string]any `yaml:"errorHandling,omitempty" json:"errorHandling,omitempty"`
	DefaultSettings map[string]any `yaml:"defaultSettings,omitempty" json:"defaultSettings,omitempty"`
	Extends         string         `yaml:"extends,omitempty" json:"extends,omitempty"`
}

// PromptFragment is a reusable block of instructions mixed into a prompt.
type PromptFragment struct {
	Fragment FragmentSpec `yaml:"fragment" json:"fragment"`
}

// FragmentSpec is the body of a PromptFragment.
type FragmentSpec struct {
	Name         string         `yaml:"name" json:"name"`
	Instructions string         `yaml:"instructions" json:"instructions"`
	Example      string         `yaml:"example,omitempty" json:"example,omitempty"`
	Validation   map[string]any `yaml:"validation,omitempty" json:"validation,omitempty"`
	SafetyChecks []string       `yaml:"safetyChecks,omitempty" json:"safetyChecks,omitempty"`
}

// ResolvedAgentConfig is the fully merged, interpolated, execution-ready
// configuration produced by one resolution.
type ResolvedAgentConfig struct {
	Prompt      string                 `yaml:"prompt" json:"prompt"`
	Tools       []string               `yaml:"tools" json:"tools"`
	ToolConfigs map[string]*ToolConfig `yaml:"toolConfigs" json:"toolConfigs"`
	Settings    ResolvedSettings       `yaml:"settings" json:"settings"`
	Runtime     ResolvedRuntime        `yaml:"runtime" json:"runtime"`
}

// ResolvedSettings carries the canonical model identifier.
type ResolvedSettings struct {
	Model          string   `yaml:"model" json:"model"`
	Temperature    *float64 `yaml:"temperature,omitempty" json:"temperature,omitempty"`
	MaxTurns       *int     `yaml:"maxTurns,omitempty" json:"maxTurns,omitempty"`
	PermissionMode string   `yaml:"permissionMode,omitempty" json:"permissionMode,omitempty"`
}

// ResolvedRuntime always carries a working directory.
type ResolvedRuntime struct {
	WorkingDirectory string `yaml:"workingDirectory" json:"workingDirectory"`
	Timeout          *int   `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}
