// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

// Package interpolate substitutes {{ variable }} placeholders in prompt text.
package interpolate

import (
	"fmt"
	"regexp"
	"strings"
)

// Interpolator substitutes variables into text.
type Interpolator interface {
	Interpolate(text string, vars map[string]any) (string, error)
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)

// Engine is the default Interpolator. Placeholders name a variable or a
// dotted path into nested maps ({{ repo.owner }}). Unknown placeholders are
// left as written unless Strict is set, so text without resolvable
// placeholders passes through unchanged.
type Engine struct {
	Strict bool
}

// New returns a lenient Engine.
func New() *Engine {
	return &Engine{}
}

// NewStrict returns an Engine that fails on unresolved placeholders.
func NewStrict() *Engine {
	return &Engine{Strict: true}
}

// Interpolate implements Interpolator.
func (e *Engine) Interpolate(text string, vars map[string]any) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}
	var missing []string
	result := placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		expr := placeholderPattern.FindStringSubmatch(match)[1]
		val, ok := lookup(expr, vars)
		if !ok {
			missing = append(missing, expr)
			return match
		}
		return fmt.Sprint(val)
	})
	if e.Strict && len(missing) > 0 {
		return "", fmt.Errorf("unresolved placeholders: %s", strings.Join(missing, ", "))
	}
	return result, nil
}

// Placeholders lists the expressions referenced by text, in order.
func Placeholders(text string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

func lookup(expr string, vars map[string]any) (any, bool) {
	if val, ok := vars[expr]; ok {
		return val, true
	}
	if !strings.Contains(expr, ".") {
		return nil, false
	}
	parts := strings.Split(expr, ".")
	val, ok := vars[parts[0]]
	if !ok {
		return nil, false
	}
	for _, part := range parts[1:] {
		m, ok := val.(map[string]any)
		if !ok {
			return nil, false
		}
		if val, ok = m[part]; !ok {
			return nil, false
		}
	}
	return val, true
}
