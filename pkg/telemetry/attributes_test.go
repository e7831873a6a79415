// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestTemplateAttributes(t *testing.T) {
	attrs := TemplateAttributes("run-123", "reviewer", "1.2.0", "/templates")

	assertAttributes(t, attrs, map[string]any{
		AttrRunID:           "run-123",
		AttrTemplateName:    "reviewer",
		AttrTemplateVersion: "1.2.0",
		AttrBaseDir:         "/templates",
	})
}

func TestTemplateAttributesOmitsEmpty(t *testing.T) {
	attrs := TemplateAttributes("", "reviewer", "", "")
	if len(attrs) != 1 {
		t.Fatalf("expected only the name attribute, got %v", attrs)
	}
}

func TestLoadAttributes(t *testing.T) {
	assertAttributes(t, LoadAttributes(LoadTemplate, "base.yaml", 3), map[string]any{
		AttrLoadKind:      LoadTemplate,
		AttrTemplatePath:  "base.yaml",
		AttrTemplateDepth: 3,
	})
	if got := LoadAttributes(LoadFragment, "f.yaml", 0); len(got) != 2 {
		t.Errorf("depth 0 should be omitted, got %v", got)
	}
}

func TestResultAttributes(t *testing.T) {
	assertAttributes(t, ResultAttributes("claude-sonnet-4-20250514", 3, 2, "abc"), map[string]any{
		AttrResolvedModel: "claude-sonnet-4-20250514",
		AttrToolsCount:    3,
		AttrMixinsCount:   2,
		AttrFingerprint:   "abc",
	})
}

func assertAttributes(t *testing.T, attrs []attribute.KeyValue, expected map[string]any) {
	t.Helper()
	got := make(map[string]any, len(attrs))
	for _, kv := range attrs {
		switch kv.Value.Type() {
		case attribute.INT64:
			got[string(kv.Key)] = int(kv.Value.AsInt64())
		default:
			got[string(kv.Key)] = kv.Value.AsString()
		}
	}
	for key, want := range expected {
		if got[key] != want {
			t.Errorf("attribute %s = %v, want %v", key, got[key], want)
		}
	}
}
