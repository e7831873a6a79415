// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry provides OpenTelemetry and slog integration for template
// resolution.
package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Semantic conventions for resolution telemetry.
const (
	// Run attributes
	AttrRunID  = "agentplate.run.id"
	AttrStatus = "agentplate.run.status"

	// Template attributes
	AttrTemplateName    = "agentplate.template.name"
	AttrTemplateVersion = "agentplate.template.version"
	AttrTemplateDepth   = "agentplate.template.depth"
	AttrTemplatePath    = "agentplate.template.path"
	AttrBaseDir         = "agentplate.template.base_dir"

	// Load attributes
	AttrLoadKind = "agentplate.load.kind" // template, fragment, tool_config

	// Result attributes
	AttrToolsCount      = "agentplate.tools.count"
	AttrMixinsCount     = "agentplate.mixins.count"
	AttrResolvedModel   = "agentplate.settings.model"
	AttrFingerprint     = "agentplate.config.fingerprint"
	AttrErrorCode       = "agentplate.error.code"
	AttrResolutionPhase = "agentplate.phase"
)

// Load kinds.
const (
	LoadTemplate   = "template"
	LoadFragment   = "fragment"
	LoadToolConfig = "tool_config"
)

// Run statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// TemplateAttributes returns common attributes for resolution spans.
func TemplateAttributes(runID, name, version, baseDir string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrTemplateName, name),
	}
	if runID != "" {
		attrs = append(attrs, attribute.String(AttrRunID, runID))
	}
	if version != "" {
		attrs = append(attrs, attribute.String(AttrTemplateVersion, version))
	}
	if baseDir != "" {
		attrs = append(attrs, attribute.String(AttrBaseDir, baseDir))
	}
	return attrs
}

// LoadAttributes returns attributes for a single loader call.
func LoadAttributes(kind, path string, depth int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrLoadKind, kind),
		attribute.String(AttrTemplatePath, path),
	}
	if depth > 0 {
		attrs = append(attrs, attribute.Int(AttrTemplateDepth, depth))
	}
	return attrs
}

// ResultAttributes describes a finished resolution.
func ResultAttributes(model string, tools, mixins int, fingerprint string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrResolvedModel, model),
		attribute.Int(AttrToolsCount, tools),
		attribute.Int(AttrMixinsCount, mixins),
	}
	if fingerprint != "" {
		attrs = append(attrs, attribute.String(AttrFingerprint, fingerprint))
	}
	return attrs
}
