// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

// Package resolver turns an AgentTemplate into an execution-ready
// ResolvedAgentConfig: it walks the extends chain, mixes prompt fragments,
// composes per-tool configs, normalizes settings and runtime, and
// interpolates variables.
//
// A Resolver holds no per-call state. Concurrent calls are safe as long as
// the Loader and Interpolator it was built with are.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jllopis/agentplate/pkg/audit"
	rerrors "github.com/jllopis/agentplate/pkg/errors"
	"github.com/jllopis/agentplate/pkg/interpolate"
	"github.com/jllopis/agentplate/pkg/loader"
	"github.com/jllopis/agentplate/pkg/telemetry"
	"github.com/jllopis/agentplate/pkg/template"
)

// DefaultMaxDepth bounds the extends chain.
const DefaultMaxDepth = 10

// DefaultModel is the shorthand used when settings name no known model.
const DefaultModel = "sonnet"

// DefaultModels maps model shorthands to canonical model identifiers.
var DefaultModels = map[string]string{
	"sonnet": "claude-sonnet-4-20250514",
	"opus":   "claude-opus-4-20250514",
	"haiku":  "claude-3-5-haiku-20241022",
}

// Phase names used in error context and logs.
const (
	PhaseExtends       = "extends resolution"
	PhaseFragments     = "fragment mixing"
	PhaseToolConfigs   = "tool config composition"
	PhaseRuntime       = "runtime resolution"
	PhaseInterpolation = "prompt interpolation"
	PhaseResolution    = "template resolution"
)

var errNilLoader = errors.New("resolver: loader is required")

// Resolver resolves agent templates loaded through a Loader.
type Resolver struct {
	loader       loader.Loader
	interpolator interpolate.Interpolator
	models       map[string]string
	defaultModel string
	maxDepth     int
	workingDir   string
	logger       *slog.Logger
	tracer       trace.Tracer
	metrics      *telemetry.ResolverMetrics
	audit        audit.Store
}

// Option configures a Resolver.
type Option func(*Resolver) error

// New creates a Resolver reading files through l.
func New(l loader.Loader, opts ...Option) (*Resolver, error) {
	if l == nil {
		return nil, errNilLoader
	}
	r := &Resolver{
		loader:       l,
		interpolator: interpolate.New(),
		models:       DefaultModels,
		defaultModel: DefaultModel,
		maxDepth:     DefaultMaxDepth,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	if _, ok := r.models[r.defaultModel]; !ok {
		return nil, fmt.Errorf("resolver: default model %q missing from model table", r.defaultModel)
	}
	if r.workingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolver: working directory: %w", err)
		}
		r.workingDir = wd
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.tracer == nil {
		r.tracer = otel.Tracer("agentplate/resolver")
	}
	return r, nil
}

// WithInterpolator replaces the default lenient interpolation engine.
func WithInterpolator(i interpolate.Interpolator) Option {
	return func(r *Resolver) error {
		if i == nil {
			return errors.New("resolver: interpolator is nil")
		}
		r.interpolator = i
		return nil
	}
}

// WithModelTable replaces the shorthand to model ID table.
func WithModelTable(models map[string]string) Option {
	return func(r *Resolver) error {
		if len(models) == 0 {
			return errors.New("resolver: model table is empty")
		}
		r.models = make(map[string]string, len(models))
		for k, v := range models {
			r.models[k] = v
		}
		return nil
	}
}

// WithDefaultModel sets the fallback shorthand. It must exist in the model
// table.
func WithDefaultModel(shorthand string) Option {
	return func(r *Resolver) error {
		if shorthand == "" {
			return errors.New("resolver: default model is empty")
		}
		r.defaultModel = shorthand
		return nil
	}
}

// WithMaxDepth sets the maximum extends depth.
func WithMaxDepth(depth int) Option {
	return func(r *Resolver) error {
		if depth < 0 {
			return fmt.Errorf("resolver: max depth must be >= 0, got %d", depth)
		}
		r.maxDepth = depth
		return nil
	}
}

// WithWorkingDirectory sets the runtime working directory used when a
// template declares none.
func WithWorkingDirectory(dir string) Option {
	return func(r *Resolver) error {
		r.workingDir = dir
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) error {
		r.logger = logger
		return nil
	}
}

// WithTracer sets the tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Resolver) error {
		r.tracer = tracer
		return nil
	}
}

// WithMetrics attaches resolver metrics.
func WithMetrics(m *telemetry.ResolverMetrics) Option {
	return func(r *Resolver) error {
		r.metrics = m
		return nil
	}
}

// WithAuditStore records every ResolveTemplate call in store.
func WithAuditStore(store audit.Store) Option {
	return func(r *Resolver) error {
		r.audit = store
		return nil
	}
}

// ResolveFile loads the template at path and resolves it relative to the
// file's directory.
func (r *Resolver) ResolveFile(ctx context.Context, path string, vars map[string]any) (*template.ResolvedAgentConfig, error) {
	tmpl, err := r.loadTemplate(ctx, path, 0)
	if err != nil {
		return nil, wrapLoad(err, "", PhaseResolution, path)
	}
	return r.ResolveTemplate(ctx, tmpl, vars, filepath.Dir(path))
}

// ResolveTemplate runs the full pipeline: inheritance, fragments, tool
// configs, tool flattening, settings, variable context, runtime, prompt
// interpolation. baseDir anchors relative paths declared by tmpl and
// defaults to ".". Neither tmpl nor vars is mutated.
func (r *Resolver) ResolveTemplate(ctx context.Context, tmpl *template.AgentTemplate, vars map[string]any, baseDir string) (*template.ResolvedAgentConfig, error) {
	if tmpl == nil {
		return nil, rerrors.New(rerrors.CodeInvalidInput, "", "template is nil", nil)
	}
	if baseDir == "" {
		baseDir = "."
	}

	runID := uuid.NewString()
	ctx = telemetry.WithRunID(ctx, runID)
	ctx, span := r.tracer.Start(ctx, "Resolver.ResolveTemplate", trace.WithAttributes(
		telemetry.TemplateAttributes(runID, tmpl.Name(), tmpl.Metadata.Version, baseDir)...,
	))
	defer span.End()

	started := time.Now()
	r.logger.DebugContext(ctx, "resolver.resolve.start",
		slog.String("template", tmpl.Name()),
		slog.String("base_dir", baseDir),
	)

	resolved, err := r.resolve(ctx, tmpl, vars, baseDir)
	elapsed := time.Since(started)

	rec := audit.Record{
		RunID:      runID,
		Template:   tmpl.Name(),
		Version:    tmpl.Metadata.Version,
		BaseDir:    baseDir,
		Variables:  vars,
		StartedAt:  started,
		FinishedAt: started.Add(elapsed),
	}

	if err != nil {
		err = rerrors.Wrap(err, rerrors.CodeResolutionFailed, tmpl.Name(), PhaseResolution)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.metrics.RecordError(ctx, err)
		r.metrics.RecordResolution(ctx, tmpl.Name(), telemetry.StatusError, elapsed)
		r.logger.ErrorContext(ctx, "resolver.resolve.error",
			slog.String("template", tmpl.Name()),
			slog.String("error", err.Error()),
		)
		rec.Status = audit.StatusError
		rec.Error = err.Error()
		if tre := rerrors.AsResolutionError(err); tre != nil {
			rec.ErrorCode = string(tre.Code)
		}
		r.record(ctx, rec)
		return nil, err
	}

	fingerprint, fpErr := resolved.Fingerprint()
	if fpErr != nil {
		r.logger.WarnContext(ctx, "resolver.fingerprint.error", slog.String("error", fpErr.Error()))
	}
	span.SetAttributes(telemetry.ResultAttributes(resolved.Settings.Model, len(resolved.Tools), len(tmpl.Metadata.Mixins), fingerprint)...)
	r.metrics.RecordResolution(ctx, tmpl.Name(), telemetry.StatusOK, elapsed)
	r.logger.InfoContext(ctx, "resolver.resolve.complete",
		slog.String("template", tmpl.Name()),
		slog.String("model", resolved.Settings.Model),
		slog.Int("tools", len(resolved.Tools)),
		slog.String("fingerprint", fingerprint),
		slog.Duration("elapsed", elapsed),
	)
	rec.Status = audit.StatusOK
	rec.Fingerprint = fingerprint
	r.record(ctx, rec)
	return resolved, nil
}

func (r *Resolver) resolve(ctx context.Context, tmpl *template.AgentTemplate, vars map[string]any, baseDir string) (*template.ResolvedAgentConfig, error) {
	merged, err := r.ResolveExtends(ctx, tmpl, baseDir)
	if err != nil {
		return nil, err
	}

	prompt, err := r.ResolveFragments(ctx, merged, baseDir)
	if err != nil {
		return nil, err
	}

	toolConfigs, err := r.ResolveToolConfigs(ctx, merged, baseDir)
	if err != nil {
		return nil, err
	}

	tools := flattenTools(merged.Agent.Tools)
	settings := r.ResolveSettings(merged.Agent.Settings)
	varCtx := variableContext(vars, merged.Metadata)

	runtime, err := r.resolveRuntime(merged.Runtime, varCtx, merged.Name())
	if err != nil {
		return nil, err
	}

	prompt, err = r.interpolator.Interpolate(prompt, varCtx)
	if err != nil {
		return nil, rerrors.New(rerrors.CodeInterpolationFailed, merged.Name(), "prompt interpolation failed", err).
			WithContext("phase", PhaseInterpolation)
	}

	return &template.ResolvedAgentConfig{
		Prompt:      prompt,
		Tools:       tools,
		ToolConfigs: toolConfigs,
		Settings:    settings,
		Runtime:     runtime,
	}, nil
}

// flattenTools reduces references to names, first occurrence wins.
func flattenTools(refs []template.ToolReference) []string {
	tools := make([]string, 0, len(refs))
	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		if ref.Name == "" || seen[ref.Name] {
			continue
		}
		seen[ref.Name] = true
		tools = append(tools, ref.Name)
	}
	return tools
}

// variableContext copies vars and sets templateName and templateVersion.
func variableContext(vars map[string]any, meta template.Metadata) map[string]any {
	out := make(map[string]any, len(vars)+2)
	for k, v := range vars {
		out[k] = v
	}
	out["templateName"] = meta.Name
	out["templateVersion"] = meta.Version
	return out
}

func (r *Resolver) record(ctx context.Context, rec audit.Record) {
	if r.audit == nil {
		return
	}
	if err := r.audit.Record(ctx, rec); err != nil {
		r.logger.WarnContext(ctx, "resolver.audit.error",
			slog.String("template", rec.Template),
			slog.String("error", err.Error()),
		)
	}
}
