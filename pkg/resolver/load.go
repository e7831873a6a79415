// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"
	stderrors "errors"
	"io/fs"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	rerrors "github.com/jllopis/agentplate/pkg/errors"
	"github.com/jllopis/agentplate/pkg/telemetry"
	"github.com/jllopis/agentplate/pkg/template"
)

func (r *Resolver) loadTemplate(ctx context.Context, path string, depth int) (*template.AgentTemplate, error) {
	ctx, span := r.startLoad(ctx, telemetry.LoadTemplate, path, depth)
	defer span.End()
	tmpl, err := r.loader.LoadTemplate(ctx, path)
	return tmpl, endLoad(span, err)
}

func (r *Resolver) loadFragment(ctx context.Context, path string) (*template.PromptFragment, error) {
	ctx, span := r.startLoad(ctx, telemetry.LoadFragment, path, 0)
	defer span.End()
	frag, err := r.loader.LoadFragment(ctx, path)
	return frag, endLoad(span, err)
}

func (r *Resolver) loadToolConfig(ctx context.Context, path string) (*template.ToolConfig, error) {
	ctx, span := r.startLoad(ctx, telemetry.LoadToolConfig, path, 0)
	defer span.End()
	cfg, err := r.loader.LoadToolConfig(ctx, path)
	return cfg, endLoad(span, err)
}

func (r *Resolver) startLoad(ctx context.Context, kind, path string, depth int) (context.Context, trace.Span) {
	r.metrics.RecordLoad(ctx, kind)
	return r.tracer.Start(ctx, "Resolver.Load", trace.WithAttributes(telemetry.LoadAttributes(kind, path, depth)...))
}

func endLoad(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// wrapLoad attaches the owning template and phase to a loader failure.
// Missing files are reported as NOT_FOUND.
func wrapLoad(err error, templateName, phase, path string) error {
	if rerrors.IsResolutionError(err) {
		return err
	}
	code := rerrors.CodeLoadFailed
	if stderrors.Is(err, fs.ErrNotExist) {
		code = rerrors.CodeNotFound
	}
	return rerrors.New(code, templateName, "cannot load "+path, err).
		WithContext("phase", phase).
		WithContext("path", path)
}
