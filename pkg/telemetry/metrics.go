// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jllopis/agentplate/pkg/errors"
)

// ResolverMetrics tracks resolution volume, latency, file loads and errors.
// All methods are safe on a nil receiver.
type ResolverMetrics struct {
	// resolutionCounter counts ResolveTemplate calls by status
	resolutionCounter metric.Int64Counter

	// durationHistogram records end-to-end resolution latency in ms
	durationHistogram metric.Float64Histogram

	// loadCounter counts loader calls by kind
	loadCounter metric.Int64Counter

	// errorCounter counts failures by error code and phase
	errorCounter metric.Int64Counter
}

// NewResolverMetrics registers the resolver instruments on meter. A nil meter
// uses the global provider.
func NewResolverMetrics(meter metric.Meter) (*ResolverMetrics, error) {
	if meter == nil {
		meter = otel.Meter("agentplate/resolver")
	}

	resolutionCounter, err := meter.Int64Counter(
		"agentplate.resolutions.total",
		metric.WithDescription("Template resolutions by status"),
	)
	if err != nil {
		return nil, err
	}

	durationHistogram, err := meter.Float64Histogram(
		"agentplate.resolution.duration",
		metric.WithDescription("End-to-end template resolution latency"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	loadCounter, err := meter.Int64Counter(
		"agentplate.loads.total",
		metric.WithDescription("Files loaded during resolution by kind"),
	)
	if err != nil {
		return nil, err
	}

	errorCounter, err := meter.Int64Counter(
		"agentplate.errors.total",
		metric.WithDescription("Resolution errors by code"),
	)
	if err != nil {
		return nil, err
	}

	return &ResolverMetrics{
		resolutionCounter: resolutionCounter,
		durationHistogram: durationHistogram,
		loadCounter:       loadCounter,
		errorCounter:      errorCounter,
	}, nil
}

// RecordResolution records one finished resolution.
func (m *ResolverMetrics) RecordResolution(ctx context.Context, templateName, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(AttrTemplateName, templateName),
		attribute.String(AttrStatus, status),
	)
	m.resolutionCounter.Add(ctx, 1, attrs)
	m.durationHistogram.Record(ctx, float64(elapsed)/float64(time.Millisecond), attrs)
}

// RecordLoad counts a loader call of the given kind.
func (m *ResolverMetrics) RecordLoad(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.loadCounter.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrLoadKind, kind)))
}

// RecordError counts err by its resolution error code.
func (m *ResolverMetrics) RecordError(ctx context.Context, err error) {
	if m == nil || err == nil {
		return
	}
	code := "UNKNOWN"
	phase := ""
	if tre := errors.AsResolutionError(err); tre != nil {
		code = string(tre.Code)
		if p, ok := tre.Context["phase"].(string); ok {
			phase = p
		}
	}
	m.errorCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrErrorCode, code),
		attribute.String(AttrResolutionPhase, phase),
	))
}
