// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"

	"github.com/jllopis/agentplate/pkg/audit"
	"github.com/jllopis/agentplate/pkg/config"
	"github.com/jllopis/agentplate/pkg/interpolate"
	"github.com/jllopis/agentplate/pkg/loader"
	"github.com/jllopis/agentplate/pkg/resolver"
	"github.com/jllopis/agentplate/pkg/telemetry"
)

// app holds the process-wide stack shared by the subcommands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	resolver *resolver.Resolver
	audit    audit.Store

	closers []func(context.Context) error
}

// options returns the config sources selected by the global flags.
func (g *globalFlags) options() config.Options {
	overrides := append([]string(nil), g.Sets...)
	if g.LogLevel != "" {
		overrides = append(overrides, "log.level="+g.LogLevel)
	}
	return config.Options{
		Path:      g.ConfigPath,
		Profile:   g.Profile,
		Overrides: overrides,
	}
}

// newApp loads configuration and wires logging, telemetry, audit and the
// resolver. Logs go to logOut so stdout stays reserved for results.
func newApp(global *globalFlags, logOut io.Writer) (*app, error) {
	opts := global.options()
	cfg, err := config.LoadWith(opts)
	if err != nil {
		return nil, NewConfigError(err, opts.Path)
	}
	return newAppFromConfig(cfg, logOut)
}

func newAppFromConfig(cfg *config.Config, logOut io.Writer) (*app, error) {
	a := &app{
		cfg:    cfg,
		logger: telemetry.ConfigureSlog(logOut, cfg.Log.Level, cfg.Log.Format),
	}

	shutdown, err := telemetry.InitWithConfig(cfg.Telemetry.ServiceName, version, telemetry.Config{
		Exporter:           cfg.Telemetry.Exporter,
		OTLPEndpoint:       cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure:       cfg.Telemetry.OTLPInsecure,
		OTLPTimeoutSeconds: cfg.Telemetry.OTLPTimeoutSeconds,
		Output:             os.Stderr,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, shutdown)

	if cfg.Audit.Enabled {
		store, closeStore, err := audit.Open(cfg.Audit.Driver, cfg.Audit.DSN)
		if err != nil {
			_ = a.Close(context.Background())
			return nil, err
		}
		a.audit = store
		a.closers = append(a.closers, func(context.Context) error { return closeStore() })
	}

	r, err := a.buildResolver(cfg)
	if err != nil {
		_ = a.Close(context.Background())
		return nil, err
	}
	a.resolver = r
	return a, nil
}

// buildResolver creates a resolver for cfg that shares the app's audit
// store and telemetry providers.
func (a *app) buildResolver(cfg *config.Config) (*resolver.Resolver, error) {
	var l loader.Loader = loader.NewFileLoader()
	if cfg.Loader.CacheSize > 0 {
		cached, err := loader.NewCachingLoader(l, cfg.Loader.CacheSize)
		if err != nil {
			return nil, err
		}
		l = cached
	}

	var interp interpolate.Interpolator = interpolate.New()
	if cfg.Interpolation.Strict {
		interp = interpolate.NewStrict()
	}

	metrics, err := telemetry.NewResolverMetrics(nil)
	if err != nil {
		return nil, err
	}

	opts := []resolver.Option{
		resolver.WithInterpolator(interp),
		resolver.WithMaxDepth(cfg.Resolver.MaxDepth),
		resolver.WithWorkingDirectory(cfg.Resolver.WorkingDirectory),
		resolver.WithLogger(a.logger),
		resolver.WithTracer(otel.Tracer("agentplate/resolver")),
		resolver.WithMetrics(metrics),
	}
	if len(cfg.Resolver.Models) > 0 {
		opts = append(opts, resolver.WithModelTable(cfg.Resolver.Models))
	}
	if cfg.Resolver.DefaultModel != "" {
		opts = append(opts, resolver.WithDefaultModel(cfg.Resolver.DefaultModel))
	}
	if a.audit != nil {
		opts = append(opts, resolver.WithAuditStore(a.audit))
	}
	return resolver.New(l, opts...)
}

// Close releases telemetry providers and the audit store.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
