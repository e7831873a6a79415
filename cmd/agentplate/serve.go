// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"log/slog"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/jllopis/agentplate/pkg/config"
	"github.com/jllopis/agentplate/pkg/mcp"
	"github.com/jllopis/agentplate/pkg/resolver"
)

func newServeCmd(global *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve resolve_template and validate_template as MCP tools over stdio",
		Long: `Serve resolve_template and validate_template as MCP tools over stdio.
When --config is set the file is watched and the resolver is rebuilt on change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			opts := global.options()

			var (
				watcher *config.Watcher
				cfg     *config.Config
				err     error
			)
			if opts.Path != "" {
				watcher, cfg, err = config.WatchConfig(ctx, opts)
			} else {
				cfg, err = config.LoadWith(opts)
			}
			if err != nil {
				return NewConfigError(err, opts.Path)
			}
			if watcher != nil {
				defer watcher.Stop()
			}

			a, err := newAppFromConfig(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			live := newLiveResolver(a)
			if watcher != nil {
				watcher.OnChange(func(next *config.Config) {
					if err := live.Reload(next); err != nil {
						a.logger.Error("serve.resolver.rebuild.error", slog.String("error", err.Error()))
					}
				})
			}

			server := mcp.NewServer("agentplate", version)
			mcp.RegisterResolverTools(server, live.Resolver)
			a.logger.Info("serve.start", slog.Any("tools", server.Tools()))
			return server.ServeStdio()
		},
	}
}

// liveResolver pairs the active configuration with the resolver built from
// it. Both are swapped together on reload.
type liveResolver struct {
	app     *app
	config  *config.ReloadableConfig
	current atomic.Pointer[resolver.Resolver]
}

func newLiveResolver(a *app) *liveResolver {
	l := &liveResolver{
		app:    a,
		config: config.NewReloadableConfig(a.cfg),
	}
	l.current.Store(a.resolver)
	return l
}

// Resolver returns the resolver built from the current configuration.
func (l *liveResolver) Resolver() *resolver.Resolver {
	return l.current.Load()
}

// Reload builds a resolver for cfg and makes both current. On error the
// previous configuration and resolver stay in place.
func (l *liveResolver) Reload(cfg *config.Config) error {
	r, err := l.app.buildResolver(cfg)
	if err != nil {
		return err
	}
	l.config.Update(cfg)
	l.current.Store(r)

	rc := l.config.Resolver()
	l.app.logger.Info("serve.resolver.rebuilt",
		slog.Int("max_depth", rc.MaxDepth),
		slog.String("default_model", rc.DefaultModel),
		slog.String("log_level", l.config.Log().Level),
	)
	return nil
}
