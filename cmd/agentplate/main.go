// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

// Command agentplate resolves agent templates into execution-ready
// configurations.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X main.version=...".
var version = "dev"

type globalFlags struct {
	ConfigPath string
	Profile    string
	Sets       []string
	LogLevel   string
	JSON       bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	global := &globalFlags{}
	root := newRootCmd(global)
	if err := root.ExecuteContext(ctx); err != nil {
		toCLIError(err).PrintError(os.Stderr, global.JSON)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(global *globalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:           "agentplate",
		Short:         "Resolve agent templates into execution-ready configurations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&global.ConfigPath, "config", os.Getenv("AGENTPLATE_CONFIG"), "config file (YAML)")
	flags.StringVar(&global.Profile, "profile", "", "config profile layered from <config>.<profile>.yaml")
	flags.StringArrayVar(&global.Sets, "set", nil, "config override key=value (repeatable)")
	flags.StringVar(&global.LogLevel, "log-level", "", "log level override (debug, info, warn, error)")
	flags.BoolVar(&global.JSON, "json", false, "print errors as JSON")

	root.AddCommand(
		newResolveCmd(global),
		newValidateCmd(global),
		newAuditCmd(global),
		newServeCmd(global),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the agentplate version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "agentplate %s\n", version)
		},
	}
}
