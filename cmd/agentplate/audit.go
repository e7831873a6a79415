// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jllopis/agentplate/pkg/audit"
	rerrors "github.com/jllopis/agentplate/pkg/errors"
)

func newAuditCmd(global *globalFlags) *cobra.Command {
	var (
		filter audit.Filter
		output string
	)
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List recorded template resolutions",
		Long: `List recorded template resolutions, newest first.
Requires audit.enabled with a persistent driver such as sqlite.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(global, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			if a.audit == nil {
				return NewCLIError(
					rerrors.New(rerrors.CodeInvalidInput, "", "audit store is disabled", nil),
					"set audit.enabled=true and audit.driver=sqlite with a dsn",
				)
			}
			records, err := a.audit.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			switch output {
			case "json":
				return writeOutput(cmd.OutOrStdout(), output, records)
			case "table":
			default:
				return NewInvalidArgumentError("--output", fmt.Sprintf("unknown format %q", output))
			}
			printRecords(cmd.OutOrStdout(), records)
			return nil
		},
	}
	cmd.Flags().StringVar(&filter.Template, "template", "", "only show runs of this template")
	cmd.Flags().StringVar(&filter.Status, "status", "", "only show runs with this status (ok, error)")
	cmd.Flags().IntVar(&filter.Limit, "limit", 20, "maximum number of runs (0 for all)")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table or json")
	return cmd
}

func printRecords(w io.Writer, records []audit.Record) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tTEMPLATE\tVERSION\tSTATUS\tDURATION\tDETAIL")
	for _, rec := range records {
		detail := rec.Fingerprint
		if rec.Status == audit.StatusError {
			detail = rec.ErrorCode
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.StartedAt.Local().Format(time.DateTime),
			rec.Template,
			rec.Version,
			rec.Status,
			rec.Duration().Round(time.Microsecond),
			detail,
		)
	}
	tw.Flush()
}
