// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	rerrors "github.com/jllopis/agentplate/pkg/errors"
)

func newValidateCmd(global *globalFlags) *cobra.Command {
	var pairs []string
	cmd := &cobra.Command{
		Use:   "validate PATTERN...",
		Short: "Resolve every template matching the glob patterns and report failures",
		Long: `Resolve every template matching the glob patterns and report failures.
Patterns support ** for recursive matches, e.g. "agents/**/*.yaml".`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vars, err := parseVars(pairs)
			if err != nil {
				return err
			}
			files, err := expandPatterns(args)
			if err != nil {
				return err
			}

			a, err := newApp(global, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range files {
				resolved, err := a.resolver.ResolveFile(cmd.Context(), path, vars)
				if err != nil {
					failed++
					tre := rerrors.AsResolutionError(err)
					fmt.Fprintf(out, "FAIL %s [%s]: %s\n", path, tre.Code, tre.Error())
					continue
				}
				fingerprint, err := resolved.Fingerprint()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "ok   %s (%d tools, fingerprint %s)\n", path, len(resolved.Tools), fingerprint)
			}
			if failed > 0 {
				return rerrors.New(rerrors.CodeResolutionFailed, "",
					fmt.Sprintf("%d of %d templates failed to resolve", failed, len(files)), nil)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&pairs, "var", nil, "variable key=value (repeatable, values parsed as YAML)")
	return cmd
}

// expandPatterns globs every pattern and returns the sorted, de-duplicated
// matches. A pattern that matches nothing is an error.
func expandPatterns(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, NewInvalidArgumentError(pattern, err.Error())
		}
		if len(matches) == 0 {
			return nil, rerrors.New(rerrors.CodeNotFound, "", "no templates match "+pattern, nil).
				WithContext("pattern", pattern)
		}
		files = append(files, matches...)
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}
