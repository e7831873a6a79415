// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	rerrors "github.com/jllopis/agentplate/pkg/errors"
	"github.com/jllopis/agentplate/pkg/loader"
	"github.com/jllopis/agentplate/pkg/template"
)

type resolveFlags struct {
	Vars      []string
	VarsFile  string
	BaseDir   string
	Output    string
	CheckVars bool
}

func newResolveCmd(global *globalFlags) *cobra.Command {
	flags := &resolveFlags{}
	cmd := &cobra.Command{
		Use:   "resolve FILE",
		Short: "Resolve a template file and print the resulting configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, global, flags, args[0])
		},
	}
	cmd.Flags().StringArrayVar(&flags.Vars, "var", nil, "variable key=value (repeatable, values parsed as YAML)")
	cmd.Flags().StringVar(&flags.VarsFile, "vars-file", "", "YAML, JSON or TOML file with variables")
	cmd.Flags().StringVar(&flags.BaseDir, "base-dir", "", "directory relative references resolve against (default: the template's directory)")
	cmd.Flags().StringVarP(&flags.Output, "output", "o", "json", "output format: json or yaml")
	cmd.Flags().BoolVar(&flags.CheckVars, "check-vars", false, "check variables against the template's validation rules first")
	return cmd
}

func runResolve(cmd *cobra.Command, global *globalFlags, flags *resolveFlags, path string) error {
	if flags.Output != "json" && flags.Output != "yaml" {
		return NewInvalidArgumentError("--output", fmt.Sprintf("unknown format %q", flags.Output))
	}
	vars, err := collectVars(flags.VarsFile, flags.Vars)
	if err != nil {
		return err
	}

	a, err := newApp(global, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	ctx := cmd.Context()
	var resolved *template.ResolvedAgentConfig
	if flags.BaseDir == "" {
		if flags.CheckVars {
			if err := a.resolver.CheckFile(ctx, path, vars); err != nil {
				return err
			}
		}
		resolved, err = a.resolver.ResolveFile(ctx, path, vars)
	} else {
		var tmpl *template.AgentTemplate
		tmpl, err = loader.NewFileLoader().LoadTemplate(ctx, path)
		if err != nil {
			return rerrors.New(rerrors.CodeLoadFailed, "", "load template", err).WithContext("path", path)
		}
		if flags.CheckVars {
			if err := a.resolver.CheckVariables(ctx, tmpl, vars, flags.BaseDir); err != nil {
				return err
			}
		}
		resolved, err = a.resolver.ResolveTemplate(ctx, tmpl, vars, flags.BaseDir)
	}
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), flags.Output, resolved)
}

// collectVars merges the variables file with --var pairs; pairs win.
func collectVars(varsFile string, pairs []string) (map[string]any, error) {
	vars := map[string]any{}
	if varsFile != "" {
		data, err := os.ReadFile(varsFile)
		if err != nil {
			return nil, NewInvalidArgumentError("--vars-file", err.Error())
		}
		if err := loader.Decode(varsFile, data, &vars); err != nil {
			return nil, NewInvalidArgumentError("--vars-file", err.Error())
		}
	}
	parsed, err := parseVars(pairs)
	if err != nil {
		return nil, err
	}
	for k, v := range parsed {
		vars[k] = v
	}
	return vars, nil
}

// parseVars turns key=value pairs into a variable map. Values are decoded
// as YAML so numbers, booleans and lists keep their types.
func parseVars(pairs []string) (map[string]any, error) {
	vars := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, NewInvalidArgumentError("--var", fmt.Sprintf("%q is not key=value", pair))
		}
		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil || value == nil {
			value = raw
		}
		vars[key] = value
	}
	return vars, nil
}

func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}
