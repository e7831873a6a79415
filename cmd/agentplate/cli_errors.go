// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jllopis/agentplate/pkg/errors"
)

// CLIError wraps a TemplateResolutionError with a hint for the user.
type CLIError struct {
	*errors.TemplateResolutionError
	Hint string
}

// NewCLIError creates a new CLI error.
func NewCLIError(tre *errors.TemplateResolutionError, hint string) *CLIError {
	return &CLIError{
		TemplateResolutionError: tre,
		Hint:                    hint,
	}
}

// Error returns the formatted error message with the hint.
func (e *CLIError) Error() string {
	if e.TemplateResolutionError == nil {
		return "unknown error"
	}
	msg := e.TemplateResolutionError.Error()
	if e.Hint != "" {
		msg += "\n  Hint: " + e.Hint
	}
	return msg
}

// PrintError writes the error to w, as a JSON object when asJSON is set.
func (e *CLIError) PrintError(w io.Writer, asJSON bool) {
	if asJSON {
		out := struct {
			Error *errors.TemplateResolutionError `json:"error"`
			Hint  string                          `json:"hint,omitempty"`
		}{e.TemplateResolutionError, e.Hint}
		data, err := json.Marshal(out)
		if err != nil {
			fmt.Fprintf(w, "Error: %s\n", e.Error())
			return
		}
		fmt.Fprintln(w, string(data))
		return
	}

	fmt.Fprintf(w, "Error [%s]: %s\n", FormatErrorCode(e.Code), e.TemplateResolutionError.Error())
	if e.Hint != "" {
		fmt.Fprintf(w, "  Hint: %s\n", e.Hint)
	}
}

// toCLIError converts any error into a CLIError with a code-specific hint.
func toCLIError(err error) *CLIError {
	if cliErr, ok := err.(*CLIError); ok {
		return cliErr
	}
	tre := errors.AsResolutionError(err)
	return NewCLIError(tre, hintFor(tre.Code))
}

// NewInvalidArgumentError creates an invalid argument error with CLI hints.
func NewInvalidArgumentError(arg, reason string) *CLIError {
	tre := errors.New(errors.CodeInvalidInput, "", "invalid argument: "+reason, nil).
		WithContext("argument", arg)
	return NewCLIError(tre, "run 'agentplate help' for usage information")
}

// NewConfigError creates a configuration error with CLI hints.
func NewConfigError(err error, configPath string) *CLIError {
	tre := errors.New(errors.CodeInvalidInput, "", "configuration error", err).
		WithContext("config_path", configPath)
	hint := "check your configuration file syntax"
	if configPath != "" {
		hint = fmt.Sprintf("check %s for syntax errors", configPath)
	}
	return NewCLIError(tre, hint)
}

func hintFor(code errors.ErrorCode) string {
	switch code {
	case errors.CodeNotFound:
		return "relative extends, mixins and toolConfigs paths resolve against the file that declares them"
	case errors.CodeLoadFailed:
		return "check the file syntax; YAML, JSON, JSONC and TOML are accepted"
	case errors.CodeCircularInheritance:
		return "remove one extends link from the chain"
	case errors.CodeMaxDepthExceeded:
		return "flatten the extends chain or raise resolver.max_depth"
	case errors.CodeInterpolationFailed:
		return "pass the missing variables with --var or disable interpolation.strict"
	case errors.CodeInvalidInput:
		return "run 'agentplate help' for usage information"
	default:
		return ""
	}
}

// FormatErrorCode returns a user-friendly name for error codes.
func FormatErrorCode(code errors.ErrorCode) string {
	switch code {
	case errors.CodeResolutionFailed:
		return "Resolution Failed"
	case errors.CodeCircularInheritance:
		return "Circular Inheritance"
	case errors.CodeMaxDepthExceeded:
		return "Max Depth Exceeded"
	case errors.CodeLoadFailed:
		return "Load Failed"
	case errors.CodeInterpolationFailed:
		return "Interpolation Failed"
	case errors.CodeInvalidInput:
		return "Invalid Input"
	case errors.CodeNotFound:
		return "Not Found"
	default:
		return string(code)
	}
}
