// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

// Package errors provides the typed error taxonomy of the template resolution
// engine. Every failure surfaced by the resolver is, or wraps, a
// *TemplateResolutionError so callers can always recover the name of the
// template that was being resolved when things went wrong.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode classifies resolution errors for monitoring and CLI reporting.
type ErrorCode string

const (
	// CodeResolutionFailed is the catch-all for unclassified failures.
	CodeResolutionFailed ErrorCode = "RESOLUTION_FAILED"

	// CodeCircularInheritance indicates an extends chain that loops back on itself.
	CodeCircularInheritance ErrorCode = "CIRCULAR_INHERITANCE"

	// CodeMaxDepthExceeded indicates an extends chain deeper than the configured bound.
	CodeMaxDepthExceeded ErrorCode = "MAX_DEPTH_EXCEEDED"

	// CodeLoadFailed indicates a template, fragment or tool config could not be loaded.
	CodeLoadFailed ErrorCode = "LOAD_FAILED"

	// CodeInterpolationFailed indicates placeholder substitution failed.
	CodeInterpolationFailed ErrorCode = "INTERPOLATION_FAILED"

	// CodeInvalidInput indicates the input was malformed.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeNotFound indicates a referenced file does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"
)

// TemplateResolutionError is the base error for everything the resolver
// reports. It can be matched with errors.As, including through the
// structural subtypes below.
type TemplateResolutionError struct {
	Code         ErrorCode
	TemplateName string
	Message      string
	Err          error
	Context      map[string]interface{}
}

// Error implements the error interface.
func (e *TemplateResolutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.TemplateName != "" {
		fmt.Fprintf(&b, " (template %q)", e.TemplateName)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap exposes the original cause.
func (e *TemplateResolutionError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements json.Marshaler for structured logging.
func (e *TemplateResolutionError) MarshalJSON() ([]byte, error) {
	out := struct {
		Code     string                 `json:"code"`
		Template string                 `json:"template,omitempty"`
		Message  string                 `json:"message"`
		Cause    string                 `json:"cause,omitempty"`
		Context  map[string]interface{} `json:"context,omitempty"`
	}{
		Code:     string(e.Code),
		Template: e.TemplateName,
		Message:  e.Error(),
		Context:  e.Context,
	}
	if e.Err != nil {
		out.Cause = e.Err.Error()
	}
	return json.Marshal(out)
}

// New creates a TemplateResolutionError.
func New(code ErrorCode, templateName, msg string, cause error) *TemplateResolutionError {
	return &TemplateResolutionError{
		Code:         code,
		TemplateName: templateName,
		Message:      msg,
		Err:          cause,
		Context:      make(map[string]interface{}),
	}
}

// WithContext adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *TemplateResolutionError) WithContext(key string, value interface{}) *TemplateResolutionError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// CircularInheritanceError reports an extends chain that returns to a
// template already on the current ancestor path.
type CircularInheritanceError struct {
	*TemplateResolutionError
	Chain []string
}

// NewCircularInheritance builds the error from the ordered ancestor path and
// the name that closed the loop.
func NewCircularInheritance(path []string, name string) *CircularInheritanceError {
	chain := make([]string, 0, len(path)+1)
	chain = append(chain, path...)
	chain = append(chain, name)
	msg := "circular inheritance detected: " + strings.Join(chain, " -> ")
	return &CircularInheritanceError{
		TemplateResolutionError: New(CodeCircularInheritance, name, msg, nil).
			WithContext("chain", chain),
		Chain: chain,
	}
}

// As lets errors.As match the embedded base error.
func (e *CircularInheritanceError) As(target any) bool {
	if t, ok := target.(**TemplateResolutionError); ok {
		*t = e.TemplateResolutionError
		return true
	}
	return false
}

// MaxDepthExceededError reports an extends chain deeper than allowed.
type MaxDepthExceededError struct {
	*TemplateResolutionError
	Depth    int
	MaxDepth int
}

// NewMaxDepthExceeded creates the error for the template found at depth.
func NewMaxDepthExceeded(depth, maxDepth int, name string) *MaxDepthExceededError {
	msg := fmt.Sprintf("maximum inheritance depth %d exceeded at depth %d", maxDepth, depth)
	return &MaxDepthExceededError{
		TemplateResolutionError: New(CodeMaxDepthExceeded, name, msg, nil).
			WithContext("depth", depth).
			WithContext("max_depth", maxDepth),
		Depth:    depth,
		MaxDepth: maxDepth,
	}
}

// As lets errors.As match the embedded base error.
func (e *MaxDepthExceededError) As(target any) bool {
	if t, ok := target.(**TemplateResolutionError); ok {
		*t = e.TemplateResolutionError
		return true
	}
	return false
}

// IsResolutionError reports whether err already carries a
// *TemplateResolutionError anywhere in its chain.
func IsResolutionError(err error) bool {
	var tre *TemplateResolutionError
	return stderrors.As(err, &tre)
}

// IsStructural reports whether err is a circular-inheritance or max-depth
// failure. Structural errors are never wrapped or retried.
func IsStructural(err error) bool {
	var circ *CircularInheritanceError
	if stderrors.As(err, &circ) {
		return true
	}
	var depth *MaxDepthExceededError
	return stderrors.As(err, &depth)
}

// Wrap attaches the template in scope to err. Errors that are already
// resolution errors pass through untouched so the innermost template name
// survives multi-level inheritance chains.
func Wrap(err error, code ErrorCode, templateName, phase string) error {
	if err == nil {
		return nil
	}
	if IsResolutionError(err) {
		return err
	}
	return New(code, templateName, phase+" failed", err).WithContext("phase", phase)
}

// AsResolutionError converts err to a *TemplateResolutionError, wrapping
// unknown errors as CodeResolutionFailed.
func AsResolutionError(err error) *TemplateResolutionError {
	if err == nil {
		return nil
	}
	var tre *TemplateResolutionError
	if stderrors.As(err, &tre) {
		return tre
	}
	return New(CodeResolutionFailed, "", "wrapped error", err)
}
