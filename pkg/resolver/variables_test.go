// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"
	stderrors "errors"
	"testing"

	rerrors "github.com/jllopis/agentplate/pkg/errors"
	"github.com/jllopis/agentplate/pkg/template"
)

func TestCheckVariablesUsesMergedRules(t *testing.T) {
	base := tmpl("base", "B")
	base.Validation = &template.Validation{Required: []string{"repo"}}
	leaf := extending(tmpl("leaf", "L"), "base.yaml")
	leaf.Validation = &template.Validation{
		Required: []string{"language"},
		Types:    map[string]template.TypeRule{"language": {Type: "string", Enum: []any{"go", "rust"}}},
	}
	r := newResolver(t, newMemLoader().addTemplate(root+"/base.yaml", base))
	ctx := context.Background()

	if err := r.CheckVariables(ctx, leaf, map[string]any{"repo": "x", "language": "go"}, root); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := r.CheckVariables(ctx, leaf, map[string]any{"language": "cobol"}, root)
	tre := rerrors.AsResolutionError(err)
	if tre == nil || tre.Code != rerrors.CodeInvalidInput || tre.TemplateName != "leaf" {
		t.Fatalf("unexpected error %v", err)
	}
	var varErr template.VariableError
	if !stderrors.As(err, &varErr) {
		t.Errorf("expected a VariableError in the chain, got %v", err)
	}
}

func TestCheckFileMissing(t *testing.T) {
	err := newResolver(t, newMemLoader()).CheckFile(context.Background(), root+"/nope.yaml", nil)
	if tre := rerrors.AsResolutionError(err); tre == nil || tre.Code != rerrors.CodeNotFound {
		t.Fatalf("unexpected error %v", err)
	}
}
