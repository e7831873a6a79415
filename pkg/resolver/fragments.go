// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"
	"strings"

	rerrors "github.com/jllopis/agentplate/pkg/errors"
	"github.com/jllopis/agentplate/pkg/template"
)

// ResolveFragments appends the instructions of every mixin, in declaration
// order, to the template prompt.
func (r *Resolver) ResolveFragments(ctx context.Context, tmpl *template.AgentTemplate, baseDir string) (string, error) {
	if tmpl == nil {
		return "", rerrors.New(rerrors.CodeInvalidInput, "", "template is nil", nil)
	}
	if len(tmpl.Metadata.Mixins) == 0 {
		return tmpl.Agent.Prompt, nil
	}

	var b strings.Builder
	b.WriteString(tmpl.Agent.Prompt)
	for _, mixin := range tmpl.Metadata.Mixins {
		path := template.ResolvePath(baseDir, mixin)
		frag, err := r.loadFragment(ctx, path)
		if err != nil {
			return "", wrapLoad(err, tmpl.Name(), PhaseFragments, path)
		}
		b.WriteString(template.PromptSeparator)
		b.WriteString(frag.Fragment.Instructions)
	}
	return b.String(), nil
}
