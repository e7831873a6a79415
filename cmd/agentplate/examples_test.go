// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	rerrors "github.com/jllopis/agentplate/pkg/errors"
	"github.com/jllopis/agentplate/pkg/template"
)

var exampleDir = filepath.Join("..", "..", "examples", "code-review")

func TestExampleGoReviewer(t *testing.T) {
	out, err := execute(t, "resolve", filepath.Join(exampleDir, "agents", "go-reviewer.yaml"),
		"--check-vars", "--var", "team=platform", "--var", "focus=concurrency")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	var got template.ResolvedAgentConfig
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}

	for _, part := range []string{
		"You are go-reviewer, a careful software engineer.",
		"Review the pending changes of the platform team. Focus on concurrency.",
		"Never run destructive commands.",
		"Report findings as a numbered list ordered by severity.",
	} {
		if !strings.Contains(got.Prompt, part) {
			t.Errorf("prompt missing %q:\n%s", part, got.Prompt)
		}
	}
	if !reflect.DeepEqual(got.Tools, []string{"Read", "Grep", "Glob", "Bash", "Edit"}) {
		t.Errorf("tools = %v", got.Tools)
	}
	if got.Settings.Model != "claude-opus-4-20250514" {
		t.Errorf("model = %q", got.Settings.Model)
	}
	if got.Settings.Temperature == nil || *got.Settings.Temperature != 0.2 {
		t.Errorf("temperature = %v", got.Settings.Temperature)
	}
	if got.Runtime.WorkingDirectory != "/srv/platform" {
		t.Errorf("working directory = %q", got.Runtime.WorkingDirectory)
	}
	if got.Runtime.Timeout == nil || *got.Runtime.Timeout != 300000 {
		t.Errorf("timeout = %v", got.Runtime.Timeout)
	}
	bash, ok := got.ToolConfigs["Bash"]
	if !ok || bash.Tool.Permissions["requireConfirmation"] != true {
		t.Errorf("bash config = %+v", bash)
	}
	edit, ok := got.ToolConfigs["Edit"]
	if !ok || edit.Tool.Permissions["requireConfirmation"] != true {
		t.Errorf("edit config = %+v", edit)
	}
}

func TestExampleGoReviewerRejectsBadVariables(t *testing.T) {
	_, err := execute(t, "resolve", filepath.Join(exampleDir, "agents", "go-reviewer.yaml"),
		"--check-vars", "--var", "team=Platform Team")
	if err == nil {
		t.Fatal("expected variable check failure")
	}
	if code := toCLIError(err).Code; code != rerrors.CodeInvalidInput {
		t.Errorf("code = %s, want %s", code, rerrors.CodeInvalidInput)
	}
}

func TestExampleReleaseNotesTOML(t *testing.T) {
	out, err := execute(t, "resolve", filepath.Join(exampleDir, "agents", "release-notes.toml"), "--var", "version=v1.4.0")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	var got template.ResolvedAgentConfig
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if !strings.HasSuffix(got.Prompt, "Draft release notes for v1.4.0 from the git log.") {
		t.Errorf("prompt = %q", got.Prompt)
	}
	if !reflect.DeepEqual(got.Tools, []string{"Read", "Grep", "Glob", "Bash", "Write"}) {
		t.Errorf("tools = %v", got.Tools)
	}
	if got.Settings.Model != "claude-3-5-haiku-20241022" {
		t.Errorf("model = %q", got.Settings.Model)
	}
}

func TestExampleTreeValidates(t *testing.T) {
	out, err := execute(t, "validate", filepath.Join(exampleDir, "agents", "*"))
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	if strings.Count(out, "ok   ") != 2 {
		t.Errorf("unexpected output:\n%s", out)
	}
}
