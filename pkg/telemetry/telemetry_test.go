// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"bytes"
	"context"
	"testing"
)

func TestInitWithConfig(t *testing.T) {
	for _, exporter := range []string{"", ExporterNone, ExporterStdout} {
		t.Run("exporter="+exporter, func(t *testing.T) {
			var buf bytes.Buffer
			shutdown, err := InitWithConfig("agentplate-test", "v0.0.1", Config{Exporter: exporter, Output: &buf})
			if err != nil {
				t.Fatalf("init failed: %v", err)
			}
			if shutdown == nil {
				t.Fatal("shutdown function should not be nil")
			}
			if err := shutdown(context.Background()); err != nil {
				t.Errorf("shutdown failed: %v", err)
			}
		})
	}
}

func TestInitWithConfigErrors(t *testing.T) {
	if _, err := InitWithConfig("svc", "v0", Config{Exporter: ExporterOTLP}); err == nil {
		t.Error("expected error for otlp without endpoint")
	}
	if _, err := InitWithConfig("svc", "v0", Config{Exporter: "carrier-pigeon"}); err == nil {
		t.Error("expected error for unknown exporter")
	}
}
