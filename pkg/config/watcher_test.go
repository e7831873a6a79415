// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestWatcherDetectsChanges(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, configPath, "resolver:\n  max_depth: 4\n")

	watcher, err := NewWatcher(Options{Path: configPath}, WithWatchInterval(50*time.Millisecond))
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}

	changes := make(chan *Config, 1)
	watcher.OnChange(func(cfg *Config) {
		select {
		case changes <- cfg:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watcher.Start(ctx)
	defer watcher.Stop()

	if got := watcher.Config().Resolver.MaxDepth; got != 4 {
		t.Errorf("expected max_depth 4, got %d", got)
	}

	time.Sleep(100 * time.Millisecond)
	writeConfig(t, configPath, "resolver:\n  max_depth: 7\n")

	select {
	case cfg := <-changes:
		if cfg.Resolver.MaxDepth != 7 {
			t.Errorf("expected max_depth 7, got %d", cfg.Resolver.MaxDepth)
		}
	case <-time.After(2 * time.Second):
		t.Error("timeout waiting for config change notification")
	}
}

func TestWatcherMultipleListeners(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, configPath, "log:\n  level: info\n")

	watcher, err := NewWatcher(Options{Path: configPath}, WithWatchInterval(20*time.Millisecond))
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}

	var count1, count2 atomic.Int32
	watcher.OnChange(func(*Config) { count1.Add(1) })
	watcher.OnChange(func(*Config) { count2.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watcher.Start(ctx)
	defer watcher.Stop()

	time.Sleep(60 * time.Millisecond)
	writeConfig(t, configPath, "log:\n  level: debug\n")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && (count1.Load() == 0 || count2.Load() == 0) {
		time.Sleep(10 * time.Millisecond)
	}
	if count1.Load() != 1 || count2.Load() != 1 {
		t.Errorf("expected both listeners called once, got %d and %d", count1.Load(), count2.Load())
	}
	if watcher.Config().Log.Level != "debug" {
		t.Errorf("config not swapped: %+v", watcher.Config().Log)
	}
}

func TestWatcherStops(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, configPath, "log: {}\n")

	watcher, err := NewWatcher(Options{Path: configPath}, WithWatchInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	watcher.Start(context.Background())

	done := make(chan struct{})
	go func() {
		watcher.Stop()
		watcher.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("watcher.Stop() did not complete in time")
	}
}

func TestWatcherStopWithoutStart(t *testing.T) {
	watcher, err := NewWatcher(Options{})
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	watcher.Stop()
}

func TestWatchConfigWithProfile(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "config.yaml")
	writeConfig(t, basePath, "resolver:\n  default_model: sonnet\nlog:\n  level: info\n")
	writeConfig(t, filepath.Join(dir, "config.dev.yaml"), "log:\n  level: debug\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher, cfg, err := WatchConfig(ctx, Options{Path: basePath, Profile: "dev"}, WithWatchInterval(50*time.Millisecond))
	if err != nil {
		t.Fatalf("failed to watch config: %v", err)
	}
	defer watcher.Stop()

	if cfg.Log.Level != "debug" {
		t.Errorf("expected profile log level, got %q", cfg.Log.Level)
	}
	if len(watcher.Paths()) != 2 {
		t.Errorf("expected base and profile paths, got %v", watcher.Paths())
	}
}

func TestReloadableConfig(t *testing.T) {
	rc := NewReloadableConfig(&Config{Resolver: ResolverConfig{MaxDepth: 1}})
	if rc.Resolver().MaxDepth != 1 {
		t.Errorf("expected 1, got %d", rc.Resolver().MaxDepth)
	}
	rc.Update(&Config{Resolver: ResolverConfig{MaxDepth: 2}, Log: LogConfig{Level: "warn"}})
	if rc.Resolver().MaxDepth != 2 || rc.Log().Level != "warn" || rc.Get().Resolver.MaxDepth != 2 {
		t.Errorf("update not visible: %+v", rc.Get())
	}
}
