// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads agentplate settings from defaults, YAML files and
// AGENTPLATE_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "AGENTPLATE_"

type Config struct {
	Log           LogConfig           `koanf:"log"`
	Resolver      ResolverConfig      `koanf:"resolver"`
	Loader        LoaderConfig        `koanf:"loader"`
	Interpolation InterpolationConfig `koanf:"interpolation"`
	Telemetry     TelemetryConfig     `koanf:"telemetry"`
	Audit         AuditConfig         `koanf:"audit"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type ResolverConfig struct {
	MaxDepth         int               `koanf:"max_depth"`
	DefaultModel     string            `koanf:"default_model"`
	WorkingDirectory string            `koanf:"working_directory"`
	Models           map[string]string `koanf:"models"` // shorthand -> model id
}

type LoaderConfig struct {
	CacheSize int `koanf:"cache_size"` // 0 disables caching
}

type InterpolationConfig struct {
	Strict bool `koanf:"strict"`
}

type TelemetryConfig struct {
	ServiceName        string `koanf:"service_name"`
	Exporter           string `koanf:"exporter"` // none, stdout, otlp
	OTLPEndpoint       string `koanf:"otlp_endpoint"`
	OTLPInsecure       bool   `koanf:"otlp_insecure"`
	OTLPTimeoutSeconds int    `koanf:"otlp_timeout_seconds"`
}

type AuditConfig struct {
	Enabled bool   `koanf:"enabled"`
	Driver  string `koanf:"driver"` // memory, sqlite
	DSN     string `koanf:"dsn"`
}

// Options selects the sources merged by LoadWith, lowest priority first:
// defaults, Path, the profile file next to Path, environment, Overrides.
type Options struct {
	Path    string
	Profile string
	// Overrides are key=value pairs such as "resolver.max_depth=5". Values
	// are parsed as YAML, so "true", "12" and "{a: b}" keep their types.
	Overrides []string
}

// Load reads path (optional) on top of defaults and applies the
// environment.
func Load(path string) (*Config, error) {
	return LoadWith(Options{Path: path})
}

// LoadWithProfile also layers "<name>.<profile><ext>" from the directory of
// path when it exists.
func LoadWithProfile(path, profile string) (*Config, error) {
	return LoadWith(Options{Path: path, Profile: profile})
}

// LoadWith builds a Config from opts.
func LoadWith(opts Options) (*Config, error) {
	k := koanf.New(".")
	setDefaults(k)

	if opts.Path != "" {
		if err := k.Load(file.Provider(opts.Path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", opts.Path, err)
		}
		if opts.Profile != "" {
			profilePath := ProfilePath(opts.Path, opts.Profile)
			if _, err := os.Stat(profilePath); err == nil {
				if err := k.Load(file.Provider(profilePath), yaml.Parser()); err != nil {
					return nil, fmt.Errorf("load %s: %w", profilePath, err)
				}
			}
		}
	}

	// AGENTPLATE_RESOLVER_MAX_DEPTH -> resolver.max_depth
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
	}), nil); err != nil {
		return nil, err
	}

	for _, kv := range opts.Overrides {
		key, raw, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid override %q, want key=value", kv)
		}
		if err := k.Set(key, parseValue(raw)); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ProfilePath returns the profile file that accompanies path.
func ProfilePath(path, profile string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "." + profile + ext
}

// Validate rejects settings the resolver cannot run with.
func (c *Config) Validate() error {
	if c.Resolver.MaxDepth < 0 {
		return fmt.Errorf("resolver.max_depth must be >= 0, got %d", c.Resolver.MaxDepth)
	}
	if len(c.Resolver.Models) > 0 {
		if _, ok := c.Resolver.Models[c.Resolver.DefaultModel]; !ok {
			return fmt.Errorf("resolver.default_model %q is not in resolver.models", c.Resolver.DefaultModel)
		}
	}
	if c.Loader.CacheSize < 0 {
		return fmt.Errorf("loader.cache_size must be >= 0, got %d", c.Loader.CacheSize)
	}
	if c.Audit.Enabled && c.Audit.Driver == "sqlite" && c.Audit.DSN == "" {
		return fmt.Errorf("audit.dsn is required for the sqlite driver")
	}
	return nil
}

func setDefaults(k *koanf.Koanf) {
	_ = k.Set("log.level", "info")
	_ = k.Set("log.format", "text")

	_ = k.Set("resolver.max_depth", 10)
	_ = k.Set("resolver.default_model", "sonnet")

	_ = k.Set("loader.cache_size", 256)

	_ = k.Set("interpolation.strict", false)

	_ = k.Set("telemetry.service_name", "agentplate")
	_ = k.Set("telemetry.exporter", "none")

	_ = k.Set("audit.enabled", false)
	_ = k.Set("audit.driver", "memory")
}

func parseValue(raw string) any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	var v any
	if err := yamlv3.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}
