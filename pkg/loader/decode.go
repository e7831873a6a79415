// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Decode parses data into out using the format implied by path.
func Decode(path string, data []byte, out any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("empty file")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return decodeYAML(data, out)
	case ".json", ".jsonc":
		return decodeJSON(data, out)
	case ".toml":
		return decodeTOML(data, out)
	default:
		return decodeAuto(data, out)
	}
}

func decodeYAML(data []byte, out any) error {
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}

// decodeJSON accepts comments and trailing commas.
func decodeJSON(data []byte, out any) error {
	if err := json.Unmarshal(jsonc.ToJSON(data), out); err != nil {
		return fmt.Errorf("parse json: %w", err)
	}
	return nil
}

// decodeTOML goes through a generic map so the json field names of the
// template types apply to TOML keys as well.
func decodeTOML(data []byte, out any) error {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse toml: %w", err)
	}
	buf, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("parse toml: %w", err)
	}
	if err := json.Unmarshal(buf, out); err != nil {
		return fmt.Errorf("parse toml: %w", err)
	}
	return nil
}

func decodeAuto(data []byte, out any) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte("{")) {
		if err := decodeJSON(data, out); err == nil {
			return nil
		}
	}
	if err := decodeYAML(data, out); err == nil {
		return nil
	}
	if err := decodeTOML(data, out); err == nil {
		return nil
	}
	return fmt.Errorf("unsupported file format")
}
