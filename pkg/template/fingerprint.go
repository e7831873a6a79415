// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"encoding/hex"
	"encoding/json"

	"github.com/zeebo/blake3"
)

// Fingerprint returns the BLAKE3 hex digest of the config's JSON encoding.
// encoding/json sorts map keys, so equal configs hash equally.
func (c *ResolvedAgentConfig) Fingerprint() (string, error) {
	if c == nil {
		return "", nil
	}
	data, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
