// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

// Package audit records template resolution runs.
package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Run statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Record describes one ResolveTemplate call.
type Record struct {
	RunID       string         `json:"runId"`
	Template    string         `json:"template"`
	Version     string         `json:"version,omitempty"`
	BaseDir     string         `json:"baseDir,omitempty"`
	Status      string         `json:"status"`
	ErrorCode   string         `json:"errorCode,omitempty"`
	Error       string         `json:"error,omitempty"`
	Fingerprint string         `json:"fingerprint,omitempty"`
	Variables   map[string]any `json:"variables,omitempty"`
	StartedAt   time.Time      `json:"startedAt"`
	FinishedAt  time.Time      `json:"finishedAt"`
}

// Duration returns how long the run took.
func (r Record) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store persists resolution records.
type Store interface {
	Record(ctx context.Context, rec Record) error
	List(ctx context.Context, filter Filter) ([]Record, error)
}

// Filter limits List queries. Results are newest first.
type Filter struct {
	Template string
	Status   string
	Limit    int
}

// MemoryStore keeps records in memory.
type MemoryStore struct {
	mu      sync.Mutex
	records []Record
}

// NewMemoryStore returns an in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Record appends a record.
func (s *MemoryStore) Record(_ context.Context, rec Record) error {
	rec.StartedAt = normalizeTime(rec.StartedAt)
	rec.FinishedAt = normalizeTime(rec.FinishedAt)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// List returns filtered records, newest first.
func (s *MemoryStore) List(_ context.Context, filter Filter) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, 0, len(s.records))
	for i := len(s.records) - 1; i >= 0; i-- {
		rec := s.records[i]
		if !filter.matches(rec) {
			continue
		}
		out = append(out, rec)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func (f Filter) matches(rec Record) bool {
	if f.Template != "" && rec.Template != f.Template {
		return false
	}
	if f.Status != "" && rec.Status != f.Status {
		return false
	}
	return true
}

func encodeVariables(vars map[string]any) ([]byte, error) {
	if len(vars) == 0 {
		return []byte("null"), nil
	}
	return json.Marshal(vars)
}

func decodeVariables(raw []byte) (map[string]any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func normalizeTime(value time.Time) time.Time {
	if value.IsZero() {
		return value
	}
	return value.UTC()
}
