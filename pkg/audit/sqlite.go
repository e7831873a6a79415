// Copyright 2026 © The Agentplate Authors
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists records in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps db and ensures the schema exists.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Open returns a Store for the configured driver. The "memory" driver ignores
// dsn; "sqlite" opens dsn with modernc.org/sqlite. The returned close func
// releases the database handle.
func Open(driver, dsn string) (Store, func() error, error) {
	switch driver {
	case "", "memory":
		return NewMemoryStore(), func() error { return nil }, nil
	case "sqlite":
		if dsn == "" {
			return nil, nil, errors.New("audit dsn is required for sqlite")
		}
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("open audit db: %w", err)
		}
		store, err := NewSQLiteStore(db)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return store, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown audit driver: %s", driver)
	}
}

// Record stores a single record.
func (s *SQLiteStore) Record(ctx context.Context, rec Record) error {
	vars, err := encodeVariables(rec.Variables)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO resolution_runs (
			run_id, template, version, base_dir, status, error_code, error_text,
			fingerprint, variables_json, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.RunID,
		rec.Template,
		rec.Version,
		rec.BaseDir,
		rec.Status,
		rec.ErrorCode,
		rec.Error,
		rec.Fingerprint,
		string(vars),
		normalizeTime(rec.StartedAt),
		normalizeTime(rec.FinishedAt),
	)
	return err
}

// List returns records matching the filter, newest first.
func (s *SQLiteStore) List(ctx context.Context, filter Filter) ([]Record, error) {
	query := `
		SELECT run_id, template, version, base_dir, status, error_code, error_text,
			fingerprint, variables_json, started_at, finished_at
		FROM resolution_runs
	`
	var args []any
	where := ""
	addFilter := func(clause string, value any) {
		if where == "" {
			where = " WHERE " + clause
		} else {
			where += " AND " + clause
		}
		args = append(args, value)
	}
	if filter.Template != "" {
		addFilter("template = ?", filter.Template)
	}
	if filter.Status != "" {
		addFilter("status = ?", filter.Status)
	}
	query += where + " ORDER BY started_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec      Record
			varsJSON sql.NullString
			started  sql.NullTime
			finished sql.NullTime
		)
		if err := rows.Scan(
			&rec.RunID,
			&rec.Template,
			&rec.Version,
			&rec.BaseDir,
			&rec.Status,
			&rec.ErrorCode,
			&rec.Error,
			&rec.Fingerprint,
			&varsJSON,
			&started,
			&finished,
		); err != nil {
			return nil, err
		}
		if varsJSON.Valid {
			if vars, err := decodeVariables([]byte(varsJSON.String)); err == nil {
				rec.Variables = vars
			}
		}
		if started.Valid {
			rec.StartedAt = started.Time
		}
		if finished.Valid {
			rec.FinishedAt = finished.Time
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS resolution_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			template TEXT NOT NULL,
			version TEXT NOT NULL DEFAULT '',
			base_dir TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			error_code TEXT NOT NULL DEFAULT '',
			error_text TEXT NOT NULL DEFAULT '',
			fingerprint TEXT NOT NULL DEFAULT '',
			variables_json TEXT,
			started_at TIMESTAMP,
			finished_at TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_resolution_runs_template ON resolution_runs(template);
		CREATE INDEX IF NOT EXISTS idx_resolution_runs_status ON resolution_runs(status);
	`)
	return err
}
