// Copyright OCR Backend Authors
// SPDX-License-Identifier: Apache-2.0

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/V-Neelagandan/OCR-Backend/pkg/core/schema"
	"github.com/V-Neelagandan/OCR-Backend/pkg/recordstore"

	_ "modernc.org/sqlite"
)

func init() {
	recordstore.Providers.Register("sqlite", func(ctx context.Context, params map[string]string) (recordstore.Store, error) {
		return New(ctx, params["path"])
	})
}

// compile-time check
var _ recordstore.Store = (*Store)(nil)

// Store is a SQLite-backed record store. Each record is one row; insertion
// order is the autoincrement id.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path. ":memory:" is accepted.
func New(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite record store: path is required")
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create store dir %s: %w", dir, err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// One connection keeps writes serialised and makes ":memory:" a single database.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}

	s := &Store{db: db}
	if err := s.createTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) createTables(ctx context.Context) error {
	stmts := []string{
		`PRAGMA journal_mode=WAL`,
		`CREATE TABLE IF NOT EXISTS records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			filename TEXT NOT NULL,
			extract_text TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_filename ON records(filename)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite create tables: %w", err)
		}
	}
	return nil
}

// Append inserts one record.
func (s *Store) Append(ctx context.Context, record schema.ExtractionRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO records (filename, extract_text, created_at) VALUES (?, ?, ?)`,
		record.Filename, record.ExtractText, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// List returns all records ordered by insertion.
func (s *Store) List(ctx context.Context) ([]schema.ExtractionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT filename, extract_text FROM records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	records := []schema.ExtractionRecord{}
	for rows.Next() {
		var rec schema.ExtractionRecord
		if err := rows.Scan(&rec.Filename, &rec.ExtractText); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// Close closes the underlying database connection.
func (s *Store) Close(_ context.Context) error {
	return s.db.Close()
}
