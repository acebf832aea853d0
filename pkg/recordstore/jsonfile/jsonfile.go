// Copyright OCR Backend Authors
// SPDX-License-Identifier: Apache-2.0

package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/V-Neelagandan/OCR-Backend/pkg/core/schema"
	"github.com/V-Neelagandan/OCR-Backend/pkg/recordstore"
)

func init() {
	recordstore.Providers.Register("jsonfile", func(_ context.Context, params map[string]string) (recordstore.Store, error) {
		return New(params["path"])
	})
}

// compile-time check
var _ recordstore.Store = (*Store)(nil)

// Store keeps every record in a single JSON array file.
//
// Each Append reads the whole file, appends one entry and rewrites the file
// through a temp file + rename. A mutex serialises Append within the process.
type Store struct {
	path string
	mu   sync.Mutex
}

// New creates a JSON file store at path, creating the parent directory if needed.
// The file itself is created on the first Append.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("jsonfile record store: path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir %s: %w", dir, err)
		}
	}
	return &Store{path: path}, nil
}

// Path returns the location of the store file.
func (s *Store) Path() string {
	return s.path
}

// Append adds a record. A missing or unparseable store file is treated as empty
// and replaced.
func (s *Store) Append(_ context.Context, record schema.ExtractionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		records = nil
	}
	records = append(records, record)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write records: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename records: %w", err)
	}
	return nil
}

// List returns all records in file order. A missing file yields an empty slice.
func (s *Store) List(_ context.Context) ([]schema.ExtractionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if errors.Is(err, fs.ErrNotExist) {
		return []schema.ExtractionRecord{}, nil
	}
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []schema.ExtractionRecord{}
	}
	return records, nil
}

// Close is a no-op for the JSON file store.
func (s *Store) Close(_ context.Context) error {
	return nil
}

func (s *Store) read() ([]schema.ExtractionRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}

	var records []schema.ExtractionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", recordstore.ErrCorruptStore, s.path, err)
	}
	return records, nil
}
