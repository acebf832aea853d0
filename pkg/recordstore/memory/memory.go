// Copyright OCR Backend Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"sync"

	"github.com/V-Neelagandan/OCR-Backend/pkg/core/schema"
	"github.com/V-Neelagandan/OCR-Backend/pkg/recordstore"
)

func init() {
	recordstore.Providers.Register("memory", func(_ context.Context, _ map[string]string) (recordstore.Store, error) {
		return New(), nil
	})
}

// compile-time check
var _ recordstore.Store = (*Store)(nil)

// Store is an in-memory record store.
type Store struct {
	mu      sync.RWMutex
	records []schema.ExtractionRecord
}

// New creates a new in-memory record store.
func New() *Store {
	return &Store{}
}

// Append adds a record to the end of the store.
func (s *Store) Append(_ context.Context, record schema.ExtractionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

// List returns a copy of all records.
func (s *Store) List(_ context.Context) ([]schema.ExtractionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]schema.ExtractionRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close(_ context.Context) error {
	return nil
}
