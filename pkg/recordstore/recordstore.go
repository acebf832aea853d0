// Copyright OCR Backend Authors
// SPDX-License-Identifier: Apache-2.0

package recordstore

import (
	"context"
	"errors"

	"github.com/V-Neelagandan/OCR-Backend/pkg/core/schema"
	"github.com/V-Neelagandan/OCR-Backend/pkg/provider"
)

// ErrCorruptStore is returned by List when the persisted records cannot be decoded.
var ErrCorruptStore = errors.New("record store is corrupt")

// Providers is the registry of record store backend implementations.
// Import implementation packages with blank imports to register them:
//
//	import _ "github.com/V-Neelagandan/OCR-Backend/pkg/recordstore/jsonfile"
//	import _ "github.com/V-Neelagandan/OCR-Backend/pkg/recordstore/memory"
//	import _ "github.com/V-Neelagandan/OCR-Backend/pkg/recordstore/sqlite"
var Providers = provider.NewRegistry[Store]("record_store")

// Store persists extraction records in insertion order.
//
// Append must serialise writers so that concurrent uploads never lose a
// record. Filenames are not unique; every Append adds a new entry.
type Store interface {
	Append(ctx context.Context, record schema.ExtractionRecord) error
	// List returns every record, oldest first. An empty store yields a
	// non-nil empty slice.
	List(ctx context.Context) ([]schema.ExtractionRecord, error)
	Close(ctx context.Context) error
}
