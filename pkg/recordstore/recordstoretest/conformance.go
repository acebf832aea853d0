// Copyright OCR Backend Authors
// SPDX-License-Identifier: Apache-2.0

// Package recordstoretest provides a shared conformance test suite for
// recordstore.Store implementations. Each backend should call
// RunConformanceTests from its own _test.go file.
package recordstoretest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/V-Neelagandan/OCR-Backend/pkg/core/schema"
	"github.com/V-Neelagandan/OCR-Backend/pkg/recordstore"
)

// RunConformanceTests exercises a Store implementation against the shared
// contract. The newStore function is called once per sub-test to provide an
// isolated store instance.
func RunConformanceTests(t *testing.T, newStore func(t *testing.T) recordstore.Store) {
	t.Helper()

	t.Run("EmptyList", func(t *testing.T) {
		store := newStore(t)
		defer store.Close(context.Background())

		got, err := store.List(context.Background())
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if got == nil {
			t.Fatal("List on an empty store must return a non-nil slice")
		}
		if len(got) != 0 {
			t.Errorf("expected 0 records, got %d", len(got))
		}
	})

	t.Run("AppendAndList", func(t *testing.T) {
		store := newStore(t)
		defer store.Close(context.Background())
		ctx := context.Background()

		rec := schema.ExtractionRecord{Filename: "receipt.png", ExtractText: "TOTAL 12.50"}
		if err := store.Append(ctx, rec); err != nil {
			t.Fatalf("Append: %v", err)
		}

		got, err := store.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected 1 record, got %d", len(got))
		}
		if got[0] != rec {
			t.Errorf("record = %+v, want %+v", got[0], rec)
		}
	})

	t.Run("InsertionOrder", func(t *testing.T) {
		store := newStore(t)
		defer store.Close(context.Background())
		ctx := context.Background()

		names := []string{"c.png", "a.pdf", "b.jpg"}
		for _, name := range names {
			if err := store.Append(ctx, schema.ExtractionRecord{Filename: name, ExtractText: "text of " + name}); err != nil {
				t.Fatalf("Append %s: %v", name, err)
			}
		}

		got, err := store.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(got) != len(names) {
			t.Fatalf("expected %d records, got %d", len(names), len(got))
		}
		for i, name := range names {
			if got[i].Filename != name {
				t.Errorf("record %d = %q, want %q (oldest first)", i, got[i].Filename, name)
			}
		}
	})

	t.Run("DuplicateFilenames", func(t *testing.T) {
		store := newStore(t)
		defer store.Close(context.Background())
		ctx := context.Background()

		for _, text := range []string{"first scan", "second scan"} {
			if err := store.Append(ctx, schema.ExtractionRecord{Filename: "same.png", ExtractText: text}); err != nil {
				t.Fatalf("Append: %v", err)
			}
		}

		got, err := store.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("duplicate filenames must both be kept, got %d records", len(got))
		}
		if got[0].ExtractText != "first scan" || got[1].ExtractText != "second scan" {
			t.Errorf("unexpected records: %+v", got)
		}
	})

	t.Run("PreservesText", func(t *testing.T) {
		store := newStore(t)
		defer store.Close(context.Background())
		ctx := context.Background()

		rec := schema.ExtractionRecord{
			Filename:    "unicode.pdf",
			ExtractText: "Zeile 1\nStraße \"Nord\"\t№ 5",
		}
		if err := store.Append(ctx, rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
		got, err := store.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(got) != 1 || got[0].ExtractText != rec.ExtractText {
			t.Errorf("text not preserved: %+v", got)
		}
	})

	t.Run("ConcurrentAppend", func(t *testing.T) {
		store := newStore(t)
		defer store.Close(context.Background())
		ctx := context.Background()

		const writers = 20
		var wg sync.WaitGroup
		errs := make(chan error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				rec := schema.ExtractionRecord{Filename: fmt.Sprintf("page-%02d.png", n), ExtractText: "x"}
				if err := store.Append(ctx, rec); err != nil {
					errs <- err
				}
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Fatalf("concurrent Append: %v", err)
		}

		got, err := store.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(got) != writers {
			t.Errorf("lost updates: expected %d records, got %d", writers, len(got))
		}
	})
}
