// Copyright OCR Backend Authors
// SPDX-License-Identifier: Apache-2.0

// Package provider implements a generic factory registry for pluggable backends.
//
// The record store and the OCR engine each own a typed Registry. Backend
// packages register themselves from init(), so a blank import is enough to
// make a backend selectable from configuration:
//
//	import _ "github.com/V-Neelagandan/OCR-Backend/pkg/recordstore/sqlite"
//	store, err := recordstore.Providers.Open(ctx, "sqlite", params)
package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Factory builds a backend from string parameters. Unknown keys are ignored.
type Factory[T any] func(ctx context.Context, params map[string]string) (T, error)

// Registry maps backend names to factories for one backend interface T.
type Registry[T any] struct {
	kind      string
	mu        sync.RWMutex
	factories map[string]Factory[T]
}

// NewRegistry creates an empty registry. kind names the subsystem in error
// messages, e.g. "record_store" or "ocr_engine".
func NewRegistry[T any](kind string) *Registry[T] {
	return &Registry[T]{
		kind:      kind,
		factories: make(map[string]Factory[T]),
	}
}

// Register adds a named factory. Registering the same name twice panics.
func (r *Registry[T]) Register(name string, f Factory[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		panic(fmt.Sprintf("provider: %s backend %q registered twice", r.kind, name))
	}
	r.factories[name] = f
}

// Has reports whether a backend with the given name is registered.
func (r *Registry[T]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// Open instantiates the named backend.
func (r *Registry[T]) Open(ctx context.Context, name string, params map[string]string) (T, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("unknown %s backend %q (registered: %v)", r.kind, name, r.Names())
	}
	return f(ctx, params)
}

// Names returns the registered backend names in sorted order.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
