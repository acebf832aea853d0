// Copyright OCR Backend Authors
// SPDX-License-Identifier: Apache-2.0

// Package rastertest provides a fake rasterizer for tests.
package rastertest

import (
	"context"
	"fmt"

	"github.com/V-Neelagandan/OCR-Backend/pkg/raster"
)

// compile-time check
var _ raster.Rasterizer = (*Rasterizer)(nil)

// Rasterizer pretends every PDF has Pages pages. RenderPage returns the
// bytes "page-N" unless RenderFunc is set.
type Rasterizer struct {
	Pages      int
	CountErr   error
	RenderFunc func(ctx context.Context, page int) ([]byte, error)
}

func (r *Rasterizer) PageCount(_ context.Context, _ string) (int, error) {
	if r.CountErr != nil {
		return 0, r.CountErr
	}
	if r.Pages == 0 {
		return 0, raster.ErrNoPages
	}
	return r.Pages, nil
}

func (r *Rasterizer) RenderPage(ctx context.Context, _ string, page int) ([]byte, error) {
	if r.RenderFunc != nil {
		return r.RenderFunc(ctx, page)
	}
	return []byte(fmt.Sprintf("page-%d", page)), nil
}
