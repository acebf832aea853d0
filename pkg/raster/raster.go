// Copyright OCR Backend Authors
// SPDX-License-Identifier: Apache-2.0

// Package raster renders PDF pages to images for OCR.
package raster

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
)

// ErrNoPages is returned for a PDF that parses but contains no pages.
var ErrNoPages = errors.New("pdf has no pages")

// Rasterizer turns PDF pages into encoded images. Pages are numbered from 1.
type Rasterizer interface {
	PageCount(ctx context.Context, pdfPath string) (int, error)
	RenderPage(ctx context.Context, pdfPath string, page int) ([]byte, error)
}

// CountPages opens the PDF at path and returns its page count.
func CountPages(path string) (n int, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("open PDF: malformed document: %v", r)
		}
	}()

	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("open PDF: %w", err)
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open PDF: %w", err)
	}
	defer f.Close()

	reader, err := pdf.NewReader(f, info.Size())
	if err != nil {
		return 0, fmt.Errorf("open PDF: %w", err)
	}
	n = reader.NumPage()
	if n == 0 {
		return 0, ErrNoPages
	}
	return n, nil
}
