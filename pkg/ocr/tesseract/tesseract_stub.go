// Copyright OCR Backend Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !cgo || notesseract

// Package tesseract registers a placeholder for the Tesseract engine in
// builds without cgo or with the notesseract tag.
package tesseract

import (
	"context"
	"errors"

	"github.com/V-Neelagandan/OCR-Backend/pkg/ocr"
)

// ErrUnavailable is returned when the binary was built without Tesseract.
var ErrUnavailable = errors.New("tesseract support not compiled in (build with cgo and without the notesseract tag)")

func init() {
	ocr.Engines.Register("tesseract", func(_ context.Context, _ map[string]string) (ocr.Engine, error) {
		return nil, ErrUnavailable
	})
}
