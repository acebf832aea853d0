// Copyright OCR Backend Authors
// SPDX-License-Identifier: Apache-2.0

// Package ocr defines the text recognition engine interface and the image
// preparation applied before recognition.
package ocr

import (
	"context"
	"errors"
	"strings"

	"github.com/V-Neelagandan/OCR-Backend/pkg/provider"
)

// ErrEmptyImage is returned when an engine is asked to recognise zero bytes.
var ErrEmptyImage = errors.New("empty image")

// Engines is the registry of OCR engine implementations.
// Import implementation packages with blank imports to register them:
//
//	import _ "github.com/V-Neelagandan/OCR-Backend/pkg/ocr/tesseract"
//	import _ "github.com/V-Neelagandan/OCR-Backend/pkg/ocr/vision"
var Engines = provider.NewRegistry[Engine]("ocr_engine")

// Engine turns an encoded raster image (PNG or JPEG) into text.
// Implementations must be safe for concurrent use.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, image []byte) (string, error)
	Close() error
}

// Error is a failure in one step of OCR processing.
type Error struct {
	Op  string // e.g. "decode", "recognize", "render page 3"
	Err error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WrapError returns err as an *Error for op, or nil when err is nil.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// SplitLanguages parses a comma separated language list such as "eng,deu".
func SplitLanguages(s string) []string {
	var langs []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			langs = append(langs, part)
		}
	}
	return langs
}
