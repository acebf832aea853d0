// Copyright OCR Backend Authors
// SPDX-License-Identifier: Apache-2.0

// Package ocrtest provides a scriptable OCR engine and image fixtures for tests.
package ocrtest

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"

	"github.com/V-Neelagandan/OCR-Backend/pkg/ocr"
)

// compile-time check
var _ ocr.Engine = (*Engine)(nil)

// Engine is a fake ocr.Engine. RecognizeFunc decides the result; when nil
// every image is recognised as Text.
type Engine struct {
	Text          string
	RecognizeFunc func(ctx context.Context, image []byte) (string, error)

	mu     sync.Mutex
	calls  int
	closed bool
}

func (e *Engine) Name() string { return "fake" }

func (e *Engine) Recognize(ctx context.Context, image []byte) (string, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	if e.RecognizeFunc != nil {
		return e.RecognizeFunc(ctx, image)
	}
	return e.Text, nil
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

// Calls returns how many times Recognize ran.
func (e *Engine) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// Closed reports whether Close was called.
func (e *Engine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// PNG returns a small valid PNG image.
func PNG() []byte {
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.SetGray(1, 1, color.Gray{Y: 0})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
