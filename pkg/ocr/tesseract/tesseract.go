// Copyright OCR Backend Authors
// SPDX-License-Identifier: Apache-2.0

//go:build cgo && !notesseract

// Package tesseract provides the Tesseract OCR engine through gosseract.
// It requires the Tesseract and Leptonica libraries at build and run time.
// Builds without cgo, or with the notesseract tag, register a stub that
// reports the engine as unavailable.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/V-Neelagandan/OCR-Backend/pkg/ocr"
)

func init() {
	ocr.Engines.Register("tesseract", func(_ context.Context, params map[string]string) (ocr.Engine, error) {
		return New(Options{
			Languages:      ocr.SplitLanguages(params["languages"]),
			TessdataPrefix: params["tessdata_prefix"],
		})
	})
}

// compile-time check
var _ ocr.Engine = (*Engine)(nil)

// Options configures the Tesseract engine.
type Options struct {
	Languages      []string // defaults to ["eng"]
	TessdataPrefix string   // directory containing tessdata; empty uses the library default
}

// Engine runs Tesseract with a fresh client per call, since a gosseract
// client is not safe for concurrent use.
type Engine struct {
	opts          Options
	clientFactory func() *gosseract.Client
}

// New creates the engine and runs one recognition on a blank image, which
// forces Tesseract to load the language data. A missing tessdata directory or
// language pack is reported here instead of on the first upload.
func New(opts Options) (*Engine, error) {
	if len(opts.Languages) == 0 {
		opts.Languages = []string{"eng"}
	}
	e := &Engine{opts: opts, clientFactory: gosseract.NewClient}

	if err := e.warmUp(); err != nil {
		return nil, fmt.Errorf("tesseract languages %s: %w", strings.Join(opts.Languages, "+"), err)
	}
	return e, nil
}

// warmUp initialises a client. gosseract defers TessBaseAPI::Init until the
// first Text call, so SetLanguage alone checks nothing.
func (e *Engine) warmUp() error {
	blank := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range blank.Pix {
		blank.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, blank); err != nil {
		return err
	}

	c := e.newClient()
	defer c.Close()
	if err := c.SetLanguage(e.opts.Languages...); err != nil {
		return err
	}
	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		return err
	}
	_, err := c.Text()
	return err
}

func (e *Engine) Name() string { return "tesseract" }

// Recognize returns the text Tesseract finds in image.
func (e *Engine) Recognize(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", ocr.ErrEmptyImage
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c := e.newClient()
	defer c.Close()

	if err := c.SetLanguage(e.opts.Languages...); err != nil {
		return "", fmt.Errorf("set languages %s: %w", strings.Join(e.opts.Languages, "+"), err)
	}
	if err := c.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return text, nil
}

// Close is a no-op; clients are released after every call.
func (e *Engine) Close() error { return nil }

func (e *Engine) newClient() *gosseract.Client {
	c := e.clientFactory()
	if e.opts.TessdataPrefix != "" {
		c.TessdataPrefix = e.opts.TessdataPrefix
	}
	return c
}
