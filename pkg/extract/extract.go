// Copyright OCR Backend Authors
// SPDX-License-Identifier: Apache-2.0

// Package extract runs OCR on uploaded images and PDFs.
//
// Extraction never fails outright: every failure is reported twice, as a
// structured error in Result.Err and as the human-readable sentinel text
// ("Image OCR Error: ..." or "PDF OCR Error: ...") in Result.Text, which is
// what gets stored.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/V-Neelagandan/OCR-Backend/pkg/core/schema"
	"github.com/V-Neelagandan/OCR-Backend/pkg/observability/logging"
	"github.com/V-Neelagandan/OCR-Backend/pkg/ocr"
	"github.com/V-Neelagandan/OCR-Backend/pkg/raster"
	"github.com/V-Neelagandan/OCR-Backend/pkg/uploads"
)

// ErrNoRasterizer is reported for PDFs when no rasterizer is configured.
var ErrNoRasterizer = errors.New("pdf rasterizer not configured")

// Result is the outcome of one extraction.
type Result struct {
	Text string // OCR output, or the error sentinel when Err != nil
	Err  error
}

// OK reports whether extraction succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Options tunes an Extractor.
type Options struct {
	Preprocess  ocr.PreprocessOptions
	Timeout     time.Duration // per file; 0 means no deadline
	PageWorkers int           // pages rendered and recognised in parallel; <1 means 1
	// PreferTextLayer skips OCR for PDFs whose every page carries embedded
	// text. Scanned PDFs still go through the rasterizer.
	PreferTextLayer bool
	Logger          *logging.Logger
}

// Extractor turns files on disk into text.
type Extractor struct {
	engine     ocr.Engine
	rasterizer raster.Rasterizer
	opts       Options
	logger     *logging.Logger
}

// New creates an Extractor. rasterizer may be nil, in which case every PDF
// yields a "PDF OCR Error" result.
func New(engine ocr.Engine, rasterizer raster.Rasterizer, opts Options) *Extractor {
	if opts.PageWorkers < 1 {
		opts.PageWorkers = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &Extractor{
		engine:     engine,
		rasterizer: rasterizer,
		opts:       opts,
		logger:     logger.WithComponent("extract"),
	}
}

// File extracts text from path, treating names ending in .pdf
// (case-insensitive) as PDFs and everything else as images.
func (e *Extractor) File(ctx context.Context, path string) Result {
	if uploads.IsPDF(path) {
		return e.PDF(ctx, path)
	}
	return e.Image(ctx, path)
}

// Image runs OCR on a single image file.
func (e *Extractor) Image(ctx context.Context, path string) Result {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	text, err := e.image(ctx, path)
	if err != nil {
		return Result{Text: schema.ImageOCRErrorPrefix + err.Error(), Err: err}
	}
	return Result{Text: text}
}

// PDF rasterizes every page, runs OCR on each and concatenates the page
// texts in page order with no separator.
func (e *Extractor) PDF(ctx context.Context, path string) Result {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	text, err := e.pdf(ctx, path)
	if err != nil {
		return Result{Text: schema.PDFOCRErrorPrefix + err.Error(), Err: err}
	}
	return Result{Text: text}
}

func (e *Extractor) image(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", ocr.WrapError("read", err)
	}
	img, err := ocr.Preprocess(data, e.opts.Preprocess)
	if err != nil {
		return "", ocr.WrapError("preprocess", err)
	}
	text, err := e.engine.Recognize(ctx, img)
	if err != nil {
		return "", ocr.WrapError("recognize", err)
	}
	return text, nil
}

func (e *Extractor) pdf(ctx context.Context, path string) (string, error) {
	if e.opts.PreferTextLayer {
		if text, ok := e.textLayer(path); ok {
			return text, nil
		}
	}
	if e.rasterizer == nil {
		return "", ocr.WrapError("rasterize", ErrNoRasterizer)
	}

	pages, err := e.rasterizer.PageCount(ctx, path)
	if err != nil {
		return "", ocr.WrapError("page count", err)
	}

	start := time.Now()
	texts := make([]string, pages)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.PageWorkers)
	for page := 1; page <= pages; page++ {
		g.Go(func() error {
			text, err := e.page(gctx, path, page)
			if err != nil {
				return err
			}
			texts[page-1] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	e.logger.Debug().
		Str("path", path).
		Int("pages", pages).
		Dur("duration", time.Since(start)).
		Msg("PDF extracted")

	return strings.Join(texts, ""), nil
}

// textLayer returns the embedded text when every page has some.
func (e *Extractor) textLayer(path string) (string, bool) {
	texts, err := raster.PageTexts(path)
	if err != nil {
		e.logger.Debug().Err(err).Str("path", path).Msg("No usable text layer")
		return "", false
	}
	for _, t := range texts {
		if strings.TrimSpace(t) == "" {
			return "", false
		}
	}
	e.logger.Debug().Str("path", path).Int("pages", len(texts)).Msg("Using embedded text layer")
	return strings.Join(texts, ""), true
}

func (e *Extractor) page(ctx context.Context, path string, page int) (string, error) {
	img, err := e.rasterizer.RenderPage(ctx, path, page)
	if err != nil {
		return "", ocr.WrapError(fmt.Sprintf("render page %d", page), err)
	}
	if e.opts.Preprocess.Enabled() {
		if img, err = ocr.Preprocess(img, e.opts.Preprocess); err != nil {
			return "", ocr.WrapError(fmt.Sprintf("preprocess page %d", page), err)
		}
	}
	text, err := e.engine.Recognize(ctx, img)
	if err != nil {
		return "", ocr.WrapError(fmt.Sprintf("recognize page %d", page), err)
	}
	return text, nil
}

func (e *Extractor) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.opts.Timeout > 0 {
		return context.WithTimeout(ctx, e.opts.Timeout)
	}
	return context.WithCancel(ctx)
}
