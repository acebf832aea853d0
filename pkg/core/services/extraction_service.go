// Copyright OCR Backend Authors
// SPDX-License-Identifier: Apache-2.0

package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/V-Neelagandan/OCR-Backend/pkg/core/schema"
	"github.com/V-Neelagandan/OCR-Backend/pkg/extract"
	"github.com/V-Neelagandan/OCR-Backend/pkg/observability/logging"
	"github.com/V-Neelagandan/OCR-Backend/pkg/recordstore"
	"github.com/V-Neelagandan/OCR-Backend/pkg/uploads"
)

var (
	// ErrUnsupportedType is returned for an empty filename or an extension
	// outside png, jpg, jpeg and pdf.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrInvalidFilename is returned when sanitising leaves nothing of the name.
	ErrInvalidFilename = errors.New("invalid filename")
)

// Extractor runs OCR on a stored file.
type Extractor interface {
	File(ctx context.Context, path string) extract.Result
}

// ExtractionService stores uploads, extracts their text and records the
// result.
type ExtractionService struct {
	dir       *uploads.Dir
	extractor Extractor
	store     recordstore.Store
	logger    *logging.Logger
}

// NewExtractionService creates a new extraction service
func NewExtractionService(dir *uploads.Dir, extractor Extractor, store recordstore.Store, logger *logging.Logger) *ExtractionService {
	if logger == nil {
		logger = logging.Nop()
	}
	return &ExtractionService{
		dir:       dir,
		extractor: extractor,
		store:     store,
		logger:    logger.WithComponent("extraction"),
	}
}

// Upload validates originalName, saves content under its sanitised name,
// extracts the text and appends the record to the store.
//
// Extraction failures do not fail the upload: the stored text is the error
// sentinel. Only validation, disk and store errors are returned.
func (s *ExtractionService) Upload(ctx context.Context, originalName string, content io.Reader) (schema.ExtractionRecord, error) {
	if originalName == "" || !uploads.AllowedExtension(originalName) {
		return schema.ExtractionRecord{}, ErrUnsupportedType
	}
	name := uploads.SecureFilename(originalName)
	if name == "" {
		return schema.ExtractionRecord{}, ErrInvalidFilename
	}

	// Once accepted, an upload is saved, extracted and recorded even if the
	// client goes away. ocr.timeout still bounds extraction.
	ctx = context.WithoutCancel(ctx)

	path, err := s.dir.Save(ctx, name, content)
	if err != nil {
		return schema.ExtractionRecord{}, fmt.Errorf("save upload: %w", err)
	}

	start := time.Now()
	result := s.extractor.File(ctx, path)
	if !result.OK() {
		s.logger.Warn().
			Err(result.Err).
			Str("filename", name).
			Msg("Extraction failed, storing error text")
	}

	record := schema.ExtractionRecord{
		Filename:    name,
		ExtractText: strings.TrimSpace(result.Text),
	}
	if err := s.store.Append(ctx, record); err != nil {
		return schema.ExtractionRecord{}, fmt.Errorf("append record: %w", err)
	}

	s.logger.Info().
		Str("filename", name).
		Int("chars", len(record.ExtractText)).
		Bool("ok", result.OK()).
		Dur("duration", time.Since(start)).
		Msg("Upload processed")

	return record, nil
}

// Records returns every stored record, oldest first.
func (s *ExtractionService) Records(ctx context.Context) ([]schema.ExtractionRecord, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// OpenUpload opens a previously uploaded file for reading.
func (s *ExtractionService) OpenUpload(name string) (*os.File, fs.FileInfo, error) {
	return s.dir.Open(name)
}
