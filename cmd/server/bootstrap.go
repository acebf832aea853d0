// Copyright OCR Backend Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/V-Neelagandan/OCR-Backend/pkg/core/config"
	"github.com/V-Neelagandan/OCR-Backend/pkg/extract"
	"github.com/V-Neelagandan/OCR-Backend/pkg/observability/logging"
	"github.com/V-Neelagandan/OCR-Backend/pkg/ocr"
	"github.com/V-Neelagandan/OCR-Backend/pkg/raster"
)

// loadConfig reads the --config file. A missing file falls back to defaults
// unless the flag was given explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, bool, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
			return config.Default(), true, nil
		}
		return nil, false, err
	}
	return cfg, false, nil
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	return logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// newExtractor opens the configured OCR engine and locates the PDF
// rasterizer. Both fail fast so a misconfigured toolchain stops startup.
func newExtractor(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*extract.Extractor, ocr.Engine, error) {
	engine, err := ocr.Engines.Open(ctx, cfg.OCR.Engine, cfg.OCRParams())
	if err != nil {
		return nil, nil, fmt.Errorf("ocr engine %s: %w", cfg.OCR.Engine, err)
	}

	rasterizer, err := raster.NewPoppler(cfg.PDF.PopplerPath, cfg.PDF.DPI)
	if err != nil {
		engine.Close()
		return nil, nil, err
	}
	logger.Debug().
		Str("engine", engine.Name()).
		Str("pdftoppm", rasterizer.Binary()).
		Str("pdfinfo", rasterizer.InfoBinary()).
		Int("dpi", cfg.PDF.DPI).
		Msg("OCR toolchain ready")

	x := extract.New(engine, rasterizer, extract.Options{
		Preprocess: ocr.PreprocessOptions{
			Grayscale: cfg.OCR.Preprocess.Grayscale,
			Contrast:  cfg.OCR.Preprocess.Contrast,
			Threshold: cfg.OCR.Preprocess.Threshold,
		},
		Timeout:         cfg.OCR.Timeout,
		PageWorkers:     cfg.OCR.PageWorkers,
		PreferTextLayer: cfg.PDF.PreferTextLayer,
		Logger:          logger,
	})
	return x, engine, nil
}
