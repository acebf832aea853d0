// Copyright OCR Backend Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/V-Neelagandan/OCR-Backend/pkg/core/schema"
	"github.com/V-Neelagandan/OCR-Backend/pkg/uploads"
)

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Extract text from a local image or PDF",
		Long: `Run the same OCR pipeline as the upload endpoint on a local file and
print the text. Nothing is stored and the file is not copied.

Extraction errors are printed as "Image OCR Error: ..." or
"PDF OCR Error: ..." and make the command exit non-zero.`,
		Example: `  ocr-backend extract scan.png
  ocr-backend extract invoice.pdf --json`,
		Args: cobra.ExactArgs(1),
		RunE: runExtract,
	}
	cmd.Flags().Bool("json", false, "Print the record as JSON")
	return cmd
}

func runExtract(cmd *cobra.Command, args []string) error {
	path := args[0]
	if !uploads.AllowedExtension(path) {
		return fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
	if _, err := os.Stat(path); err != nil {
		return err
	}

	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}
	// Keep stdout for the extracted text.
	if cfg.Log.Output == "stdout" {
		cfg.Log.Output = "stderr"
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	extractor, engine, err := newExtractor(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer engine.Close()

	result := extractor.File(cmd.Context(), path)
	record := schema.ExtractionRecord{
		Filename:    uploads.SecureFilename(filepath.Base(path)),
		ExtractText: strings.TrimSpace(result.Text),
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(record); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(out, record.ExtractText)
	}

	if result.Err != nil {
		return fmt.Errorf("extraction failed: %w", result.Err)
	}
	return nil
}
