// Copyright OCR Backend Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ocr-backend",
		Short: "OCR upload service for images and PDFs",
		Long: `ocr-backend accepts image (png, jpg, jpeg) and PDF uploads over HTTP,
extracts their text with Tesseract or Google Cloud Vision, and keeps a
record of every extraction.

Running without a subcommand starts the HTTP server.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	root.PersistentFlags().StringP("config", "c", "config.yaml", "Path to configuration file")
	root.Flags().Int("port", 0, "HTTP port to listen on (overrides config)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newExtractCmd())
	root.AddCommand(newVersionCmd())
	return root
}
