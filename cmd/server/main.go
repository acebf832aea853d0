// Copyright OCR Backend Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	// Record store backends
	_ "github.com/V-Neelagandan/OCR-Backend/pkg/recordstore/jsonfile"
	_ "github.com/V-Neelagandan/OCR-Backend/pkg/recordstore/memory"
	_ "github.com/V-Neelagandan/OCR-Backend/pkg/recordstore/sqlite"

	// OCR engines
	_ "github.com/V-Neelagandan/OCR-Backend/pkg/ocr/tesseract"
	_ "github.com/V-Neelagandan/OCR-Backend/pkg/ocr/vision"
)

var (
	// Version is set via ldflags during build
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: could not load .env file: %v\n", err)
	}

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
