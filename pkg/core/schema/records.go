// Copyright OCR Backend Authors
// SPDX-License-Identifier: Apache-2.0

package schema

// Prefixes of the text stored in place of OCR output when extraction fails.
const (
	ImageOCRErrorPrefix = "Image OCR Error: "
	PDFOCRErrorPrefix   = "PDF OCR Error: "
)

// ExtractionRecord is one entry of the record store
type ExtractionRecord struct {
	Filename    string `json:"filename"`     // Sanitized upload name
	ExtractText string `json:"extract_text"` // Trimmed OCR output, or an error sentinel
}

// MessageResponse is the body of a successful upload
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status string `json:"status"`
}
