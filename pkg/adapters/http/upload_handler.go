// Copyright OCR Backend Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/V-Neelagandan/OCR-Backend/pkg/core/schema"
	"github.com/V-Neelagandan/OCR-Backend/pkg/core/services"
)

// Parts larger than this are buffered in temporary files rather than memory.
const maxMemory = 32 << 20

// handleUpload handles POST /upload
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to parse multipart form")
		h.writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		// A "file" part sent with an empty filename is parsed as a plain value.
		if _, ok := r.MultipartForm.Value["file"]; ok {
			h.writeError(w, http.StatusBadRequest, "Unsupported file type")
			return
		}
		h.writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	filename := clientFilename(header)
	record, err := h.extraction.Upload(r.Context(), filename, file)
	switch {
	case errors.Is(err, services.ErrUnsupportedType):
		h.writeError(w, http.StatusBadRequest, "Unsupported file type")
		return
	case errors.Is(err, services.ErrInvalidFilename):
		h.writeError(w, http.StatusBadRequest, "Invalid filename")
		return
	case err != nil:
		h.logger.Error().Err(err).Str("filename", filename).Msg("Failed to process upload")
		h.writeError(w, http.StatusInternalServerError, "Failed to process upload")
		return
	}

	h.logger.Debug().
		Str("filename", record.Filename).
		Int64("bytes", header.Size).
		Msg("File uploaded")

	writeJSON(w, http.StatusOK, schema.MessageResponse{Message: "File uploaded and text extracted"})
}

// clientFilename returns the filename exactly as the client sent it.
// multipart already reduces FileHeader.Filename to its last path element,
// which would turn "scans/page.png" into "page.png" instead of letting
// SecureFilename fold the directory into "scans_page.png".
func clientFilename(header *multipart.FileHeader) string {
	_, params, err := mime.ParseMediaType(header.Header.Get("Content-Disposition"))
	if err == nil && params["filename"] != "" {
		return params["filename"]
	}
	return header.Filename
}
