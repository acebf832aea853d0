// Copyright OCR Backend Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"errors"
	"net/http"

	"github.com/V-Neelagandan/OCR-Backend/pkg/uploads"
)

// handleGetUpload handles GET /uploads/{filename}
func (h *Handler) handleGetUpload(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")

	file, info, err := h.extraction.OpenUpload(name)
	if err != nil {
		if errors.Is(err, uploads.ErrNotFound) || errors.Is(err, uploads.ErrInvalidName) {
			if errors.Is(err, uploads.ErrInvalidName) {
				h.logger.Warn().Str("filename", name).Msg("Rejected file name outside upload directory")
			}
			h.writeError(w, http.StatusNotFound, "File not found")
			return
		}
		h.logger.Error().Err(err).Str("filename", name).Msg("Failed to open upload")
		h.writeError(w, http.StatusInternalServerError, "Failed to read file")
		return
	}
	defer file.Close()

	// Content type comes from the extension, then from sniffing.
	http.ServeContent(w, r, info.Name(), info.ModTime(), file)
}
