// Copyright OCR Backend Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"net/http"

	"github.com/V-Neelagandan/OCR-Backend/pkg/core/schema"
)

// handleRetrieve handles GET /retrieve
func (h *Handler) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	records, err := h.extraction.Records(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list records")
		h.writeError(w, http.StatusInternalServerError, "Failed to read extracted records")
		return
	}
	if records == nil {
		records = []schema.ExtractionRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}
