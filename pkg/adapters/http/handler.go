// Copyright OCR Backend Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"encoding/json"
	"net/http"

	"github.com/V-Neelagandan/OCR-Backend/pkg/core/schema"
	"github.com/V-Neelagandan/OCR-Backend/pkg/core/services"
	"github.com/V-Neelagandan/OCR-Backend/pkg/observability/logging"
)

// Options configures the HTTP adapter.
type Options struct {
	// CORSOrigins lists the origins allowed to call the API. "*" allows any
	// origin; an empty list disables CORS headers.
	CORSOrigins []string
}

// Handler implements the HTTP adapter
type Handler struct {
	extraction *services.ExtractionService
	logger     *logging.Logger
	mux        *http.ServeMux
	cors       corsPolicy
}

// New creates a new HTTP handler
func New(extraction *services.ExtractionService, logger *logging.Logger, opts Options) *Handler {
	if logger == nil {
		logger = logging.Nop()
	}
	h := &Handler{
		extraction: extraction,
		logger:     logger.WithComponent("http"),
		mux:        http.NewServeMux(),
		cors:       newCORSPolicy(opts.CORSOrigins),
	}

	// Register routes
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /openapi.json", h.handleOpenAPI)

	h.mux.HandleFunc("POST /upload", h.handleUpload)
	h.mux.HandleFunc("GET /retrieve", h.handleRetrieve)
	h.mux.HandleFunc("GET /uploads/{filename}", h.handleGetUpload)

	return h
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.withRequestLog(h.withCORS(h.mux)).ServeHTTP(w, r)
}

// handleHealth handles health check requests
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, schema.HealthResponse{Status: "healthy"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, schema.ErrorResponse{Error: message})
}
