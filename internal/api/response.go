// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/docent/internal/assets"
	"github.com/tomtom215/docent/internal/logging"
)

// APIResponse is the envelope for admin and error responses. The recommend
// endpoint writes its result bare, as the widget expects.
type APIResponse struct {
	// Status is "success" or "error"
	Status string `json:"status"`

	// Data contains the response payload (omitted on error)
	Data interface{} `json:"data,omitempty"`

	// Error contains error details (omitted on success)
	Error *APIError `json:"error,omitempty"`

	// Meta contains optional metadata about the response
	Meta *APIMeta `json:"meta,omitempty"`
}

// APIError represents an error response.
type APIError struct {
	// Code is a machine-readable error code
	Code string `json:"code"`

	// Message is a human-readable error message
	Message string `json:"message"`

	// Details contains additional error details (optional)
	Details interface{} `json:"details,omitempty"`

	// RequestID is the request ID for tracing
	RequestID string `json:"request_id,omitempty"`
}

// APIMeta contains optional response metadata.
type APIMeta struct {
	// Timestamp is when the response was generated
	Timestamp time.Time `json:"timestamp"`
}

// respondSuccess writes a success envelope.
func respondSuccess(w http.ResponseWriter, status int, data interface{}) {
	assets.WriteJSON(w, status, &APIResponse{
		Status: "success",
		Data:   data,
		Meta:   &APIMeta{Timestamp: time.Now().UTC()},
	})
}

// respondError writes an error envelope. err, when set, is logged and never
// sent to the client.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details interface{}, err error) {
	if err != nil {
		logging.Ctx(r.Context()).Warn().
			Err(err).
			Str("code", code).
			Int("status", status).
			Str("path", r.URL.Path).
			Msg("API error")
	}

	w.Header().Set("Cache-Control", "no-store")
	assets.WriteJSON(w, status, &APIResponse{
		Status: "error",
		Error: &APIError{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
	})
}

// OriginErrorHandler answers with 502 when the origin cannot be reached. It
// is installed as the origin proxy's error handler, which already logged err.
func OriginErrorHandler(w http.ResponseWriter, r *http.Request, _ error) {
	respondError(w, r, http.StatusBadGateway, ErrCodeOriginUnavailable,
		"The origin could not be reached", nil, nil)
}
