// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/tomtom215/docent/internal/aggregator"
	"github.com/tomtom215/docent/internal/assets"
	"github.com/tomtom215/docent/internal/session"
	"github.com/tomtom215/docent/internal/validation"
)

// Suggester produces the recommend payload.
type Suggester interface {
	Suggestions(ctx context.Context, history []int, offset, limit int) aggregator.Result
}

// Handler serves the /fastly endpoints.
type Handler struct {
	suggester Suggester
	count     int
}

// NewHandler creates a Handler returning up to count suggestions per call.
func NewHandler(suggester Suggester, count int) *Handler {
	return &Handler{suggester: suggester, count: count}
}

// RecommendQuery is the validated /fastly/recommend query.
type RecommendQuery struct {
	Offset int `json:"offset" validate:"gte=0,lte=100000"`
}

// parseRecommendQuery reads the offset parameter. A missing offset is 0.
func parseRecommendQuery(r *http.Request) (RecommendQuery, error) {
	var q RecommendQuery
	raw := strings.TrimSpace(r.URL.Query().Get("offset"))
	if raw == "" {
		return q, nil
	}
	offset, err := strconv.Atoi(raw)
	if err != nil {
		return q, ErrInvalidOffset
	}
	q.Offset = offset
	return q, nil
}

// Recommend returns suggestions for the visitor's browsing history. Upstream
// failures shrink the list; they never fail the request.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	q, err := parseRecommendQuery(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(),
			map[string]interface{}{"field": "offset"}, nil)
		return
	}
	if verr := validation.ValidateStruct(&q); verr != nil {
		apiErr := verr.ToAPIError()
		respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details, nil)
		return
	}

	var history []int
	if st := session.FromContext(r.Context()); st != nil {
		history = st.History()
	}

	result := h.suggester.Suggestions(r.Context(), history, q.Offset, h.count)

	w.Header().Set("Cache-Control", "private, no-store")
	assets.WriteJSON(w, http.StatusOK, result)
}

// Asset serves the embedded widget file registered for the request path.
func (h *Handler) Asset(w http.ResponseWriter, r *http.Request) {
	if !assets.Serve(w, r, r.URL.Path) {
		http.NotFound(w, r)
	}
}
