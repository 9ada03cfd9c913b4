// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/docent/internal/upstream"
)

// HealthHandler serves the admin health probes.
type HealthHandler struct {
	version   string
	startTime time.Time
	breakers  []upstream.StateReporter
}

// NewHealthHandler creates a HealthHandler reporting on the given breakers.
func NewHealthHandler(version string, breakers ...upstream.StateReporter) *HealthHandler {
	return &HealthHandler{
		version:   version,
		startTime: time.Now(),
		breakers:  breakers,
	}
}

// HealthLive handles liveness probe requests (Kubernetes-style)
// Returns 200 OK if the process is alive, regardless of dependencies
func (h *HealthHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"alive":   true,
		"version": h.version,
		"uptime":  time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles readiness probe requests (Kubernetes-style).
// Returns 503 while any upstream circuit breaker is open. The proxy still
// serves pages with an open breaker, but without suggestions.
func (h *HealthHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	states := make(map[string]string, len(h.breakers))
	ready := true
	for _, b := range h.breakers {
		state := b.State()
		states[b.Name()] = state
		if state == "open" {
			ready = false
		}
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}

	respondSuccess(w, status, map[string]interface{}{
		"ready":            ready,
		"circuit_breakers": states,
	})
}
