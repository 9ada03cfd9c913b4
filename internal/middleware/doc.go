// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

/*
Package middleware provides the HTTP middleware shared by the proxy and admin
listeners.

Key Components:

  - RequestID: X-Request-ID propagation plus request and correlation ids in
    the logging context
  - PrometheusMetrics: request count, duration and in-flight gauge labelled by
    chi route pattern
  - AccessLog: one log line per completed request, warn above
    SlowRequestThreshold
  - Compression: gzip for generated API responses

All middleware use the chi signature func(http.Handler) http.Handler:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.AccessLog)
	r.With(middleware.Compression).Get("/fastly/recommend", h.Recommend)

The response writer wrappers implement http.Flusher and Unwrap so that the
origin proxy keeps flushing each chunk to the client.
*/
package middleware
