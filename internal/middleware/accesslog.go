// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

package middleware

import (
	"net/http"
	"time"

	"github.com/tomtom215/docent/internal/logging"
)

// SlowRequestThreshold is the duration above which a request is logged at
// warn instead of debug.
const SlowRequestThreshold = time.Second

// AccessLog logs every completed request. Proxied documents stream, so the
// duration includes the full body transfer.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := newStatusRecorder(w)

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)
		log := logging.Ctx(r.Context())
		event := log.Debug()
		if duration > SlowRequestThreshold {
			event = log.Warn()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("route", RoutePattern(r)).
			Int("status", wrapper.statusCode).
			Int64("bytes", wrapper.bytes).
			Dur("duration", duration).
			Str("remote_addr", r.RemoteAddr).
			Msg("Request completed")
	})
}
