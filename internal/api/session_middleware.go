// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

package api

import (
	"net/http"
	"regexp"
	"strconv"

	"github.com/tomtom215/docent/internal/session"
)

// MethodNotAllowedBody is the 405 response body.
const MethodNotAllowedBody = "This method is not allowed"

// objectPagePattern matches a collection object page and captures its id.
var objectPagePattern = regexp.MustCompile(`^/art/collection/search/(\d+)/?$`)

var allowedMethods = map[string]bool{
	http.MethodGet:  true,
	http.MethodHead: true,
	"PURGE":         true,
}

// MethodFilter rejects every method other than GET, HEAD and PURGE with a
// bare 405. It runs before the session middleware, so the rejection carries
// no cookie and no diagnostic header.
func MethodFilter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !allowedMethods[r.Method] {
			w.Header().Set("Allow", "GET, HEAD, PURGE")
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusMethodNotAllowed)
			_, _ = w.Write([]byte(MethodNotAllowedBody))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionConfig controls session decoding and response header finalization.
type SessionConfig struct {
	Session          session.Options
	DiagnosticHeader string
	ServiceVersion   string
	StripHeaders     []string
}

// SessionMiddleware restores the visitor session, records object page views
// and finalizes the response headers of whatever handler runs next.
func SessionMiddleware(cfg SessionConfig) func(http.Handler) http.Handler {
	strip := make([]string, len(cfg.StripHeaders))
	for i, h := range cfg.StripHeaders {
		strip[i] = http.CanonicalHeaderKey(h)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st := session.FromRequest(r, cfg.Session)

			if id, ok := ObjectIDFromPath(r.URL.Path); ok {
				st.RecordObjectViewed(id)
			}

			fw := &finalizingWriter{
				ResponseWriter: w,
				finalize: func(h http.Header) {
					finalizeHeaders(h, st, cfg, strip)
				},
			}

			next.ServeHTTP(fw, r.WithContext(session.WithState(r.Context(), st)))
			fw.ensureFinalized()
		})
	}
}

// ObjectIDFromPath returns the object id of a collection object page.
// Ids that do not fit an int are ignored.
func ObjectIDFromPath(path string) (int, bool) {
	m := objectPagePattern.FindStringSubmatch(path)
	if m == nil {
		return 0, false
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return id, true
}

func finalizeHeaders(h http.Header, st *session.State, cfg SessionConfig, strip []string) {
	if cookie, ok := st.SetCookie(); ok {
		h.Add("Set-Cookie", cookie)
	}
	if cfg.DiagnosticHeader != "" {
		h.Set(cfg.DiagnosticHeader, st.DiagnosticValue(cfg.ServiceVersion))
	}
	for _, name := range strip {
		h.Del(name)
	}
}

// finalizingWriter applies finalize to the header map once, right before the
// final status line is written.
type finalizingWriter struct {
	http.ResponseWriter
	finalize  func(http.Header)
	finalized bool
}

func (w *finalizingWriter) ensureFinalized() {
	if !w.finalized {
		w.finalized = true
		w.finalize(w.ResponseWriter.Header())
	}
}

// WriteHeader finalizes headers for final statuses. Informational responses
// pass through untouched.
func (w *finalizingWriter) WriteHeader(code int) {
	if code >= http.StatusOK || code == http.StatusSwitchingProtocols {
		w.ensureFinalized()
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *finalizingWriter) Write(b []byte) (int, error) {
	w.ensureFinalized()
	return w.ResponseWriter.Write(b)
}

// Flush implements http.Flusher.
func (w *finalizingWriter) Flush() {
	w.ensureFinalized()
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *finalizingWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
