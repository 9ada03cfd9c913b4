// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tomtom215/docent/internal/session"
)

func testSessionConfig() SessionConfig {
	return SessionConfig{
		Session:          session.Options{CookieName: "fastly", HistoryLength: 5},
		DiagnosticHeader: "fastly-debug",
		ServiceVersion:   "7",
		StripHeaders:     []string{"server", "x-powered-by"},
	}
}

func TestSessionMiddleware_PreservesOriginCookies(t *testing.T) {
	h := SessionMiddleware(testSessionConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Set-Cookie", "origin=1; Path=/")
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	cookies := rec.Header().Values("Set-Cookie")
	if len(cookies) != 2 {
		t.Fatalf("Set-Cookie values = %v, want origin and session cookies", cookies)
	}
	if cookies[0] != "origin=1; Path=/" {
		t.Errorf("origin cookie = %q", cookies[0])
	}
}

func TestSessionMiddleware_FinalizesWithoutExplicitWrite(t *testing.T) {
	h := SessionMiddleware(testSessionConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "origin")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Header().Get("Server") != "" {
		t.Error("Server header not stripped")
	}
	if rec.Header().Get("fastly-debug") == "" {
		t.Error("fastly-debug missing")
	}
}

func TestSessionMiddleware_StateInContext(t *testing.T) {
	var got []int
	h := SessionMiddleware(testSessionConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if st := session.FromContext(r.Context()); st != nil {
			got = st.History()
		}
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/art/collection/search/3", nil))

	if len(got) != 1 || got[0] != 3 {
		t.Errorf("history in context = %v, want [3]", got)
	}
}

func TestFinalizingWriter_InformationalPassesThrough(t *testing.T) {
	calls := 0
	rec := httptest.NewRecorder()
	fw := &finalizingWriter{ResponseWriter: rec, finalize: func(http.Header) { calls++ }}

	fw.WriteHeader(http.StatusEarlyHints)
	if calls != 0 {
		t.Errorf("finalize ran for 103")
	}

	fw.WriteHeader(http.StatusOK)
	_, _ = fw.Write([]byte("ok"))
	fw.Flush()
	fw.ensureFinalized()
	if calls != 1 {
		t.Errorf("finalize ran %d times, want 1", calls)
	}
}
