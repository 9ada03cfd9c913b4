// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/goccy/go-json"

	"github.com/tomtom215/docent/internal/aggregator"
	"github.com/tomtom215/docent/internal/catalog"
	"github.com/tomtom215/docent/internal/config"
	"github.com/tomtom215/docent/internal/origin"
	"github.com/tomtom215/docent/internal/rewriter"
)

const (
	testFragment = `<link rel='stylesheet' href="/fastly/style" /><script src="/fastly/script" async defer></script>`
	testPage     = `<!DOCTYPE html><html><head><title>Vase</title></head><body><div class="artwork-facets"></div></body></html>`
)

type fakeSuggester struct {
	mu      sync.Mutex
	calls   int
	history []int
	offset  int
	limit   int
	result  aggregator.Result
}

func (f *fakeSuggester) Suggestions(_ context.Context, history []int, offset, limit int) aggregator.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.history, f.offset, f.limit = history, offset, limit
	return f.result
}

func testConfig() *config.Config {
	return &config.Config{
		Service: config.ServiceConfig{Version: "test"},
		Session: config.SessionConfig{CookieName: "fastly", HistoryLength: 5},
		Diagnostics: config.DiagnosticsConfig{
			Header:       "fastly-debug",
			StripHeaders: config.DefaultStripHeaders,
		},
		Security: config.SecurityConfig{
			RateLimitDisabled: true,
			CORSOrigins:       []string{"https://www.metmuseum.org"},
		},
	}
}

// testOrigin serves an HTML page with headers the proxy must strip.
func testOrigin(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "origin/1.0")
		w.Header().Set("X-Powered-By", "Next.js")
		w.Header().Set("Link", "</app.css>; rel=preload")
		w.Header().Set("X-Vercel-Id", "abc")
		w.Header().Set("Cache-Control", "max-age=60")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, testPage)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestRouter(t *testing.T, cfg *config.Config, originURL string, suggester Suggester) http.Handler {
	t.Helper()
	proxy, err := origin.New(origin.Options{
		URL:          originURL,
		Rewriter:     rewriter.Options{Marker: rewriter.DefaultMarker, Fragment: testFragment},
		ErrorHandler: OriginErrorHandler,
	})
	if err != nil {
		t.Fatalf("origin.New() error = %v", err)
	}
	return NewRouter(cfg, NewHandler(suggester, 10), proxy).SetupChi()
}

func serve(h http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func cookiePair(setCookie string) string {
	return strings.SplitN(setCookie, ";", 2)[0]
}

func TestRouter_RejectsDisallowedMethods(t *testing.T) {
	srv := testOrigin(t)
	h := newTestRouter(t, testConfig(), srv.URL, &fakeSuggester{})

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch, http.MethodOptions} {
		for _, path := range []string{"/", "/fastly/recommend", "/fastly/script", "/art/collection/search/1"} {
			rec := serve(h, method, path, nil)

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("%s %s status = %d, want 405", method, path, rec.Code)
			}
			if rec.Body.String() != MethodNotAllowedBody {
				t.Errorf("%s %s body = %q", method, path, rec.Body.String())
			}
			if rec.Header().Get("Set-Cookie") != "" || rec.Header().Get("fastly-debug") != "" {
				t.Errorf("%s %s carried session headers", method, path)
			}
		}
	}
}

func TestRouter_RecordsObjectPageView(t *testing.T) {
	srv := testOrigin(t)
	h := newTestRouter(t, testConfig(), srv.URL, &fakeSuggester{})

	rec := serve(h, http.MethodGet, "/art/collection/search/12345", nil)

	setCookie := rec.Header().Get("Set-Cookie")
	if !strings.Contains(setCookie, "%22history%22%3A%5B12345%5D") {
		t.Errorf("Set-Cookie = %q, want history [12345]", setCookie)
	}
	debug := rec.Header().Get("fastly-debug")
	if !strings.HasPrefix(debug, "svcVer=test, user=") || !strings.HasSuffix(debug, ", objs=12345") {
		t.Errorf("fastly-debug = %q", debug)
	}

	// A second visit to another object page appends to the history.
	rec = serve(h, http.MethodGet, "/art/collection/search/777/", http.Header{
		"Cookie": {cookiePair(setCookie)},
	})
	if got := rec.Header().Get("fastly-debug"); !strings.HasSuffix(got, ", objs=12345,777") {
		t.Errorf("fastly-debug = %q, want objs=12345,777", got)
	}
}

func TestRouter_UnchangedSessionIsNotReissued(t *testing.T) {
	srv := testOrigin(t)
	h := newTestRouter(t, testConfig(), srv.URL, &fakeSuggester{})

	first := serve(h, http.MethodGet, "/", nil)
	cookie := cookiePair(first.Header().Get("Set-Cookie"))
	if cookie == "" {
		t.Fatal("first visit did not set a session cookie")
	}

	rec := serve(h, http.MethodGet, "/visit/plan", http.Header{"Cookie": {cookie}})
	if got := rec.Header().Get("Set-Cookie"); got != "" {
		t.Errorf("Set-Cookie = %q, want none for an unchanged session", got)
	}
	if rec.Header().Get("fastly-debug") == "" {
		t.Error("fastly-debug missing")
	}
}

func TestRouter_InjectsIntoDocumentNavigation(t *testing.T) {
	srv := testOrigin(t)
	h := newTestRouter(t, testConfig(), srv.URL, &fakeSuggester{})

	rec := serve(h, http.MethodGet, "/art/collection/search/1", http.Header{
		"Sec-Fetch-Dest": {"document"},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	if err != nil {
		t.Fatalf("parse body: %v", err)
	}
	if doc.Find(`body script[src="/fastly/script"]`).Length() != 1 {
		t.Error("widget script not injected into body")
	}
	if doc.Find(`body link[href="/fastly/style"]`).Length() != 1 {
		t.Error("widget stylesheet not injected into body")
	}

	for _, name := range []string{"Server", "X-Powered-By", "Link", "X-Vercel-Id"} {
		if got := rec.Header().Get(name); got != "" {
			t.Errorf("%s = %q, want stripped", name, got)
		}
	}
	if rec.Header().Get("Cache-Control") != "max-age=60" {
		t.Error("unrelated origin header was not preserved")
	}
}

func TestRouter_SubresourcePassesThrough(t *testing.T) {
	srv := testOrigin(t)
	h := newTestRouter(t, testConfig(), srv.URL, &fakeSuggester{})

	rec := serve(h, http.MethodGet, "/fragment.html", http.Header{"Sec-Fetch-Dest": {"iframe"}})

	if rec.Body.String() != testPage {
		t.Errorf("body = %q, want origin body unchanged", rec.Body.String())
	}
	if rec.Header().Get("Server") != "" {
		t.Error("Server header not stripped on pass-through")
	}
}

func TestRouter_SyntheticAssets(t *testing.T) {
	srv := testOrigin(t)
	h := newTestRouter(t, testConfig(), srv.URL, &fakeSuggester{})

	tests := []struct {
		path        string
		contentType string
	}{
		{"/fastly/script", "application/javascript"},
		{"/fastly/style", "text/css"},
		{"/fastly/logo", "image/svg+xml"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := serve(h, http.MethodGet, tt.path, nil)
			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", rec.Code)
			}
			if got := rec.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", got, tt.contentType)
			}
			if rec.Header().Get("fastly-debug") == "" {
				t.Error("fastly-debug missing on synthetic response")
			}
		})
	}
}

func TestRouter_Recommend(t *testing.T) {
	srv := testOrigin(t)
	suggester := &fakeSuggester{result: aggregator.Result{
		Objects: []catalog.ObjectSummary{{
			ObjectURL:    "/art/collection/search/5",
			ImageURL:     "https://images.example/5.jpg",
			Title:        "Vase",
			ArtistByline: "Unknown",
			ObjectDate:   "ca. 1800",
		}},
		RecommenderTime: 12.5,
	}}
	h := newTestRouter(t, testConfig(), srv.URL, suggester)

	seed := serve(h, http.MethodGet, "/art/collection/search/42", nil)
	cookie := cookiePair(seed.Header().Get("Set-Cookie"))

	rec := serve(h, http.MethodGet, "/fastly/recommend?offset=20", http.Header{"Cookie": {cookie}})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if !reflect.DeepEqual(suggester.history, []int{42}) || suggester.offset != 20 || suggester.limit != 10 {
		t.Errorf("suggester got history=%v offset=%d limit=%d", suggester.history, suggester.offset, suggester.limit)
	}

	var body struct {
		Objects         []map[string]string `json:"objects"`
		RecommenderTime float64             `json:"recommenderTime"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Objects) != 1 || body.Objects[0]["objectURL"] != "/art/collection/search/5" {
		t.Errorf("objects = %v", body.Objects)
	}
	if body.RecommenderTime != 12.5 {
		t.Errorf("recommenderTime = %v, want 12.5", body.RecommenderTime)
	}
}

func TestRouter_RecommendMissingOffset(t *testing.T) {
	srv := testOrigin(t)
	suggester := &fakeSuggester{result: aggregator.Result{Objects: []catalog.ObjectSummary{}}}
	h := newTestRouter(t, testConfig(), srv.URL, suggester)

	rec := serve(h, http.MethodGet, "/fastly/recommend", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if suggester.offset != 0 {
		t.Errorf("offset = %d, want 0", suggester.offset)
	}
	if !strings.Contains(rec.Body.String(), `"objects":[]`) {
		t.Errorf("body = %s, want empty objects array", rec.Body.String())
	}
}

func TestRouter_RecommendInvalidOffset(t *testing.T) {
	srv := testOrigin(t)
	suggester := &fakeSuggester{}
	h := newTestRouter(t, testConfig(), srv.URL, suggester)

	for _, offset := range []string{"abc", "1.5", "-1", "999999999"} {
		rec := serve(h, http.MethodGet, "/fastly/recommend?offset="+offset, nil)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("offset=%s status = %d, want 400", offset, rec.Code)
			continue
		}
		var resp APIResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if resp.Status != "error" || resp.Error == nil || resp.Error.Code != ErrCodeValidation {
			t.Errorf("offset=%s response = %s", offset, rec.Body.String())
		}
		if rec.Header().Get("fastly-debug") == "" {
			t.Errorf("offset=%s response missing fastly-debug", offset)
		}
	}
	if suggester.calls != 0 {
		t.Errorf("suggester called %d times for invalid input", suggester.calls)
	}
}

func TestRouter_RecommendRateLimited(t *testing.T) {
	srv := testOrigin(t)
	cfg := testConfig()
	cfg.Security.RateLimitDisabled = false
	cfg.Security.RateLimitReqs = 1
	cfg.Security.RateLimitWindow = time.Minute
	h := newTestRouter(t, cfg, srv.URL, &fakeSuggester{})

	if rec := serve(h, http.MethodGet, "/fastly/recommend", nil); rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec.Code)
	}
	rec := serve(h, http.MethodGet, "/fastly/recommend", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), ErrCodeRateLimited) {
		t.Errorf("body = %s, want %s", rec.Body.String(), ErrCodeRateLimited)
	}

	// Proxied pages are not rate limited.
	if rec := serve(h, http.MethodGet, "/", nil); rec.Code != http.StatusOK {
		t.Errorf("proxy status = %d, want 200", rec.Code)
	}
}

func TestRouter_OriginUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	originURL := srv.URL
	srv.Close()

	h := newTestRouter(t, testConfig(), originURL, &fakeSuggester{})
	rec := serve(h, http.MethodGet, "/art/collection/search/9", http.Header{"Sec-Fetch-Dest": {"document"}})

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), ErrCodeOriginUnavailable) {
		t.Errorf("body = %s", rec.Body.String())
	}
	if !strings.HasSuffix(rec.Header().Get("fastly-debug"), "objs=9") {
		t.Errorf("fastly-debug = %q, want diagnostics on 502", rec.Header().Get("fastly-debug"))
	}
	if rec.Header().Get("Set-Cookie") == "" {
		t.Error("Set-Cookie missing on 502")
	}
}

func TestRouter_PurgeIsProxied(t *testing.T) {
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	h := newTestRouter(t, testConfig(), srv.URL, &fakeSuggester{})
	rec := serve(h, "PURGE", "/art/collection/search/1", nil)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if gotMethod != "PURGE" {
		t.Errorf("origin method = %q, want PURGE", gotMethod)
	}
}

func TestObjectIDFromPath(t *testing.T) {
	tests := []struct {
		path   string
		wantID int
		wantOK bool
	}{
		{"/art/collection/search/12345", 12345, true},
		{"/art/collection/search/12345/", 12345, true},
		{"/art/collection/search/", 0, false},
		{"/art/collection/search/12a", 0, false},
		{"/art/collection/search/1/details", 0, false},
		{"/en/art/collection/search/1", 0, false},
		{"/art/collection/search/99999999999999999999999", 0, false},
	}

	for _, tt := range tests {
		id, ok := ObjectIDFromPath(tt.path)
		if id != tt.wantID || ok != tt.wantOK {
			t.Errorf("ObjectIDFromPath(%q) = %d, %v; want %d, %v", tt.path, id, ok, tt.wantID, tt.wantOK)
		}
	}
}
