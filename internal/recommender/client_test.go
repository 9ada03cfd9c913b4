// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

package recommender

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/tomtom215/docent/internal/config"
	"github.com/tomtom215/docent/internal/upstream"
)

func testConfig(url string) config.RecommenderConfig {
	return config.RecommenderConfig{
		URL:            url,
		Timeout:        2 * time.Second,
		MaxRetries:     0,
		RetryBaseDelay: time.Millisecond,
		Count:          10,
	}
}

func TestSuggest_Query(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("offset"); got != "20" {
			t.Errorf("offset = %q, want 20", got)
		}
		if got := q.Get("recs"); got != "10" {
			t.Errorf("recs = %q, want 10", got)
		}
		if got := q.Get("ids"); got != "436535,437329" {
			t.Errorf("ids = %q, want 436535,437329", got)
		}
		_, _ = w.Write([]byte(`[5, 6, 7]`))
	}))
	defer server.Close()

	c := New(testConfig(server.URL), nil)
	ids, err := c.Suggest(context.Background(), []int{436535, 437329}, 20, 10)
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if !reflect.DeepEqual(ids, []int{5, 6, 7}) {
		t.Errorf("Suggest() = %v, want [5 6 7]", ids)
	}
}

func TestSuggest_EmptyHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.URL.Query()["ids"]; !ok {
			t.Error("ids parameter missing; want present and empty")
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := New(testConfig(server.URL), nil)
	ids, err := c.Suggest(context.Background(), nil, 0, 10)
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("Suggest() = %v, want empty", ids)
	}
}

func TestSuggest_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		checkFn func(error) bool
	}{
		{"server error", http.StatusInternalServerError, "boom", func(err error) bool { return upstream.IsStatus(err, 500) }},
		{"bad json", http.StatusOK, `{"not":"an array"}`, func(err error) bool { return err != nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := New(testConfig(server.URL), nil)
			_, err := c.Suggest(context.Background(), []int{1}, 0, 10)
			if !tt.checkFn(err) {
				t.Errorf("Suggest() error = %v", err)
			}
		})
	}
}

func TestJoinIDs(t *testing.T) {
	if got := joinIDs([]int{1, 22, 333}); got != "1,22,333" {
		t.Errorf("joinIDs() = %q", got)
	}
	if got := joinIDs(nil); got != "" {
		t.Errorf("joinIDs(nil) = %q, want empty", got)
	}
}
