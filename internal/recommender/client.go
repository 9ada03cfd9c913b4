// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

// Package recommender calls the external recommendation service, which
// returns object ids similar to a visitor's viewing history.
package recommender

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tomtom215/docent/internal/config"
	"github.com/tomtom215/docent/internal/upstream"
)

// Client is the recommendation service client.
type Client struct {
	http    *upstream.Client
	breaker *upstream.Breaker[[]int]
}

// New creates a client. transport may be nil.
func New(cfg config.RecommenderConfig, transport http.RoundTripper) *Client {
	return &Client{
		http: upstream.NewClient(upstream.Options{
			Name:           "recommender",
			BaseURL:        cfg.URL,
			Timeout:        cfg.Timeout,
			MaxRetries:     cfg.MaxRetries,
			RetryBaseDelay: cfg.RetryBaseDelay,
			Transport:      transport,
		}),
		breaker: upstream.NewBreaker[[]int]("recommender"),
	}
}

// Breaker exposes the circuit breaker for health reporting.
func (c *Client) Breaker() upstream.StateReporter {
	return c.breaker
}

// Suggest asks for count recommendations starting at offset, based on
// viewedIDs (oldest first).
//
//	GET <url>?offset=0&recs=10&ids=436535,437329
//
// The response is a JSON array of object ids.
func (c *Client) Suggest(ctx context.Context, viewedIDs []int, offset, count int) ([]int, error) {
	query := url.Values{}
	query.Set("offset", strconv.Itoa(offset))
	query.Set("recs", strconv.Itoa(count))
	query.Set("ids", joinIDs(viewedIDs))

	ids, err := c.breaker.Execute(func() ([]int, error) {
		var ids []int
		if err := c.http.GetJSON(ctx, "", query, &ids); err != nil {
			return nil, err
		}
		return ids, nil
	})
	if err != nil {
		return nil, fmt.Errorf("recommender: %w", err)
	}
	return ids, nil
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
