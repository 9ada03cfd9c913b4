// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/docent/internal/logging"
	"github.com/tomtom215/docent/internal/metrics"
)

// maxErrorBodySize bounds how much of an error response is kept for diagnostics.
const maxErrorBodySize = 64 * 1024

// maxRetryAfter caps a server-supplied Retry-After wait.
const maxRetryAfter = 5 * time.Second

// Options configures a Client.
type Options struct {
	// Name labels logs and metrics: "recommender", "catalog".
	Name    string
	BaseURL string
	Timeout time.Duration

	// MaxRetries applies to 429 and 503 responses only.
	MaxRetries     int
	RetryBaseDelay time.Duration

	// RateLimit is the outbound request rate per second. Zero disables limiting.
	RateLimit float64
	RateBurst int

	// Transport overrides http.DefaultTransport. Tests point it at httptest servers.
	Transport http.RoundTripper
}

// Client performs JSON GET requests against one upstream service.
type Client struct {
	name           string
	baseURL        string
	client         *http.Client
	maxRetries     int
	retryBaseDelay time.Duration
	limiter        *rate.Limiter
}

// NewClient creates a Client from opts.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = 200 * time.Millisecond
	}

	c := &Client{
		name:    opts.Name,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: opts.Transport,
		},
		maxRetries:     opts.MaxRetries,
		retryBaseDelay: opts.RetryBaseDelay,
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c
}

// Name returns the upstream name.
func (c *Client) Name() string {
	return c.name
}

// URL joins path and query onto the base URL.
func (c *Client) URL(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// GetJSON fetches path and decodes a 2xx response into out. A 204 leaves out
// untouched. Any non-2xx status is returned as *StatusError.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s: rate limiter: %w", c.name, err)
		}
	}

	resp, err := c.doRequestWithRetry(ctx, c.URL(path, query))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			Upstream:   c.name,
			StatusCode: resp.StatusCode,
			Body:       string(readBodyForError(resp.Body)),
		}
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", c.name, err)
	}
	return nil
}

// doRequestWithRetry performs a GET, retrying 429 and 503 responses with
// exponential backoff. A Retry-After header in seconds replaces the computed
// delay. The context cancels both requests and waits.
func (c *Client) doRequestWithRetry(ctx context.Context, reqURL string) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to create request: %w", c.name, err)
		}
		req.Header.Set("Accept", "application/json")

		start := time.Now()
		resp, err := c.client.Do(req)
		if err != nil {
			metrics.RecordUpstreamRequest(c.name, 0, time.Since(start), err)
			return nil, fmt.Errorf("%s: HTTP request failed: %w", c.name, err)
		}
		metrics.RecordUpstreamRequest(c.name, resp.StatusCode, time.Since(start), nil)

		if !retryable(resp.StatusCode) {
			return resp, nil
		}

		if attempt >= c.maxRetries {
			if resp.StatusCode == http.StatusTooManyRequests {
				_ = resp.Body.Close()
				return nil, fmt.Errorf("%s: %w after %d retries (HTTP 429)", c.name, ErrRateLimited, c.maxRetries)
			}
			return resp, nil
		}

		_ = resp.Body.Close()

		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
		if d, ok := parseRetryAfter(resp.Header.Get("Retry-After")); ok {
			delay = d
		}

		logging.Ctx(ctx).Debug().
			Str("upstream", c.name).
			Int("status", resp.StatusCode).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Msg("Retrying upstream request")
		metrics.RecordUpstreamRetry(c.name)

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// parseRetryAfter accepts the delay-seconds form only.
func parseRetryAfter(v string) (time.Duration, bool) {
	if v == "" {
		return 0, false
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || seconds < 0 {
		return 0, false
	}
	d := time.Duration(seconds) * time.Second
	if d > maxRetryAfter {
		d = maxRetryAfter
	}
	return d, true
}

// readBodyForError reads at most maxErrorBodySize bytes of an error body.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}
