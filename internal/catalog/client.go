// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/docent/internal/cache"
	"github.com/tomtom215/docent/internal/config"
	"github.com/tomtom215/docent/internal/logging"
	"github.com/tomtom215/docent/internal/metrics"
	"github.com/tomtom215/docent/internal/upstream"
)

// objectPath is the collection API route for a single object.
const objectPath = "/public/collection/v1/objects/"

// Client resolves object ids into summaries, caching them with a fresh
// window and a stale-while-revalidate window.
type Client struct {
	http    *upstream.Client
	breaker *upstream.Breaker[*rawObject]
	store   cache.Store
	group   singleflight.Group

	freshTTL         time.Duration
	staleTTL         time.Duration
	placeholderImage string
	fetchTimeout     time.Duration

	now func() time.Time
}

// New creates a catalog client. transport may be nil.
func New(cfg config.CatalogConfig, store cache.Store, transport http.RoundTripper) *Client {
	return &Client{
		http: upstream.NewClient(upstream.Options{
			Name:           "catalog",
			BaseURL:        cfg.URL,
			Timeout:        cfg.Timeout,
			MaxRetries:     cfg.MaxRetries,
			RetryBaseDelay: cfg.RetryBaseDelay,
			RateLimit:      cfg.RateLimit,
			RateBurst:      cfg.RateBurst,
			Transport:      transport,
		}),
		breaker:          upstream.NewBreaker[*rawObject]("catalog"),
		store:            store,
		freshTTL:         cfg.FreshTTL,
		staleTTL:         cfg.StaleTTL,
		placeholderImage: cfg.PlaceholderImage,
		fetchTimeout:     fetchTimeout(cfg),
		now:              time.Now,
	}
}

// fetchTimeout bounds a shared fetch, including retries.
func fetchTimeout(cfg config.CatalogConfig) time.Duration {
	if cfg.Timeout <= 0 {
		return 10 * time.Second
	}
	return cfg.Timeout * time.Duration(cfg.MaxRetries+1)
}

// Breaker exposes the circuit breaker for health reporting.
func (c *Client) Breaker() upstream.StateReporter {
	return c.breaker
}

// GetObject returns the summary for id.
//
//   - fresh cache hit: returned directly
//   - stale cache hit: returned, and refreshed in the background
//   - miss: fetched; concurrent misses for the same id share one request
//
// A canceled ctx releases the caller; the shared fetch still completes and
// populates the cache.
func (c *Client) GetObject(ctx context.Context, id int) (*ObjectSummary, error) {
	key := strconv.Itoa(id)

	if summary, fresh, ok := c.lookup(ctx, key); ok {
		if fresh {
			metrics.RecordCacheResult("fresh")
		} else {
			metrics.RecordCacheResult("stale")
			c.refreshInBackground(ctx, id)
		}
		return summary, nil
	}
	metrics.RecordCacheResult("miss")

	ch := c.group.DoChan(key, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()
		return c.fetchAndStore(fetchCtx, id)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*ObjectSummary), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// lookup reads and decodes a cached summary.
func (c *Client) lookup(ctx context.Context, key string) (summary *ObjectSummary, fresh, ok bool) {
	entry, err := c.store.Get(key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			logging.Ctx(ctx).Warn().Err(err).Str("object_id", key).Msg("Catalog cache read failed")
		}
		return nil, false, false
	}

	summary = &ObjectSummary{}
	if err := json.Unmarshal(entry.Value, summary); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("object_id", key).Msg("Discarding undecodable catalog cache entry")
		return nil, false, false
	}
	return summary, entry.Fresh(c.now()), true
}

// refreshInBackground revalidates a stale entry. Concurrent refreshes of
// the same id collapse into one.
func (c *Client) refreshInBackground(ctx context.Context, id int) {
	key := strconv.Itoa(id)
	detached := context.WithoutCancel(ctx)

	go func() {
		_, err, _ := c.group.Do(key, func() (interface{}, error) {
			fetchCtx, cancel := context.WithTimeout(detached, c.fetchTimeout)
			defer cancel()
			return c.fetchAndStore(fetchCtx, id)
		})
		if err != nil {
			logging.Ctx(detached).Warn().Err(err).Int("object_id", id).Msg("Stale catalog refresh failed")
		}
	}()
}

// fetchAndStore fetches id from the collection API and caches the summary.
func (c *Client) fetchAndStore(ctx context.Context, id int) (*ObjectSummary, error) {
	raw, err := c.breaker.Execute(func() (*rawObject, error) {
		var raw rawObject
		if err := c.http.GetJSON(ctx, objectPath+strconv.Itoa(id), nil, &raw); err != nil {
			return nil, err
		}
		return &raw, nil
	})
	if err != nil {
		return nil, fmt.Errorf("catalog object %d: %w", id, err)
	}

	summary, err := summarize(raw, c.placeholderImage)
	if err != nil {
		return nil, fmt.Errorf("catalog object %d: %w", id, err)
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("catalog object %d: encode: %w", id, err)
	}
	if err := c.store.Set(strconv.Itoa(id), data, c.freshTTL, c.staleTTL); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int("object_id", id).Msg("Catalog cache write failed")
	}

	return summary, nil
}
