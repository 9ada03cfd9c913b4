// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

// Package aggregator assembles the suggestions payload: one recommender
// call, then a concurrent catalog lookup per recommended id.
package aggregator

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/docent/internal/catalog"
	"github.com/tomtom215/docent/internal/logging"
	"github.com/tomtom215/docent/internal/metrics"
)

// Recommender returns object ids for a viewing history.
type Recommender interface {
	Suggest(ctx context.Context, viewedIDs []int, offset, count int) ([]int, error)
}

// Catalog resolves one object id.
type Catalog interface {
	GetObject(ctx context.Context, id int) (*catalog.ObjectSummary, error)
}

// Result is the /fastly/recommend response body.
type Result struct {
	Objects []catalog.ObjectSummary `json:"objects"`

	// RecommenderTime is the recommender round trip in milliseconds.
	RecommenderTime float64 `json:"recommenderTime"`
}

// Aggregator combines a recommender and a catalog.
type Aggregator struct {
	recommender Recommender
	catalog     Catalog
}

// New creates an Aggregator.
func New(rec Recommender, cat Catalog) *Aggregator {
	return &Aggregator{recommender: rec, catalog: cat}
}

type lookupResult struct {
	summary *catalog.ObjectSummary
	err     error
}

// Suggestions never fails. A recommender error yields an empty list; a
// catalog error drops that one object. Objects keep recommendation order and
// never exceed limit.
func (a *Aggregator) Suggestions(ctx context.Context, history []int, offset, limit int) Result {
	log := logging.Ctx(ctx)

	start := time.Now()
	ids, err := a.recommender.Suggest(ctx, history, offset, limit)
	elapsed := time.Since(start)
	if err != nil {
		log.Warn().Err(err).Ints("history", history).Int("offset", offset).Msg("Recommender call failed, returning no suggestions")
		ids = nil
	}
	if limit >= 0 && len(ids) > limit {
		log.Warn().Int("returned", len(ids)).Int("limit", limit).Msg("Recommender returned more ids than requested, truncating")
		ids = ids[:limit]
	}

	results := make([]lookupResult, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(idx, objectID int) {
			defer wg.Done()
			summary, err := a.catalog.GetObject(ctx, objectID)
			results[idx] = lookupResult{summary: summary, err: err}
		}(i, id)
	}
	wg.Wait()

	objects := make([]catalog.ObjectSummary, 0, len(ids))
	dropped := 0
	for i, r := range results {
		if r.err != nil || r.summary == nil {
			dropped++
			log.Warn().Err(r.err).Int("object_id", ids[i]).Msg("Dropping recommendation without catalog metadata")
			continue
		}
		objects = append(objects, *r.summary)
	}

	metrics.RecordSuggestions(elapsed, len(objects), dropped)
	log.Debug().
		Int("recommended", len(ids)).
		Int("objects", len(objects)).
		Dur("recommender_time", elapsed).
		Msg("Suggestions assembled")

	return Result{
		Objects:         objects,
		RecommenderTime: float64(elapsed.Nanoseconds()) / float64(time.Millisecond),
	}
}
