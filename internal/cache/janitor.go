// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tomtom215/docent/internal/logging"
	"github.com/tomtom215/docent/internal/metrics"
)

// Janitor sweeps a Store on a cron schedule.
//
// Standard five-field expressions and descriptors are accepted:
//   - "@every 5m"    - every five minutes
//   - "0 */6 * * *"  - every six hours
//   - "30 3 * * *"   - daily at 03:30
type Janitor struct {
	store    Store
	schedule string
	cron     *cron.Cron

	mu      sync.Mutex
	running bool
}

// NewJanitor validates schedule and registers the sweep job. It does not
// start the scheduler.
func NewJanitor(store Store, schedule string) (*Janitor, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}

	j := &Janitor{
		store:    store,
		schedule: schedule,
		cron:     cron.New(),
	}
	if _, err := j.cron.AddFunc(schedule, j.RunOnce); err != nil {
		return nil, fmt.Errorf("failed to schedule sweep: %w", err)
	}
	return j, nil
}

// Start runs the scheduler until Stop. It never blocks.
func (j *Janitor) Start(_ context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		return nil
	}
	j.cron.Start()
	j.running = true

	logging.Info().
		Str("schedule", j.schedule).
		Int("entries", j.store.Len()).
		Msg("Cache janitor started")
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (j *Janitor) Stop() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.running {
		return nil
	}
	<-j.cron.Stop().Done()
	j.running = false

	logging.Info().Msg("Cache janitor stopped")
	return nil
}

// RunOnce sweeps the store now and refreshes the cache gauges.
func (j *Janitor) RunOnce() {
	start := time.Now()
	removed, err := j.store.Sweep()
	metrics.CatalogCacheSweeps.Inc()
	metrics.CatalogCacheEntries.Set(float64(j.store.Len()))

	if err != nil {
		logging.Warn().Err(err).Msg("Cache sweep failed")
		return
	}
	logging.Debug().
		Int("removed", removed).
		Int("entries", j.store.Len()).
		Dur("duration", time.Since(start)).
		Msg("Cache sweep completed")
}

// NextRun returns the next scheduled sweep, or the zero time when the
// scheduler is stopped.
func (j *Janitor) NextRun() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.running {
		return time.Time{}
	}
	entries := j.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
