// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

package cache

import (
	"fmt"
	"time"
)

// Entry is a cached value with its freshness window.
//
// An entry is fresh until FreshUntil, then stale (still servable while a
// refresh runs) until StaleUntil, then gone.
type Entry struct {
	Value      []byte
	FreshUntil time.Time
	StaleUntil time.Time
}

// Fresh reports whether the entry can be served without revalidation.
func (e Entry) Fresh(now time.Time) bool {
	return now.Before(e.FreshUntil)
}

// Store is the contract shared by the in-memory and BadgerDB backends.
//
// Get returns entries that are fresh or stale, and ErrNotFound for missing
// or expired keys.
type Store interface {
	Get(key string) (Entry, error)
	Set(key string, value []byte, fresh, stale time.Duration) error
	// Sweep drops expired entries and reclaims space. It returns the number
	// of entries removed where the backend can tell.
	Sweep() (int, error)
	Len() int
	Close() error
}

// Backend names a Store implementation.
type Backend string

const (
	// BackendMemory is a bounded in-process LRU.
	BackendMemory Backend = "memory"

	// BackendBadger persists entries in BadgerDB and survives restarts
	// when Path is set.
	BackendBadger Backend = "badger"
)

// Config selects and sizes a Store.
type Config struct {
	Backend Backend

	// Capacity bounds the memory backend.
	Capacity int

	// Path is the BadgerDB directory. Empty runs BadgerDB in memory.
	Path string
}

// NewStore builds the configured backend.
//
//	store, err := cache.NewStore(cache.Config{Backend: cache.BackendMemory, Capacity: 10000})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
func NewStore(cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendMemory, "":
		return NewLRUStore(cfg.Capacity), nil
	case BackendBadger:
		return OpenBadgerStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
