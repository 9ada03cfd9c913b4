// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

/*
Package cache provides the byte-oriented stores behind the catalog cache.

Two backends implement Store:

  - LRUStore: a bounded in-process LRU (sentinel doubly-linked list plus map)
  - BadgerStore: BadgerDB with native TTLs, on disk or in memory

Entries carry two deadlines. Until FreshUntil they are served as-is; until
StaleUntil they are served while the caller refreshes them in the
background; after that they are gone. This mirrors an HTTP cache configured
with max-age and stale-while-revalidate.

Sweep is driven by the cron janitor in the supervisor tree:

	store, _ := cache.NewStore(cache.Config{Backend: cache.BackendBadger, Path: "/data/cache"})
	removed, err := store.Sweep()
*/
package cache
