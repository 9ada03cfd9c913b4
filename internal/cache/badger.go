// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

package cache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// badgerKeyPrefix namespaces cache keys within the database.
const badgerKeyPrefix = "catalog:"

// freshHeaderSize is the big-endian FreshUntil timestamp stored ahead of
// each value. Badger's own TTL covers StaleUntil.
const freshHeaderSize = 8

// BadgerStore is a Store backed by BadgerDB. Entries expire through
// Badger's native TTL, so Sweep only has to run value-log GC.
type BadgerStore struct {
	db       *badger.DB
	inMemory bool
}

// OpenBadgerStore opens (or creates) a store at path. An empty path keeps
// everything in memory.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil // Suppress BadgerDB internal logs
	opts.ValueLogFileSize = 64 << 20

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger cache: %w", err)
	}

	return &BadgerStore{db: db, inMemory: path == ""}, nil
}

// Get returns a fresh or stale entry.
func (s *BadgerStore) Get(key string) (Entry, error) {
	var entry Entry

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerKeyPrefix + key))
		if err != nil {
			return err
		}

		entry.StaleUntil = time.Unix(int64(item.ExpiresAt()), 0)
		return item.Value(func(val []byte) error {
			if len(val) < freshHeaderSize {
				return errors.New("cache entry too short")
			}
			entry.FreshUntil = time.Unix(0, int64(binary.BigEndian.Uint64(val[:freshHeaderSize])))
			entry.Value = append([]byte(nil), val[freshHeaderSize:]...)
			return nil
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("badger cache get %s: %w", key, err)
	}
	return entry, nil
}

// Set stores value with a TTL of fresh+stale.
func (s *BadgerStore) Set(key string, value []byte, fresh, stale time.Duration) error {
	data := make([]byte, freshHeaderSize+len(value))
	binary.BigEndian.PutUint64(data, uint64(time.Now().Add(fresh).UnixNano()))
	copy(data[freshHeaderSize:], value)

	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(badgerKeyPrefix+key), data).WithTTL(fresh + stale)
		return txn.SetEntry(e)
	})
}

// Sweep runs value-log GC until there is nothing left to rewrite. Expired
// keys are already invisible, so the removed count is always zero.
func (s *BadgerStore) Sweep() (int, error) {
	if s.inMemory {
		return 0, nil
	}
	for {
		err := s.db.RunValueLogGC(0.5)
		if errors.Is(err, badger.ErrNoRewrite) {
			return 0, nil
		}
		if err != nil {
			return 0, fmt.Errorf("badger value log gc: %w", err)
		}
	}
}

// Len counts live keys.
func (s *BadgerStore) Len() int {
	count := 0
	_ = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(badgerKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

var _ Store = (*BadgerStore)(nil)
