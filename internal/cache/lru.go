// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

package cache

import (
	"sync"
	"time"
)

// lruNode is one entry in the recency list.
type lruNode struct {
	key   string
	entry Entry
	prev  *lruNode
	next  *lruNode
}

// LRUStore is a thread-safe, bounded Store with stale-while-revalidate
// expiry.
//
//   - O(1) Get, Set and eviction
//   - Lazy expiry on Get, bulk expiry on Sweep
//
// A doubly-linked list with sentinel head and tail tracks recency; head.next
// is the most recently used entry.
type LRUStore struct {
	mu sync.Mutex

	capacity int
	items    map[string]*lruNode
	head     *lruNode
	tail     *lruNode

	// now is swapped in tests.
	now func() time.Time
}

// NewLRUStore creates a store holding at most capacity entries.
func NewLRUStore(capacity int) *LRUStore {
	if capacity <= 0 {
		capacity = 10000
	}

	s := &LRUStore{
		capacity: capacity,
		items:    make(map[string]*lruNode, capacity),
		head:     &lruNode{},
		tail:     &lruNode{},
		now:      time.Now,
	}
	s.head.next = s.tail
	s.tail.prev = s.head

	return s
}

// Get returns a fresh or stale entry and marks it most recently used.
func (s *LRUStore) Get(key string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, exists := s.items[key]
	if !exists {
		return Entry{}, ErrNotFound
	}

	if !s.now().Before(node.entry.StaleUntil) {
		s.removeNode(node)
		return Entry{}, ErrNotFound
	}

	s.moveToFront(node)
	return node.entry, nil
}

// Set stores value, replacing any previous entry, and evicts the least
// recently used entry when over capacity.
func (s *LRUStore) Set(key string, value []byte, fresh, stale time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry := Entry{
		Value:      value,
		FreshUntil: now.Add(fresh),
		StaleUntil: now.Add(fresh + stale),
	}

	if node, exists := s.items[key]; exists {
		node.entry = entry
		s.moveToFront(node)
		return nil
	}

	node := &lruNode{key: key, entry: entry}
	s.addToFront(node)
	s.items[key] = node

	for len(s.items) > s.capacity {
		s.evictOldest()
	}
	return nil
}

// Sweep removes every expired entry.
func (s *LRUStore) Sweep() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0

	for node := s.tail.prev; node != s.head; {
		prev := node.prev
		if !now.Before(node.entry.StaleUntil) {
			s.removeNode(node)
			removed++
		}
		node = prev
	}

	return removed, nil
}

// Len returns the number of entries, expired ones included until swept.
func (s *LRUStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Close drops all entries.
func (s *LRUStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[string]*lruNode)
	s.head.next = s.tail
	s.tail.prev = s.head
	return nil
}

// Internal methods (must be called with lock held)

func (s *LRUStore) addToFront(node *lruNode) {
	node.prev = s.head
	node.next = s.head.next
	s.head.next.prev = node
	s.head.next = node
}

func (s *LRUStore) moveToFront(node *lruNode) {
	node.prev.next = node.next
	node.next.prev = node.prev
	s.addToFront(node)
}

func (s *LRUStore) removeNode(node *lruNode) {
	node.prev.next = node.next
	node.next.prev = node.prev
	delete(s.items, node.key)
}

func (s *LRUStore) evictOldest() {
	oldest := s.tail.prev
	if oldest == s.head {
		return
	}
	s.removeNode(oldest)
}

var _ Store = (*LRUStore)(nil)
