// Package cache provides a small TTL-bounded LRU used to memoize
// transaction-detail lookups. Chain history for a confirmed hash is
// immutable, so a short TTL only exists to bound staleness for hashes
// observed before finality.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRU is a fixed-capacity cache with least-recently-used eviction and a
// uniform entry TTL. Safe for concurrent use.
type LRU[K comparable, V any] struct {
	mu    sync.Mutex
	cap   int
	ttl   time.Duration
	index map[K]*list.Element
	lru   *list.List

	// now is overridable in tests.
	now func() time.Time
}

type cacheEntry[K comparable, V any] struct {
	key     K
	value   V
	staleAt time.Time
}

// NewLRU creates a cache holding at most capacity entries, each valid
// for ttl after insertion.
func NewLRU[K comparable, V any](capacity int, ttl time.Duration) *LRU[K, V] {
	return &LRU[K, V]{
		cap:   capacity,
		ttl:   ttl,
		index: make(map[K]*list.Element, capacity),
		lru:   list.New(),
		now:   time.Now,
	}
}

// Get returns the cached value for key. Expired entries are evicted on
// access and reported as misses.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, ok := c.index[key]
	if !ok {
		return zero, false
	}
	ent := elem.Value.(*cacheEntry[K, V])
	if c.now().After(ent.staleAt) {
		c.evict(elem)
		return zero, false
	}
	c.lru.MoveToFront(elem)
	return ent.value, true
}

// Put inserts or refreshes key. Insertion at capacity evicts the least
// recently used entry.
func (c *LRU[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	staleAt := c.now().Add(c.ttl)
	if elem, ok := c.index[key]; ok {
		ent := elem.Value.(*cacheEntry[K, V])
		ent.value = value
		ent.staleAt = staleAt
		c.lru.MoveToFront(elem)
		return
	}

	elem := c.lru.PushFront(&cacheEntry[K, V]{key: key, value: value, staleAt: staleAt})
	c.index[key] = elem
	if c.lru.Len() > c.cap {
		if oldest := c.lru.Back(); oldest != nil {
			c.evict(oldest)
		}
	}
}

// Len reports the number of resident entries, expired or not.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// evict requires c.mu held.
func (c *LRU[K, V]) evict(elem *list.Element) {
	ent := elem.Value.(*cacheEntry[K, V])
	delete(c.index, ent.key)
	c.lru.Remove(elem)
}
