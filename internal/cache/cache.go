// Package cache provides a byte-budgeted LRU cache.
//
// Entries carry a cost (typically their size in bytes). When the total cost
// exceeds the budget, least recently used entries are evicted until it fits
// again. The most recent entry is always kept, even if it alone exceeds the
// budget.
package cache

import "sync"

// Cache is a thread-safe LRU cache bounded by total cost.
// Cache must not be copied after creation.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[K, V]
	lru     lruList[K, V]
	budget  int64
	used    int64

	hits, misses, evictions uint64
}

type entry[K comparable, V any] struct {
	key   K
	value V
	cost  int64

	prev, next *entry[K, V]
}

// New creates a cache holding at most budget cost units. A budget of 0
// means unlimited.
func New[K comparable, V any](budget int64) *Cache[K, V] {
	return &Cache[K, V]{
		entries: make(map[K]*entry[K, V]),
		budget:  max(budget, 0),
	}
}

// Get returns the value for key and marks it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.lru.moveToFront(e)
	return e.value, true
}

// Set stores value under key with the given cost.
func (c *Cache[K, V]) Set(key K, value V, cost int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(key, value, cost)
}

func (c *Cache[K, V]) set(key K, value V, cost int64) {
	if e, ok := c.entries[key]; ok {
		c.used += cost - e.cost
		e.value, e.cost = value, cost
		c.lru.moveToFront(e)
	} else {
		e := &entry[K, V]{key: key, value: value, cost: cost}
		c.entries[key] = e
		c.lru.pushFront(e)
		c.used += cost
	}
	c.evict()
}

// GetOrCreate returns the cached value for key or stores the result of
// create. create runs under the cache lock so concurrent callers never
// build the same value twice.
func (c *Cache[K, V]) GetOrCreate(key K, create func() (V, int64)) V {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		c.hits++
		c.lru.moveToFront(e)
		return e.value
	}
	c.misses++
	value, cost := create()
	c.set(key, value, cost)
	return value
}

// Delete removes key and reports whether it was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return false
	}
	c.remove(e)
	return true
}

// Clear removes every entry. Statistics are kept.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]*entry[K, V])
	c.lru = lruList[K, V]{}
	c.used = 0
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Len:       len(c.entries),
		Used:      c.used,
		Budget:    c.budget,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

// evict drops least recently used entries until the budget holds.
// Caller must hold c.mu.
func (c *Cache[K, V]) evict() {
	if c.budget == 0 {
		return
	}
	for c.used > c.budget && c.lru.len > 1 {
		c.remove(c.lru.tail)
		c.evictions++
	}
}

func (c *Cache[K, V]) remove(e *entry[K, V]) {
	c.lru.unlink(e)
	delete(c.entries, e.key)
	c.used -= e.cost
}

// Stats describes cache usage.
type Stats struct {
	Len       int
	Used      int64
	Budget    int64
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// HitRate returns hits / (hits + misses), or 0 before the first lookup.
func (s Stats) HitRate() float64 {
	if total := s.Hits + s.Misses; total > 0 {
		return float64(s.Hits) / float64(total)
	}
	return 0
}
