package compat

import (
	"sync"
	"time"
)

// Cache is a bounded cache of decoded profiles keyed by platform key.
// Expiry is lazy: a stale entry dies on the Get that finds it, so the cache
// runs no background goroutine. When full, the least-recently-inserted
// entry is evicted; overwriting a key refreshes its insertion age.
type Cache struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	entries map[string]*cacheEntry
	order   []string // insertion order, oldest first
	hits    uint64
	misses  uint64

	now func() time.Time
}

type cacheEntry struct {
	profile    *Profile
	insertedAt time.Time
}

// NewCache returns a cache holding at most maxSize profiles, each expiring
// ttl after insertion. ttl <= 0 disables expiry.
func NewCache(maxSize int, ttl time.Duration) *Cache {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Cache{
		maxSize: maxSize,
		ttl:     ttl,
		entries: map[string]*cacheEntry{},
		now:     time.Now,
	}
}

// Get returns the cached profile for key. Absent and expired entries are
// both misses; expired entries are removed on the way out.
func (c *Cache) Get(key string) (*Profile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if ok && c.expired(e) {
		c.remove(key)
		ok = false
	}
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	return e.profile, true
}

// Put stores a profile, evicting the oldest insertion when full.
func (c *Cache) Put(key string, p *Profile) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.remove(key)
	}
	for len(c.entries) >= c.maxSize {
		c.remove(c.order[0])
	}
	c.entries[key] = &cacheEntry{profile: p, insertedAt: c.now()}
	c.order = append(c.order, key)
}

// CacheStats is a point-in-time snapshot of the cache counters.
type CacheStats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Size   int    `json:"size"`
}

// Stats returns hit/miss counters and the current entry count.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Hits: c.hits, Misses: c.misses, Size: len(c.entries)}
}

func (c *Cache) expired(e *cacheEntry) bool {
	return c.ttl > 0 && c.now().Sub(e.insertedAt) > c.ttl
}

// remove must be called with the lock held.
func (c *Cache) remove(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
