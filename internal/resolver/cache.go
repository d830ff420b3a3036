package resolver

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"callproof/internal/graph"
)

// Cache memoizes resolutions of raw names against one symbol pool for the
// lifetime of a single verification batch. Concurrent lookups of the same
// name share one computation. Create a fresh Cache per batch.
type Cache struct {
	resolver *Resolver
	pool     []*graph.Symbol

	mu      sync.RWMutex
	entries map[string]Resolution
	group   singleflight.Group

	hits, misses int
}

func NewCache(r *Resolver, pool []*graph.Symbol) *Cache {
	if r == nil {
		r = defaultResolver
	}
	return &Cache{
		resolver: r,
		pool:     pool,
		entries:  make(map[string]Resolution),
	}
}

// Resolve returns the memoized resolution of raw, computing it on first use.
// The returned value is a copy and may be modified by the caller.
func (c *Cache) Resolve(raw string) Resolution {
	c.mu.RLock()
	res, ok := c.entries[raw]
	c.mu.RUnlock()
	if ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return res.clone()
	}

	v, _, _ := c.group.Do(raw, func() (interface{}, error) {
		c.mu.RLock()
		cached, ok := c.entries[raw]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}
		computed := c.resolver.Resolve(raw, c.pool)
		c.mu.Lock()
		c.entries[raw] = computed
		c.misses++
		c.mu.Unlock()
		return computed, nil
	})
	return v.(Resolution).clone()
}

// Resolver returns the resolver backing the cache.
func (c *Cache) Resolver() *Resolver { return c.resolver }

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns the number of lookups served from memory and computed.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
