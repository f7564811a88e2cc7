package filter

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Cache memoizes ranked results per pattern. The corpus never changes
// after startup, so a pattern's ranking is stable for the process
// lifetime; the TTL only bounds memory held for patterns the user has
// typed past. Entries store the ranked line texts without the sequence
// prefix, so a cache hit still echoes the current query's id.
type Cache struct {
	cache *ttlcache.Cache[string, []string]
}

// NewCache creates a pattern-result cache with TTL-based expiration.
func NewCache(ttl time.Duration) *Cache {
	c := ttlcache.New[string, []string](
		ttlcache.WithTTL[string, []string](ttl),
		ttlcache.WithDisableTouchOnHit[string, []string](),
	)
	go c.Start()
	return &Cache{cache: c}
}

// Close stops the cache expiration loop.
func (c *Cache) Close() {
	c.cache.Stop()
}

// Get returns the ranked lines for pattern, if cached.
func (c *Cache) Get(pattern string) ([]string, bool) {
	item := c.cache.Get(pattern)
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

// Set stores the ranked lines for pattern.
func (c *Cache) Set(pattern string, lines []string) {
	c.cache.Set(pattern, lines, ttlcache.DefaultTTL)
}
