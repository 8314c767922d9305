package pokeapi

import (
	"sync"
	"time"
)

// DefaultCacheTTL is how long a successful upstream response is reused.
const DefaultCacheTTL = time.Hour

type cacheEntry struct {
	payload   []byte
	fetchedAt time.Time
}

// ResponseCache maps exact request URLs to the last successful response body.
// Entries are only replaced on a successful refetch; there is no size bound and
// no eviction besides the TTL check on read.
type ResponseCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewResponseCache builds an empty cache. A non-positive ttl falls back to DefaultCacheTTL.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	return &ResponseCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached payload for url when it is younger than the TTL.
func (c *ResponseCache) Get(url string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[url]
	if !ok {
		return nil, false
	}

	if c.now().Sub(entry.fetchedAt) >= c.ttl {
		return nil, false
	}

	return entry.payload, true
}

// Set stores payload for url, stamped with the current time. Last writer wins.
func (c *ResponseCache) Set(url string, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[url] = cacheEntry{payload: payload, fetchedAt: c.now()}
}

// Len reports the number of entries, stale ones included.
func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
