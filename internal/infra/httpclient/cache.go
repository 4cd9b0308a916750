package httpclient

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// urlCacheCapacity and urlCacheTTL match spec.md's process-wide fetch cache
// sizing: 1000 entries, one hour freshness.
const (
	urlCacheCapacity = 1000
	urlCacheTTL      = 1 * time.Hour
)

type cacheEntry struct {
	body      []byte
	fetchedAt time.Time
}

// URLCache is a process-wide, mutex-guarded LRU cache of fetched bodies
// keyed by URL, with lazy TTL expiry on read. force_refresh bypasses both
// the read and the write-through, matching the aggregator option of the
// same name (spec.md §4.2).
type URLCache struct {
	mu  sync.Mutex
	lru *lru.Cache[string, cacheEntry]
}

func NewURLCache() *URLCache {
	c, err := lru.New[string, cacheEntry](urlCacheCapacity)
	if err != nil {
		// Only returns an error for a non-positive size, which never happens here.
		panic(err)
	}
	return &URLCache{lru: c}
}

// Get returns the cached body for url if present and not expired.
func (c *URLCache) Get(url string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.lru.Get(url)
	if !ok {
		return nil, false
	}
	if time.Since(entry.fetchedAt) > urlCacheTTL {
		c.lru.Remove(url)
		return nil, false
	}
	return entry.body, true
}

// Set stores body for url, evicting the least-recently-used entry if the
// cache is at capacity.
func (c *URLCache) Set(url string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(url, cacheEntry{body: body, fetchedAt: time.Now()})
}

// Purge removes url from the cache, used when force_refresh is requested.
func (c *URLCache) Purge(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(url)
}
