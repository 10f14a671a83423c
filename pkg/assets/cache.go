package assets

import (
	"sync"
	"time"
)

// urlCache holds presigned URLs until shortly before they expire. It is
// safe for concurrent use.
type urlCache struct {
	mu      sync.RWMutex
	entries map[string]cachedURL
	now     func() time.Time
}

type cachedURL struct {
	url     string
	expires time.Time
}

func newURLCache() *urlCache {
	return &urlCache{
		entries: make(map[string]cachedURL),
		now:     time.Now,
	}
}

// get returns the URL for key if it is still valid.
func (c *urlCache) get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expires) {
		return "", false
	}
	return e.url, true
}

// set stores url for key until expires.
func (c *urlCache) set(key, url string, expires time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cachedURL{url: url, expires: expires}
}

// prune drops expired entries and returns how many remain.
func (c *urlCache) prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
		}
	}
	return len(c.entries)
}
