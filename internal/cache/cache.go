package cache

import (
	"sync"
	"time"
)

// DefaultTTL is long enough to cover one resolution session; the cache
// is owned by a Client value and dies with it, so nothing is ever served
// stale across invocations.
const DefaultTTL = 10 * time.Minute

// Entry holds a fetched page with expiration
type Entry struct {
	Body      []byte
	ExpiresAt time.Time
	FetchedAt time.Time
}

// IsExpired returns true if the entry has expired
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.ExpiresAt)
}

// Age returns how long ago the entry was fetched
func (e *Entry) Age() time.Duration {
	return time.Since(e.FetchedAt)
}

// Cache memoizes fetched pages by URL so a page referenced from several
// places is retrieved at most once per session. Not a cross-run cache:
// it is never persisted and never shared between invocations.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// New creates a new cache instance
func New() *Cache {
	return &Cache{
		entries: make(map[string]*Entry),
	}
}

// Get retrieves a cached page body, or nil if expired or not present
func (c *Cache) Get(url string) []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[url]
	if !ok || entry.IsExpired() {
		return nil
	}
	return entry.Body
}

// GetEntry retrieves the full cache entry (for checking age, etc.)
func (c *Cache) GetEntry(url string) *Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[url]
}

// Set stores a page body with the given TTL
func (c *Cache) Set(url string, body []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[url] = &Entry{
		Body:      body,
		ExpiresAt: time.Now().Add(ttl),
		FetchedAt: time.Now(),
	}
}

// SetPage stores a page body with the default session TTL
func (c *Cache) SetPage(url string, body []byte) {
	c.Set(url, body, DefaultTTL)
}

// Delete removes an entry from cache
func (c *Cache) Delete(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, url)
}

// Clear removes all entries from cache
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Entry)
}

// Len returns the number of cached pages
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
