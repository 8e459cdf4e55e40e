package recurrence

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"sync"
	"time"
)

type cacheEntry struct {
	occurrences []Occurrence
	expiresAt   time.Time
	accessedAt  time.Time
}

// Cache keeps expansion results for a limited time.
type Cache struct {
	entries         map[string]*cacheEntry
	mutex           sync.Mutex
	ttl             time.Duration
	maxEntries      int
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	closeOnce       sync.Once
	now             func() time.Time
}

// CacheConfig holds configuration for the recurrence cache
type CacheConfig struct {
	TTL             time.Duration // How long entries stay valid
	MaxEntries      int           // Maximum number of entries before cleanup
	CleanupInterval time.Duration // How often to run cleanup, 0 disables the loop
}

// DefaultCacheConfig provides sensible defaults for recurrence caching
var DefaultCacheConfig = CacheConfig{
	TTL:             15 * time.Minute,
	MaxEntries:      1000,
	CleanupInterval: 5 * time.Minute,
}

// NewCache creates a cache and starts its cleanup loop.
func NewCache(config CacheConfig) *Cache {
	c := &Cache{
		entries:         make(map[string]*cacheEntry),
		ttl:             config.TTL,
		maxEntries:      config.MaxEntries,
		cleanupInterval: config.CleanupInterval,
		stopCleanup:     make(chan struct{}),
		now:             time.Now,
	}
	if c.cleanupInterval > 0 {
		go c.cleanupLoop()
	}
	return c
}

func cacheKey(start, end time.Time, rule Rule, from, to time.Time) string {
	hasher := sha256.New()
	for _, t := range []time.Time{start, end, from, to} {
		hasher.Write([]byte(t.Format(time.RFC3339Nano)))
	}
	hasher.Write([]byte(rule.key()))
	return fmt.Sprintf("%x", hasher.Sum(nil))
}

func (c *Cache) get(key string) ([]Occurrence, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	now := c.now()
	if now.After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	entry.accessedAt = now
	return append([]Occurrence(nil), entry.occurrences...), true
}

func (c *Cache) set(key string, occurrences []Occurrence) {
	now := c.now()
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[key] = &cacheEntry{
		occurrences: append([]Occurrence(nil), occurrences...),
		expiresAt:   now.Add(c.ttl),
		accessedAt:  now,
	}
	if c.maxEntries > 0 && len(c.entries) > c.maxEntries {
		c.cleanup()
	}
}

// cleanup removes expired entries and then the least recently used ones
// until the cache is within its limit. The mutex must be held.
func (c *Cache) cleanup() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
	if c.maxEntries <= 0 || len(c.entries) <= c.maxEntries {
		return
	}

	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return c.entries[keys[i]].accessedAt.Before(c.entries[keys[j]].accessedAt)
	})
	for _, key := range keys[:len(keys)-c.maxEntries] {
		delete(c.entries, key)
	}
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mutex.Lock()
			c.cleanup()
			c.mutex.Unlock()
		case <-c.stopCleanup:
			return
		}
	}
}

// Close stops the cleanup goroutine and clears the cache
func (c *Cache) Close() {
	c.closeOnce.Do(func() {
		close(c.stopCleanup)
	})
	c.mutex.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.mutex.Unlock()
}

// Stats returns cache statistics
func (c *Cache) Stats() CacheStats {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	stats := CacheStats{TotalEntries: len(c.entries)}
	now := c.now()
	for _, entry := range c.entries {
		if now.After(entry.expiresAt) {
			stats.ExpiredEntries++
		}
	}
	stats.ActiveEntries = stats.TotalEntries - stats.ExpiredEntries
	return stats
}

// CacheStats provides information about cache usage
type CacheStats struct {
	TotalEntries   int
	ExpiredEntries int
	ActiveEntries  int
}
