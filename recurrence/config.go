package recurrence

import (
	"time"
)

// EngineConfig holds configuration options for the recurrence engine
type EngineConfig struct {
	CacheEnabled bool
	CacheConfig  CacheConfig

	Expansion ExpansionOptions
	// LargeRangeLimit bounds the first pass of HasOccurrenceInRange.
	LargeRangeLimit time.Duration
}

// DefaultEngineConfig provides sensible defaults for production use
var DefaultEngineConfig = EngineConfig{
	CacheEnabled:    true,
	CacheConfig:     DefaultCacheConfig,
	Expansion:       DefaultExpansionOptions,
	LargeRangeLimit: 90 * 24 * time.Hour,
}

// LowMemoryConfig is optimized for memory-constrained environments
var LowMemoryConfig = EngineConfig{
	CacheEnabled: true,
	CacheConfig: CacheConfig{
		TTL:             5 * time.Minute,
		MaxEntries:      100,
		CleanupInterval: 2 * time.Minute,
	},
	Expansion: ExpansionOptions{
		MaxOccurrences: 200,
		MaxTimeSpan:    365 * 24 * time.Hour,
	},
	LargeRangeLimit: 30 * 24 * time.Hour,
}

// DisabledCacheConfig turns off caching entirely
var DisabledCacheConfig = EngineConfig{
	CacheEnabled:    false,
	Expansion:       DefaultExpansionOptions,
	LargeRangeLimit: 365 * 24 * time.Hour,
}

// NewEngineWithConfig creates a new recurrence engine with custom configuration
func NewEngineWithConfig(config EngineConfig) *Engine {
	var cache *Cache
	if config.CacheEnabled {
		cache = NewCache(config.CacheConfig)
	}
	return &Engine{cache: cache, config: config}
}
