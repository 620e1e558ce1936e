package cache

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Config configures an LRU cache.
type Config struct {
	Capacity   int           // Maximum number of entries (default: 1000)
	DefaultTTL time.Duration // Entry lifetime (default: 30 minutes)
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		Capacity:   1000,
		DefaultTTL: 30 * time.Minute,
	}
}

// LRU implements Cache with least-recently-used eviction and per-entry expiry.
type LRU[V any] struct {
	lru *expirable.LRU[string, V]
}

// NewLRU creates a new LRU cache.
func NewLRU[V any](cfg Config) *LRU[V] {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 1000
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 30 * time.Minute
	}
	return &LRU[V]{
		lru: expirable.NewLRU[string, V](cfg.Capacity, nil, cfg.DefaultTTL),
	}
}

// Get retrieves a value from the cache.
func (c *LRU[V]) Get(key string) (V, bool) {
	return c.lru.Get(key)
}

// Set stores a value in the cache.
func (c *LRU[V]) Set(key string, value V) {
	c.lru.Add(key, value)
}

// Invalidate removes entries matching the pattern.
// Supports * wildcard at the end (e.g., "session:*").
func (c *LRU[V]) Invalidate(pattern string) int {
	if !strings.HasSuffix(pattern, "*") {
		if c.lru.Remove(pattern) {
			return 1
		}
		return 0
	}

	prefix := strings.TrimSuffix(pattern, "*")
	count := 0
	for _, key := range c.lru.Keys() {
		if strings.HasPrefix(key, prefix) && c.lru.Remove(key) {
			count++
		}
	}
	return count
}

// Len returns the number of entries in the cache.
func (c *LRU[V]) Len() int {
	return c.lru.Len()
}

// Clear removes all entries from the cache.
func (c *LRU[V]) Clear() {
	c.lru.Purge()
}

var _ Cache[[]byte] = (*LRU[[]byte])(nil)
