// Package cache provides the in-process cache used by AI services.
package cache

// Cache is a size-bounded, TTL'd cache safe for concurrent use.
type Cache[V any] interface {
	// Get retrieves a value from cache.
	// Returns: value, whether it exists
	Get(key string) (V, bool)

	// Set stores a value in cache, replacing any previous value.
	Set(key string, value V)

	// Invalidate removes entries matching the pattern and returns how many.
	// pattern: exact key, or a prefix followed by * (session:*)
	Invalidate(pattern string) int

	// Len returns the number of live entries.
	Len() int
}
