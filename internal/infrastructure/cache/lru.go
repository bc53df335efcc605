package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/poundsaver/backend/internal/domain"
)

// LRUCache is a size-bounded cache. Every entry shares the TTL given at
// construction; the per-call ttl of Set is ignored.
type LRUCache struct {
	lru *expirable.LRU[string, []byte]
}

// NewLRUCache creates a cache holding at most size entries for ttl each
func NewLRUCache(size int, ttl time.Duration) *LRUCache {
	return &LRUCache{
		lru: expirable.NewLRU[string, []byte](size, nil, ttl),
	}
}

// Get retrieves a value from the cache
func (c *LRUCache) Get(ctx context.Context, key string) ([]byte, error) {
	value, ok := c.lru.Get(key)
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return cloneBytes(value), nil
}

// Set stores a value, evicting the least recently used entry when full
func (c *LRUCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.lru.Add(key, cloneBytes(value))
	return nil
}

// Delete removes a value from the cache
func (c *LRUCache) Delete(ctx context.Context, key string) error {
	c.lru.Remove(key)
	return nil
}

// Exists checks if a key is present and not expired
func (c *LRUCache) Exists(ctx context.Context, key string) (bool, error) {
	return c.lru.Contains(key), nil
}

// Size returns the current number of items in the cache
func (c *LRUCache) Size() int {
	return c.lru.Len()
}

// Close is a no-op; it lets callers treat both caches alike
func (c *LRUCache) Close() error {
	return nil
}
