package cache

import (
	"context"
	"sync"
	"time"

	"github.com/mikey/llm-email-classifier/internal/core"
	"go.uber.org/zap"
)

// MemoryCache is an in-memory implementation of the CacheRepository interface
type MemoryCache struct {
	entries map[string]*core.CacheEntry
	mu      sync.RWMutex
	logger  *zap.Logger
	cleaner *cleaner
	now     func() time.Time
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache(logger *zap.Logger, cleanupFreq time.Duration) *MemoryCache {
	cache := &MemoryCache{
		entries: make(map[string]*core.CacheEntry),
		logger:  logger,
		now:     time.Now,
	}
	cache.cleaner = newCleaner(cleanupFreq, cache.Cleanup, logger)

	return cache
}

// Get retrieves a live cache entry
func (c *MemoryCache) Get(ctx context.Context, key string) (*core.CacheEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || entry.Expired(c.now()) {
		return nil, core.ErrCacheMiss
	}

	clone := *entry
	return &clone, nil
}

// Set stores a cache entry
func (c *MemoryCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	clone := *entry
	c.entries[entry.Key] = &clone
	return nil
}

// Delete removes a cache entry
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

// Cleanup removes expired entries
func (c *MemoryCache) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	expiredCount := 0
	for key, entry := range c.entries {
		if entry.Expired(now) {
			delete(c.entries, key)
			expiredCount++
		}
	}

	c.logger.Debug("Cleaned up expired cache entries", zap.Int("expired_count", expiredCount))
	return nil
}

// Len returns the number of stored entries, expired or not
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Stop stops the background cleanup task
func (c *MemoryCache) Stop() {
	c.cleaner.stop()
}
