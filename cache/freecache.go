package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coocood/freecache"
)

// DefaultFreeCacheSize is enough for a few thousand rate tables.
const DefaultFreeCacheSize = 16 * 1024 * 1024

type FreeCache struct {
	cache *freecache.Cache
}

// NewFreeCache creates an in-process cache of sizeBytes; freecache enforces a 512KB minimum.
func NewFreeCache(sizeBytes int) *FreeCache {
	if sizeBytes <= 0 {
		sizeBytes = DefaultFreeCacheSize
	}
	return &FreeCache{cache: freecache.NewCache(sizeBytes)}
}

func (c *FreeCache) Set(ctx context.Context, key string, value string, expiry time.Duration) error {
	ttlSeconds := max(int(expiry.Seconds()), 0) // 0 means no expiry

	if err := c.cache.Set([]byte(key), []byte(value), ttlSeconds); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

func (c *FreeCache) Get(ctx context.Context, key string) (string, error) {
	data, err := c.cache.Get([]byte(key))
	if err != nil {
		if errors.Is(err, freecache.ErrNotFound) {
			return "", ErrKeyNotFound
		}
		return "", fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return string(data), nil
}

// Delete is idempotent: removing a missing key is not an error.
func (c *FreeCache) Delete(ctx context.Context, key string) error {
	c.cache.Del([]byte(key))
	return nil
}

func (c *FreeCache) Clear(ctx context.Context) error {
	c.cache.Clear()
	return nil
}

func (c *FreeCache) EntryCount() int64 {
	return c.cache.EntryCount()
}
