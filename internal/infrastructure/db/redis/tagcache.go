package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	tagCacheKey = "prompts:tags"
	tagCacheTTL = 5 * time.Minute
)

// TagCache caches the distinct-tags listing in Redis so the tag endpoint does
// not hit a collection scan on every call. Entries expire after tagCacheTTL
// and are invalidated eagerly on any prompt mutation.
type TagCache struct {
	client *redis.Client
}

// NewTagCache creates a TagCache wrapping the given Redis client.
func NewTagCache(client *redis.Client) *TagCache {
	return &TagCache{client: client}
}

// Get returns the cached tag list, or nil on a cache miss.
func (c *TagCache) Get(ctx context.Context) ([]string, error) {
	raw, err := c.client.Get(ctx, tagCacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("tag cache get: %w", err)
	}

	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, fmt.Errorf("tag cache decode: %w", err)
	}
	return tags, nil
}

// Set stores the tag list with the cache TTL.
func (c *TagCache) Set(ctx context.Context, tags []string) error {
	raw, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("tag cache encode: %w", err)
	}
	return c.client.Set(ctx, tagCacheKey, raw, tagCacheTTL).Err()
}

// Invalidate drops the cached entry.
func (c *TagCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, tagCacheKey).Err()
}
