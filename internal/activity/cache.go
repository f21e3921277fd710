package activity

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL is the standard expiry for cached values.
const DefaultCacheTTL = 5 * time.Minute

// Cache is a small JSON cache over Redis, used to avoid recomputing
// expensive aggregates between requests. Like the activity streams it
// degrades to a no-op without a Redis connection.
type Cache struct {
	client *redis.Client
}

// NewCache creates a cache over the given Redis client.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Set stores a JSON-serialized value under the key.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c == nil || c.client == nil {
		return nil
	}
	serialized, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, serialized, ttl).Err()
}

// Get loads a cached value into out. Returns false on a miss.
func (c *Cache) Get(ctx context.Context, key string, out any) (bool, error) {
	if c == nil || c.client == nil {
		return false, nil
	}
	raw, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, err
	}
	return true, nil
}

// Invalidate removes the given keys.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if c == nil || c.client == nil || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
