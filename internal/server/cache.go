package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const listCacheTTL = 60 * time.Second

// Cache is a thin read-through cache over Redis for the list endpoints.
// A nil Cache (or one without a client) is a no-op, so the service keeps
// working when Redis is down.
type Cache struct {
	client *redis.Client
}

// NewCache connects to Redis. It returns an error when the server is
// unreachable; callers may log and continue without caching.
func NewCache(redisURL string) (*Cache, error) {
	opt, err := redis.ParseURL(fmt.Sprintf("redis://%s", redisURL))
	if err != nil {
		// Fallback to simple connection
		opt = &redis.Options{
			Addr: redisURL,
		}
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &Cache{client: client}, nil
}

// Get unmarshals the cached value for key into dst, reporting whether a
// usable entry existed.
func (c *Cache) Get(ctx context.Context, key string, dst any) bool {
	if c == nil || c.client == nil {
		return false
	}
	cached, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(cached), dst) == nil
}

// Set stores val under key for the list TTL. Failures are ignored; the cache
// is best effort.
func (c *Cache) Set(ctx context.Context, key string, val any) {
	if c == nil || c.client == nil {
		return
	}
	if data, err := json.Marshal(val); err == nil {
		c.client.SetEx(ctx, key, data, listCacheTTL)
	}
}

// Invalidate drops the given keys after a write.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Del(ctx, keys...)
}
