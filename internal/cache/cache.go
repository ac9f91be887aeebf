// Package cache implements the cache-aside layer in front of the link store.
// The store stays authoritative: entries are populated on read misses, carry
// their own TTLs and are explicitly invalidated after store mutations.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by Get when the key is absent. A miss is not a
// failure: callers recompute from the store and repopulate.
var ErrCacheMiss = errors.New("cache miss")

// NewClient connects to redis and verifies the connection with a ping.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	const op = "cache.NewClient"

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: failed to connect to redis: %w", op, err)
	}

	return client, nil
}

// Redis is the redis-backed link cache. It is safe for concurrent use;
// writes are last-writer-wins and invalidation is idempotent.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{
		client: client,
	}
}

// Get returns the value stored under key, or ErrCacheMiss if absent.
func (c *Redis) Get(ctx context.Context, key string) (string, error) {
	const op = "cache.Redis.Get"

	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("%s: %w", op, ErrCacheMiss)
		}

		return "", fmt.Errorf("%s: failed to get key: %w", op, err)
	}

	return val, nil
}

// Set stores value under key with the given TTL.
func (c *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	const op = "cache.Redis.Set"

	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%s: failed to set key: %w", op, err)
	}

	return nil
}

// Invalidate removes the given keys. Keys that are already gone are no-ops.
func (c *Redis) Invalidate(ctx context.Context, keys ...string) error {
	const op = "cache.Redis.Invalidate"

	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%s: failed to delete keys: %w", op, err)
	}

	return nil
}
