// Package cache provides a Redis client wrapper for SalonPulse. It caches
// natural-language query results, tracks per-tenant monthly query usage,
// and backs fixed-window rate limiting.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// QueryResultTTL is how long a cached NL query result stays valid.
const QueryResultTTL = time.Hour

// Cache wraps a Redis client with SalonPulse-specific operations.
type Cache struct {
	client *redis.Client
}

// New creates a Redis cache client connected to the given address.
func New(ctx context.Context, addr, password string) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     20,
		MinIdleConns: 5,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cache: failed to connect to Redis at %s: %w", addr, err)
	}

	log.Printf("cache: connected to Redis at %s", addr)
	return &Cache{client: client}, nil
}

// Close gracefully shuts down the Redis client connection.
func (c *Cache) Close() error {
	if c.client != nil {
		log.Println("cache: closing Redis connection")
		return c.client.Close()
	}
	return nil
}

// Get retrieves a value from the cache by key.
// Returns an empty string and no error if the key does not exist.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("cache: get %q: %w", key, err)
	}
	return val, nil
}

// Set stores a key-value pair in the cache with the given TTL.
// A zero TTL means the key will not expire.
func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache: set %q: %w", key, err)
	}
	return nil
}

// Delete removes one or more keys from the cache.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache: delete: %w", err)
	}
	return nil
}

// QueryKey builds the cache key for a tenant's NL query result. The question
// is hashed so that arbitrary user text never appears in Redis keys.
func QueryKey(tenantID, question string) string {
	h := sha256.Sum256([]byte(question))
	return fmt.Sprintf("query:%s:%s", tenantID, hex.EncodeToString(h[:])[:16])
}

// usageKey constructs the Redis key for monthly query usage tracking.
// The key embeds the calendar month so counters roll over naturally.
func usageKey(tenantID string, now time.Time) string {
	return fmt.Sprintf("quota:queries:%s:%s", tenantID, now.Format("2006-01"))
}

// incrWithExpireLua atomically increments a key and sets TTL if the key has no expiry.
var incrWithExpireLua = redis.NewScript(`
	local newval = redis.call('INCRBY', KEYS[1], ARGV[1])
	if redis.call('TTL', KEYS[1]) == -1 then
		redis.call('EXPIRE', KEYS[1], ARGV[2])
	end
	return newval
`)

// IncrMonthlyUsage atomically increments the tenant's query counter for the
// current month and returns the new total. A Lua script combines INCRBY and
// EXPIRE in one round-trip so the TTL cannot be lost between operations.
func (c *Cache) IncrMonthlyUsage(ctx context.Context, tenantID string) (int64, error) {
	key := usageKey(tenantID, time.Now())
	ttlSeconds := int(62 * 24 * time.Hour / time.Second) // two months, outlives the window

	result, err := incrWithExpireLua.Run(ctx, c.client, []string{key}, 1, ttlSeconds).Int64()
	if err != nil {
		return 0, fmt.Errorf("cache: incr monthly usage %q: %w", key, err)
	}
	return result, nil
}

// GetMonthlyUsage returns the tenant's query count for the current month.
// Returns 0 if no queries have been recorded yet.
func (c *Cache) GetMonthlyUsage(ctx context.Context, tenantID string) (int64, error) {
	key := usageKey(tenantID, time.Now())
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache: get monthly usage %q: %w", key, err)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("cache: parse monthly usage %q=%q: %w", key, val, err)
	}
	return count, nil
}

// rateLimitLua atomically increments the counter and sets TTL only on the first
// request in the window. This prevents the TTL from being extended by subsequent
// requests, which would cause callers to be blocked longer than the intended window.
var rateLimitLua = redis.NewScript(`
	local count = redis.call('INCR', KEYS[1])
	if count == 1 then
		redis.call('EXPIRE', KEYS[1], ARGV[1])
	end
	return count
`)

// RateLimitCheck performs a fixed-window rate limit check for a given key.
// It returns true if the request is allowed (under limit), false if rate-limited.
func (c *Cache) RateLimitCheck(ctx context.Context, key string, maxRequests int64, window time.Duration) (bool, error) {
	rateLimitKey := fmt.Sprintf("ratelimit:%s", key)
	windowSeconds := int(window / time.Second)

	result, err := rateLimitLua.Run(ctx, c.client, []string{rateLimitKey}, windowSeconds).Int64()
	if err != nil {
		return false, fmt.Errorf("cache: rate limit check: %w", err)
	}

	return result <= maxRequests, nil
}

// Client returns the underlying Redis client for advanced operations.
func (c *Cache) Client() *redis.Client {
	return c.client
}
