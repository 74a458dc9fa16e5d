// Package counter reads integer counters kept in Redis.
package counter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/patientor/pkg/metrics"
	"github.com/redis/go-redis/v9"
)

// RedisCounter reads integer counters from a Redis client.
type RedisCounter struct {
	client redis.UniversalClient
}

// NewRedisCounter wraps client.
func NewRedisCounter(client redis.UniversalClient) *RedisCounter {
	return &RedisCounter{client: client}
}

// Get returns the integer stored at key. A missing key counts as zero.
func (c *RedisCounter) Get(ctx context.Context, key string) (int64, error) {
	raw, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		metrics.RecordCounterRead("miss")
		return 0, nil
	}
	if err != nil {
		metrics.RecordCounterRead("error")
		return 0, fmt.Errorf("%w: get counter %s: %w", ErrUnavailable, key, err)
	}

	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		metrics.RecordCounterRead("error")
		return 0, fmt.Errorf("counter %s = %q: %w", key, raw, ErrNotNumeric)
	}
	metrics.RecordCounterRead("hit")
	return n, nil
}

// Ping checks the connection.
func (c *RedisCounter) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (c *RedisCounter) Close() error {
	return c.client.Close()
}
