package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores JSON-encoded values under a key prefix. Backend errors are
// logged and reported as misses so callers fall through to the source.
type Redis[V any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis creates a Redis-backed cache. A zero ttl stores keys without expiry.
func NewRedis[V any](client *redis.Client, prefix string, ttl time.Duration) *Redis[V] {
	return &Redis[V]{client: client, prefix: prefix, ttl: ttl}
}

func (c *Redis[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.WarnContext(ctx, "cache read failed", "prefix", c.prefix, "error", err)
		}
		return zero, false
	}

	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		slog.WarnContext(ctx, "cache entry undecodable", "prefix", c.prefix, "error", err)
		return zero, false
	}
	return v, true
}

func (c *Redis[V]) Set(ctx context.Context, key string, value V) {
	data, err := json.Marshal(value)
	if err != nil {
		slog.WarnContext(ctx, "cache entry unencodable", "prefix", c.prefix, "error", err)
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "cache write failed", "prefix", c.prefix, "error", err)
	}
}
