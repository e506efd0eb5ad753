package storage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL bounds how stale a cached document can be for readers in
// other processes.
const DefaultCacheTTL = 5 * time.Minute

// RedisClient is the subset of *redis.Client used by CachedGateway.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// CachedGateway puts a Redis read-through, write-through cache in front of
// another gateway. Cache failures are logged and never fail a call.
type CachedGateway struct {
	next   Gateway
	client RedisClient
	key    string
	ttl    time.Duration
}

// NewCachedGateway wraps next with a cache entry stored under key.
func NewCachedGateway(next Gateway, client RedisClient, key string, ttl time.Duration) *CachedGateway {
	if key == "" {
		key = "kookmath:catalog:" + DefaultDocument
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedGateway{next: next, client: client, key: key, ttl: ttl}
}

func (g *CachedGateway) Read(ctx context.Context) ([]byte, error) {
	data, err := g.client.Get(ctx, g.key).Bytes()
	switch {
	case err == nil:
		return data, nil
	case errors.Is(err, redis.Nil):
	default:
		slog.Warn("catalog cache read failed", "key", g.key, "error", err)
	}

	data, err = g.next.Read(ctx)
	if err != nil {
		return nil, err
	}
	g.fill(ctx, data)
	return data, nil
}

// Write stores data in the underlying gateway first. On failure the cache
// entry is dropped so readers do not see a document that was never stored.
func (g *CachedGateway) Write(ctx context.Context, data []byte) error {
	if err := g.next.Write(ctx, data); err != nil {
		if derr := g.client.Del(ctx, g.key).Err(); derr != nil {
			slog.Warn("catalog cache invalidate failed", "key", g.key, "error", derr)
		}
		return err
	}
	g.fill(ctx, data)
	return nil
}

func (g *CachedGateway) fill(ctx context.Context, data []byte) {
	if err := g.client.Set(ctx, g.key, data, g.ttl).Err(); err != nil {
		slog.Warn("catalog cache write failed", "key", g.key, "error", err)
	}
}
