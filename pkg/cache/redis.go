package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgredis "github.com/apexhq/shipdash-backend/pkg/redis"
)

// redisClient is the slice of pkg/redis the backend needs.
type redisClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
	CacheKey(parts ...string) string
	CachePattern() string
}

// Redis delegates TTL handling to the redis server. It exists so a deployment
// with several dashboard replicas can share one response cache.
type Redis struct {
	client redisClient
}

func NewRedis(client *pkgredis.Client) (*Redis, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.client.Get(ctx, r.client.CacheKey(key))
	if err != nil {
		if errors.Is(err, pkgredis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	return []byte(value), true, nil
}

func (r *Redis) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.client.CacheKey(key), payload, ttl); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (r *Redis) InvalidateAll(ctx context.Context) error {
	keys, err := r.client.ScanKeys(ctx, r.client.CachePattern())
	if err != nil {
		return fmt.Errorf("cache scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}

func (r *Redis) Stats(ctx context.Context) (Stats, error) {
	keys, err := r.client.ScanKeys(ctx, r.client.CachePattern())
	if err != nil {
		return Stats{}, fmt.Errorf("cache stats: %w", err)
	}
	return Stats{Size: len(keys), Keys: keys}, nil
}
