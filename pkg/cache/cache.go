package cache

import (
	"context"
	"time"
)

// Store is the minimal surface the fetch layer needs. Implementations must
// treat expired entries as absent.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	InvalidateAll(ctx context.Context) error
	Stats(ctx context.Context) (Stats, error)
}

// Stats exposes cache introspection for diagnostics.
type Stats struct {
	Size int      `json:"size"`
	Keys []string `json:"keys"`
}
