// Package cache holds the read-through cache in front of appointment reads.
// Stores are byte-oriented; AppointmentCache adds typed access, key layout
// and invalidation on top.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Store.Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Store is the cache backend capability. Implementations must be safe for
// concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePattern removes every key matching a glob pattern ("prefix:*")
	// and reports how many were removed.
	DeletePattern(ctx context.Context, pattern string) (int, error)
}
