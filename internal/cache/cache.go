// Package cache provides the byte-oriented cache backends that sit in front of
// the record store: Redis for shared deployments and an in-process TTL map
// for single-node runs and tests.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Backend is the minimal contract the catalog needs from a cache. Every
// method may fail; callers treat failures as misses.
type Backend interface {
	// Get returns the stored payload or ErrMiss.
	Get(ctx context.Context, key string) ([]byte, error)
	// Add stores value only if key is not already present. It reports
	// whether the value was written.
	Add(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// HealthCheck reports whether the backend is reachable.
	HealthCheck(ctx context.Context) error
	// Close releases backend resources.
	Close() error
}

// Stats holds cache performance counters.
type Stats struct {
	Hits        int64 // Number of successful Get operations
	Misses      int64 // Number of Get operations that found nothing
	Adds        int64 // Number of Add operations that stored a value
	Evictions   int64 // Number of expired entries cleaned up
	CurrentSize int   // Current number of cached entries
}
