// Package cache provides the best-effort key/value cache used for fleet
// feature aggregation.
//
// Two backends exist: Memory (process-local, backed by ttlcache) and Surreal
// (shared across broker replicas through the cache_entry table). Callers
// treat every error as a miss.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values with a per-entry TTL.
type Cache interface {
	// Get returns the value for key. found is false on a miss or expiry.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set stores value under key for ttl. A non-positive ttl uses the
	// backend default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// DefaultTTL applies when Set is called without a positive ttl.
const DefaultTTL = 600 * time.Second
