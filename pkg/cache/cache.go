// Package cache provides byte-level caches for layout results and rendered
// artifacts.
//
// A layout round trip is the expensive part of a visibility change, and the
// same (document, visibility set) pair is requested again every time a user
// toggles a group back. Caching the oracle result by request hash turns
// those repeats into lookups.
//
// # Backends
//
//   - [NullCache]: caching disabled
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [RedisCache]: shared cache for several server instances
//   - [MongoCache]: document-store cache with TTL expiry
//
// # Keys
//
// Keys are produced by a [Keyer] so that backends never see raw request
// payloads. [ScopedKeyer] prefixes keys for namespace isolation.
package cache

import (
	"context"
	"time"
)

// Default TTLs.
const (
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// Cache stores opaque byte values under string keys.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value and true on a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}
