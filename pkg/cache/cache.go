// Package cache stores rendered figures so an unchanged figure is not
// composited twice.
//
// A figure's cache key covers everything that influences its pixels: the
// figure description bytes, the bytes of every referenced image, the resolved
// render settings and the output format (see [FigureKey]). Editing any of them
// produces a new key, so entries never need explicit invalidation; they only
// expire by TTL or via [FileCache.Clear].
//
// Two implementations are provided:
//   - [FileCache]: hash-sharded files under a directory (the CLI default,
//     ~/.cache/figcomp)
//   - [NullCache]: never stores anything (--no-cache, tests)
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the stored bytes and true on a hit. Expired or corrupt
	// entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// DefaultTTL is how long a rendered figure stays valid in the cache.
const DefaultTTL = 7 * 24 * time.Hour
