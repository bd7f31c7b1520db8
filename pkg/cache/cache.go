// Package cache provides byte-oriented caching with pluggable backends.
//
// The registry client uses it to memoize repository metadata lookups (default
// branches change rarely, and a cached hit avoids burning API rate limits
// during repeated compile-fix iterations). Backends:
//   - file: on-disk cache for CLI usage (the default)
//   - redis: shared cache for multi-machine setups, selected by config
//   - null: caching disabled
//
// All backends store opaque byte slices with a TTL; key construction is the
// caller's concern (see [Key]).
package cache

import (
	"context"
	"time"
)

// Default TTLs per cached data class.
const (
	// TTLBranch is the lifetime of default-branch lookups.
	TTLBranch = 24 * time.Hour

	// TTLOracle is the lifetime of cached oracle metadata answers
	// (repository homepage queries).
	TTLOracle = 7 * 24 * time.Hour
)

// Cache stores opaque byte values under string keys with per-entry TTL.
type Cache interface {
	// Get retrieves a value. The second result reports whether the key was
	// present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A TTL of 0 means no expiration;
	// a negative TTL stores an already-expired entry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
