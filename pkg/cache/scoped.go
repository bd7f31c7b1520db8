package cache

import (
	"context"
	"time"
)

// Scoped wraps a Cache with a key prefix so independent data classes
// (branch lookups, oracle answers) never collide in a shared backend.
//
// Example usage:
//
//	branches := cache.NewScoped(backend, "branch:")
//	oracle := cache.NewScoped(backend, "oracle:")
type Scoped struct {
	inner  Cache
	prefix string
}

// NewScoped creates a prefixed view of inner.
// Closing the scoped cache does not close the inner cache.
func NewScoped(inner Cache, prefix string) Cache {
	if inner == nil {
		inner = NewNullCache()
	}
	return &Scoped{inner: inner, prefix: prefix}
}

// Get retrieves a value under the prefixed key.
func (s *Scoped) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

// Set stores a value under the prefixed key.
func (s *Scoped) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return s.inner.Set(ctx, s.prefix+key, data, ttl)
}

// Delete removes the prefixed key.
func (s *Scoped) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, s.prefix+key)
}

// Close does nothing; the inner cache is owned by the caller.
func (s *Scoped) Close() error {
	return nil
}

// Ensure Scoped implements Cache.
var _ Cache = (*Scoped)(nil)
