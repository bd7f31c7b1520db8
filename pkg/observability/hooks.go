// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about compile-fix runs, cache operations, and API calls.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, a TUI, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetForgeHooks(&myForgeHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Forge().OnAttemptStart(ctx, runID, index)
//	// ... compile ...
//	observability.Forge().OnAttemptComplete(ctx, runID, index, success, duration)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Forge Hooks
// =============================================================================

// ForgeHooks receives events from compile-fix runs. States and tiers are
// passed as plain strings so backends need no dependency on the core types.
type ForgeHooks interface {
	// Run lifecycle
	OnRunStart(ctx context.Context, runID, sketchPath, fqbn string)
	OnRunComplete(ctx context.Context, runID string, success bool, attempts int, duration time.Duration)

	// State transitions
	OnStateChange(ctx context.Context, runID, from, to string)

	// Compile attempts
	OnAttemptStart(ctx context.Context, runID string, index int)
	OnAttemptComplete(ctx context.Context, runID string, index int, success bool, duration time.Duration)

	// Library resolution
	OnLibraryResolved(ctx context.Context, runID, library, tier string)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopForgeHooks is a no-op implementation of ForgeHooks.
type NoopForgeHooks struct{}

func (NoopForgeHooks) OnRunStart(context.Context, string, string, string)                  {}
func (NoopForgeHooks) OnRunComplete(context.Context, string, bool, int, time.Duration)     {}
func (NoopForgeHooks) OnStateChange(context.Context, string, string, string)               {}
func (NoopForgeHooks) OnAttemptStart(context.Context, string, int)                         {}
func (NoopForgeHooks) OnAttemptComplete(context.Context, string, int, bool, time.Duration) {}
func (NoopForgeHooks) OnLibraryResolved(context.Context, string, string, string)           {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	forgeHooks ForgeHooks = NoopForgeHooks{}
	cacheHooks CacheHooks = NoopCacheHooks{}
	httpHooks  HTTPHooks  = NoopHTTPHooks{}
	hooksMu    sync.RWMutex
)

// SetForgeHooks registers custom forge hooks.
// This should be called once at application startup before any runs.
func SetForgeHooks(h ForgeHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		forgeHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Forge returns the registered forge hooks.
func Forge() ForgeHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return forgeHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	forgeHooks = NoopForgeHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
