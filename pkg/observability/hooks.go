// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries in this module never import a metrics backend directly. They
// report events through small hook interfaces whose default implementations
// do nothing; a binary registers real implementations once at startup (see
// the prom subpackage for the Prometheus backend used by `lineagraph serve`).
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    m := prom.New(prometheus.DefaultRegisterer)
//	    observability.SetLayoutHooks(m)
//	    observability.SetCacheHooks(m)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Layout().OnLayoutDispatch(ctx, token, nodeCount)
//	// ... run engine ...
//	observability.Layout().OnLayoutComplete(ctx, token, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Layout Hooks
// =============================================================================

// LayoutHooks receives events from the layout bridge and its engines.
type LayoutHooks interface {
	// OnLayoutDispatch records a request handed to the background worker.
	OnLayoutDispatch(ctx context.Context, token uint64, nodeCount int)

	// OnLayoutComplete records an engine run that produced the visible state.
	OnLayoutComplete(ctx context.Context, token uint64, duration time.Duration, err error)

	// OnLayoutStale records a result dropped because a newer request exists.
	OnLayoutStale(ctx context.Context, token uint64)
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

// HTTPHooks receives events from outgoing HTTP calls (remote layout engine)
// and from the API server.
type HTTPHooks interface {
	// OnRequest records an HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// Camera Hooks
// =============================================================================

// CameraHooks receives events from viewport commands issued through the API
// or the CLI.
type CameraHooks interface {
	// OnCameraCommand records a camera command and whether it moved the camera.
	OnCameraCommand(ctx context.Context, op string, changed bool)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopLayoutHooks is a no-op implementation of LayoutHooks.
type NoopLayoutHooks struct{}

func (NoopLayoutHooks) OnLayoutDispatch(context.Context, uint64, int)                    {}
func (NoopLayoutHooks) OnLayoutComplete(context.Context, uint64, time.Duration, error) {}
func (NoopLayoutHooks) OnLayoutStale(context.Context, uint64)                            {}

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

// NoopCameraHooks is a no-op implementation of CameraHooks.
type NoopCameraHooks struct{}

func (NoopCameraHooks) OnCameraCommand(context.Context, string, bool) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	layoutHooks LayoutHooks = NoopLayoutHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	httpHooks   HTTPHooks   = NoopHTTPHooks{}
	cameraHooks CameraHooks = NoopCameraHooks{}
	hooksMu     sync.RWMutex
)

// SetLayoutHooks registers custom layout hooks.
// This should be called once at application startup before any layout runs.
func SetLayoutHooks(h LayoutHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		layoutHooks = h
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

// SetCameraHooks registers custom camera hooks.
func SetCameraHooks(h CameraHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cameraHooks = h
	}
}

// Layout returns the registered layout hooks.
func Layout() LayoutHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return layoutHooks
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

// Camera returns the registered camera hooks.
func Camera() CameraHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cameraHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	layoutHooks = NoopLayoutHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
	cameraHooks = NoopCameraHooks{}
}
