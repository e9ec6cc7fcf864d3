// Package prom implements the observability hooks with Prometheus metrics.
//
//	m := prom.New(prometheus.DefaultRegisterer)
//	m.Register()
//
// Register installs m for every hook kind. The collectors are exposed by
// whatever handler serves the registerer, usually promhttp on /metrics.
package prom

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/lineagraph/pkg/observability"
)

const namespace = "lineagraph"

// Metrics holds the collectors behind every hook.
type Metrics struct {
	LayoutDispatched prometheus.Counter
	LayoutCompleted  *prometheus.CounterVec
	LayoutStale      prometheus.Counter
	LayoutDuration   prometheus.Histogram
	LayoutNodes      prometheus.Histogram

	CacheHits     *prometheus.CounterVec
	CacheMisses   *prometheus.CounterVec
	CacheSetBytes *prometheus.HistogramVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPErrors   *prometheus.CounterVec

	CameraCommands *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg uses
// a fresh private registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		LayoutDispatched: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layout_dispatched_total",
			Help:      "Layout requests handed to the background worker",
		}),
		LayoutCompleted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layout_completed_total",
			Help:      "Layout runs that produced the visible state",
		}, []string{"status"}), // ok, error
		LayoutStale: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layout_stale_total",
			Help:      "Layout results dropped because a newer request existed",
		}),
		LayoutDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_duration_seconds",
			Help:      "Layout engine run time in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		LayoutNodes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_nodes",
			Help:      "Top-level nodes per dispatched layout request",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		CacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Cache lookups that found an entry",
		}, []string{"type"}),
		CacheMisses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Cache lookups that found nothing",
		}, []string{"type"}),
		CacheSetBytes: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cache_set_bytes",
			Help:      "Size of cache writes in bytes",
			Buckets:   []float64{1e2, 1e3, 1e4, 1e5, 1e6, 1e7},
		}, []string{"type"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, host, path and status",
		}, []string{"method", "host", "path", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "host", "path"}),
		HTTPErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_errors_total",
			Help:      "HTTP requests that failed without a response",
		}, []string{"method", "host", "path"}),
		CameraCommands: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "camera_commands_total",
			Help:      "Viewport commands by operation and whether the camera moved",
		}, []string{"op", "changed"}),
	}
}

// Register installs m as the layout, cache, HTTP and camera hooks.
func (m *Metrics) Register() {
	observability.SetLayoutHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
	observability.SetCameraHooks(m)
}

// OnLayoutDispatch implements [observability.LayoutHooks].
func (m *Metrics) OnLayoutDispatch(_ context.Context, _ uint64, nodeCount int) {
	m.LayoutDispatched.Inc()
	m.LayoutNodes.Observe(float64(nodeCount))
}

// OnLayoutComplete implements [observability.LayoutHooks].
func (m *Metrics) OnLayoutComplete(_ context.Context, _ uint64, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.LayoutCompleted.WithLabelValues(status).Inc()
	m.LayoutDuration.Observe(d.Seconds())
}

// OnLayoutStale implements [observability.LayoutHooks].
func (m *Metrics) OnLayoutStale(context.Context, uint64) { m.LayoutStale.Inc() }

// OnCacheHit implements [observability.CacheHooks].
func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.CacheHits.WithLabelValues(keyType).Inc()
}

// OnCacheMiss implements [observability.CacheHooks].
func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.CacheMisses.WithLabelValues(keyType).Inc()
}

// OnCacheSet implements [observability.CacheHooks].
func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.CacheSetBytes.WithLabelValues(keyType).Observe(float64(size))
}

// OnRequest implements [observability.HTTPHooks]. Requests are counted on
// completion, so this is a no-op.
func (m *Metrics) OnRequest(context.Context, string, string, string) {}

// OnResponse implements [observability.HTTPHooks].
func (m *Metrics) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	m.HTTPRequests.WithLabelValues(method, host, path, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, host, path).Observe(d.Seconds())
}

// OnError implements [observability.HTTPHooks].
func (m *Metrics) OnError(_ context.Context, method, host, path string, _ error) {
	m.HTTPErrors.WithLabelValues(method, host, path).Inc()
}

// OnCameraCommand implements [observability.CameraHooks].
func (m *Metrics) OnCameraCommand(_ context.Context, op string, changed bool) {
	m.CameraCommands.WithLabelValues(op, strconv.FormatBool(changed)).Inc()
}

var (
	_ observability.LayoutHooks = (*Metrics)(nil)
	_ observability.CacheHooks  = (*Metrics)(nil)
	_ observability.HTTPHooks   = (*Metrics)(nil)
	_ observability.CameraHooks = (*Metrics)(nil)
)
