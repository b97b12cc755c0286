package server

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/dynlayout/pkg/errors"
	"github.com/matzehuels/dynlayout/pkg/observability"
)

const metricsNamespace = "dynlayout"

// =============================================================================
// Prometheus Metrics
// =============================================================================

// Metrics implements the observability hooks on Prometheus collectors.
// Register it with [Metrics.Install] to receive events from the pipeline.
type Metrics struct {
	layoutsStarted  *prometheus.CounterVec
	layoutDuration  *prometheus.HistogramVec
	layoutErrors    *prometheus.CounterVec
	levelDuration   *prometheus.HistogramVec
	levelNodes      prometheus.Histogram
	cacheLookups    *prometheus.CounterVec
	cacheWriteBytes *prometheus.HistogramVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		layoutsStarted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "layout",
			Name:      "started_total",
			Help:      "Layout runs started, by algorithm",
		}, []string{"algorithm"}),
		layoutDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "layout",
			Name:      "duration_seconds",
			Help:      "Wall-clock time of layout runs in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 300},
		}, []string{"algorithm", "status"}),
		layoutErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "layout",
			Name:      "errors_total",
			Help:      "Failed layout runs, by algorithm and error code",
		}, []string{"algorithm", "code"}),
		levelDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "multilevel",
			Name:      "level_duration_seconds",
			Help:      "Refinement time per multilevel level in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"level"}),
		levelNodes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "multilevel",
			Name:      "level_nodes",
			Help:      "Node count of refined levels",
			Buckets:   prometheus.ExponentialBuckets(4, 2, 12),
		}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups, by key type and result",
		}, []string{"key_type", "result"}),
		cacheWriteBytes: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "write_bytes",
			Help:      "Size of cache writes in bytes",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 10),
		}, []string{"key_type"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests, by method, route and status",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Install registers m as the process-wide layout, cache and HTTP hooks.
func (m *Metrics) Install() {
	observability.SetLayoutHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

func (m *Metrics) OnLayoutStart(_ context.Context, algorithm string, _ int) {
	m.layoutsStarted.WithLabelValues(algorithm).Inc()
}

func (m *Metrics) OnLayoutComplete(_ context.Context, algorithm string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
		code := string(errors.GetCode(err))
		if code == "" {
			code = string(errors.ErrCodeInternal)
		}
		m.layoutErrors.WithLabelValues(algorithm, code).Inc()
	}
	m.layoutDuration.WithLabelValues(algorithm, status).Observe(d.Seconds())
}

func (m *Metrics) OnLevelComplete(_ context.Context, level, nodeCount int, d time.Duration) {
	m.levelDuration.WithLabelValues(strconv.Itoa(level)).Observe(d.Seconds())
	m.levelNodes.Observe(float64(nodeCount))
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheLookups.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheLookups.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheWriteBytes.WithLabelValues(keyType).Observe(float64(size))
}

func (m *Metrics) OnRequest(_ context.Context, method, route string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ observability.LayoutHooks = (*Metrics)(nil)
	_ observability.CacheHooks  = (*Metrics)(nil)
	_ observability.HTTPHooks   = (*Metrics)(nil)
)
