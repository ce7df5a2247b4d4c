// Package metrics implements the observability hooks with Prometheus
// collectors.
//
//	reg := prometheus.NewRegistry()
//	m := metrics.New(reg)
//	m.Install()
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/nestview/pkg/observability"
)

const namespace = "nestview"

// Metrics holds the collectors and implements every hook interface.
type Metrics struct {
	ProjectDuration prometheus.Histogram
	VisibleNodes    prometheus.Gauge
	VisibleEdges    prometheus.Gauge
	LayoutDuration  *prometheus.HistogramVec
	LayoutFailures  *prometheus.CounterVec
	ComposeDuration prometheus.Histogram
	Diagnostics     *prometheus.CounterVec
	CacheRequests   *prometheus.CounterVec
	CacheBytes      *prometheus.CounterVec
	Toggles         *prometheus.CounterVec
	StaleResults    prometheus.Counter
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ProjectDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "project_duration_seconds",
			Help:      "Time spent projecting the document through the visibility set.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		VisibleNodes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "visible_nodes",
			Help:      "Visible nodes in the last projection.",
		}),
		VisibleEdges: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "visible_edges",
			Help:      "Edges in the last projection.",
		}),
		LayoutDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_duration_seconds",
			Help:      "Time spent in the layout oracle.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"engine"}),
		LayoutFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layout_failures_total",
			Help:      "Failed layout oracle calls.",
		}, []string{"engine"}),
		ComposeDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compose_duration_seconds",
			Help:      "Time spent flattening layout results.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		Diagnostics: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostics_total",
			Help:      "Diagnostic events by kind.",
		}, []string{"kind"}),
		CacheRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Cache lookups by key type and result.",
		}, []string{"type", "result"}),
		CacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache by key type.",
		}, []string{"type"}),
		Toggles: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "toggles_total",
			Help:      "Visibility toggles by resulting state.",
		}, []string{"state"}),
		StaleResults: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_results_total",
			Help:      "Layout responses discarded because a newer request was issued.",
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Served HTTP requests.",
		}, []string{"method", "route", "code"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Install registers m as the global pipeline, cache, view and HTTP hooks.
func (m *Metrics) Install() {
	observability.SetPipelineHooks(m)
	observability.SetCacheHooks(m)
	observability.SetViewHooks(m)
	observability.SetHTTPHooks(m)
}

// =============================================================================
// PipelineHooks
// =============================================================================

func (m *Metrics) OnProjectComplete(_ context.Context, nodes, edges int, d time.Duration) {
	m.ProjectDuration.Observe(d.Seconds())
	m.VisibleNodes.Set(float64(nodes))
	m.VisibleEdges.Set(float64(edges))
}

func (m *Metrics) OnLayoutStart(context.Context, string, int) {}

func (m *Metrics) OnLayoutComplete(_ context.Context, engine string, d time.Duration, err error) {
	m.LayoutDuration.WithLabelValues(engine).Observe(d.Seconds())
	if err != nil {
		m.LayoutFailures.WithLabelValues(engine).Inc()
	}
}

func (m *Metrics) OnComposeComplete(_ context.Context, _, _ int, d time.Duration) {
	m.ComposeDuration.Observe(d.Seconds())
}

func (m *Metrics) OnDiagnostic(_ context.Context, kind string) {
	m.Diagnostics.WithLabelValues(kind).Inc()
}

// =============================================================================
// CacheHooks
// =============================================================================

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.CacheRequests.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.CacheRequests.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.CacheBytes.WithLabelValues(keyType).Add(float64(size))
}

// =============================================================================
// ViewHooks and HTTPHooks
// =============================================================================

func (m *Metrics) OnToggle(_ context.Context, _ string, open bool) {
	state := "collapsed"
	if open {
		state = "expanded"
	}
	m.Toggles.WithLabelValues(state).Inc()
}

func (m *Metrics) OnStaleResult(context.Context, uint64, uint64) {
	m.StaleResults.Inc()
}

func (m *Metrics) OnResponse(_ context.Context, method, route string, code int, d time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ observability.PipelineHooks = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
	_ observability.ViewHooks     = (*Metrics)(nil)
	_ observability.HTTPHooks     = (*Metrics)(nil)
)
