// Package promhooks implements the observability hooks with Prometheus
// collectors.
//
//	reg := prometheus.NewRegistry()
//	h := promhooks.New(reg)
//	h.Install()
//	router.Handle("/metrics", promhooks.Handler(reg))
package promhooks

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/stackgraph/pkg/errors"
	"github.com/matzehuels/stackgraph/pkg/observability"
)

const namespace = "stackgraph"

// Hooks records load, export, cache and HTTP events as Prometheus metrics.
type Hooks struct {
	loads        *prometheus.CounterVec
	loadDuration *prometheus.HistogramVec
	profileBytes prometheus.Histogram
	graphNodes   prometheus.Histogram

	exports        *prometheus.CounterVec
	exportDuration prometheus.Histogram
	droppedNodes   prometheus.Counter
	renders        *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec

	cacheLookups    *prometheus.CounterVec
	cacheWrites     *prometheus.CounterVec
	cacheWriteBytes *prometheus.CounterVec

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge
	requestErrors   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Hooks {
	f := promauto.With(reg)
	sizeBuckets := prometheus.ExponentialBuckets(1024, 4, 10)

	return &Hooks{
		// Labels: format (literal, pprof, or empty when detection failed), status (ok, error code)
		loads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "load",
			Name:      "total",
			Help:      "Profiles loaded, by format and outcome",
		}, []string{"format", "status"}),
		loadDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "load",
			Name:      "duration_seconds",
			Help:      "Time to parse a profile and build its call graph",
			Buckets:   prometheus.DefBuckets,
		}, []string{"format"}),
		profileBytes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "load",
			Name:      "profile_bytes",
			Help:      "Size of loaded profiles",
			Buckets:   sizeBuckets,
		}),
		graphNodes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "load",
			Name:      "graph_nodes",
			Help:      "Distinct frames per loaded call graph",
			Buckets:   prometheus.ExponentialBuckets(8, 2, 12),
		}),

		exports: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "total",
			Help:      "Payloads built, by outcome",
		}, []string{"status"}),
		exportDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "duration_seconds",
			Help:      "Time to build an export payload",
			Buckets:   prometheus.DefBuckets,
		}),
		droppedNodes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "dropped_nodes_total",
			Help:      "Nodes whose edges were pruned by the degree cap",
		}),
		renders: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "total",
			Help:      "Diagrams rendered, by format and outcome",
		}, []string{"format", "status"}),
		renderDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "duration_seconds",
			Help:      "Time to render a diagram",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"format"}),

		// Labels: key_type (export, render), result (hit, miss)
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups, by key type and result",
		}, []string{"key_type", "result"}),
		cacheWrites: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "writes_total",
			Help:      "Cache writes, by key type",
		}, []string{"key_type"}),
		cacheWriteBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "write_bytes_total",
			Help:      "Bytes written to the cache, by key type",
		}, []string{"key_type"}),

		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP responses, by method, route and status code",
		}, []string{"method", "route", "code"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Requests currently being served",
		}),
		requestErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "Handler failures, by method, route and error code",
		}, []string{"method", "route", "error_code"}),
	}
}

// Install registers h as the global load, export, cache and HTTP hooks.
func (h *Hooks) Install() {
	observability.SetLoadHooks(h)
	observability.SetExportHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// status labels an outcome: "ok", or the error's code.
func status(err error) string {
	if err == nil {
		return "ok"
	}
	if code := errors.GetCode(err); code != "" {
		return string(code)
	}
	return "error"
}

func (h *Hooks) OnLoadStart(_ context.Context, _ string, size int) {
	h.profileBytes.Observe(float64(size))
}

func (h *Hooks) OnLoadComplete(_ context.Context, _ string, stats observability.LoadStats, d time.Duration, err error) {
	h.loads.WithLabelValues(stats.Format, status(err)).Inc()
	h.loadDuration.WithLabelValues(stats.Format).Observe(d.Seconds())
	if err == nil {
		h.graphNodes.Observe(float64(stats.Nodes))
	}
}

func (h *Hooks) OnExportComplete(_ context.Context, _ string, stats observability.ExportStats, d time.Duration, err error) {
	h.exports.WithLabelValues(status(err)).Inc()
	h.exportDuration.Observe(d.Seconds())
	h.droppedNodes.Add(float64(stats.Dropped))
}

func (h *Hooks) OnRenderComplete(_ context.Context, format string, _ int, d time.Duration, err error) {
	h.renders.WithLabelValues(format, status(err)).Inc()
	h.renderDuration.WithLabelValues(format).Observe(d.Seconds())
}

func (h *Hooks) OnCacheHit(_ context.Context, keyType string) {
	h.cacheLookups.WithLabelValues(keyType, "hit").Inc()
}

func (h *Hooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cacheLookups.WithLabelValues(keyType, "miss").Inc()
}

func (h *Hooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.cacheWrites.WithLabelValues(keyType).Inc()
	h.cacheWriteBytes.WithLabelValues(keyType).Add(float64(size))
}

func (h *Hooks) OnRequest(context.Context, string, string) {
	h.inFlight.Inc()
}

func (h *Hooks) OnResponse(_ context.Context, method, route string, code int, d time.Duration) {
	h.inFlight.Dec()
	h.requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	h.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (h *Hooks) OnError(_ context.Context, method, route string, err error) {
	h.requestErrors.WithLabelValues(method, route, status(err)).Inc()
}

var (
	_ observability.LoadHooks   = (*Hooks)(nil)
	_ observability.ExportHooks = (*Hooks)(nil)
	_ observability.CacheHooks  = (*Hooks)(nil)
	_ observability.HTTPHooks   = (*Hooks)(nil)
)
