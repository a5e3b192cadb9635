// Package metrics exposes Prometheus counters for rendering, scheduling and
// cache activity.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a registry so several servers can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	renders      *prometheus.CounterVec
	renderTime   *prometheus.HistogramVec
	contentErrs  *prometheus.CounterVec
	delays       prometheus.Histogram
	cacheHits    *prometheus.CounterVec
	cacheMisses  *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accent_http_requests_total",
			Help: "HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "accent_http_request_duration_seconds",
			Help:    "HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accent_renders_total",
			Help: "Images produced by content kind and output format.",
		}, []string{"kind", "format"}),
		renderTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "accent_render_duration_seconds",
			Help:    "Time spent producing content by kind.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		contentErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accent_content_errors_total",
			Help: "Content production failures by kind.",
		}, []string{"kind"}),
		delays: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "accent_next_delay_seconds",
			Help:    "Sleep delays handed to clients.",
			Buckets: []float64{60, 300, 900, 1800, 3600, 3 * 3600, 6 * 3600, 12 * 3600, 24 * 3600, 72 * 3600},
		}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accent_cache_hits_total",
			Help: "Cache hits by cache.",
		}, []string{"cache"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accent_cache_misses_total",
			Help: "Cache misses by cache.",
		}, []string{"cache"}),
	}

	m.registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.renders,
		m.renderTime,
		m.contentErrs,
		m.delays,
		m.cacheHits,
		m.cacheMisses,
	)
	return m
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler counts requests and their durations under route.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		if m != nil {
			m.httpRequests.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
			m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		}
	})
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Rendered records one produced image.
func (m *Metrics) Rendered(kind, format string, d time.Duration) {
	if m == nil {
		return
	}
	m.renders.WithLabelValues(kind, format).Inc()
	m.renderTime.WithLabelValues(kind).Observe(d.Seconds())
}

// ContentFailed records a failed production.
func (m *Metrics) ContentFailed(kind string) {
	if m == nil {
		return
	}
	m.contentErrs.WithLabelValues(kind).Inc()
}

// Delay records a sleep delay handed to a client.
func (m *Metrics) Delay(ms int64) {
	if m == nil {
		return
	}
	m.delays.Observe(float64(ms) / 1000)
}

func (m *Metrics) CacheHit(name string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(name).Inc()
}

func (m *Metrics) CacheMiss(name string) {
	if m == nil {
		return
	}
	m.cacheMisses.WithLabelValues(name).Inc()
}
