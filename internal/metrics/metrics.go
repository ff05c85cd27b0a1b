// Package metrics exports Prometheus metrics for the scam detector.
// Metrics live on a dedicated registry so tests and multiple instances
// never collide on the default one.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mikey/llm-scam-detector/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "scam_detector"

// Metrics holds all scam detector Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// Assessment metrics
	AssessmentsTotal   *prometheus.CounterVec
	AssessmentDuration *prometheus.HistogramVec
	AIFallbacks        *prometheus.CounterVec

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
}

// New registers all metrics on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{registry: reg}
	factory := promauto.With(reg)
	initAssessmentMetrics(m, factory)
	initCacheMetrics(m, factory)
	initHTTPMetrics(m, factory)
	return m
}

func initAssessmentMetrics(m *Metrics, f promauto.Factory) {
	m.AssessmentsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "assessments_total",
		Help:      "Total assessments produced by detection method and category",
	}, []string{"method", "category"})

	m.AssessmentDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "assessment_duration_seconds",
		Help:      "Time to produce an assessment",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"method"})

	m.AIFallbacks = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ai_fallbacks_total",
		Help:      "Times the heuristic scorer replaced the AI classifier",
	}, []string{"reason"})
}

func initCacheMetrics(m *Metrics, f promauto.Factory) {
	m.CacheHits = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_hits_total",
		Help:      "Assessment cache hits",
	})

	m.CacheMisses = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_misses_total",
		Help:      "Assessment cache misses",
	})
}

func initHTTPMetrics(m *Metrics, f promauto.Factory) {
	m.HTTPRequests = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status code",
	}, []string{"route", "status"})
}

// Registry returns the registry backing these metrics
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveAssessment records a finished assessment
func (m *Metrics) ObserveAssessment(method core.DetectionMethod, category core.Category, duration time.Duration) {
	if m == nil {
		return
	}
	m.AssessmentsTotal.WithLabelValues(string(method), string(category)).Inc()
	m.AssessmentDuration.WithLabelValues(string(method)).Observe(duration.Seconds())
}

// CacheHit records an assessment cache hit
func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.CacheHits.Inc()
}

// CacheMiss records an assessment cache miss
func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.CacheMisses.Inc()
}

// AIFallback records a heuristic fallback
func (m *Metrics) AIFallback(reason string) {
	if m == nil {
		return
	}
	m.AIFallbacks.WithLabelValues(reason).Inc()
}

// ObserveHTTP records a served HTTP request
func (m *Metrics) ObserveHTTP(route string, status int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}
