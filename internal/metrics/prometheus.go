// Package metrics provides Prometheus metrics for adbridge
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Request metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Ad lifecycle metrics
	AdRequests *prometheus.CounterVec
	AdOutcomes *prometheus.CounterVec
	AdDuration *prometheus.HistogramVec
	AdRejected *prometheus.CounterVec
	AdInFlight prometheus.Gauge

	// Catalog metrics
	CatalogRequests     *prometheus.CounterVec
	CatalogLatency      prometheus.Histogram
	CatalogCircuitState prometheus.Gauge
	CatalogServed       *prometheus.CounterVec

	// System metrics
	RateLimitRejected prometheus.Counter
	AuthFailures      prometheus.Counter
}

// NewMetrics creates metrics registered with the default Prometheus registry
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWithRegistry(namespace, prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry creates metrics registered with reg. Tests pass a
// fresh prometheus.NewRegistry() to avoid duplicate registration panics.
func NewMetricsWithRegistry(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "adbridge"
	}

	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		RequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being served",
			},
		),

		AdRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ads_requests_total",
				Help:      "Ad requests dispatched to a platform strategy",
			},
			[]string{"platform", "kind", "placement"},
		),
		AdOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ads_outcomes_total",
				Help:      "Terminal outcomes of ad requests",
			},
			[]string{"platform", "kind", "outcome"},
		),
		AdDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ad_duration_seconds",
				Help:      "Time from dispatch to terminal callback",
				Buckets:   []float64{.1, .5, 1, 2, 5, 10, 15, 30, 60, 120},
			},
			[]string{"platform", "kind"},
		),
		AdRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ads_rejected_total",
				Help:      "Ad requests rejected during validation",
			},
			[]string{"kind", "code"},
		),
		AdInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ad_in_flight",
				Help:      "1 while a fullscreen ad is showing",
			},
		),

		CatalogRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_requests_total",
				Help:      "Catalog client requests by status",
			},
			[]string{"status"},
		),
		CatalogLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "catalog_latency_seconds",
				Help:      "Catalog client latency in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 3},
			},
		),
		CatalogCircuitState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "catalog_circuit_breaker_state",
				Help:      "Catalog circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
		),
		CatalogServed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_served_total",
				Help:      "Catalogs served by the catalog endpoint by source",
			},
			[]string{"source"},
		),

		RateLimitRejected: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limit_rejected_total",
				Help:      "Total requests rejected due to rate limiting",
			},
		),
		AuthFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_failures_total",
				Help:      "Total admin authentication failures",
			},
		),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.RequestsInFlight,
		m.AdRequests,
		m.AdOutcomes,
		m.AdDuration,
		m.AdRejected,
		m.AdInFlight,
		m.CatalogRequests,
		m.CatalogLatency,
		m.CatalogCircuitState,
		m.CatalogServed,
		m.RateLimitRejected,
		m.AuthFailures,
	)

	return m
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns HTTP middleware that records request metrics. Requests
// are labelled with the matched ServeMux pattern to keep cardinality bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.RequestsInFlight.Inc()
		defer m.RequestsInFlight.Dec()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(wrapped.statusCode)

		m.RequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		m.RequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// RecordAdRequest implements ads.MetricsRecorder
func (m *Metrics) RecordAdRequest(platform, kind, placement string) {
	m.AdRequests.WithLabelValues(platform, kind, placement).Inc()
}

// RecordAdOutcome implements ads.MetricsRecorder
func (m *Metrics) RecordAdOutcome(platform, kind, outcome string, duration time.Duration) {
	m.AdOutcomes.WithLabelValues(platform, kind, outcome).Inc()
	m.AdDuration.WithLabelValues(platform, kind).Observe(duration.Seconds())
}

// RecordAdRejected implements ads.MetricsRecorder
func (m *Metrics) RecordAdRejected(kind, code string) {
	m.AdRejected.WithLabelValues(kind, code).Inc()
}

// SetAdInFlight implements ads.MetricsRecorder
func (m *Metrics) SetAdInFlight(inFlight bool) {
	if inFlight {
		m.AdInFlight.Set(1)
		return
	}
	m.AdInFlight.Set(0)
}

// RecordCatalogRequest implements catalog.Metrics
func (m *Metrics) RecordCatalogRequest(status string, latency time.Duration) {
	m.CatalogRequests.WithLabelValues(status).Inc()
	m.CatalogLatency.Observe(latency.Seconds())
}

// SetCatalogCircuitState implements catalog.Metrics
func (m *Metrics) SetCatalogCircuitState(state int) {
	m.CatalogCircuitState.Set(float64(state))
}

// RecordCatalogServed counts a catalog served by the endpoint from source
// ("cache" or "store")
func (m *Metrics) RecordCatalogServed(source string) {
	m.CatalogServed.WithLabelValues(source).Inc()
}

// IncRateLimitRejected increments the rate limit rejected counter.
// Implements middleware.RateLimitMetrics.
func (m *Metrics) IncRateLimitRejected() {
	m.RateLimitRejected.Inc()
}

// IncAuthFailures increments the auth failures counter.
// Implements middleware.AuthMetrics.
func (m *Metrics) IncAuthFailures() {
	m.AuthFailures.Inc()
}
