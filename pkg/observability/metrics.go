package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the gateway
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Identity cache metrics
	IdentityCacheHitsTotal   prometheus.Counter
	IdentityCacheMissesTotal prometheus.Counter

	// Rate limiter metrics
	RateLimitAllowedTotal *prometheus.CounterVec
	RateLimitDeniedTotal  *prometheus.CounterVec

	// Authentication metrics
	AuthFailuresTotal *prometheus.CounterVec

	// Upstream dependency metrics
	UpstreamErrorsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crm_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		IdentityCacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "crm_identity_cache_hits_total",
				Help: "Identity lookups served from the shared cache",
			},
		),
		IdentityCacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "crm_identity_cache_misses_total",
				Help: "Identity lookups that required a provider round trip",
			},
		),
		RateLimitAllowedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_ratelimit_allowed_total",
				Help: "Requests admitted by the rate limiter",
			},
			[]string{"bucket"},
		),
		RateLimitDeniedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_ratelimit_denied_total",
				Help: "Requests denied by the rate limiter",
			},
			[]string{"bucket"},
		),
		AuthFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_auth_failures_total",
				Help: "Authentication failures by kind",
			},
			[]string{"kind"},
		),
		UpstreamErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_upstream_errors_total",
				Help: "Identity provider and user directory call failures",
			},
			[]string{"dependency"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.IdentityCacheHitsTotal,
		m.IdentityCacheMissesTotal,
		m.RateLimitAllowedTotal,
		m.RateLimitDeniedTotal,
		m.AuthFailuresTotal,
		m.UpstreamErrorsTotal,
	)

	return m
}

// RecordHTTPRequest records a completed HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordIdentityCacheHit records an identity served from cache
func (m *Metrics) RecordIdentityCacheHit() {
	m.IdentityCacheHitsTotal.Inc()
}

// RecordIdentityCacheMiss records an identity that required verification upstream
func (m *Metrics) RecordIdentityCacheMiss() {
	m.IdentityCacheMissesTotal.Inc()
}

// RecordRateLimitAllowed records an admitted request for a route bucket
func (m *Metrics) RecordRateLimitAllowed(bucket string) {
	m.RateLimitAllowedTotal.WithLabelValues(bucket).Inc()
}

// RecordRateLimitDenied records a denied request for a route bucket
func (m *Metrics) RecordRateLimitDenied(bucket string) {
	m.RateLimitDeniedTotal.WithLabelValues(bucket).Inc()
}

// RecordAuthFailure records an authentication failure by kind
// (missing_token, token_rejected, user_not_found, account_inactive,
// upstream)
func (m *Metrics) RecordAuthFailure(kind string) {
	m.AuthFailuresTotal.WithLabelValues(kind).Inc()
}

// RecordUpstreamError records a provider or directory failure
func (m *Metrics) RecordUpstreamError(dependency string) {
	m.UpstreamErrorsTotal.WithLabelValues(dependency).Inc()
}

// Handler returns an HTTP handler exposing the metrics registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
