package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wallet_access"

// Metrics collects Prometheus metrics for the access-resolution core.
type Metrics struct {
	httpRequests     *prometheus.CounterVec
	httpLatency      *prometheus.HistogramVec
	httpErrors       *prometheus.CounterVec
	authAttempts     *prometheus.CounterVec
	resolutions      *prometheus.CounterVec
	stratumLatency   prometheus.Histogram
	stratumFailures  prometheus.Counter
	legacyMigrations prometheus.Counter
}

// NewMetrics registers all collectors with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by path, method and status code.",
		}, []string{"path", "method", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_seconds",
			Help:      "HTTP request latency by path and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "method"}),
		httpErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_errors_total",
			Help:      "Request failures by path, method and error code.",
		}, []string{"path", "method", "code"}),
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_attempts_total",
			Help:      "Authentication attempts by result (ok, invalid, pending, blocked, suspended, legacy_ok).",
		}, []string{"result"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "access_resolutions_total",
			Help:      "Access resolutions by terminal surface.",
		}, []string{"surface"}),
		stratumLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "hierarchy_stratum_seconds",
			Help:      "Latency of one batched stratum lookup.",
			Buckets:   prometheus.DefBuckets,
		}),
		stratumFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hierarchy_stratum_failures_total",
			Help:      "Stratum lookups that failed and forced a fail-closed result.",
		}),
		legacyMigrations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "legacy_credentials_migrated_total",
			Help:      "Legacy plaintext credentials rewritten to bcrypt.",
		}),
	}

	reg.MustRegister(
		m.httpRequests,
		m.httpLatency,
		m.httpErrors,
		m.authAttempts,
		m.resolutions,
		m.stratumLatency,
		m.stratumFailures,
		m.legacyMigrations,
	)
	return m
}

// RecordRequest increments the request counter and observes latency.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(path, method).Observe(duration.Seconds())
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.httpErrors.WithLabelValues(path, method, code).Inc()
}

// RecordAuthAttempt tallies an authentication outcome.
func (m *Metrics) RecordAuthAttempt(result string) {
	if m == nil {
		return
	}
	m.authAttempts.WithLabelValues(result).Inc()
}

// RecordResolution tallies the surface an access resolution ended in.
func (m *Metrics) RecordResolution(surface string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(surface).Inc()
}

// RecordStratum observes one batched stratum lookup.
func (m *Metrics) RecordStratum(duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.stratumLatency.Observe(duration.Seconds())
	if err != nil {
		m.stratumFailures.Inc()
	}
}

// RecordLegacyMigration counts a legacy credential rewrite.
func (m *Metrics) RecordLegacyMigration() {
	if m == nil {
		return
	}
	m.legacyMigrations.Inc()
}
