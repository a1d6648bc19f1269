package observability

import (
	"time"

	"github.com/portalfin/dashboard-bff-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the gateway.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	upstreamErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	logins          *prometheus.CounterVec
	tenantLoads     *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bff_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		upstreamErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bff_upstream_errors_total",
				Help: "Total errors from the upstream portal API.",
			},
			[]string{"endpoint"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bff_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bff_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		logins: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bff_logins_total",
				Help: "Total login attempts by result.",
			},
			[]string{"result"},
		),
		tenantLoads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bff_tenant_loads_total",
				Help: "Total tenant data loads by result.",
			},
			[]string{"result"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrUpstreamError increments the upstream error counter.
func (m *Metrics) IncrUpstreamError(endpoint string) {
	m.upstreamErrors.WithLabelValues(endpoint).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrLogin increments the login counter ("success" or "failure").
func (m *Metrics) IncrLogin(result string) {
	m.logins.WithLabelValues(result).Inc()
}

// IncrTenantLoad increments the tenant load counter ("success",
// "failure" or "stale").
func (m *Metrics) IncrTenantLoad(result string) {
	m.tenantLoads.WithLabelValues(result).Inc()
}

// GetSessionSnapshot returns a snapshot of session-related metrics for
// the GET /v1/metrics/session endpoint.
func (m *Metrics) GetSessionSnapshot() *domain.SessionMetrics {
	loginOK := getCounterValue(m.logins, "success")
	loginFail := getCounterValue(m.logins, "failure")
	loadOK := getCounterValue(m.tenantLoads, "success")
	loadFail := getCounterValue(m.tenantLoads, "failure")
	cacheHits := getCounterValue(m.cacheHits, "tenant")
	cacheMisses := getCounterValue(m.cacheMisses, "tenant")

	upstreamErrors := getCounterValue(m.upstreamErrors, "api-login.php") +
		getCounterValue(m.upstreamErrors, "api-test.php")

	cacheHitRate := float64(0)
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	return &domain.SessionMetrics{
		TotalLogins:       int64(loginOK + loginFail),
		FailedLogins:      int64(loginFail),
		TenantLoads:       int64(loadOK + loadFail),
		FailedTenantLoads: int64(loadFail),
		UpstreamErrors:    int64(upstreamErrors),
		CacheHitRate:      cacheHitRate,
		Period:            "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
