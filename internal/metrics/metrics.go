package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for Gatekeeper
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal    prometheus.CounterVec
	HTTPRequestDuration  prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.GaugeVec

	// Sweep Metrics
	LinksCheckedTotal prometheus.CounterVec
	LinksRevokedTotal prometheus.CounterVec
	SweepDuration     prometheus.Histogram
	SweepFailures     prometheus.Counter

	// Reconciliation Metrics
	RoleMutationsTotal prometheus.CounterVec
	GuildsServed       prometheus.Gauge
}

// NewMetricsRegistry initializes and returns a new MetricsRegistry with all metrics
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		// HTTP Metrics
		HTTPRequestsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatekeeper_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gatekeeper_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: *promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gatekeeper_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"endpoint"},
		),

		// Sweep Metrics
		LinksCheckedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatekeeper_links_checked_total",
				Help: "Credential re-verification checks by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		LinksRevokedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatekeeper_links_revoked_total",
				Help: "Provider links soft-deleted after a failed credential check",
			},
			[]string{"provider"},
		),
		SweepDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gatekeeper_sweep_duration_seconds",
				Help:    "Verification sweep wall clock duration in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
		),
		SweepFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "gatekeeper_sweep_failures_total",
				Help: "Sweeps whose query phase failed outright",
			},
		),

		// Reconciliation Metrics
		RoleMutationsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatekeeper_role_mutations_total",
				Help: "Verified-role grants and revocations applied to Discord members",
			},
			[]string{"action"},
		),
		GuildsServed: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "gatekeeper_guilds_served",
				Help: "Guilds the bot currently belongs to",
			},
		),
	}
}
