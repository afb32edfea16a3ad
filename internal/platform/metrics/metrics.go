package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the HTTP-level Prometheus metrics for the application.
// Module-specific metrics (regulation checks) live next to their module.
type Metrics struct {
	RequestLatency *prometheus.HistogramVec
	SubjectsErased prometheus.Counter
	AuditAppends   *prometheus.CounterVec
}

// New creates and registers all application metrics.
func New() *Metrics {
	return &Metrics{
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tutela_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route and status",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route", "status"}),

		SubjectsErased: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tutela_subjects_erased_total",
			Help: "Total data subjects erased via the rights coordinator",
		}),

		AuditAppends: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tutela_audit_appends_total",
			Help: "Total audit trail appends by action and outcome",
		}, []string{"action", "outcome"}),
	}
}

// ObserveRequest records one HTTP request observation.
func (m *Metrics) ObserveRequest(route, status string, seconds float64) {
	if m != nil {
		m.RequestLatency.WithLabelValues(route, status).Observe(seconds)
	}
}

// IncrementSubjectsErased records a completed erasure.
func (m *Metrics) IncrementSubjectsErased() {
	if m != nil {
		m.SubjectsErased.Inc()
	}
}

// IncrementAuditAppend records an audit append attempt.
func (m *Metrics) IncrementAuditAppend(action, outcome string) {
	if m != nil {
		m.AuditAppends.WithLabelValues(action, outcome).Inc()
	}
}
