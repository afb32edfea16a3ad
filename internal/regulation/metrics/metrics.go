package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the regulation module.
// Tracks evaluation outcomes per regime and evaluation latency.
type Metrics struct {
	ChecksTotal     *prometheus.CounterVec
	ViolationsTotal *prometheus.CounterVec
	CheckDuration   prometheus.Histogram
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
}

// New creates a Metrics instance with all regulation module metrics registered.
func New() *Metrics {
	return &Metrics{
		ChecksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tutela_compliance_checks_total",
			Help: "Total compliance evaluations by regime and outcome",
		}, []string{"regime", "outcome"}),
		ViolationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tutela_compliance_violations_total",
			Help: "Total violations found, by regime",
		}, []string{"regime"}),
		CheckDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tutela_compliance_check_duration_seconds",
			Help:    "Duration of compliance evaluations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tutela_compliance_cache_hits_total",
			Help: "Subject-rights check results served from cache",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tutela_compliance_cache_misses_total",
			Help: "Subject-rights checks evaluated after a cache miss",
		}),
	}
}

// ObserveCheck records one evaluation outcome.
func (m *Metrics) ObserveCheck(regime string, passed bool, violations int, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "passed"
	if !passed {
		outcome = "failed"
	}
	m.ChecksTotal.WithLabelValues(regime, outcome).Inc()
	m.ViolationsTotal.WithLabelValues(regime).Add(float64(violations))
	m.CheckDuration.Observe(elapsed.Seconds())
}

// IncrementCacheHit records a cache hit.
func (m *Metrics) IncrementCacheHit() {
	if m == nil {
		return
	}
	m.CacheHits.Inc()
}

// IncrementCacheMiss records a cache miss.
func (m *Metrics) IncrementCacheMiss() {
	if m == nil {
		return
	}
	m.CacheMisses.Inc()
}
