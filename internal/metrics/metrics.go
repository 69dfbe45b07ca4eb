// Package metrics exposes Prometheus instrumentation for the audit
// pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the audit pipeline's Prometheus collectors.
type Metrics struct {
	auditsCompleted prometheus.Counter
	auditsFailed    prometheus.Counter
	auditDuration   prometheus.Histogram
	providerFetches *prometheus.CounterVec
}

// New creates the collectors and registers them on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		auditsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "siteaudit",
			Name:      "audits_completed_total",
			Help:      "Number of audits that completed successfully.",
		}),
		auditsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "siteaudit",
			Name:      "audits_failed_total",
			Help:      "Number of audits that ended in the failed state.",
		}),
		auditDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "siteaudit",
			Name:      "audit_duration_seconds",
			Help:      "Wall-clock duration of completed audits.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		providerFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "siteaudit",
			Name:      "provider_fetches_total",
			Help:      "Performance provider fetches by outcome.",
		}, []string{"outcome"}),
	}

	if reg != nil {
		reg.MustRegister(m.auditsCompleted, m.auditsFailed, m.auditDuration, m.providerFetches)
	}
	return m
}

// ObserveAudit records the outcome of one audit run.
func (m *Metrics) ObserveAudit(completed bool, elapsed time.Duration) {
	if completed {
		m.auditsCompleted.Inc()
		m.auditDuration.Observe(elapsed.Seconds())
		return
	}
	m.auditsFailed.Inc()
}

// ObserveProviderFetch records one provider fetch outcome: "ok",
// "error", or "rate_limited".
func (m *Metrics) ObserveProviderFetch(outcome string) {
	m.providerFetches.WithLabelValues(outcome).Inc()
}

// ProviderFetches exposes the fetch-outcome counters for assertions.
func (m *Metrics) ProviderFetches() *prometheus.CounterVec {
	return m.providerFetches
}
