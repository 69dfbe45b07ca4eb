package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveAudit(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveAudit(true, 3*time.Second)
	m.ObserveAudit(true, 7*time.Second)
	m.ObserveAudit(false, time.Second)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.auditsCompleted))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.auditsFailed))
	assert.Equal(t, 1, testutil.CollectAndCount(m.auditDuration))
}

func TestObserveProviderFetch(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveProviderFetch("ok")
	m.ObserveProviderFetch("ok")
	m.ObserveProviderFetch("rate_limited")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.providerFetches.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.providerFetches.WithLabelValues("rate_limited")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.providerFetches.WithLabelValues("error")))
}

func TestNewRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveAudit(true, time.Second)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["siteaudit_audits_completed_total"])
	assert.True(t, names["siteaudit_audit_duration_seconds"])
}

func TestNewWithNilRegisterer(t *testing.T) {
	m := New(nil)
	m.ObserveAudit(false, 0)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.auditsFailed))
}
