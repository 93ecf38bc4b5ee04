package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_ObserveSignal(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveSignal("switch_theme", true)
	m.ObserveSignal("switch_theme", true)
	m.ObserveSignal("switch_theme", false)
	m.IncUnitsReceived()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Signals.WithLabelValues("switch_theme", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Signals.WithLabelValues("switch_theme", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UnitsReceived))
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	m.IncUnitsReceived()
	m.IncUnitsRejected()
	m.ObserveSignal("admin_init", false)
	m.ObserveRequest("/v1/units", time.Now())
}
