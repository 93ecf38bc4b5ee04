package sensor

import (
	"strconv"

	audit "audittrail/pkg/platform/audit"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts what sensors did with the signals they received. One
// Metrics is shared by every sensor instance of a process.
type Metrics struct {
	Skipped        *prometheus.CounterVec
	Degraded       *prometheus.CounterVec
	Ambiguous      *prometheus.CounterVec
	DroppedChanges prometheus.Counter
}

// NewMetrics registers the sensor metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Skipped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_sensor_skipped_total",
			Help: "Signals skipped because the sensor is inactive",
		}, []string{"sensor_id"}),
		Degraded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_sensor_capture_degraded_total",
			Help: "Captures that proceeded without complete before state",
		}, []string{"sensor_id"}),
		Ambiguous: f.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_sensor_ambiguous_outcome_total",
			Help: "Completion signals without a clear success indicator, recorded as failures",
		}, []string{"sensor_id"}),
		DroppedChanges: f.NewCounter(prometheus.CounterOpts{
			Name: "audit_sensor_dropped_changes_total",
			Help: "Malformed change records dropped before commit",
		}),
	}
}

func label(id audit.SensorID) string {
	return strconv.Itoa(int(id))
}

func (m *Metrics) incSkipped(id audit.SensorID) {
	if m == nil {
		return
	}
	m.Skipped.WithLabelValues(label(id)).Inc()
}

func (m *Metrics) incDegraded(id audit.SensorID) {
	if m == nil {
		return
	}
	m.Degraded.WithLabelValues(label(id)).Inc()
}

func (m *Metrics) incAmbiguous(id audit.SensorID) {
	if m == nil {
		return
	}
	m.Ambiguous.WithLabelValues(label(id)).Inc()
}

func (m *Metrics) addDropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.DroppedChanges.Add(float64(n))
}
