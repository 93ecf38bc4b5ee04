package writer

import (
	"strconv"

	audit "audittrail/pkg/platform/audit"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the commit path.
type Metrics struct {
	Commits         *prometheus.CounterVec
	PersistDuration prometheus.Histogram
}

// NewMetrics registers the writer metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Commits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_writer_commits_total",
			Help: "Audit records handed to the writer, by sensor and outcome",
		}, []string{"sensor_id", "outcome"}),
		PersistDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "audit_writer_persist_duration_seconds",
			Help:    "Time spent in the storage collaborator per record",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncCommit(id audit.SensorID, ok bool) {
	if m == nil {
		return
	}
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	m.Commits.WithLabelValues(strconv.Itoa(int(id)), outcome).Inc()
}

func (m *Metrics) ObservePersistDuration(seconds float64) {
	if m == nil {
		return
	}
	m.PersistDuration.Observe(seconds)
}
