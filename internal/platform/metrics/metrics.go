package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the HTTP-facing Prometheus metrics of the service.
type Metrics struct {
	UnitsReceived   prometheus.Counter
	UnitsRejected   prometheus.Counter
	Signals         *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates and registers the metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		UnitsReceived: f.NewCounter(prometheus.CounterOpts{
			Name: "audit_bridge_units_received_total",
			Help: "Units of host work accepted by the bridge",
		}),
		UnitsRejected: f.NewCounter(prometheus.CounterOpts{
			Name: "audit_bridge_units_rejected_total",
			Help: "Units of host work rejected as malformed",
		}),
		Signals: f.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_bridge_signals_total",
			Help: "Host signals dispatched to sensors, by hook and whether a record was written",
		}, []string{"hook", "recorded"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "audit_bridge_request_duration_seconds",
			Help:    "Time spent handling bridge requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

func (m *Metrics) IncUnitsReceived() {
	if m == nil {
		return
	}
	m.UnitsReceived.Inc()
}

func (m *Metrics) IncUnitsRejected() {
	if m == nil {
		return
	}
	m.UnitsRejected.Inc()
}

func (m *Metrics) ObserveSignal(hook string, recorded bool) {
	if m == nil {
		return
	}
	m.Signals.WithLabelValues(hook, strconv.FormatBool(recorded)).Inc()
}

func (m *Metrics) ObserveRequest(route string, start time.Time) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
}
