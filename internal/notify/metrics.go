package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Published      prometheus.Counter
	Dropped        prometheus.Counter
	PublishErrors  prometheus.Counter
	BufferDepth    prometheus.Gauge
	CircuitBreaker prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Published: f.NewCounter(prometheus.CounterOpts{
			Name: "audit_notify_published_total",
			Help: "Audit events delivered to the broker",
		}),
		Dropped: f.NewCounter(prometheus.CounterOpts{
			Name: "audit_notify_dropped_total",
			Help: "Audit events dropped because the notify buffer was full",
		}),
		PublishErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "audit_notify_publish_errors_total",
			Help: "Failed produce calls",
		}),
		BufferDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "audit_notify_buffer_depth",
			Help: "Audit events waiting to be published",
		}),
		CircuitBreaker: f.NewGauge(prometheus.GaugeOpts{
			Name: "audit_notify_circuit_breaker_state",
			Help: "Broker circuit breaker state (0=closed/healthy, 1=open/unhealthy)",
		}),
	}
}

func (m *Metrics) addPublished(n int) {
	if m == nil {
		return
	}
	m.Published.Add(float64(n))
}

func (m *Metrics) incDropped() {
	if m == nil {
		return
	}
	m.Dropped.Inc()
}

func (m *Metrics) incPublishErrors() {
	if m == nil {
		return
	}
	m.PublishErrors.Inc()
}

func (m *Metrics) setDepth(n int) {
	if m == nil {
		return
	}
	m.BufferDepth.Set(float64(n))
}

func (m *Metrics) setCircuitOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.CircuitBreaker.Set(1)
	} else {
		m.CircuitBreaker.Set(0)
	}
}
