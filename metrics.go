package spanz

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "spanz"

// Metrics counts span lifecycle events. A nil *Metrics records nothing.
type Metrics struct {
	spansStarted  prometheus.Counter
	spansEnded    *prometheus.CounterVec
	tracesStarted prometheus.Counter
	exportErrors  prometheus.Counter
}

// NewMetrics creates the counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		spansStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "spans_started_total",
			Help:      "Number of spans started.",
		}),
		spansEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "spans_ended_total",
			Help:      "Number of spans ended, by status (OK, ERROR or other).",
		}, []string{"status"}),
		tracesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "traces_started_total",
			Help:      "Number of traces started by a root span.",
		}),
		exportErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "export_errors_total",
			Help:      "Number of failed trace exports.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.spansStarted, m.spansEnded, m.tracesStarted, m.exportErrors)
	}
	return m
}

func (m *Metrics) spanStarted() {
	if m == nil {
		return
	}
	m.spansStarted.Inc()
}

func (m *Metrics) spanEnded(status Status) {
	if m == nil {
		return
	}
	m.spansEnded.WithLabelValues(statusLabel(status)).Inc()
}

// statusLabel keeps the status label bounded; custom statuses share "other".
func statusLabel(status Status) string {
	switch status {
	case StatusOK, StatusError:
		return string(status)
	default:
		return "other"
	}
}

func (m *Metrics) traceStarted() {
	if m == nil {
		return
	}
	m.tracesStarted.Inc()
}

func (m *Metrics) exportFailed() {
	if m == nil {
		return
	}
	m.exportErrors.Inc()
}
