package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Transition kinds used as label values.
const (
	KindTrigger = "trigger"
	KindChange  = "change"
)

// History operations used as label values.
const (
	OpUndo = "undo"
	OpRedo = "redo"
)

// Metrics holds the collectors for machine activity.
type Metrics struct {
	transitions *prometheus.CounterVec
	errors      *prometheus.CounterVec
	history     *prometheus.CounterVec
	resets      prometheus.Counter
}

// NewMetrics creates the collectors and registers them on reg.
// A nil registerer leaves them unregistered, which is handy in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fsm_transitions_total",
				Help: "Total number of successful forward transitions",
			},
			[]string{"kind"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fsm_transition_errors_total",
				Help: "Total number of rejected transitions",
			},
			[]string{"kind"},
		),
		history: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fsm_history_ops_total",
				Help: "Total number of undo/redo requests by result",
			},
			[]string{"op", "result"},
		),
		resets: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fsm_resets_total",
				Help: "Total number of resets",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.transitions, m.errors, m.history, m.resets)
	}
	return m
}

// ObserveTransition records the outcome of a Trigger or ChangeState.
func (m *Metrics) ObserveTransition(kind string, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.errors.WithLabelValues(kind).Inc()
		return
	}
	m.transitions.WithLabelValues(kind).Inc()
}

// ObserveHistory records an Undo or Redo and whether history was available.
func (m *Metrics) ObserveHistory(op string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "empty"
	}
	m.history.WithLabelValues(op, result).Inc()
}

// ObserveReset records a Reset.
func (m *Metrics) ObserveReset() {
	if m == nil {
		return
	}
	m.resets.Inc()
}
