package observability_test

import (
	"errors"
	"testing"

	"github.com/aretw0/fsm/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Register(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	m.ObserveTransition(observability.KindTrigger, nil)
	m.ObserveTransition(observability.KindTrigger, nil)
	m.ObserveTransition(observability.KindChange, errors.New("bad"))
	m.ObserveHistory(observability.OpUndo, true)
	m.ObserveHistory(observability.OpRedo, false)
	m.ObserveReset()

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.ElementsMatch(t, []string{
		"fsm_transitions_total",
		"fsm_transition_errors_total",
		"fsm_history_ops_total",
		"fsm_resets_total",
	}, names)

	count, err := testutil.GatherAndCount(reg, "fsm_history_ops_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per op/result pair")

	assert.Equal(t, 2.0, observability.CounterValue(t, reg, "fsm_transitions_total", "kind", "trigger"))
	assert.Equal(t, 1.0, observability.CounterValue(t, reg, "fsm_transition_errors_total", "kind", "change"))
	assert.Equal(t, 1.0, observability.CounterValue(t, reg, "fsm_history_ops_total", "op", "redo", "result", "empty"))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *observability.Metrics
	assert.NotPanics(t, func() {
		m.ObserveTransition(observability.KindTrigger, nil)
		m.ObserveHistory(observability.OpUndo, false)
		m.ObserveReset()
	})
}

func TestMetrics_DoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	observability.NewMetrics(reg)
	assert.Panics(t, func() { observability.NewMetrics(reg) })
}
