package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// CounterValue sums the counter series of metric name whose labels include
// every given key/value pair. It fails the test if gathering fails.
func CounterValue(t testing.TB, g prometheus.Gatherer, name string, labels ...string) float64 {
	t.Helper()
	families, err := g.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	var total float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, metric := range f.GetMetric() {
			if matchLabels(metric.GetLabel(), labels) {
				total += metric.GetCounter().GetValue()
			}
		}
	}
	return total
}

func matchLabels[L interface {
	GetName() string
	GetValue() string
}](have []L, want []string) bool {
	for i := 0; i+1 < len(want); i += 2 {
		found := false
		for _, l := range have {
			if l.GetName() == want[i] && l.GetValue() == want[i+1] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
