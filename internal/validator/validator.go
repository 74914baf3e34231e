package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/fsm/pkg/domain"
)

// Report lists structural findings that do not make a definition invalid.
type Report struct {
	// Unreachable states cannot be entered from the initial state through events.
	// ChangeState can still reach them.
	Unreachable []domain.StateID
	// Sinks are reachable states with no outgoing transitions.
	Sinks []domain.StateID
	// ResetTargetMissing is set when "normal" is not declared, so Reset
	// leaves the machine in a state that accepts no events.
	ResetTargetMissing bool
}

// Warnings renders the report as human readable lines.
func (r Report) Warnings() []string {
	var out []string
	for _, id := range r.Unreachable {
		out = append(out, fmt.Sprintf("state %q is unreachable from the initial state", id))
	}
	if r.ResetTargetMissing {
		out = append(out, fmt.Sprintf("reset target %q is not a declared state", domain.NormalState))
	}
	return out
}

// ValidateGraph checks for broken links and unreachable states, crawling the
// table from the initial state.
func ValidateGraph(cfg domain.Config) (Report, error) {
	var report Report
	if cfg.States.Len() == 0 {
		return report, fmt.Errorf("%w: no states defined", domain.ErrConfig)
	}
	if !cfg.States.Has(cfg.Initial) {
		return report, fmt.Errorf("%w: initial state %q not found", domain.ErrConfig, cfg.Initial)
	}

	visited := map[domain.StateID]bool{}
	queue := []domain.StateID{cfg.Initial}
	var errs []string

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if visited[current] {
			continue
		}
		visited[current] = true

		def, _ := cfg.States.Get(current)
		for _, ev := range cfg.States.Events(current) {
			target := def.Transitions[ev]
			if !cfg.States.Has(target) {
				errs = append(errs, fmt.Sprintf("state %q event %q targets missing state %q", current, ev, target))
				continue
			}
			if !visited[target] {
				queue = append(queue, target)
			}
		}
	}

	for _, id := range cfg.States.Keys() {
		switch {
		case !visited[id]:
			report.Unreachable = append(report.Unreachable, id)
		case len(cfg.States.Events(id)) == 0:
			report.Sinks = append(report.Sinks, id)
		}
	}
	report.ResetTargetMissing = !cfg.States.Has(domain.NormalState)

	if len(errs) > 0 {
		return report, fmt.Errorf("%w: found %d errors:\n- %s", domain.ErrConfig, len(errs), strings.Join(errs, "\n- "))
	}
	return report, nil
}
