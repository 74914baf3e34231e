package dto

import (
	"github.com/aretw0/fsm/pkg/domain"
)

// StateSpec represents the body of one state in a definition file.
// It uses "mapstructure" tags to match the YAML/JSON keys.
type StateSpec struct {
	Transitions map[string]string `json:"transitions" mapstructure:"transitions"`
}

// ToDomain converts the spec into a domain.StateDef.
func (s StateSpec) ToDomain() domain.StateDef {
	def := domain.StateDef{Transitions: make(map[domain.EventID]domain.StateID, len(s.Transitions))}
	for ev, to := range s.Transitions {
		def.Transitions[domain.EventID(ev)] = domain.StateID(to)
	}
	return def
}
