package compiler

import (
	"fmt"

	"github.com/aretw0/fsm/internal/dto"
	"github.com/aretw0/fsm/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Parser is responsible for converting raw definition bytes into a domain.Config.
// JSON input is accepted since it is a subset of YAML.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes a definition with exactly two top-level keys, "initial" and "states".
// The order of states in the document is kept in the resulting table.
func (p *Parser) Parse(data []byte) (domain.Config, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return domain.Config{}, fmt.Errorf("%w: failed to parse definition: %v", domain.ErrConfig, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return domain.Config{}, fmt.Errorf("%w: empty definition", domain.ErrConfig)
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return domain.Config{}, fmt.Errorf("%w: definition must be a mapping (line %d)", domain.ErrConfig, root.Line)
	}

	var (
		cfg        domain.Config
		hasInitial bool
	)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		switch key.Value {
		case "initial":
			if value.Kind != yaml.ScalarNode || value.Value == "" {
				return domain.Config{}, fmt.Errorf("%w: initial must be a state name (line %d)", domain.ErrConfig, value.Line)
			}
			cfg.Initial = domain.StateID(value.Value)
			hasInitial = true
		case "states":
			table, err := p.parseStates(value)
			if err != nil {
				return domain.Config{}, err
			}
			cfg.States = table
		default:
			return domain.Config{}, fmt.Errorf("%w: unknown key %q (line %d)", domain.ErrConfig, key.Value, key.Line)
		}
	}

	if !hasInitial {
		return domain.Config{}, fmt.Errorf("%w: missing initial", domain.ErrConfig)
	}
	if cfg.States == nil {
		return domain.Config{}, fmt.Errorf("%w: missing states", domain.ErrConfig)
	}
	return cfg, nil
}

func (p *Parser) parseStates(node *yaml.Node) (*domain.Table, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: states must be a mapping (line %d)", domain.ErrConfig, node.Line)
	}

	table := domain.NewTable()
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		id := domain.StateID(key.Value)
		if id == "" {
			return nil, fmt.Errorf("%w: empty state name (line %d)", domain.ErrConfig, key.Line)
		}
		if table.Has(id) {
			return nil, fmt.Errorf("%w: duplicate state %q (line %d)", domain.ErrConfig, id, key.Line)
		}

		spec, err := decodeState(value)
		if err != nil {
			return nil, fmt.Errorf("%w: state %q: %v", domain.ErrConfig, id, err)
		}
		table.Set(id, spec.ToDomain())
	}
	return table, nil
}

func decodeState(node *yaml.Node) (dto.StateSpec, error) {
	var spec dto.StateSpec

	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return spec, err
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &spec,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return spec, err
	}
	if err := decoder.Decode(raw); err != nil {
		return spec, err
	}

	for ev, to := range spec.Transitions {
		if ev == "" || to == "" {
			return spec, fmt.Errorf("transition %q has no target", ev)
		}
	}
	return spec, nil
}

// Marshal renders a configuration back to YAML, keeping the table order.
func (p *Parser) Marshal(cfg domain.Config) ([]byte, error) {
	states := &yaml.Node{Kind: yaml.MappingNode}
	for _, id := range cfg.States.Keys() {
		def, _ := cfg.States.Get(id)

		transitions := &yaml.Node{Kind: yaml.MappingNode}
		for _, ev := range cfg.States.Events(id) {
			transitions.Content = append(transitions.Content,
				scalar(string(ev)), scalar(string(def.Transitions[ev])))
		}
		body := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{scalar("transitions"), transitions}}
		states.Content = append(states.Content, scalar(string(id)), body)
	}

	root := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
		scalar("initial"), scalar(string(cfg.Initial)),
		scalar("states"), states,
	}}
	return yaml.Marshal(root)
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}
