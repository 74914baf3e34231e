package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/fsm/pkg/domain"
)

// GraphOverlay contains dynamic machine data to visualize on the graph.
type GraphOverlay struct {
	History []domain.StateID
	Current domain.StateID
}

// GenerateMermaid produces a Mermaid flowchart syntax string from a transition table.
// It applies semantic styling:
// - Initial: ((Circle))
// - Sink (no outgoing transitions): [(Cylinder)]
// - Default: [Rectangle]
// Edges are labeled with their event and listed in event order.
// It also applies overlay styles (Visited/Current) if provided.
func GenerateMermaid(cfg domain.Config, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, id := range cfg.States.Keys() {
		safeID := sanitizeMermaidID(string(id))
		events := cfg.States.Events(id)

		opener, closer := "[", "]"
		switch {
		case id == cfg.Initial:
			opener, closer = "((", "))"
		case len(events) == 0:
			opener, closer = "[(", ")]"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(string(id)), closer))

		def, _ := cfg.States.Get(id)
		for _, ev := range events {
			safeTo := sanitizeMermaidID(string(def.Transitions[ev]))
			sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", safeID, escapeLabel(string(ev)), safeTo))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visited := make(map[string]bool)
		for _, id := range overlay.History {
			safeID := sanitizeMermaidID(string(id))
			if !visited[safeID] && safeID != "" {
				visited[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}

		if overlay.Current != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(string(overlay.Current))))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(
		".", "_",
		"-", "_",
		"/", "_",
		"\\", "_",
		" ", "_",
	).Replace(id)
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
