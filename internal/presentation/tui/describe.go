package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/fsm/pkg/domain"
)

// DescribeMarkdown renders the transition table as a markdown document.
func DescribeMarkdown(name string, cfg domain.Config) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", name)
	fmt.Fprintf(&sb, "Initial state: **%s** · %d states · reset target: **%s**\n\n",
		cfg.Initial, cfg.States.Len(), domain.NormalState)

	sb.WriteString("| State | Event | Target |\n")
	sb.WriteString("|---|---|---|\n")
	for _, id := range cfg.States.Keys() {
		events := cfg.States.Events(id)
		if len(events) == 0 {
			fmt.Fprintf(&sb, "| %s | | |\n", id)
			continue
		}
		def, _ := cfg.States.Get(id)
		for i, ev := range events {
			label := string(id)
			if i > 0 {
				label = ""
			}
			fmt.Fprintf(&sb, "| %s | %s | %s |\n", label, ev, def.Transitions[ev])
		}
	}
	return sb.String()
}
