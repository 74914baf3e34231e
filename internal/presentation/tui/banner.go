package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the REPL banner using the terminal's color profile.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	title := termenv.String("fsm").Bold().Foreground(p.Color("#818cf8"))
	sub := termenv.String("undo/redo state machine " + version).Foreground(p.Color("#a78bfa"))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s  %s\n", title, sub)
	fmt.Fprintln(w, "  type 'help' for commands")
	fmt.Fprintln(w)
}

// Styler colors REPL output. A zero Styler prints plain text.
type Styler struct {
	profile termenv.Profile
	enabled bool
}

// NewStyler creates a Styler. Colors are used only when enabled.
func NewStyler(enabled bool) Styler {
	return Styler{profile: termenv.ColorProfile(), enabled: enabled}
}

func (s Styler) paint(text, hex string) string {
	if !s.enabled {
		return text
	}
	return termenv.String(text).Foreground(s.profile.Color(hex)).String()
}

// State highlights a state name.
func (s Styler) State(text string) string { return s.paint(text, "#fbbf24") }

// OK marks a successful operation.
func (s Styler) OK(text string) string { return s.paint(text, "#34d399") }

// Err marks a failed operation.
func (s Styler) Err(text string) string { return s.paint(text, "#fb7185") }
