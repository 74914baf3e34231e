package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// Without a terminal (plain) it falls back to the "notty" style.
func NewRenderer(plain bool) func(string) (string, error) {
	opt := glamour.WithAutoStyle() // Automatically detect light/dark background
	if plain {
		opt = glamour.WithStandardStyle("notty")
	}

	r, err := glamour.NewTermRenderer(opt, glamour.WithWordWrap(100))
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}
