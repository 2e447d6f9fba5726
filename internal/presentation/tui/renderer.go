package tui

import (
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// NewRenderer returns a function that renders markdown using glamour.
// On a non-terminal writer the markdown is passed through unchanged.
func NewRenderer(w io.Writer) func(string) (string, error) {
	if !IsTerminal(w) {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// Styler colours short status words. Colours are dropped when w is not a terminal.
type Styler struct {
	out *termenv.Output
}

// NewStyler creates a Styler for w.
func NewStyler(w io.Writer) Styler {
	if !IsTerminal(w) {
		return Styler{out: termenv.NewOutput(w, termenv.WithProfile(termenv.Ascii))}
	}
	return Styler{out: termenv.NewOutput(w)}
}

func (s Styler) color(text, hex string) string {
	return s.out.String(text).Foreground(s.out.Color(hex)).String()
}

// OK renders text in green.
func (s Styler) OK(text string) string { return s.color(text, "#22c55e") }

// Warn renders text in amber.
func (s Styler) Warn(text string) string { return s.color(text, "#f59e0b") }

// Fail renders text in red.
func (s Styler) Fail(text string) string { return s.color(text, "#ef4444") }
