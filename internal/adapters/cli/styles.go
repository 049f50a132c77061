package cli

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

const (
	colorCyan  = lipgloss.Color("14")
	colorBlue  = lipgloss.Color("12")
	colorGreen = lipgloss.Color("10")
	colorRed   = lipgloss.Color("9")
)

// styles holds the menu's lipgloss styles, bound to one renderer.
type styles struct {
	banner  lipgloss.Style
	prompt  lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	heading lipgloss.Style
}

// newStyles binds styles to w. Color is detected from w unless disabled.
func newStyles(w io.Writer, color bool) styles {
	r := lipgloss.NewRenderer(w)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	}

	return styles{
		banner: r.NewStyle().
			Bold(true).
			Foreground(colorCyan).
			Border(lipgloss.DoubleBorder()).
			BorderForeground(colorCyan).
			Padding(0, 5),
		prompt:  r.NewStyle().Bold(true).Foreground(colorBlue),
		success: r.NewStyle().Bold(true).Foreground(colorGreen),
		failure: r.NewStyle().Bold(true).Foreground(colorRed),
		heading: r.NewStyle().Bold(true),
	}
}
