package ui

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Color palette.
const (
	ColorGreen    = "2"   // Matches, as cargo search highlights them
	ColorLime     = "154" // Primary accent
	ColorLimeDim  = "106" // Dimmed accent for borders
	ColorGray     = "245" // Secondary text, labels
	ColorDarkGray = "238" // Box borders, separators
	ColorRed      = "196" // Errors
	ColorYellow   = "220" // Warnings
)

// Styles holds all UI styles.
type Styles struct {
	Header  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Dim     lipgloss.Style
	Active  lipgloss.Style
	Label   lipgloss.Style
	Border  lipgloss.Style
	Match   lipgloss.Style
}

// DefaultStyles returns styled components for color output.
func DefaultStyles() Styles {
	return stylesFor(lipgloss.DefaultRenderer())
}

func stylesFor(r *lipgloss.Renderer) Styles {
	return Styles{
		Header:  r.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorLime)),
		Success: r.NewStyle().Foreground(lipgloss.Color(ColorLime)),
		Warning: r.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:   r.NewStyle().Foreground(lipgloss.Color(ColorRed)),
		Dim:     r.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Active:  r.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorLime)),
		Label:   r.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Border:  r.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Match:   matchStyle(r.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorGreen))),
	}
}

// matchStyle decorates matched text in place, so tabs stay tabs.
func matchStyle(s lipgloss.Style) lipgloss.Style {
	return s.TabWidth(lipgloss.NoTabConversion)
}

// NoColorStyles returns unstyled components for plain mode.
func NoColorStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Header:  plain,
		Success: plain,
		Warning: plain,
		Error:   plain,
		Dim:     plain,
		Active:  plain,
		Label:   plain,
		Border:  plain,
		Match:   matchStyle(plain),
	}
}

// GetStyles returns the appropriate styles based on color preference.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}

// NewHighlighter returns a function that emphasizes matched text written
// to w. With color enabled the profile is forced to ANSI so piping
// `--color always` output keeps the escapes; otherwise text is unchanged.
func NewHighlighter(w io.Writer, color bool) func(string) string {
	if !color {
		return func(s string) string { return s }
	}
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(termenv.ANSI)
	match := stylesFor(r).Match
	return func(s string) string {
		return match.Render(s)
	}
}
