// Package style defines lipgloss styles for the TUI.
package style

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/alkime/intake/internal/clinical"
)

// UI styles using lipgloss.
// These are package-level for convenience; lipgloss styles are value types
// and safe for concurrent use.
var (
	// Title is used for stage titles and headers.
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39"))

	// Subtitle is used for secondary text.
	Subtitle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	// Success is used for success messages.
	Success = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42"))

	// Error is used for error messages.
	Error = lipgloss.NewStyle().
		Foreground(lipgloss.Color("196"))

	// Warning is used for warning messages and the degraded-extraction banner.
	Warning = lipgloss.NewStyle().
		Foreground(lipgloss.Color("214"))

	// Viewport is used for the transcript editor border.
	Viewport = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	// Help is used for keyboard shortcut hints.
	Help = lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	// Key is used for highlighting keyboard keys.
	Key = lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")).
		Bold(true)

	// Progress is used for progress indicators and the level meter.
	Progress = lipgloss.NewStyle().
			Foreground(lipgloss.Color("63"))

	// Label is used for inline labels (e.g., "Symptoms:", "Report:").
	Label = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("255"))

	// Muted is used for de-emphasized text (e.g., ids and timestamps).
	Muted = lipgloss.NewStyle().
		Foreground(lipgloss.Color("245"))

	// Selected is used for the focused row in field lists.
	Selected = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))
)

// triageStyles render each triage code on its ward color.
var triageStyles = map[clinical.TriageCode]lipgloss.Style{
	clinical.TriageWhite:  lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("255")),
	clinical.TriageGreen:  lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("29")),
	clinical.TriageYellow: lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("178")),
	clinical.TriageRed:    lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("124")),
	clinical.TriageBlack:  lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("235")),
}

// Triage returns the badge style for a triage code. Blank and unknown
// codes render muted.
func Triage(code clinical.TriageCode) lipgloss.Style {
	if s, ok := triageStyles[code]; ok {
		return s
	}

	return Muted
}
