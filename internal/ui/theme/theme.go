// Package theme holds the colors and shared styles of the TUI.
package theme

import (
	"image/color"

	"charm.land/lipgloss/v2"
)

var (
	Primary   = lipgloss.Color("#14B8A6")
	Secondary = lipgloss.Color("#60A5FA")
	Accent    = lipgloss.Color("#FBBF24")
	Success   = lipgloss.Color("#4ADE80")
	Error     = lipgloss.Color("#F87171")

	Text    = lipgloss.Color("#E5E7EB")
	TextDim = lipgloss.Color("#9CA3AF")
	BgCard  = lipgloss.Color("#1F2937")
	Border  = lipgloss.Color("#374151")
)

var (
	Title    = lipgloss.NewStyle().Bold(true).Foreground(Primary).Align(lipgloss.Center)
	Subtitle = lipgloss.NewStyle().Foreground(TextDim).Align(lipgloss.Center)
	Hint     = lipgloss.NewStyle().Foreground(TextDim).Italic(true)

	Selected   = lipgloss.NewStyle().Foreground(Primary).Bold(true)
	Unselected = lipgloss.NewStyle().Foreground(Text)

	// Recording marks a live microphone; Playing marks the clip that is
	// currently audible.
	Recording = lipgloss.NewStyle().Foreground(Error).Bold(true).Blink(true)
	Playing   = lipgloss.NewStyle().Foreground(Secondary).Bold(true)

	ProgressFilled = lipgloss.NewStyle().Foreground(Primary)
	ProgressEmpty  = lipgloss.NewStyle().Foreground(Border)

	ButtonActive   = lipgloss.NewStyle().Background(Primary).Foreground(BgCard).Bold(true).Padding(0, 2)
	ButtonInactive = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(Border).
			Foreground(TextDim).
			Padding(0, 2)
)

// ScoreColor grades a 0-100 answer score: 75 and up is good, 50 and up
// is fair.
func ScoreColor(score int) color.Color {
	switch {
	case score >= 75:
		return Success
	case score >= 50:
		return Accent
	default:
		return Error
	}
}
