package components

import (
	"image/color"

	"charm.land/lipgloss/v2"

	"github.com/mockt/mockt/internal/ui/theme"
)

// ContentWidth is the width of a centered panel inside a frame of the
// given width, between 20 and 96 cells.
func ContentWidth(frameWidth int) int {
	return min(max(frameWidth-6, 20), 96)
}

// Card boxes content in cw cells. A focused card gets the accent border.
func Card(content string, cw int, focused bool) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Padding(0, 1).
		Width(cw - 2)
	if focused {
		style = style.BorderForeground(theme.Primary)
	}
	return style.Render(content)
}

func Centered(content string, width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

// Notice is a centered status line in fg.
func Notice(msg string, fg color.Color, width int) string {
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Foreground(fg).Render(msg)
}
