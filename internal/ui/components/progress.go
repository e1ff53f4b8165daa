package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/mockt/mockt/internal/ui/theme"
)

// ProgressBar draws "Label ████░░░░ done/total" in Width cells.
type ProgressBar struct {
	Label string
	Done  int
	Total int
	Width int
}

func NewProgressBar(label string, done, total, width int) ProgressBar {
	return ProgressBar{Label: label, Done: done, Total: total, Width: width}
}

// Fraction is Done/Total clamped to [0, 1]; zero when Total is not
// positive.
func (p ProgressBar) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	return max(0, min(1, float64(p.Done)/float64(p.Total)))
}

func (p ProgressBar) View() string {
	label := ""
	if p.Label != "" {
		label = lipgloss.NewStyle().Foreground(theme.Text).Render(p.Label) + " "
	}
	count := fmt.Sprintf(" %d/%d", p.Done, p.Total)

	cells := max(p.Width-lipgloss.Width(label)-len(count), 4)
	full := int(float64(cells)*p.Fraction() + 0.5)

	return label +
		theme.ProgressFilled.Render(strings.Repeat("█", full)) +
		theme.ProgressEmpty.Render(strings.Repeat("░", cells-full)) +
		theme.Hint.UnsetItalic().Render(count)
}
