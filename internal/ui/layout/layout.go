// Package layout draws the chrome around the active screen: a title bar on
// top and key hints at the bottom.
package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/mockt/mockt/internal/ui/theme"
)

// The smallest terminal the interview screen is usable in.
const (
	MinWidth  = 72
	MinHeight = 20
)

// KeyHint is one key binding shown in the footer.
type KeyHint struct {
	Key         string
	Description string
}

// Compact reports whether a body of the given size should drop decorative
// elements such as the banner.
func Compact(width, height int) bool {
	return width < 96 || height < 22
}

// Frame describes one rendered screen.
type Frame struct {
	Title  string
	Status string
	Hints  []KeyHint
	Width  int
	Height int
}

// Fits reports whether the terminal meets the minimum size.
func (f Frame) Fits() bool {
	return f.Width >= MinWidth && f.Height >= MinHeight
}

// Render draws the frame. body is called with the space left between the
// title bar and the footer.
func (f Frame) Render(body func(width, height int) string) string {
	if !f.Fits() {
		return f.tooSmall()
	}
	top := f.titleBar()
	bottom := f.footer()
	h := max(f.Height-lipgloss.Height(top)-lipgloss.Height(bottom), 0)

	middle := lipgloss.NewStyle().Width(f.Width).Height(h).MaxHeight(h).Render(body(f.Width, h))
	return lipgloss.JoinVertical(lipgloss.Left, top, middle, bottom)
}

func (f Frame) titleBar() string {
	bar := lipgloss.NewStyle().
		Width(f.Width).
		Padding(0, 1).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(theme.Border)

	name := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render("mockt")
	title := lipgloss.NewStyle().Foreground(theme.Text).Render(f.Title)
	status := lipgloss.NewStyle().Foreground(theme.Accent).Render(f.Status)

	inner := f.Width - 2
	used := lipgloss.Width(name) + lipgloss.Width(title) + lipgloss.Width(status)
	gap := max(inner-used, 2)
	left := max((inner-lipgloss.Width(title))/2-lipgloss.Width(name), 1)
	left = min(left, gap-1)

	return bar.Render(name + strings.Repeat(" ", left) + title + strings.Repeat(" ", gap-left) + status)
}

func (f Frame) footer() string {
	key := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
	desc := lipgloss.NewStyle().Foreground(theme.TextDim)
	sep := desc.Render("  ·  ")

	parts := make([]string, len(f.Hints))
	for i, h := range f.Hints {
		parts[i] = key.Render(h.Key) + " " + desc.Render(h.Description)
	}
	return lipgloss.NewStyle().
		Width(f.Width).
		Padding(0, 1).
		Border(lipgloss.NormalBorder(), true, false, false, false).
		BorderForeground(theme.Border).
		Render(strings.Join(parts, sep))
}

func (f Frame) tooSmall() string {
	msg := fmt.Sprintf("mockt needs a %dx%d terminal.\nThis one is %dx%d.", MinWidth, MinHeight, f.Width, f.Height)
	return lipgloss.Place(f.Width, f.Height, lipgloss.Center, lipgloss.Center,
		lipgloss.NewStyle().Foreground(theme.Accent).Align(lipgloss.Center).Render(msg))
}
