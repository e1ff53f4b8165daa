package components

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/mockt/mockt/internal/ui/theme"
)

// Choice is a horizontal single-choice selector.
type Choice struct {
	Options  []string
	Selected int
	focused  bool
}

// NewChoice creates a selector with the option at selected preselected.
func NewChoice(options []string, selected int) Choice {
	if selected < 0 || selected >= len(options) {
		selected = 0
	}
	return Choice{Options: options, Selected: selected}
}

// Focus gives the selector keyboard focus.
func (c *Choice) Focus() { c.focused = true }

// Blur removes keyboard focus.
func (c *Choice) Blur() { c.focused = false }

// Focused reports whether the selector has focus.
func (c Choice) Focused() bool { return c.focused }

// Value returns the selected option.
func (c Choice) Value() string {
	if len(c.Options) == 0 {
		return ""
	}
	return c.Options[c.Selected]
}

// Update moves the selection with left/right while focused.
func (c Choice) Update(msg tea.Msg) (Choice, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || !c.focused || len(c.Options) == 0 {
		return c, nil
	}
	switch kmsg.String() {
	case "left", "h":
		if c.Selected > 0 {
			c.Selected--
		}
	case "right", "l":
		if c.Selected < len(c.Options)-1 {
			c.Selected++
		}
	}
	return c, nil
}

// View renders the options on one line.
func (c Choice) View() string {
	parts := make([]string, len(c.Options))
	for i, opt := range c.Options {
		switch {
		case i == c.Selected && c.focused:
			parts[i] = theme.ButtonActive.Render(opt)
		case i == c.Selected:
			parts[i] = theme.Selected.Padding(0, 2).Render(opt)
		default:
			parts[i] = lipgloss.NewStyle().Foreground(theme.TextDim).Padding(0, 2).Render(opt)
		}
	}
	return strings.Join(parts, " ")
}
