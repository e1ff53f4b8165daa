package components

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/mockt/mockt/internal/ui/theme"
)

// MenuItem is one entry of a Menu. Hint is drawn dimmed after the label.
type MenuItem struct {
	Label    string
	Hint     string
	Action   func() tea.Cmd
	Disabled bool
}

// Menu is a vertical list navigated with the arrow keys or j/k. The
// cursor skips disabled items.
type Menu struct {
	Items    []MenuItem
	Selected int
}

func NewMenu(items []MenuItem) Menu {
	m := Menu{Items: items, Selected: -1}
	m.move(1)
	return m
}

// SetItems swaps the entries. The cursor stays on the same label if that
// entry is still enabled.
func (m *Menu) SetItems(items []MenuItem) {
	label := m.SelectedLabel()
	*m = NewMenu(items)
	for i, it := range items {
		if it.Label == label && !it.Disabled {
			m.Selected = i
			return
		}
	}
}

func (m Menu) SelectedLabel() string {
	if m.Selected < 0 || m.Selected >= len(m.Items) {
		return ""
	}
	return m.Items[m.Selected].Label
}

// move steps the cursor to the next enabled item in direction step. The
// cursor stays put when there is none.
func (m *Menu) move(step int) {
	for i := m.Selected + step; i >= 0 && i < len(m.Items); i += step {
		if !m.Items[i].Disabled {
			m.Selected = i
			return
		}
	}
	if m.Selected < 0 {
		m.Selected = 0
	}
}

func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "k":
		m.move(-1)
	case "down", "j":
		m.move(1)
	case "enter":
		if m.Selected < len(m.Items) {
			if it := m.Items[m.Selected]; !it.Disabled && it.Action != nil {
				return m, it.Action()
			}
		}
	}
	return m, nil
}

func (m Menu) View() string {
	dim := lipgloss.NewStyle().Foreground(theme.Border)
	lines := make([]string, len(m.Items))
	for i, it := range m.Items {
		switch {
		case it.Disabled:
			lines[i] = dim.Render("   " + it.Label)
		case i == m.Selected:
			lines[i] = theme.Selected.Render(" › " + it.Label)
		default:
			lines[i] = theme.Unselected.Render("   " + it.Label)
		}
		if it.Hint != "" {
			lines[i] += "  " + theme.Hint.Render(it.Hint)
		}
	}
	return strings.Join(lines, "\n")
}
