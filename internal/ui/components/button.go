package components

import (
	"github.com/mockt/mockt/internal/ui/theme"
)

// Button is a focusable styled button. The owning screen decides what a
// press does.
type Button struct {
	Label  string
	Active bool // focused
	Busy   string
}

// NewButton creates a new button.
func NewButton(label string) Button {
	return Button{Label: label}
}

// View renders the button. A busy button shows its Busy text instead of
// the label.
func (b Button) View() string {
	if b.Busy != "" {
		return theme.ButtonInactive.Render(b.Busy)
	}
	if b.Active {
		return theme.ButtonActive.Render("▸ " + b.Label)
	}
	return theme.ButtonInactive.Render(b.Label)
}
