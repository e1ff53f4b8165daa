// Package screen defines what the router needs from a screen and the
// messages shared between screens.
package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/mockt/mockt/internal/ui/layout"
)

// Screen is one page of the TUI. View draws only the body; the app adds
// the title bar and footer.
type Screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Screen, tea.Cmd)
	View(width, height int) string
	Title() string
}

// KeyHintProvider lets a screen fill the footer.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// Closer releases what a screen holds once it leaves the router.
type Closer interface {
	Close()
}

type (
	// ResumedMsg tells a screen that the one above it was popped.
	ResumedMsg struct{}

	// ClipEndedMsg is a playback that finished on its own.
	ClipEndedMsg struct{ PlaybackID int64 }
)
