// Package app is the root Bubble Tea model: it owns the screen router,
// draws the frame and handles the keys that work on every screen.
package app

import (
	"fmt"

	tea "charm.land/bubbletea/v2"

	"github.com/mockt/mockt/internal/router"
	"github.com/mockt/mockt/internal/screen"
	"github.com/mockt/mockt/internal/screens/home"
	"github.com/mockt/mockt/internal/ui/layout"
)

type model struct {
	svc     *screen.Services
	screens *router.Router

	// account is the signed-in email shown in the title bar.
	account       string
	width, height int
}

func newModel(svc *screen.Services) model {
	return model{svc: svc, screens: router.New(home.New(svc))}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.screens.Active().Init(), nextClipEnded(m.svc.Player))
}

// nextClipEnded waits for the player to report a finished clip. The
// player is shared by all screens, so the app keeps one listener armed
// for the whole run.
func nextClipEnded(p screen.ClipPlayer) tea.Cmd {
	if p == nil {
		return nil
	}
	ended := p.Ended()
	return func() tea.Msg {
		if id, ok := <-ended; ok {
			return screen.ClipEndedMsg{PlaybackID: id}
		}
		return nil
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		if cmd, handled := m.globalKey(msg.String()); handled {
			return m, cmd
		}

	case screen.AuthChangedMsg:
		m.account = ""
		if msg.User != nil {
			m.account = msg.User.Email
		}

	case screen.ClipEndedMsg:
		return m, tea.Batch(m.screens.Update(msg), nextClipEnded(m.svc.Player))
	}
	return m, m.screens.Update(msg)
}

// globalKey handles ctrl+c and esc before the active screen sees them.
func (m model) globalKey(key string) (tea.Cmd, bool) {
	switch key {
	case "ctrl+c":
		m.screens.Close()
		return tea.Quit, true
	case "esc":
		if m.screens.Depth() > 1 {
			return router.Back(), true
		}
		return nil, true
	}
	return nil, false
}

func (m model) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	if m.width == 0 || m.height == 0 {
		return v
	}

	f := layout.Frame{Status: m.account, Width: m.width, Height: m.height}
	if active := m.screens.Active(); active != nil {
		f.Title = active.Title()
		if hp, ok := active.(screen.KeyHintProvider); ok {
			f.Hints = hp.KeyHints()
		}
	}
	if f.Hints == nil && m.screens.Depth() > 1 {
		f.Hints = []layout.KeyHint{{Key: "Esc", Description: "Back"}}
	}
	f.Hints = append(f.Hints, layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})

	v.SetContent(f.Render(m.screens.View))
	return v
}

// Run shows the TUI until the user quits. Screens still open at exit are
// closed so devices and playback are released.
func Run(svc *screen.Services) error {
	m := newModel(svc)
	defer m.screens.Close()
	if _, err := tea.NewProgram(m).Run(); err != nil {
		return fmt.Errorf("run TUI: %w", err)
	}
	return nil
}
