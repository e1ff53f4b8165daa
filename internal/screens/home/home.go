package home

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/mockt/mockt/internal/auth"
	"github.com/mockt/mockt/internal/router"
	"github.com/mockt/mockt/internal/screen"
	interviewscreen "github.com/mockt/mockt/internal/screens/interview"
	"github.com/mockt/mockt/internal/screens/login"
	"github.com/mockt/mockt/internal/screens/sessions"
	"github.com/mockt/mockt/internal/screens/setup"
	"github.com/mockt/mockt/internal/store"
	"github.com/mockt/mockt/internal/ui/components"
	"github.com/mockt/mockt/internal/ui/layout"
	"github.com/mockt/mockt/internal/ui/theme"
)

// currentLoadedMsg carries the session behind the current-session pointer.
type currentLoadedMsg struct {
	Record *store.SessionRecord
	Err    error
}

// HomeScreen is the main menu.
type HomeScreen struct {
	svc      *screen.Services
	menu     components.Menu
	user     *auth.User
	resolved bool
	authErr  error
	current  *store.SessionRecord
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.KeyHintProvider = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(svc *screen.Services) *HomeScreen {
	h := &HomeScreen{svc: svc}
	h.menu = components.NewMenu(h.items())
	return h
}

func (h *HomeScreen) Init() tea.Cmd {
	return tea.Batch(h.svc.ResolveUser(), h.loadCurrent())
}

func (h *HomeScreen) Title() string {
	return "Home"
}

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case screen.AuthChangedMsg:
		h.resolved = true
		h.user = msg.User
		h.authErr = nil
		if msg.Err != nil && !errors.Is(msg.Err, auth.ErrNotSignedIn) {
			h.authErr = msg.Err
			h.svc.Log().Warn("resolve user", zap.Error(msg.Err))
		}
		h.menu.SetItems(h.items())
		return h, nil

	case currentLoadedMsg:
		if msg.Err != nil {
			h.svc.Log().Warn("load current session", zap.Error(msg.Err))
		}
		h.current = msg.Record
		h.menu.SetItems(h.items())
		return h, nil

	case screen.ResumedMsg:
		return h, h.loadCurrent()
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

// needsSignIn reports whether backend actions are blocked on sign-in.
func (h *HomeScreen) needsSignIn() bool {
	return h.svc.Identity != nil && h.user == nil
}

func (h *HomeScreen) items() []components.MenuItem {
	svc := h.svc
	gated := h.needsSignIn() || !h.resolved
	gateHint := ""
	if h.resolved && h.needsSignIn() {
		gateHint = "sign in first"
	}

	items := []components.MenuItem{
		{Label: "New interview", Hint: gateHint, Disabled: gated, Action: func() tea.Cmd {
			return router.Open(setup.New(svc))
		}},
	}

	resume := components.MenuItem{Label: "Resume interview", Disabled: true}
	if rec := h.current; rec != nil {
		resume.Hint = rec.JobRole
		resume.Disabled = gated
		resume.Action = func() tea.Cmd {
			return router.Open(interviewscreen.New(svc, rec.SessionID, rec))
		}
	}
	items = append(items, resume,
		components.MenuItem{Label: "Past sessions", Action: func() tea.Cmd {
			return router.Open(sessions.New(svc))
		}},
	)

	if svc.Identity != nil {
		if h.user == nil {
			items = append(items, components.MenuItem{Label: "Sign in", Disabled: !h.resolved, Action: func() tea.Cmd {
				return router.Open(login.New(svc))
			}})
		} else {
			items = append(items, components.MenuItem{Label: "Sign out", Hint: h.user.Email, Action: h.signOut})
		}
	}

	return append(items, components.MenuItem{Label: "Quit", Action: func() tea.Cmd {
		return tea.Quit
	}})
}

func (h *HomeScreen) signOut() tea.Cmd {
	identity := h.svc.Identity
	return func() tea.Msg {
		if err := identity.SignOut(context.Background()); err != nil {
			return screen.AuthChangedMsg{Err: err}
		}
		return screen.AuthChangedMsg{}
	}
}

func (h *HomeScreen) loadCurrent() tea.Cmd {
	svc := h.svc
	return func() tea.Msg {
		if svc.Sessions == nil {
			return currentLoadedMsg{}
		}
		ctx := context.Background()
		id, err := svc.Sessions.Current(ctx, svc.Clock())
		if err != nil || id == "" {
			return currentLoadedMsg{Err: err}
		}
		rec, err := svc.Sessions.Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return currentLoadedMsg{}
		}
		return currentLoadedMsg{Record: rec, Err: err}
	}
}

func (h *HomeScreen) View(width, height int) string {
	compact := layout.Compact(width, height)
	cw := min(components.ContentWidth(width), 56)

	var sections []string
	sections = append(sections, renderBanner(width, compact))
	if !compact {
		sections = append(sections, theme.Subtitle.Render("Mock interviews with instant feedback"))
	}
	sections = append(sections, h.statusLine())
	sections = append(sections, components.Card(h.menu.View(), cw, true))

	content := lipgloss.JoinVertical(lipgloss.Center, sections...)
	return components.Centered(strings.TrimPrefix(content, "\n"), width, height)
}

func (h *HomeScreen) statusLine() string {
	switch {
	case h.authErr != nil:
		return lipgloss.NewStyle().Foreground(theme.Error).Render(fmt.Sprintf("Sign-in check failed: %v", h.authErr))
	case !h.resolved:
		return theme.Hint.Render("Checking sign-in...")
	case h.svc.Identity == nil:
		return theme.Hint.Render("Offline coach")
	case h.user == nil:
		return theme.Hint.Render("Not signed in")
	default:
		return lipgloss.NewStyle().Foreground(theme.Success).Render("Signed in as " + h.user.Email)
	}
}
