// Package login is the sign-in and registration form.
package login

import (
	"context"
	"errors"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/mockt/mockt/internal/auth"
	"github.com/mockt/mockt/internal/router"
	"github.com/mockt/mockt/internal/screen"
	"github.com/mockt/mockt/internal/ui/components"
	"github.com/mockt/mockt/internal/ui/layout"
	"github.com/mockt/mockt/internal/ui/theme"
)

// Mode selects between signing in and creating an account.
type Mode int

const (
	ModeSignIn Mode = iota
	ModeRegister
)

func (m Mode) String() string {
	if m == ModeRegister {
		return "Create account"
	}
	return "Sign in"
}

// minPasswordLen mirrors the identity provider's rule so the common
// mistake is caught without a round trip.
const minPasswordLen = 6

type resultMsg struct {
	User *auth.User
	Err  error
}

// LoginScreen collects credentials and signs the user in.
type LoginScreen struct {
	svc      *screen.Services
	mode     Mode
	email    components.TextInput
	password components.TextInput
	confirm  components.TextInput
	focus    int
	busy     bool
	errMsg   string
}

var _ screen.Screen = (*LoginScreen)(nil)
var _ screen.KeyHintProvider = (*LoginScreen)(nil)

// New creates a LoginScreen in sign-in mode.
func New(svc *screen.Services) *LoginScreen {
	s := &LoginScreen{
		svc:      svc,
		email:    components.NewTextInput("you@example.com", false, 254),
		password: components.NewPasswordInput("password"),
		confirm:  components.NewPasswordInput("repeat password"),
	}
	return s
}

func (s *LoginScreen) Init() tea.Cmd {
	return s.email.Focus()
}

func (s *LoginScreen) Title() string {
	return s.mode.String()
}

func (s *LoginScreen) KeyHints() []layout.KeyHint {
	other := ModeRegister
	if s.mode == ModeRegister {
		other = ModeSignIn
	}
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: s.mode.String()},
		{Key: "Ctrl+T", Description: other.String()},
		{Key: "Esc", Description: "Back"},
	}
}

// Mode returns the current form mode.
func (s *LoginScreen) Mode() Mode { return s.mode }

func (s *LoginScreen) fields() []*components.TextInput {
	if s.mode == ModeRegister {
		return []*components.TextInput{&s.email, &s.password, &s.confirm}
	}
	return []*components.TextInput{&s.email, &s.password}
}

func (s *LoginScreen) setFocus(i int) tea.Cmd {
	fields := s.fields()
	s.focus = (i + len(fields)) % len(fields)
	s.confirm.Blur()
	var cmd tea.Cmd
	for j, f := range fields {
		if j == s.focus {
			cmd = f.Focus()
		} else {
			f.Blur()
		}
	}
	return cmd
}

func (s *LoginScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case resultMsg:
		s.busy = false
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			s.svc.Log().Info("sign-in failed", zap.Stringer("mode", s.mode), zap.Error(msg.Err))
			return s, nil
		}
		user := msg.User
		return s, tea.Sequence(
			router.Back(),
			func() tea.Msg { return screen.AuthChangedMsg{User: user} },
		)

	case tea.KeyMsg:
		if s.busy {
			return s, nil
		}
		switch msg.String() {
		case "tab", "down":
			return s, s.setFocus(s.focus + 1)
		case "shift+tab", "up":
			return s, s.setFocus(s.focus - 1)
		case "ctrl+t":
			if s.mode == ModeSignIn {
				s.mode = ModeRegister
			} else {
				s.mode = ModeSignIn
			}
			s.errMsg = ""
			return s, s.setFocus(min(s.focus, len(s.fields())-1))
		case "enter":
			if s.focus < len(s.fields())-1 {
				return s, s.setFocus(s.focus + 1)
			}
			return s, s.submit()
		}
	}

	field := s.fields()[s.focus]
	var cmd tea.Cmd
	*field, cmd = field.Update(msg)
	return s, cmd
}

// validate checks the form locally and marks the offending field.
func (s *LoginScreen) validate() error {
	email := strings.TrimSpace(s.email.Value())
	if email == "" || !strings.Contains(email, "@") {
		s.email.Check(false)
		return errors.New("enter a valid email address")
	}
	if s.password.Value() == "" {
		s.password.Check(false)
		return errors.New("enter your password")
	}
	if s.mode == ModeRegister {
		if len(s.password.Value()) < minPasswordLen {
			s.password.Check(false)
			return errors.New("password must be at least 6 characters")
		}
		if s.confirm.Value() != s.password.Value() {
			s.confirm.Check(false)
			return errors.New("passwords do not match")
		}
	}
	return nil
}

func (s *LoginScreen) submit() tea.Cmd {
	if err := s.validate(); err != nil {
		s.errMsg = err.Error()
		return nil
	}
	s.errMsg = ""
	s.busy = true

	identity := s.svc.Identity
	mode := s.mode
	email := strings.TrimSpace(s.email.Value())
	password := s.password.Value()
	return func() tea.Msg {
		if identity == nil {
			return resultMsg{Err: errors.New("sign-in is not configured")}
		}
		ctx := context.Background()
		var (
			u   *auth.User
			err error
		)
		if mode == ModeRegister {
			u, err = identity.SignUp(ctx, email, password)
		} else {
			u, err = identity.SignIn(ctx, email, password)
		}
		return resultMsg{User: u, Err: err}
	}
}

func (s *LoginScreen) View(width, height int) string {
	cw := min(components.ContentWidth(width), 60)
	label := lipgloss.NewStyle().Foreground(theme.TextDim)

	var b strings.Builder
	b.WriteString(theme.Title.Width(cw - 4).Render(s.mode.String()))
	b.WriteString("\n\n")
	b.WriteString(label.Render("Email") + "\n" + s.email.View() + "\n\n")
	b.WriteString(label.Render("Password") + "\n" + s.password.View() + "\n")
	if s.mode == ModeRegister {
		b.WriteString("\n" + label.Render("Confirm password") + "\n" + s.confirm.View() + "\n")
	}
	b.WriteString("\n")
	switch {
	case s.busy:
		b.WriteString(theme.Hint.Render("Contacting identity provider..."))
	case s.errMsg != "":
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Error).Render(s.errMsg))
	}

	return components.Centered(components.Card(b.String(), cw, true), width, height)
}
