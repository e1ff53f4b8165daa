// Package setup is the create-interview form.
package setup

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"charm.land/bubbles/v2/textarea"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/mockt/mockt/internal/backend"
	"github.com/mockt/mockt/internal/coach"
	"github.com/mockt/mockt/internal/router"
	"github.com/mockt/mockt/internal/screen"
	interviewscreen "github.com/mockt/mockt/internal/screens/interview"
	"github.com/mockt/mockt/internal/store"
	"github.com/mockt/mockt/internal/ui/components"
	"github.com/mockt/mockt/internal/ui/layout"
	"github.com/mockt/mockt/internal/ui/theme"
)

// Form fields in focus order.
const (
	fieldRole = iota
	fieldDescription
	fieldDifficulty
	fieldQuestions
	fieldStart
	numFields
)

type createdMsg struct {
	Record *store.SessionRecord
	Err    error
}

// SetupScreen collects the interview parameters and creates the session.
type SetupScreen struct {
	svc         *screen.Services
	role        components.TextInput
	description textarea.Model
	difficulty  components.Choice
	count       components.TextInput
	start       components.Button
	focus       int
	busy        bool
	errMsg      string
}

var _ screen.Screen = (*SetupScreen)(nil)
var _ screen.KeyHintProvider = (*SetupScreen)(nil)

// New creates the form with medium difficulty and the default question
// count preselected.
func New(svc *screen.Services) *SetupScreen {
	desc := textarea.New()
	desc.Placeholder = "Paste the job description (optional)"
	desc.ShowLineNumbers = false
	desc.CharLimit = 8000
	desc.SetHeight(5)

	options := make([]string, len(backend.Difficulties))
	for i, d := range backend.Difficulties {
		options[i] = string(d)
	}

	count := components.NewTextInput("1-10", true, 2)
	count.SetValue(strconv.Itoa(backend.DefaultQuestions))

	s := &SetupScreen{
		svc:         svc,
		role:        components.NewTextInput("e.g. Backend Engineer", false, 120),
		description: desc,
		difficulty:  components.NewChoice(options, 1),
		count:       count,
	}
	s.start = components.NewButton("Start interview")
	return s
}

func (s *SetupScreen) Init() tea.Cmd {
	return s.setFocus(fieldRole)
}

func (s *SetupScreen) Title() string {
	return "New Interview"
}

func (s *SetupScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{{Key: "Tab", Description: "Next field"}}
	if s.focus == fieldDifficulty {
		hints = append(hints, layout.KeyHint{Key: "←→", Description: "Difficulty"})
	}
	return append(hints,
		layout.KeyHint{Key: "Ctrl+S", Description: "Start"},
		layout.KeyHint{Key: "Esc", Description: "Back"},
	)
}

func (s *SetupScreen) setFocus(i int) tea.Cmd {
	s.focus = (i + numFields) % numFields
	s.role.Blur()
	s.description.Blur()
	s.difficulty.Blur()
	s.count.Blur()
	s.start.Active = false

	switch s.focus {
	case fieldRole:
		return s.role.Focus()
	case fieldDescription:
		return s.description.Focus()
	case fieldDifficulty:
		s.difficulty.Focus()
	case fieldQuestions:
		return s.count.Focus()
	case fieldStart:
		s.start.Active = true
	}
	return nil
}

func (s *SetupScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case createdMsg:
		s.busy = false
		s.start.Busy = ""
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			s.svc.Log().Warn("create session", zap.Error(msg.Err))
			return s, nil
		}
		rec := msg.Record
		return s, func() tea.Msg {
			return router.ReplaceScreenMsg{Screen: interviewscreen.New(s.svc, rec.SessionID, rec)}
		}

	case tea.KeyMsg:
		if s.busy {
			return s, nil
		}
		switch msg.String() {
		case "tab":
			return s, s.setFocus(s.focus + 1)
		case "shift+tab":
			return s, s.setFocus(s.focus - 1)
		case "ctrl+s":
			return s, s.submit()
		case "enter":
			switch s.focus {
			case fieldRole, fieldDifficulty, fieldQuestions:
				return s, s.setFocus(s.focus + 1)
			case fieldStart:
				return s, s.submit()
			}
		}
	}

	var cmd tea.Cmd
	switch s.focus {
	case fieldRole:
		s.role, cmd = s.role.Update(msg)
	case fieldDescription:
		s.description, cmd = s.description.Update(msg)
	case fieldDifficulty:
		s.difficulty, cmd = s.difficulty.Update(msg)
	case fieldQuestions:
		s.count, cmd = s.count.Update(msg)
	}
	return s, cmd
}

// Input returns the form as a create-session request.
func (s *SetupScreen) Input() backend.CreateSessionInput {
	n, err := s.count.NumericValue()
	if err != nil {
		n = 0
	}
	return backend.CreateSessionInput{
		JobRole:        strings.TrimSpace(s.role.Value()),
		JobDescription: strings.TrimSpace(s.description.Value()),
		Difficulty:     backend.Difficulty(s.difficulty.Value()),
		QuestionCount:  n,
	}
}

func (s *SetupScreen) submit() tea.Cmd {
	in := s.Input()
	if err := in.Validate(); err != nil {
		s.role.Check(in.JobRole != "")
		s.count.Check(in.QuestionCount >= backend.MinQuestions && in.QuestionCount <= backend.MaxQuestions)
		s.errMsg = err.Error()
		return nil
	}
	s.errMsg = ""
	s.busy = true
	s.start.Busy = "Creating questions..."

	svc := s.svc
	return func() tea.Msg {
		ctx := context.Background()
		sess, err := svc.Backend.CreateSession(ctx, in)
		if err != nil {
			return createdMsg{Err: fmt.Errorf("create session: %w", err)}
		}
		now := svc.Clock()
		rec := &store.SessionRecord{
			SessionID:      sess.SessionID,
			JobRole:        firstNonEmpty(sess.JobRole, in.JobRole),
			JobDescription: in.JobDescription,
			Difficulty:     string(in.Difficulty),
			QuestionCount:  len(sess.Questions),
			Questions:      coach.ToStored(sess.Questions),
			CreatedAt:      now.UTC(),
		}
		if err := svc.Sessions.Save(ctx, *rec); err != nil {
			return createdMsg{Err: err}
		}
		if err := svc.Sessions.SetCurrent(ctx, rec.SessionID, now.Add(svc.TTL())); err != nil {
			svc.Log().Warn("set current session", zap.Error(err))
		}
		svc.Log().Info("session started",
			zap.String("session", rec.SessionID),
			zap.String("role", rec.JobRole),
			zap.Int("questions", rec.QuestionCount),
		)
		return createdMsg{Record: rec}
	}
}

func (s *SetupScreen) View(width, height int) string {
	cw := min(components.ContentWidth(width), 80)
	s.description.SetWidth(cw - 6)
	label := func(text string, field int) string {
		style := lipgloss.NewStyle().Foreground(theme.TextDim)
		if s.focus == field {
			style = style.Foreground(theme.Primary).Bold(true)
		}
		return style.Render(text)
	}

	var b strings.Builder
	b.WriteString(label("Job title", fieldRole) + "\n" + s.role.View() + "\n\n")
	b.WriteString(label("Job description", fieldDescription) + "\n" + s.description.View() + "\n\n")
	b.WriteString(label("Difficulty", fieldDifficulty) + "\n" + s.difficulty.View() + "\n\n")
	b.WriteString(label(fmt.Sprintf("Questions (%d-%d)", backend.MinQuestions, backend.MaxQuestions), fieldQuestions) +
		"\n" + s.count.View() + "\n\n")
	b.WriteString(s.start.View())
	if s.errMsg != "" {
		b.WriteString("\n\n" + lipgloss.NewStyle().Foreground(theme.Error).Render(s.errMsg))
	}

	return components.Centered(components.Card(b.String(), cw, true), width, height)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
