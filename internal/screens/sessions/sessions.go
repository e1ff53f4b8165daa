// Package sessions lists past interviews stored on this machine.
package sessions

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/mockt/mockt/internal/report"
	"github.com/mockt/mockt/internal/router"
	"github.com/mockt/mockt/internal/screen"
	interviewscreen "github.com/mockt/mockt/internal/screens/interview"
	"github.com/mockt/mockt/internal/screens/summary"
	"github.com/mockt/mockt/internal/store"
	"github.com/mockt/mockt/internal/ui/layout"
	"github.com/mockt/mockt/internal/ui/theme"
)

// listLimit caps the number of sessions shown.
const listLimit = 50

type entry struct {
	Record store.SessionRecord
	Report report.Report
}

// Scored returns how many questions have a score.
func (e entry) Scored() int {
	n := 0
	for _, r := range e.Report.Rows {
		if r.Score != nil {
			n++
		}
	}
	return n
}

// Done reports whether every question was scored.
func (e entry) Done() bool {
	return len(e.Report.Rows) > 0 && e.Scored() == len(e.Report.Rows)
}

type loadedMsg struct {
	Entries []entry
	Err     error
}

// SessionsScreen displays past sessions with their scores.
type SessionsScreen struct {
	svc      *screen.Services
	entries  []entry
	selected int
	expanded map[int]bool
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*SessionsScreen)(nil)
var _ screen.KeyHintProvider = (*SessionsScreen)(nil)

// New creates a new SessionsScreen.
func New(svc *screen.Services) *SessionsScreen {
	return &SessionsScreen{svc: svc, expanded: make(map[int]bool)}
}

func (s *SessionsScreen) Init() tea.Cmd {
	return s.load()
}

func (s *SessionsScreen) load() tea.Cmd {
	svc := s.svc
	return func() tea.Msg {
		ctx := context.Background()
		recs, err := svc.Sessions.List(ctx, listLimit)
		if err != nil {
			return loadedMsg{Err: err}
		}
		out := make([]entry, 0, len(recs))
		for _, rec := range recs {
			var events []store.AnswerEvent
			if svc.Events != nil {
				if events, err = svc.Events.AnswerEvents(ctx, rec.SessionID); err != nil {
					return loadedMsg{Err: fmt.Errorf("answers of %s: %w", rec.SessionID, err)}
				}
			}
			out = append(out, entry{Record: rec, Report: report.Build(&rec, events)})
		}
		return loadedMsg{Entries: out}
	}
}

func (s *SessionsScreen) Title() string {
	return "Past Sessions"
}

func (s *SessionsScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Open"},
		{Key: "Space", Description: "Details"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *SessionsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.entries = msg.Entries
			s.selected = min(s.selected, max(0, len(s.entries)-1))
		}
		s.loaded = true
		return s, nil

	case screen.ResumedMsg:
		return s, s.load()

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < len(s.entries)-1 {
				s.selected++
			}
		case "space", " ":
			s.expanded[s.selected] = !s.expanded[s.selected]
		case "enter":
			if s.selected >= len(s.entries) {
				return s, nil
			}
			e := s.entries[s.selected]
			var next screen.Screen
			if e.Done() {
				next = summary.New(s.svc, e.Report)
			} else {
				rec := e.Record
				next = interviewscreen.New(s.svc, rec.SessionID, &rec)
			}
			return s, router.Open(next)
		}
	}
	return s, nil
}

func (s *SessionsScreen) View(width, height int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	switch {
	case s.errMsg != "":
		return center.Foreground(theme.Error).Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	case !s.loaded:
		return center.Foreground(theme.TextDim).Render("\n\n  Loading sessions...")
	case len(s.entries) == 0:
		return center.Foreground(theme.TextDim).Italic(true).Render("\n\n  No interviews yet. Start one from the home menu.")
	}

	var b strings.Builder
	b.WriteString("\n")
	for i, e := range s.entries {
		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}
		rec := e.Record
		status := fmt.Sprintf("%d/%d answered", e.Scored(), len(e.Report.Rows))
		if avg, ok := e.Report.Average(); ok {
			status += fmt.Sprintf("  avg %.0f", avg)
		}
		difficulty := rec.Difficulty
		if difficulty == "" {
			difficulty = "-"
		}
		line := fmt.Sprintf("%s%s  %-28s  %-6s  %s",
			prefix, rec.CreatedAt.Local().Format("Jan 02, 2006"), truncate(rec.JobRole, 28), difficulty, status)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			style = style.Foreground(theme.Primary).Bold(true)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")

		if s.expanded[i] {
			for _, row := range e.Report.Rows {
				score := "  -"
				fg := theme.TextDim
				if row.Score != nil {
					score = fmt.Sprintf("%3d", *row.Score)
					fg = theme.ScoreColor(*row.Score)
				}
				detail := lipgloss.NewStyle().Foreground(fg).Render(score) + "  " +
					lipgloss.NewStyle().Foreground(theme.TextDim).Render(truncate(row.Question, 60))
				b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, "    "+detail))
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
