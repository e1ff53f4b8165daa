// Package summary shows the scored results of a finished interview.
package summary

import (
	"fmt"
	"path/filepath"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/mockt/mockt/internal/report"
	"github.com/mockt/mockt/internal/router"
	"github.com/mockt/mockt/internal/screen"
	"github.com/mockt/mockt/internal/ui/components"
	"github.com/mockt/mockt/internal/ui/layout"
	"github.com/mockt/mockt/internal/ui/theme"
)

type exportedMsg struct {
	Path string
	Err  error
}

// SummaryScreen displays the report of a session.
type SummaryScreen struct {
	svc    *screen.Services
	report report.Report
	offset int

	exporting bool
	exported  string
	errMsg    string
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// New creates a SummaryScreen for r.
func New(svc *screen.Services, r report.Report) *SummaryScreen {
	return &SummaryScreen{svc: svc, report: r}
}

func (s *SummaryScreen) Init() tea.Cmd {
	return nil
}

func (s *SummaryScreen) Title() string {
	return "Interview Summary"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Scroll"},
		{Key: "X", Description: "Export xlsx"},
		{Key: "Enter", Description: "Home"},
	}
}

// ExportPath is where the spreadsheet for this session is written.
func (s *SummaryScreen) ExportPath() string {
	return filepath.Join(s.svc.ExportDir, s.report.SessionID+".xlsx")
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case exportedMsg:
		s.exporting = false
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			s.svc.Log().Warn("export report", zap.String("session", s.report.SessionID), zap.Error(msg.Err))
			return s, nil
		}
		s.errMsg = ""
		s.exported = msg.Path
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "esc":
			return s, router.Back()
		case "up", "k":
			s.offset = max(0, s.offset-1)
		case "down", "j":
			s.offset++
		case "x":
			if s.exporting {
				return s, nil
			}
			s.exporting = true
			path, r := s.ExportPath(), s.report
			return s, func() tea.Msg {
				return exportedMsg{Path: path, Err: report.Save(path, r)}
			}
		}
	}
	return s, nil
}

func (s *SummaryScreen) View(width, height int) string {
	cw := min(components.ContentWidth(width), 88)
	r := s.report

	var head strings.Builder
	head.WriteString(theme.Title.Width(cw).Render("Interview complete!") + "\n")
	sub := r.JobRole
	if r.Difficulty != "" {
		sub += " · " + r.Difficulty
	}
	head.WriteString(theme.Subtitle.Width(cw).Render(sub) + "\n\n")

	if avg, ok := r.Average(); ok {
		avgStyle := lipgloss.NewStyle().Foreground(theme.ScoreColor(int(avg))).Bold(true)
		head.WriteString(lipgloss.PlaceHorizontal(cw, lipgloss.Center,
			"Average score  "+avgStyle.Render(fmt.Sprintf("%.1f", avg))))
	} else {
		head.WriteString(components.Notice("No answers were scored.", theme.TextDim, cw))
	}
	head.WriteString("\n")

	var rows []string
	for _, row := range r.Rows {
		rows = append(rows, renderRow(row, cw)...)
	}

	var foot string
	switch {
	case s.exporting:
		foot = components.Notice("Exporting...", theme.TextDim, cw)
	case s.errMsg != "":
		foot = components.Notice(s.errMsg, theme.Error, cw)
	case s.exported != "":
		foot = components.Notice("Saved "+s.exported, theme.Success, cw)
	}

	avail := height - lipgloss.Height(head.String()) - lipgloss.Height(foot) - 4
	if avail < 1 {
		avail = 1
	}
	s.offset = min(s.offset, max(0, len(rows)-avail))
	visible := rows[s.offset:min(len(rows), s.offset+avail)]

	body := head.String() + "\n" + strings.Join(visible, "\n")
	if foot != "" {
		body += "\n\n" + foot
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, body)
}

// renderRow returns the lines of one question.
func renderRow(row report.Row, cw int) []string {
	score := lipgloss.NewStyle().Foreground(theme.TextDim).Render("  —  ")
	if row.Score != nil {
		score = lipgloss.NewStyle().Foreground(theme.ScoreColor(*row.Score)).Bold(true).
			Render(fmt.Sprintf("%3d  ", *row.Score))
	}
	wrap := lipgloss.NewStyle().Width(cw - 10)
	question := wrap.Foreground(theme.Text).Render(row.Question)

	lines := strings.Split(question, "\n")
	out := []string{fmt.Sprintf("Q%-3d %s%s", row.QuestionID, score, lines[0])}
	indent := strings.Repeat(" ", 10)
	for _, l := range lines[1:] {
		out = append(out, indent+l)
	}
	if row.Feedback != "" {
		for _, l := range strings.Split(wrap.Foreground(theme.TextDim).Render(row.Feedback), "\n") {
			out = append(out, indent+l)
		}
	}
	return append(out, "")
}
