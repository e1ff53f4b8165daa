package interview

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	flow "github.com/mockt/mockt/internal/interview"
	"github.com/mockt/mockt/internal/ui/components"
	"github.com/mockt/mockt/internal/ui/theme"
)

var (
	dim   = lipgloss.NewStyle().Foreground(theme.TextDim)
	bold  = lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
	errSt = lipgloss.NewStyle().Foreground(theme.Error)
)

func (s *InterviewScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	switch {
	case s.fatal != nil:
		msg := errSt.Render(s.fatal.Error()) + "\n\n" + dim.Render("Press Esc to go back.")
		return components.Centered(components.Card(msg, min(cw, 72), false), width, height)
	case !s.ready:
		return components.Centered(s.spinner.View()+" Loading interview...", width, height)
	}

	s.answer.SetWidth(cw - 4)
	top := s.renderStatus(cw)
	bottom := s.renderComposer(cw)
	avail := height - lipgloss.Height(top) - lipgloss.Height(bottom) - 2
	list := s.renderQuestions(cw, avail)

	body := lipgloss.JoinVertical(lipgloss.Left, top, "", list, "", bottom)
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, body)
}

func (s *InterviewScreen) renderStatus(cw int) string {
	role := bold.Render(s.ctrl.JobRole())
	if s.ctrl.JobRole() == "" {
		role = bold.Render("Interview")
	}

	var toggles []string
	auto := "off"
	if s.ctrl.AutoAdvance() {
		auto = "on"
	}
	toggles = append(toggles, dim.Render("auto-advance "+auto))
	if s.ctrl.Recording() {
		toggles = append(toggles, theme.Recording.Render("● REC"))
	}
	if s.ctrl.CameraOn() {
		toggles = append(toggles, theme.Playing.Render("camera on"))
	}
	if s.speaking {
		toggles = append(toggles, dim.Render("voicing question"))
	}
	if s.uploads > 0 {
		toggles = append(toggles, dim.Render(fmt.Sprintf("uploading %d", s.uploads)))
	}
	right := strings.Join(toggles, dim.Render(" · "))

	gap := cw - lipgloss.Width(role) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	line := role + strings.Repeat(" ", gap) + right

	bar := components.NewProgressBar("Answered", len(s.ctrl.Answered()), len(s.ctrl.Questions()), cw)
	return line + "\n" + bar.View()
}

// renderQuestions fits the visible question blocks into height lines,
// keeping the selected one on screen.
func (s *InterviewScreen) renderQuestions(cw, height int) string {
	vis := s.ctrl.Visible()
	if len(vis) == 0 {
		return ""
	}
	blocks := make([]string, len(vis))
	sel := len(vis) - 1
	for i, q := range vis {
		blocks[i] = s.renderQuestion(q, cw)
		if q.ID == s.selected {
			sel = i
		}
	}
	if height < 1 {
		return blocks[sel]
	}

	used := lipgloss.Height(blocks[sel])
	start := sel
	for start > 0 {
		h := lipgloss.Height(blocks[start-1]) + 1
		if used+h > height {
			break
		}
		used += h
		start--
	}
	end := sel + 1
	for end < len(blocks) {
		h := lipgloss.Height(blocks[end]) + 1
		if used+h > height {
			break
		}
		used += h
		end++
	}
	return strings.Join(blocks[start:end], "\n\n")
}

func (s *InterviewScreen) renderQuestion(q flow.Question, cw int) string {
	selected := q.ID == s.selected
	marker := "  "
	if selected {
		marker = theme.Selected.Render("▸ ")
	}
	title := fmt.Sprintf("Q%d", q.ID)
	if selected {
		title = theme.Selected.Render(title)
	} else {
		title = bold.Render(title)
	}

	var badges []string
	switch s.ctrl.StateOf(q.ID) {
	case flow.StateAwaitingFeedback:
		badges = append(badges, s.spinner.View()+dim.Render(" evaluating"))
	case flow.StateAnswered:
		if a, ok := s.ctrl.Answer(q.ID); ok && a.Score != nil {
			badges = append(badges, lipgloss.NewStyle().Foreground(theme.ScoreColor(*a.Score)).Bold(true).
				Render(fmt.Sprintf("%d/100", *a.Score)))
		}
	case flow.StateActive:
		badges = append(badges, lipgloss.NewStyle().Foreground(theme.Secondary).Render("your turn"))
	}
	if id, ok := s.ctrl.RetryTarget(); ok && id == q.ID {
		badges = append(badges, lipgloss.NewStyle().Foreground(theme.Accent).Render("revising"))
	}
	if s.ctrl.HasRecording(q.ID) {
		badges = append(badges, dim.Render("voice"))
	}
	if s.ctrl.Playing(flow.ClipRef{Kind: flow.ClipQuestion, QuestionID: q.ID}) {
		badges = append(badges, theme.Playing.Render("♪ prompt"))
	}
	if s.ctrl.Playing(flow.ClipRef{Kind: flow.ClipAnswer, QuestionID: q.ID}) {
		badges = append(badges, theme.Playing.Render("♪ answer"))
	}

	head := marker + title + "  " + strings.Join(badges, "  ")
	wrap := lipgloss.NewStyle().Width(cw - 4).PaddingLeft(4)
	lines := []string{head, wrap.Foreground(theme.Text).Render(q.Text)}

	if a, ok := s.ctrl.Answer(q.ID); ok {
		lines = append(lines, wrap.Foreground(theme.TextDim).Render("You: "+a.Text))
		if a.Feedback != nil && *a.Feedback != "" {
			lines = append(lines, wrap.Foreground(theme.Secondary).Render(*a.Feedback))
		}
	}
	return strings.Join(lines, "\n")
}

func (s *InterviewScreen) renderComposer(cw int) string {
	var b strings.Builder
	target, hasTarget := s.ctrl.Target()

	switch {
	case s.ctrl.Pending() != nil:
		b.WriteString(s.spinner.View() + dim.Render(fmt.Sprintf(" Evaluating your answer to Q%d...", s.ctrl.Pending().QuestionID)))
	case hasTarget:
		label := fmt.Sprintf("Your answer to Q%d", target.ID)
		if id, ok := s.ctrl.RetryTarget(); ok && id == target.ID {
			label = fmt.Sprintf("Revising Q%d (Ctrl+E to cancel)", target.ID)
		}
		b.WriteString(bold.Render(label) + "\n" + components.Card(s.answer.View(), cw, s.answer.Focused()))
	case s.ctrl.ShowNext():
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Accent).Render("Next question is ready. Press Ctrl+N to continue."))
	case s.ctrl.Complete():
		msg := "All questions answered."
		if avg := s.ctrl.AverageScore(); avg > 0 {
			msg += fmt.Sprintf(" Average score %.0f.", avg)
		}
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Success).Bold(true).Render(msg) +
			dim.Render(" Press Ctrl+F to finish or Ctrl+E to revise an answer."))
	}

	msg := s.flash
	if msg == "" && s.ctrl.Err() != nil {
		msg = s.ctrl.Err().Error()
	}
	if msg != "" {
		b.WriteString("\n" + errSt.Width(cw).Render(msg))
	}
	return b.String()
}
