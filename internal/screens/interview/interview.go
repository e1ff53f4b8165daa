// Package interview is the answering screen. It renders the state of a
// flow controller and turns key presses into controller operations.
package interview

import (
	"context"
	"errors"
	"fmt"
	"time"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textarea"
	tea "charm.land/bubbletea/v2"
	"go.uber.org/zap"

	"github.com/mockt/mockt/internal/auth"
	"github.com/mockt/mockt/internal/coach"
	flow "github.com/mockt/mockt/internal/interview"
	"github.com/mockt/mockt/internal/report"
	"github.com/mockt/mockt/internal/router"
	"github.com/mockt/mockt/internal/screen"
	"github.com/mockt/mockt/internal/screens/summary"
	"github.com/mockt/mockt/internal/store"
	"github.com/mockt/mockt/internal/ui/layout"
)

// InterviewScreen runs one interview session.
type InterviewScreen struct {
	svc       *screen.Services
	sessionID string
	rec       *store.SessionRecord
	ctrl      *flow.Controller

	resolved bool
	ready    bool
	fatal    error

	answer   textarea.Model
	spinner  spinner.Model
	selected int
	uploads  int
	speaking bool
	flash    string
}

var _ screen.Screen = (*InterviewScreen)(nil)
var _ screen.KeyHintProvider = (*InterviewScreen)(nil)
var _ screen.Closer = (*InterviewScreen)(nil)

// New creates the screen for sessionID. rec is the local mirror of the
// session when the caller already has it; otherwise it is read from the
// store or fetched from the backend.
func New(svc *screen.Services, sessionID string, rec *store.SessionRecord) *InterviewScreen {
	ta := textarea.New()
	ta.Placeholder = "Type your answer, Enter to submit"
	ta.ShowLineNumbers = false
	ta.CharLimit = 4000
	ta.SetHeight(4)
	ta.KeyMap.InsertNewline.SetEnabled(false)

	return &InterviewScreen{
		svc:       svc,
		sessionID: sessionID,
		rec:       rec,
		answer:    ta,
		spinner:   spinner.New(spinner.WithSpinner(spinner.MiniDot)),
	}
}

func (s *InterviewScreen) Init() tea.Cmd {
	return tea.Batch(s.svc.ResolveUser(), s.spinner.Tick)
}

func (s *InterviewScreen) Title() string {
	return "Interview"
}

// Controller returns the flow controller once the session has loaded.
func (s *InterviewScreen) Controller() *flow.Controller {
	return s.ctrl
}

func (s *InterviewScreen) KeyHints() []layout.KeyHint {
	if !s.ready {
		return []layout.KeyHint{{Key: "Esc", Description: "Back"}}
	}
	var hints []layout.KeyHint
	if _, ok := s.ctrl.Target(); ok && s.ctrl.Pending() == nil {
		hints = append(hints, layout.KeyHint{Key: "Enter", Description: "Submit"})
	}
	if s.ctrl.ShowNext() {
		hints = append(hints, layout.KeyHint{Key: "Ctrl+N", Description: "Next"})
	}
	if s.ctrl.Complete() && s.ctrl.Pending() == nil {
		hints = append(hints, layout.KeyHint{Key: "Ctrl+F", Description: "Finish"})
	}
	auto := "Auto-advance on"
	if s.ctrl.AutoAdvance() {
		auto = "Auto-advance off"
	}
	hints = append(hints,
		layout.KeyHint{Key: "Tab", Description: "Select"},
		layout.KeyHint{Key: "Ctrl+E", Description: "Retry"},
		layout.KeyHint{Key: "Ctrl+G", Description: auto},
	)
	if s.svc.Recorder != nil {
		label := "Record"
		if s.ctrl.Recording() {
			label = "Stop"
		}
		hints = append(hints, layout.KeyHint{Key: "Ctrl+R", Description: label})
	}
	if s.svc.Camera != nil {
		label := "Camera"
		if s.ctrl.CameraOn() {
			label = "Hide camera"
		}
		hints = append(hints, layout.KeyHint{Key: "Ctrl+O", Description: label})
	}
	if s.svc.Player != nil {
		hints = append(hints,
			layout.KeyHint{Key: "Ctrl+P", Description: "Prompt"},
			layout.KeyHint{Key: "Ctrl+L", Description: "Playback"},
		)
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Back"})
}

// Close releases the controller's media devices.
func (s *InterviewScreen) Close() {
	if s.ctrl != nil {
		s.ctrl.Close()
	}
}

func (s *InterviewScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case screen.AuthChangedMsg:
		if s.resolved {
			return s, nil
		}
		s.resolved = true
		if s.svc.Identity != nil && msg.User == nil {
			s.fatal = fmt.Errorf("sign in to continue: %w", auth.ErrNotSignedIn)
			if msg.Err != nil && !errors.Is(msg.Err, auth.ErrNotSignedIn) {
				s.fatal = msg.Err
			}
			return s, nil
		}
		if s.rec != nil {
			return s, s.start(s.rec)
		}
		return s, s.loadSession()

	case sessionLoadedMsg:
		if msg.Err != nil {
			s.fatal = msg.Err
			return s, nil
		}
		s.rec = msg.Record
		return s, s.start(msg.Record)

	case progressLoadedMsg:
		if msg.Err != nil {
			s.svc.Log().Warn("load progress", zap.String("session", s.sessionID), zap.Error(msg.Err))
		}
		s.ready = true
		s.syncAnswer()
		s.follow()
		return s, s.focusAnswer()

	case evaluatedMsg:
		if s.ctrl == nil {
			return s, nil
		}
		ctx := context.Background()
		if msg.Err != nil {
			if s.ctrl.FailSubmit(ctx, msg.Sub, msg.Err) {
				s.flash = fmt.Sprintf("Evaluation failed: %v. Edit and press Enter to try again.", msg.Err)
			}
		} else if s.ctrl.CompleteSubmit(ctx, msg.Sub, msg.Eval) {
			s.flash = ""
		}
		s.syncAnswer()
		s.follow()
		return s, s.focusAnswer()

	case uploadedMsg:
		s.uploads--
		if msg.Err != nil {
			s.svc.Log().Warn("upload recording", zap.Int("question", msg.QuestionID), zap.Error(msg.Err))
			s.flash = fmt.Sprintf("Upload of recording %d failed: %v", msg.QuestionID, msg.Err)
			return s, nil
		}
		if s.ctrl != nil {
			if err := s.ctrl.SetRecordingObjectKey(context.Background(), msg.QuestionID, msg.Key); err != nil {
				s.svc.Log().Warn("save object key", zap.Int("question", msg.QuestionID), zap.Error(err))
			}
		}
		return s, nil

	case probedMsg:
		if msg.Err != nil {
			s.svc.Log().Debug("probe recording", zap.Int("question", msg.QuestionID), zap.Error(msg.Err))
			return s, nil
		}
		if s.flash == "" {
			s.flash = fmt.Sprintf("Recorded %s for question %d.", clockLength(msg.Length), msg.QuestionID)
		}
		return s, nil

	case spokenMsg:
		s.speaking = false
		if msg.Err != nil {
			s.svc.Log().Warn("synthesize question", zap.Int("question", msg.QuestionID), zap.Error(msg.Err))
			s.flash = fmt.Sprintf("Could not read question %d aloud: %v", msg.QuestionID, msg.Err)
			return s, nil
		}
		if s.ctrl != nil {
			s.ctrl.SetSpokenClip(msg.QuestionID, msg.URL)
			s.report(s.ctrl.ToggleClip(context.Background(), flow.ClipRef{Kind: flow.ClipQuestion, QuestionID: msg.QuestionID}))
		}
		return s, nil

	case screen.ClipEndedMsg:
		if s.ctrl != nil {
			s.ctrl.ClipEnded(msg.PlaybackID)
		}
		return s, nil

	case spinner.TickMsg:
		if s.busy() {
			var cmd tea.Cmd
			s.spinner, cmd = s.spinner.Update(msg)
			return s, cmd
		}
		return s, nil

	case tea.KeyMsg:
		if !s.ready {
			return s, nil
		}
		return s.handleKey(msg)
	}

	if s.ready {
		var cmd tea.Cmd
		s.answer, cmd = s.answer.Update(msg)
		return s, cmd
	}
	return s, nil
}

// busy reports whether the spinner is shown.
func (s *InterviewScreen) busy() bool {
	if s.fatal != nil {
		return false
	}
	return !s.ready || s.ctrl.Pending() != nil
}

func (s *InterviewScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	ctx := context.Background()
	switch msg.String() {
	case "enter":
		return s, s.submit()
	case "ctrl+n":
		s.report(s.ctrl.AdvanceToNext(ctx))
		s.follow()
		return s, s.focusAnswer()
	case "ctrl+g":
		s.ctrl.SetAutoAdvance(ctx, !s.ctrl.AutoAdvance())
		s.follow()
		return s, s.focusAnswer()
	case "tab":
		s.moveSelection(1)
		return s, nil
	case "shift+tab":
		s.moveSelection(-1)
		return s, nil
	case "ctrl+e":
		s.ctrl.SetInput(s.answer.Value())
		s.report(s.ctrl.ToggleRetry(ctx, s.selected))
		s.syncAnswer()
		s.follow()
		return s, s.focusAnswer()
	case "ctrl+r":
		return s, s.toggleRecording()
	case "ctrl+o":
		s.report(s.ctrl.ToggleCamera(ctx))
		return s, nil
	case "ctrl+p":
		return s, s.playQuestion()
	case "ctrl+l":
		s.report(s.ctrl.ToggleClip(ctx, flow.ClipRef{Kind: flow.ClipAnswer, QuestionID: s.selected}))
		return s, nil
	case "ctrl+f":
		return s, s.finish()
	}

	if s.ctrl.Pending() != nil {
		return s, nil
	}
	if _, ok := s.ctrl.Target(); !ok {
		return s, nil
	}
	s.flash = ""
	s.ctrl.ClearErr()
	var cmd tea.Cmd
	s.answer, cmd = s.answer.Update(msg)
	s.ctrl.SetInput(s.answer.Value())
	return s, cmd
}

func (s *InterviewScreen) report(err error) {
	if err != nil {
		s.flash = err.Error()
	}
}

// start builds the controller for rec and restores saved progress.
func (s *InterviewScreen) start(rec *store.SessionRecord) tea.Cmd {
	svc := s.svc
	ctrl, err := flow.New(flow.Options{
		SessionID:     rec.SessionID,
		JobRole:       rec.JobRole,
		Questions:     coach.FromRecord(rec).Questions,
		ManualAdvance: svc.ManualAdvance,
		QuestionClips: svc.QuestionClips,
		RecordingsDir: svc.RecordingsDir,
		Evaluator:     svc.Backend,
		Identity:      svc.Identity,
		Progress:      svc.Progress,
		Recordings:    svc.Recordings,
		Events:        svc.Events,
		Recorder:      svc.Recorder,
		Camera:        svc.Camera,
		Player:        svc.Player,
		Logger:        svc.Logger,
		Now:           svc.Now,
	})
	if err != nil {
		s.fatal = err
		return nil
	}
	s.ctrl = ctrl
	return func() tea.Msg {
		return progressLoadedMsg{Err: ctrl.Load(context.Background())}
	}
}

// loadSession reads the session mirror, falling back to the backend and
// saving what it returns.
func (s *InterviewScreen) loadSession() tea.Cmd {
	svc, id := s.svc, s.sessionID
	return func() tea.Msg {
		ctx := context.Background()
		rec, err := svc.Sessions.Get(ctx, id)
		if err == nil {
			return sessionLoadedMsg{Record: rec}
		}
		if !errors.Is(err, store.ErrNotFound) {
			return sessionLoadedMsg{Err: fmt.Errorf("read session %s: %w", id, err)}
		}

		sess, err := svc.Backend.FetchQuestions(ctx, id)
		if err != nil {
			return sessionLoadedMsg{Err: fmt.Errorf("fetch session %s: %w", id, err)}
		}
		rec = &store.SessionRecord{
			SessionID:     id,
			JobRole:       sess.JobRole,
			QuestionCount: len(sess.Questions),
			Questions:     coach.ToStored(sess.Questions),
			CreatedAt:     svc.Clock().UTC(),
		}
		if err := svc.Sessions.Save(ctx, *rec); err != nil {
			svc.Log().Warn("mirror session", zap.String("session", id), zap.Error(err))
		}
		return sessionLoadedMsg{Record: rec}
	}
}

func (s *InterviewScreen) submit() tea.Cmd {
	sub, err := s.ctrl.BeginSubmit(context.Background(), s.answer.Value())
	if errors.Is(err, flow.ErrEmptyAnswer) {
		return nil
	}
	if err != nil {
		s.report(err)
		return nil
	}
	s.flash = ""
	s.answer.Blur()

	ctrl := s.ctrl
	return tea.Batch(func() tea.Msg {
		eval, err := ctrl.Evaluate(context.Background(), sub)
		return evaluatedMsg{Sub: sub, Eval: eval, Err: err}
	}, s.spinner.Tick)
}

// playQuestion toggles the selected question's prompt clip. Without a
// clip it asks Speech for one first.
func (s *InterviewScreen) playQuestion() tea.Cmd {
	ref := flow.ClipRef{Kind: flow.ClipQuestion, QuestionID: s.selected}
	if s.ctrl.ClipSource(ref) != "" || s.svc.Speech == nil || s.svc.Player == nil {
		s.report(s.ctrl.ToggleClip(context.Background(), ref))
		return nil
	}
	q, ok := s.ctrl.Question(s.selected)
	if !ok || s.speaking {
		return nil
	}

	s.speaking = true
	speech, id, text := s.svc.Speech, q.ID, q.Text
	return func() tea.Msg {
		url, err := speech.GenerateAudio(context.Background(), text)
		return spokenMsg{QuestionID: id, URL: url, Err: err}
	}
}

func (s *InterviewScreen) toggleRecording() tea.Cmd {
	s.ctrl.SetInput(s.answer.Value())
	rec, err := s.ctrl.ToggleRecording(context.Background())
	if err != nil {
		s.report(err)
		return nil
	}
	s.syncAnswer()
	if rec == nil {
		return nil
	}

	r := *rec
	var cmds []tea.Cmd
	if probe := s.svc.Probe; probe != nil {
		cmds = append(cmds, func() tea.Msg {
			d, err := probe(r.Path)
			return probedMsg{QuestionID: r.QuestionID, Length: d, Err: err}
		})
	}
	if up := s.svc.Uploader; up != nil {
		s.uploads++
		cmds = append(cmds, func() tea.Msg {
			key, err := up.Upload(context.Background(), r)
			return uploadedMsg{QuestionID: r.QuestionID, Key: key, Err: err}
		})
	}
	return tea.Batch(cmds...)
}

// clockLength formats d as m:ss.
func clockLength(d time.Duration) string {
	secs := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func (s *InterviewScreen) finish() tea.Cmd {
	if s.ctrl.Pending() != nil {
		s.flash = "Wait for the current evaluation to finish."
		return nil
	}
	if !s.ctrl.Complete() {
		s.flash = "Answer every question before finishing."
		return nil
	}

	ctx := context.Background()
	log := s.svc.Log().With(zap.String("session", s.sessionID))
	if err := s.ctrl.Finish(ctx); err != nil {
		log.Warn("finish interview", zap.Error(err))
	}
	if cur, err := s.svc.Sessions.Current(ctx, s.svc.Clock()); err == nil && cur == s.sessionID {
		if err := s.svc.Sessions.ClearCurrent(ctx); err != nil {
			log.Warn("clear current session", zap.Error(err))
		}
	}

	var events []store.AnswerEvent
	if s.svc.Events != nil {
		var err error
		if events, err = s.svc.Events.AnswerEvents(ctx, s.sessionID); err != nil {
			log.Warn("read answer events", zap.Error(err))
		}
	}
	rep := report.Build(s.rec, events)
	svc := s.svc
	return func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: summary.New(svc, rep)}
	}
}

// syncAnswer copies the controller's input into the text box.
func (s *InterviewScreen) syncAnswer() {
	if s.answer.Value() != s.ctrl.Input() {
		s.answer.SetValue(s.ctrl.Input())
	}
}

// follow selects the question being answered, or keeps the selection on a
// visible question when nothing is open.
func (s *InterviewScreen) follow() {
	if q, ok := s.ctrl.Target(); ok {
		s.selected = q.ID
		return
	}
	vis := s.ctrl.Visible()
	for _, q := range vis {
		if q.ID == s.selected {
			return
		}
	}
	if len(vis) > 0 {
		s.selected = vis[len(vis)-1].ID
	}
}

func (s *InterviewScreen) focusAnswer() tea.Cmd {
	if _, ok := s.ctrl.Target(); ok && s.ctrl.Pending() == nil && !s.ctrl.Closed() {
		return s.answer.Focus()
	}
	s.answer.Blur()
	return nil
}

func (s *InterviewScreen) moveSelection(delta int) {
	vis := s.ctrl.Visible()
	if len(vis) == 0 {
		return
	}
	i := 0
	for j, q := range vis {
		if q.ID == s.selected {
			i = j
			break
		}
	}
	i = (i + delta + len(vis)) % len(vis)
	s.selected = vis[i].ID
}
