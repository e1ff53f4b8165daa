// Package interview drives a single interview session: which questions are
// visible, submission and scoring of answers, retries, voice recordings,
// clip playback and persistence of progress.
//
// A Controller is owned by one event loop and is not safe for concurrent
// use. Evaluation is split into BeginSubmit, Evaluate and
// CompleteSubmit/FailSubmit so the network call can run off the loop;
// Evaluate only reads immutable state.
package interview

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mockt/mockt/internal/backend"
	"github.com/mockt/mockt/internal/store"
)

// Options configures a Controller.
type Options struct {
	SessionID string
	JobRole   string
	Questions []Question

	// ManualAdvance gates each next question behind AdvanceToNext unless
	// auto-advance is on.
	ManualAdvance bool

	// QuestionClips are prompt clip sources indexed by Question.AudioIndex.
	QuestionClips []string

	// RecordingsDir is where voice answers are written.
	RecordingsDir string

	Evaluator  Evaluator
	Identity   Identity // optional
	Progress   store.ProgressRepo
	Recordings store.RecordingRepo
	Events     store.EventRepo // optional

	// Media devices. A nil device disables the feature.
	Recorder Recorder
	Camera   Camera
	Player   Player

	Logger *zap.Logger
	Now    func() time.Time
}

// Submission is an answer whose evaluation is in flight.
type Submission struct {
	QuestionID int
	Text       string
	Retry      bool
	Request    backend.EvaluateInput

	started time.Time
}

type playback struct {
	ref ClipRef
	id  int64
}

// Controller is the session flow state machine.
type Controller struct {
	sessionID     string
	jobRole       string
	questions     []Question
	index         map[int]int
	manualAdvance bool
	clips         []string
	recordingsDir string

	evaluator  Evaluator
	identity   Identity
	progressDB store.ProgressRepo
	recordDB   store.RecordingRepo
	events     store.EventRepo

	recorder Recorder
	camera   Camera
	player   Player

	log *zap.Logger
	now func() time.Time

	progress *Progress
	input    string
	pending  *Submission
	lastErr  error

	recordings   map[int]string
	spoken       map[int]string
	recordingFor int
	capturing    bool
	playing      *playback
	closed       bool
}

// New creates a Controller with fresh progress. Call Load to restore a
// saved snapshot before the first interaction.
func New(opts Options) (*Controller, error) {
	if opts.SessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}
	if len(opts.Questions) == 0 {
		return nil, fmt.Errorf("session %s has no questions", opts.SessionID)
	}
	if opts.Evaluator == nil || opts.Progress == nil || opts.Recordings == nil {
		return nil, fmt.Errorf("evaluator, progress and recording repositories are required")
	}

	index := make(map[int]int, len(opts.Questions))
	for i, q := range opts.Questions {
		if _, dup := index[q.ID]; dup {
			return nil, fmt.Errorf("duplicate question id %d", q.ID)
		}
		index[q.ID] = i
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Controller{
		sessionID:     opts.SessionID,
		jobRole:       opts.JobRole,
		questions:     slices.Clone(opts.Questions),
		index:         index,
		manualAdvance: opts.ManualAdvance,
		clips:         opts.QuestionClips,
		recordingsDir: opts.RecordingsDir,
		evaluator:     opts.Evaluator,
		identity:      opts.Identity,
		progressDB:    opts.Progress,
		recordDB:      opts.Recordings,
		events:        opts.Events,
		recorder:      opts.Recorder,
		camera:        opts.Camera,
		player:        opts.Player,
		log:           log.Named("interview").With(zap.String("session", opts.SessionID)),
		now:           now,
		progress:      newProgress(),
		recordings:    make(map[int]string),
		spoken:        make(map[int]string),
	}, nil
}

// Load restores saved progress and recording references. A malformed
// snapshot is discarded and the session starts fresh.
func (c *Controller) Load(ctx context.Context) error {
	data, err := c.progressDB.Load(ctx, c.sessionID)
	if err != nil {
		return fmt.Errorf("load progress: %w", err)
	}
	if data != nil {
		p, err := decodeProgress(data, c.questions)
		if err != nil {
			c.log.Warn("discarding malformed progress snapshot", zap.Error(err))
			if delErr := c.progressDB.Delete(ctx, c.sessionID); delErr != nil {
				c.log.Warn("delete malformed snapshot", zap.Error(delErr))
			}
		} else {
			c.progress = p
		}
	}

	recs, err := c.recordDB.List(ctx, c.sessionID)
	if err != nil {
		return fmt.Errorf("load recordings: %w", err)
	}
	for _, r := range recs {
		if _, ok := c.index[r.QuestionID]; ok {
			c.recordings[r.QuestionID] = r.Path
		}
	}
	return nil
}

// SessionID returns the session identifier.
func (c *Controller) SessionID() string { return c.sessionID }

// JobRole returns the role the interview is for.
func (c *Controller) JobRole() string { return c.jobRole }

// Questions returns all questions in order.
func (c *Controller) Questions() []Question { return c.questions }

// Question returns the question with the given ID.
func (c *Controller) Question(id int) (Question, bool) {
	i, ok := c.index[id]
	if !ok {
		return Question{}, false
	}
	return c.questions[i], true
}

// Cursor returns the index of the current question. It equals the number
// of questions once the interview is complete.
func (c *Controller) Cursor() int { return c.progress.Cursor }

// Answered returns the answered question IDs in answer order.
func (c *Controller) Answered() []int { return slices.Clone(c.progress.Answered) }

// Answer returns the stored answer for a question.
func (c *Controller) Answer(id int) (Answer, bool) {
	a, ok := c.progress.Answers[id]
	return a, ok
}

// RetryTarget returns the question in retry mode, if any.
func (c *Controller) RetryTarget() (int, bool) {
	if c.progress.RetryTarget == nil {
		return 0, false
	}
	return *c.progress.RetryTarget, true
}

// AutoAdvance reports whether answered questions advance immediately.
func (c *Controller) AutoAdvance() bool { return c.progress.AutoAdvance }

// ShowNext reports whether the next-question gate is open.
func (c *Controller) ShowNext() bool { return c.progress.ShowNext }

// Input returns the text of the answer input.
func (c *Controller) Input() string { return c.input }

// SetInput replaces the text of the answer input.
func (c *Controller) SetInput(text string) { c.input = text }

// Pending returns the submission awaiting evaluation, or nil.
func (c *Controller) Pending() *Submission { return c.pending }

// Err returns the error of the last failed operation surfaced to the user.
func (c *Controller) Err() error { return c.lastErr }

// ClearErr dismisses the last error.
func (c *Controller) ClearErr() { c.lastErr = nil }

// Complete reports whether every question has been passed.
func (c *Controller) Complete() bool { return c.progress.Cursor >= len(c.questions) }

// Visible returns the questions shown to the user: those at or before the
// cursor plus any answered ones.
func (c *Controller) Visible() []Question {
	var out []Question
	for i, q := range c.questions {
		if i <= c.progress.Cursor || c.progress.IsAnswered(q.ID) {
			out = append(out, q)
		}
	}
	return out
}

// StateOf returns the lifecycle state of a question.
func (c *Controller) StateOf(id int) QuestionState {
	i, ok := c.index[id]
	switch {
	case !ok:
		return StateUnseen
	case c.pending != nil && c.pending.QuestionID == id:
		return StateAwaitingFeedback
	case c.progress.IsAnswered(id):
		return StateAnswered
	case i <= c.progress.Cursor:
		return StateActive
	default:
		return StateUnseen
	}
}

// Target returns the question a submission would answer: the retry target
// if one is set, otherwise the current question while it is unanswered.
func (c *Controller) Target() (Question, bool) {
	if id, ok := c.RetryTarget(); ok {
		return c.Question(id)
	}
	if c.Complete() {
		return Question{}, false
	}
	q := c.questions[c.progress.Cursor]
	if c.progress.IsAnswered(q.ID) {
		return Question{}, false
	}
	return q, true
}

// BeginSubmit validates text and marks the target question as awaiting
// feedback. Empty text changes nothing.
func (c *Controller) BeginSubmit(ctx context.Context, text string) (*Submission, error) {
	if c.closed {
		return nil, ErrClosed
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyAnswer
	}
	if c.pending != nil {
		return nil, ErrSubmissionPending
	}
	q, ok := c.Target()
	if !ok {
		return nil, ErrNoTarget
	}
	if c.identity != nil {
		if _, err := c.identity.CurrentUser(ctx); err != nil {
			c.lastErr = err
			return nil, err
		}
	}

	text = strings.TrimSpace(text)
	c.pending = &Submission{
		QuestionID: q.ID,
		Text:       text,
		Retry:      c.progress.InRetry(q.ID),
		Request: backend.EvaluateInput{
			AnswerText:   text,
			QuestionText: q.Text,
			JobRole:      c.jobRole,
		},
		started: c.now(),
	}
	c.input = text
	c.lastErr = nil
	return c.pending, nil
}

// Evaluate calls the evaluator for sub. It does not touch controller state
// and may run on another goroutine.
func (c *Controller) Evaluate(ctx context.Context, sub *Submission) (*backend.Evaluation, error) {
	return c.evaluator.EvaluateAnswer(ctx, sub.Request)
}

// CompleteSubmit stores the evaluation of sub and advances the cursor. It
// reports false when sub is stale or the controller has been closed, in
// which case the result is dropped.
func (c *Controller) CompleteSubmit(ctx context.Context, sub *Submission, eval *backend.Evaluation) bool {
	if c.closed || sub == nil || c.pending != sub {
		return false
	}
	c.pending = nil

	score := backend.ClampScore(eval.Score)
	feedback := eval.Feedback
	c.progress.Answers[sub.QuestionID] = Answer{
		Text:      sub.Text,
		Score:     &score,
		Feedback:  &feedback,
		Timestamp: c.now().UTC(),
	}
	c.progress.markAnswered(sub.QuestionID)
	if sub.Retry {
		c.progress.RetryTarget = nil
	}
	if c.index[sub.QuestionID] == c.progress.Cursor {
		c.advance()
	}
	c.input = ""

	c.persist(ctx)
	c.recordEvent(ctx, sub, &score, feedback, nil)
	c.log.Info("answer evaluated",
		zap.Int("question", sub.QuestionID),
		zap.Int("score", score),
		zap.Bool("retry", sub.Retry),
		zap.Int("cursor", c.progress.Cursor),
	)
	return true
}

// FailSubmit reverts sub after a failed evaluation. The question becomes
// editable again with the submitted text restored; nothing is recorded as
// answered.
func (c *Controller) FailSubmit(ctx context.Context, sub *Submission, err error) bool {
	if c.closed || sub == nil || c.pending != sub {
		return false
	}
	c.pending = nil
	c.input = sub.Text
	c.lastErr = err

	c.recordEvent(ctx, sub, nil, "", err)
	c.log.Warn("answer evaluation failed", zap.Int("question", sub.QuestionID), zap.Error(err))
	return true
}

// SubmitAnswer runs a whole submission against the evaluator.
func (c *Controller) SubmitAnswer(ctx context.Context, text string) error {
	sub, err := c.BeginSubmit(ctx, text)
	if err != nil {
		return err
	}
	eval, err := c.Evaluate(ctx, sub)
	if err != nil {
		c.FailSubmit(ctx, sub, err)
		return fmt.Errorf("evaluate answer: %w", err)
	}
	if !c.CompleteSubmit(ctx, sub, eval) {
		return ErrClosed
	}
	return nil
}

// advance moves past the question at the cursor after it was answered.
func (c *Controller) advance() {
	p := c.progress
	if p.Cursor >= len(c.questions)-1 {
		p.Cursor = len(c.questions)
		p.ShowNext = false
		return
	}
	if p.AutoAdvance || !c.manualAdvance {
		p.Cursor++
		p.ShowNext = false
		return
	}
	p.ShowNext = true
}

// AdvanceToNext opens the next question when the gate is showing.
func (c *Controller) AdvanceToNext(ctx context.Context) error {
	if c.closed {
		return ErrClosed
	}
	if !c.progress.ShowNext {
		return ErrNoNext
	}
	c.progress.Cursor++
	c.progress.ShowNext = false
	c.persist(ctx)
	return nil
}

// SetAutoAdvance toggles automatic advancing after an answer.
func (c *Controller) SetAutoAdvance(ctx context.Context, on bool) {
	if c.progress.AutoAdvance == on {
		return
	}
	c.progress.AutoAdvance = on
	c.persist(ctx)
}

// ToggleRetry enters retry mode for an answered question, pre-filling the
// input with its stored text, or leaves retry mode when id is already the
// target.
func (c *Controller) ToggleRetry(ctx context.Context, id int) error {
	if c.closed {
		return ErrClosed
	}
	if _, ok := c.index[id]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownQuestion, id)
	}
	if c.pending != nil {
		return ErrSubmissionPending
	}

	if c.progress.InRetry(id) {
		c.progress.RetryTarget = nil
		c.input = ""
		c.persist(ctx)
		return nil
	}

	a, ok := c.progress.Answers[id]
	if !ok || !c.progress.IsAnswered(id) {
		return fmt.Errorf("%w: %d", ErrNotAnswered, id)
	}
	c.progress.RetryTarget = &id
	c.input = StripVoiceMarker(a.Text)
	c.persist(ctx)
	return nil
}

// Recording reports whether a voice capture is running.
func (c *Controller) Recording() bool { return c.capturing }

// HasRecording reports whether a voice answer exists for a question.
func (c *Controller) HasRecording(id int) bool {
	_, ok := c.recordings[id]
	return ok
}

// RecordingPath returns the local path of a question's voice answer.
func (c *Controller) RecordingPath(id int) (string, bool) {
	p, ok := c.recordings[id]
	return p, ok
}

// ToggleRecording starts a voice capture for the target question, or
// stops the running one. Stopping stores the recording reference and
// appends the voice marker to the input. The stopped recording is
// returned; starting returns nil.
func (c *Controller) ToggleRecording(ctx context.Context) (*store.Recording, error) {
	if c.closed {
		return nil, ErrClosed
	}
	if c.recorder == nil {
		return nil, fmt.Errorf("microphone: %w", ErrMediaUnavailable)
	}

	if c.capturing {
		return c.stopRecording(ctx)
	}

	q, ok := c.Target()
	if !ok {
		return nil, ErrNoTarget
	}
	path := filepath.Join(c.recordingsDir, c.sessionID,
		fmt.Sprintf("q%d-%d.ogg", q.ID, c.now().UnixMilli()))
	if err := c.recorder.Start(ctx, path); err != nil {
		c.lastErr = err
		c.log.Warn("start recording", zap.Int("question", q.ID), zap.Error(err))
		return nil, err
	}
	c.capturing = true
	c.recordingFor = q.ID
	return nil, nil
}

func (c *Controller) stopRecording(ctx context.Context) (*store.Recording, error) {
	c.capturing = false
	path, err := c.recorder.Stop()
	if err != nil {
		c.lastErr = err
		c.log.Warn("stop recording", zap.Int("question", c.recordingFor), zap.Error(err))
		return nil, err
	}

	rec := store.Recording{
		SessionID:  c.sessionID,
		QuestionID: c.recordingFor,
		Path:       path,
		CreatedAt:  c.now().UTC(),
	}
	if err := c.recordDB.Put(ctx, rec); err != nil {
		c.lastErr = err
		return nil, fmt.Errorf("save recording: %w", err)
	}

	// A playing clip of the previous take now points at a replaced file.
	if c.playing != nil && c.playing.ref == (ClipRef{Kind: ClipAnswer, QuestionID: rec.QuestionID}) {
		c.stopPlayback()
	}
	c.recordings[rec.QuestionID] = path

	if q, ok := c.Target(); ok && q.ID == rec.QuestionID {
		c.input = WithVoiceMarker(c.input)
	}
	c.log.Info("voice answer recorded", zap.Int("question", rec.QuestionID), zap.String("path", path))
	return &rec, nil
}

// SetRecordingObjectKey records where a voice answer was uploaded.
func (c *Controller) SetRecordingObjectKey(ctx context.Context, questionID int, key string) error {
	return c.recordDB.SetObjectKey(ctx, c.sessionID, questionID, key)
}

// CameraOn reports whether the self-view is open.
func (c *Controller) CameraOn() bool { return c.camera != nil && c.camera.Active() }

// ToggleCamera opens or closes the self-view. Failures leave the camera
// off and are returned for display.
func (c *Controller) ToggleCamera(ctx context.Context) error {
	if c.closed {
		return ErrClosed
	}
	if c.camera == nil {
		return fmt.Errorf("camera: %w", ErrMediaUnavailable)
	}
	if c.camera.Active() {
		if err := c.camera.Close(); err != nil {
			c.log.Warn("close camera", zap.Error(err))
		}
		return nil
	}
	if err := c.camera.Open(ctx); err != nil {
		c.lastErr = err
		c.log.Warn("open camera", zap.Error(err))
		return err
	}
	return nil
}

// ClipSource returns the playable source of a clip, or "" if none.
func (c *Controller) ClipSource(ref ClipRef) string {
	q, ok := c.Question(ref.QuestionID)
	if !ok {
		return ""
	}
	switch ref.Kind {
	case ClipAnswer:
		return c.recordings[q.ID]
	default:
		if q.AudioIndex >= 0 && q.AudioIndex < len(c.clips) && c.clips[q.AudioIndex] != "" {
			return c.clips[q.AudioIndex]
		}
		return c.spoken[q.ID]
	}
}

// SetSpokenClip registers a synthesized prompt clip for questionID. It is
// used only when no pre-recorded clip covers the question.
func (c *Controller) SetSpokenClip(questionID int, src string) {
	if _, ok := c.index[questionID]; !ok || src == "" {
		return
	}
	c.spoken[questionID] = src
}

// Playing reports whether ref is the clip currently playing.
func (c *Controller) Playing(ref ClipRef) bool {
	return c.playing != nil && c.playing.ref == ref
}

// ToggleClip stops ref if it is playing; otherwise it stops whatever is
// playing and starts ref. At most one clip plays at a time.
func (c *Controller) ToggleClip(ctx context.Context, ref ClipRef) error {
	if c.closed {
		return ErrClosed
	}
	if c.player == nil {
		return fmt.Errorf("speaker: %w", ErrMediaUnavailable)
	}

	if c.Playing(ref) {
		c.stopPlayback()
		return nil
	}

	src := c.ClipSource(ref)
	if src == "" {
		return fmt.Errorf("%s clip for question %d: %w", ref.Kind, ref.QuestionID, ErrNoClip)
	}
	c.stopPlayback()
	id, err := c.player.Play(ctx, src)
	if err != nil {
		c.lastErr = err
		c.log.Warn("play clip", zap.Stringer("kind", ref.Kind), zap.Int("question", ref.QuestionID), zap.Error(err))
		return err
	}
	c.playing = &playback{ref: ref, id: id}
	return nil
}

// ClipEnded clears the playing flag when playbackID belongs to the current
// playback. Events for earlier playbacks are ignored.
func (c *Controller) ClipEnded(playbackID int64) {
	if c.playing != nil && c.playing.id == playbackID {
		c.playing = nil
	}
}

func (c *Controller) stopPlayback() {
	if c.playing == nil {
		return
	}
	if err := c.player.Stop(c.playing.id); err != nil {
		c.log.Debug("stop clip", zap.Error(err))
	}
	c.playing = nil
}

// Finish ends a completed interview: it releases media and clears the
// saved progress and recording references.
func (c *Controller) Finish(ctx context.Context) error {
	if !c.Complete() {
		return ErrNotComplete
	}
	c.Close()

	var errs []error
	if err := c.progressDB.Delete(ctx, c.sessionID); err != nil {
		errs = append(errs, err)
	}
	if err := c.recordDB.DeleteSession(ctx, c.sessionID); err != nil {
		errs = append(errs, err)
	}
	clear(c.recordings)
	c.log.Info("interview finished", zap.Float64("average_score", c.AverageScore()))
	return errors.Join(errs...)
}

// Close releases media devices. Results of in-flight evaluations arriving
// afterwards are dropped. Close is idempotent.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	c.closed = true
	if c.capturing {
		c.capturing = false
		if _, err := c.recorder.Stop(); err != nil {
			c.log.Debug("stop recording on close", zap.Error(err))
		}
	}
	if c.camera != nil && c.camera.Active() {
		if err := c.camera.Close(); err != nil {
			c.log.Debug("close camera on close", zap.Error(err))
		}
	}
	if c.player != nil {
		c.player.StopAll()
	}
	c.playing = nil
	c.pending = nil
}

// Closed reports whether Close has been called.
func (c *Controller) Closed() bool { return c.closed }

// AverageScore returns the mean score of the answered questions.
func (c *Controller) AverageScore() float64 {
	var sum, n int
	for _, a := range c.progress.Answers {
		if a.Score != nil {
			sum += *a.Score
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func (c *Controller) persist(ctx context.Context) {
	data, err := c.progress.marshal()
	if err != nil {
		c.log.Error("marshal progress", zap.Error(err))
		return
	}
	if err := c.progressDB.Save(ctx, c.sessionID, data); err != nil {
		c.log.Error("save progress", zap.Error(err))
	}
}

func (c *Controller) recordEvent(ctx context.Context, sub *Submission, score *int, feedback string, evalErr error) {
	if c.events == nil {
		return
	}
	q, _ := c.Question(sub.QuestionID)
	data := store.AnswerEventData{
		SessionID:    c.sessionID,
		QuestionID:   sub.QuestionID,
		QuestionText: q.Text,
		AnswerText:   sub.Text,
		Score:        score,
		Feedback:     feedback,
		Retry:        sub.Retry,
		Success:      evalErr == nil,
		LatencyMs:    c.now().Sub(sub.started).Milliseconds(),
	}
	if evalErr != nil {
		data.ErrorMessage = evalErr.Error()
	}
	if err := c.events.AppendAnswerEvent(ctx, data); err != nil {
		c.log.Warn("record answer event", zap.Error(err))
	}
}
