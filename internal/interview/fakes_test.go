package interview

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mockt/mockt/internal/auth"
	"github.com/mockt/mockt/internal/backend"
	"github.com/mockt/mockt/internal/store"
)

type evalResult struct {
	eval *backend.Evaluation
	err  error
}

type fakeEvaluator struct {
	results []evalResult
	calls   []backend.EvaluateInput
}

func (f *fakeEvaluator) EvaluateAnswer(_ context.Context, in backend.EvaluateInput) (*backend.Evaluation, error) {
	f.calls = append(f.calls, in)
	if len(f.results) == 0 {
		return nil, errors.New("no canned evaluation")
	}
	r := f.results[0]
	f.results = f.results[1:]
	return r.eval, r.err
}

func (f *fakeEvaluator) score(score int, feedback string) {
	f.results = append(f.results, evalResult{eval: &backend.Evaluation{Score: score, Feedback: feedback}})
}

func (f *fakeEvaluator) fail(err error) {
	f.results = append(f.results, evalResult{err: err})
}

type fakeIdentity struct{ err error }

func (f fakeIdentity) CurrentUser(context.Context) (*auth.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &auth.User{UID: "u1", Email: "ada@example.com"}, nil
}

type fakeRecorder struct {
	startErr error
	stopErr  error
	active   bool
	path     string
	starts   int
}

func (r *fakeRecorder) Start(_ context.Context, path string) error {
	if r.startErr != nil {
		return r.startErr
	}
	r.active = true
	r.path = path
	r.starts++
	return nil
}

func (r *fakeRecorder) Stop() (string, error) {
	r.active = false
	if r.stopErr != nil {
		return "", r.stopErr
	}
	return r.path, nil
}

func (r *fakeRecorder) Recording() bool { return r.active }

type fakeCamera struct {
	openErr error
	active  bool
}

func (c *fakeCamera) Open(context.Context) error {
	if c.openErr != nil {
		return c.openErr
	}
	c.active = true
	return nil
}

func (c *fakeCamera) Close() error {
	c.active = false
	return nil
}

func (c *fakeCamera) Active() bool { return c.active }

type fakePlayer struct {
	next    int64
	playing map[int64]string
	started []string
	stopped []int64
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{playing: make(map[int64]string)}
}

func (p *fakePlayer) Play(_ context.Context, src string) (int64, error) {
	p.next++
	p.playing[p.next] = src
	p.started = append(p.started, src)
	return p.next, nil
}

func (p *fakePlayer) Stop(id int64) error {
	delete(p.playing, id)
	p.stopped = append(p.stopped, id)
	return nil
}

func (p *fakePlayer) StopAll() {
	for id := range p.playing {
		p.Stop(id)
	}
}

var threeQuestions = []Question{
	{ID: 1, Text: "Tell me about yourself.", AudioIndex: 0},
	{ID: 2, Text: "Describe a conflict you resolved.", AudioIndex: 1},
	{ID: 3, Text: "Why this company?", AudioIndex: 2},
}

type harness struct {
	c        *Controller
	store    *store.Store
	eval     *fakeEvaluator
	recorder *fakeRecorder
	camera   *fakeCamera
	player   *fakePlayer
	opts     Options
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "interview.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func newHarness(t *testing.T, mutate ...func(*Options)) *harness {
	t.Helper()
	st := openStore(t)
	h := &harness{
		store:    st,
		eval:     &fakeEvaluator{},
		recorder: &fakeRecorder{},
		camera:   &fakeCamera{},
		player:   newFakePlayer(),
	}
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	h.opts = Options{
		SessionID:     "sess-1",
		JobRole:       "Backend Engineer",
		Questions:     threeQuestions,
		QuestionClips: []string{"q0.mp3", "q1.mp3", "q2.mp3"},
		RecordingsDir: t.TempDir(),
		Evaluator:     h.eval,
		Identity:      fakeIdentity{},
		Progress:      st.ProgressRepo(),
		Recordings:    st.RecordingRepo(),
		Events:        st.EventRepo(),
		Recorder:      h.recorder,
		Camera:        h.camera,
		Player:        h.player,
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
	}
	for _, m := range mutate {
		m(&h.opts)
	}
	c, err := New(h.opts)
	require.NoError(t, err)
	require.NoError(t, c.Load(context.Background()))
	h.c = c
	return h
}

// reopen builds a second controller over the same store, as after a reload.
func (h *harness) reopen(t *testing.T) *Controller {
	t.Helper()
	c, err := New(h.opts)
	require.NoError(t, err)
	require.NoError(t, c.Load(context.Background()))
	return c
}

func manualGate(o *Options) { o.ManualAdvance = true }
