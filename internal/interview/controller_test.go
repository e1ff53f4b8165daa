package interview

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockt/mockt/internal/auth"
	"github.com/mockt/mockt/internal/backend"
)

var ctx = context.Background()

func TestNewValidatesOptions(t *testing.T) {
	st := openStore(t)
	base := Options{
		SessionID:  "s",
		Questions:  threeQuestions,
		Evaluator:  &fakeEvaluator{},
		Progress:   st.ProgressRepo(),
		Recordings: st.RecordingRepo(),
	}

	_, err := New(base)
	require.NoError(t, err)

	noID := base
	noID.SessionID = ""
	_, err = New(noID)
	assert.Error(t, err)

	noQuestions := base
	noQuestions.Questions = nil
	_, err = New(noQuestions)
	assert.Error(t, err)

	dup := base
	dup.Questions = []Question{{ID: 1, Text: "a"}, {ID: 1, Text: "b"}}
	_, err = New(dup)
	assert.ErrorContains(t, err, "duplicate question id 1")

	noEval := base
	noEval.Evaluator = nil
	_, err = New(noEval)
	assert.Error(t, err)
}

func TestInitialState(t *testing.T) {
	h := newHarness(t)
	c := h.c

	assert.Equal(t, 0, c.Cursor())
	assert.Equal(t, StateActive, c.StateOf(1))
	assert.Equal(t, StateUnseen, c.StateOf(2))
	assert.Equal(t, StateUnseen, c.StateOf(99))
	assert.Equal(t, []Question{threeQuestions[0]}, c.Visible())
	assert.False(t, c.Complete())

	q, ok := c.Target()
	require.True(t, ok)
	assert.Equal(t, 1, q.ID)
}

func TestSubmitAnswer_AutoAdvanceWithoutGate(t *testing.T) {
	h := newHarness(t)
	h.eval.score(85, "Clear and concise.")

	require.NoError(t, h.c.SubmitAnswer(ctx, "  I build Go services.  "))

	assert.Equal(t, 1, h.c.Cursor())
	assert.False(t, h.c.ShowNext())
	assert.Equal(t, []int{1}, h.c.Answered())
	assert.Equal(t, StateAnswered, h.c.StateOf(1))
	assert.Equal(t, StateActive, h.c.StateOf(2))
	assert.Empty(t, h.c.Input())

	a, ok := h.c.Answer(1)
	require.True(t, ok)
	assert.Equal(t, "I build Go services.", a.Text)
	require.NotNil(t, a.Score)
	assert.Equal(t, 85, *a.Score)
	require.NotNil(t, a.Feedback)
	assert.Equal(t, "Clear and concise.", *a.Feedback)
	assert.False(t, a.Timestamp.IsZero())

	require.Len(t, h.eval.calls, 1)
	assert.Equal(t, backend.EvaluateInput{
		AnswerText:   "I build Go services.",
		QuestionText: "Tell me about yourself.",
		JobRole:      "Backend Engineer",
	}, h.eval.calls[0])
}

func TestScenario_ManualGateHoldsCursor(t *testing.T) {
	h := newHarness(t, manualGate)
	h.eval.score(70, "ok")

	require.NoError(t, h.c.SubmitAnswer(ctx, "answer one"))

	assert.Equal(t, 0, h.c.Cursor())
	assert.True(t, h.c.ShowNext())
	assert.Equal(t, []int{1}, h.c.Answered())
	_, ok := h.c.Target()
	assert.False(t, ok, "current question is answered; no target until advancing")
	assert.ErrorIs(t, h.c.SubmitAnswer(ctx, "again"), ErrNoTarget)

	require.NoError(t, h.c.AdvanceToNext(ctx))
	assert.Equal(t, 1, h.c.Cursor())
	assert.False(t, h.c.ShowNext())
	assert.ErrorIs(t, h.c.AdvanceToNext(ctx), ErrNoNext)
}

func TestManualGateBypassedByAutoAdvance(t *testing.T) {
	h := newHarness(t, manualGate)
	h.c.SetAutoAdvance(ctx, true)
	h.eval.score(70, "ok")

	require.NoError(t, h.c.SubmitAnswer(ctx, "answer one"))
	assert.Equal(t, 1, h.c.Cursor())
	assert.False(t, h.c.ShowNext())
}

func TestLastAnswerCompletesInterview(t *testing.T) {
	h := newHarness(t, manualGate)
	for i := 0; i < 3; i++ {
		h.eval.score(60+i*10, "fb")
		require.NoError(t, h.c.SubmitAnswer(ctx, "answer"))
		if h.c.ShowNext() {
			require.NoError(t, h.c.AdvanceToNext(ctx))
		}
	}

	assert.True(t, h.c.Complete())
	assert.Equal(t, 3, h.c.Cursor())
	assert.False(t, h.c.ShowNext())
	assert.Len(t, h.c.Visible(), 3)
	assert.InDelta(t, 70.0, h.c.AverageScore(), 0.001)
	_, ok := h.c.Target()
	assert.False(t, ok)
}

func TestEmptySubmissionChangesNothing(t *testing.T) {
	h := newHarness(t)
	h.c.SetInput("   ")

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := h.c.BeginSubmit(ctx, text)
		assert.ErrorIs(t, err, ErrEmptyAnswer)
	}

	assert.Nil(t, h.c.Pending())
	assert.Equal(t, 0, h.c.Cursor())
	assert.Empty(t, h.c.Answered())
	assert.Equal(t, StateActive, h.c.StateOf(1))
	assert.Equal(t, "   ", h.c.Input())
	assert.Empty(t, h.eval.calls)
	assert.NoError(t, h.c.Err())

	data, err := h.store.ProgressRepo().Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, data, "no snapshot is written for a rejected submission")
}

func TestScenario_EvaluationFailureKeepsQuestionEditable(t *testing.T) {
	h := newHarness(t)
	boom := &backend.APIError{StatusCode: 502, Detail: "upstream down"}
	h.eval.fail(boom)
	h.c.SetInput("my detailed answer")

	err := h.c.SubmitAnswer(ctx, h.c.Input())
	require.ErrorIs(t, err, boom)

	assert.Equal(t, StateActive, h.c.StateOf(1))
	assert.Equal(t, "my detailed answer", h.c.Input())
	assert.Empty(t, h.c.Answered())
	assert.Equal(t, 0, h.c.Cursor())
	_, ok := h.c.Answer(1)
	assert.False(t, ok)
	assert.ErrorIs(t, h.c.Err(), boom)

	events, err := h.store.EventRepo().AnswerEvents(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].Success)
	assert.Contains(t, events[0].ErrorMessage, "upstream down")

	// The same text can be resubmitted.
	h.eval.score(90, "great")
	require.NoError(t, h.c.SubmitAnswer(ctx, h.c.Input()))
	assert.Equal(t, []int{1}, h.c.Answered())
}

func TestSubmitRequiresSignedInUser(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.Identity = fakeIdentity{err: auth.ErrNotSignedIn} })

	_, err := h.c.BeginSubmit(ctx, "answer")
	assert.ErrorIs(t, err, auth.ErrNotSignedIn)
	assert.Nil(t, h.c.Pending())
	assert.Equal(t, StateActive, h.c.StateOf(1))
	assert.Empty(t, h.eval.calls)
}

func TestEventDrivenSubmission(t *testing.T) {
	h := newHarness(t)

	sub, err := h.c.BeginSubmit(ctx, "first")
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingFeedback, h.c.StateOf(1))
	assert.Same(t, sub, h.c.Pending())

	_, err = h.c.BeginSubmit(ctx, "second")
	assert.ErrorIs(t, err, ErrSubmissionPending)
	assert.ErrorIs(t, h.c.ToggleRetry(ctx, 1), ErrSubmissionPending)

	// A foreign submission never applies.
	assert.False(t, h.c.CompleteSubmit(ctx, &Submission{QuestionID: 1}, &backend.Evaluation{Score: 1}))

	assert.True(t, h.c.CompleteSubmit(ctx, sub, &backend.Evaluation{Score: 150, Feedback: "wow"}))
	a, _ := h.c.Answer(1)
	assert.Equal(t, 100, *a.Score, "scores are clamped")

	// Applying the same result twice is a no-op.
	assert.False(t, h.c.CompleteSubmit(ctx, sub, &backend.Evaluation{Score: 10}))
	a, _ = h.c.Answer(1)
	assert.Equal(t, 100, *a.Score)
}

func TestResultAfterCloseIsDropped(t *testing.T) {
	h := newHarness(t)
	sub, err := h.c.BeginSubmit(ctx, "answer")
	require.NoError(t, err)

	h.c.Close()
	assert.False(t, h.c.CompleteSubmit(ctx, sub, &backend.Evaluation{Score: 50}))
	assert.False(t, h.c.FailSubmit(ctx, sub, errors.New("late")))
	assert.Empty(t, h.c.Answered())

	_, err = h.c.BeginSubmit(ctx, "again")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRetryReplacesAnswer(t *testing.T) {
	h := newHarness(t, manualGate)
	h.eval.score(40, "too vague")
	require.NoError(t, h.c.SubmitAnswer(ctx, "vague answer"))
	require.NoError(t, h.c.AdvanceToNext(ctx))

	require.NoError(t, h.c.ToggleRetry(ctx, 1))
	id, ok := h.c.RetryTarget()
	require.True(t, ok)
	assert.Equal(t, 1, id)
	assert.Equal(t, "vague answer", h.c.Input())
	q, _ := h.c.Target()
	assert.Equal(t, 1, q.ID)

	h.eval.score(88, "much better")
	require.NoError(t, h.c.SubmitAnswer(ctx, "specific answer"))

	a, _ := h.c.Answer(1)
	assert.Equal(t, "specific answer", a.Text)
	assert.Equal(t, 88, *a.Score)
	assert.Equal(t, "much better", *a.Feedback)
	_, ok = h.c.RetryTarget()
	assert.False(t, ok)
	assert.Equal(t, []int{1}, h.c.Answered())
	assert.Equal(t, 1, h.c.Cursor(), "retrying an earlier question does not move the cursor")
	assert.True(t, h.eval.calls[1].AnswerText == "specific answer")

	events, err := h.store.EventRepo().AnswerEvents(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[1].Retry)
}

func TestScenario_RetryToggleOffRestoresEmptyInput(t *testing.T) {
	h := newHarness(t)
	h.eval.score(55, "meh")
	require.NoError(t, h.c.SubmitAnswer(ctx, "first take"))
	before, _ := h.c.Answer(1)

	require.NoError(t, h.c.ToggleRetry(ctx, 1))
	h.c.SetInput("first take, edited")
	require.NoError(t, h.c.ToggleRetry(ctx, 1))

	_, ok := h.c.RetryTarget()
	assert.False(t, ok)
	assert.Empty(t, h.c.Input())
	after, _ := h.c.Answer(1)
	assert.Equal(t, before, after)
}

func TestFailedRetryKeepsPriorAnswer(t *testing.T) {
	h := newHarness(t)
	h.eval.score(55, "meh")
	require.NoError(t, h.c.SubmitAnswer(ctx, "first take"))
	require.NoError(t, h.c.ToggleRetry(ctx, 1))

	h.eval.fail(errors.New("timeout"))
	require.Error(t, h.c.SubmitAnswer(ctx, "second take"))

	assert.Equal(t, StateAnswered, h.c.StateOf(1))
	a, _ := h.c.Answer(1)
	assert.Equal(t, "first take", a.Text)
	assert.Equal(t, "second take", h.c.Input())
	id, ok := h.c.RetryTarget()
	assert.True(t, ok, "retry mode survives a failed evaluation")
	assert.Equal(t, 1, id)
}

func TestOnlyOneRetryTarget(t *testing.T) {
	h := newHarness(t)
	h.eval.score(50, "a")
	h.eval.score(60, "b")
	require.NoError(t, h.c.SubmitAnswer(ctx, "one"))
	require.NoError(t, h.c.SubmitAnswer(ctx, "two"))

	require.NoError(t, h.c.ToggleRetry(ctx, 1))
	require.NoError(t, h.c.ToggleRetry(ctx, 2))
	id, _ := h.c.RetryTarget()
	assert.Equal(t, 2, id)
	assert.Equal(t, "two", h.c.Input())
}

func TestToggleRetryRejectsUnansweredAndUnknown(t *testing.T) {
	h := newHarness(t)
	assert.ErrorIs(t, h.c.ToggleRetry(ctx, 1), ErrNotAnswered)
	assert.ErrorIs(t, h.c.ToggleRetry(ctx, 42), ErrUnknownQuestion)
	_, ok := h.c.RetryTarget()
	assert.False(t, ok)
}

func TestCursorNeverDecreasesOrOvershoots(t *testing.T) {
	h := newHarness(t)
	last := h.c.Cursor()
	step := func() {
		assert.GreaterOrEqual(t, h.c.Cursor(), last)
		assert.LessOrEqual(t, h.c.Cursor(), len(threeQuestions))
		last = h.c.Cursor()
	}

	for i := 0; i < 3; i++ {
		h.eval.score(70, "ok")
		require.NoError(t, h.c.SubmitAnswer(ctx, "answer"))
		step()
		if i == 0 {
			require.NoError(t, h.c.ToggleRetry(ctx, 1))
			h.eval.score(80, "ok")
			require.NoError(t, h.c.SubmitAnswer(ctx, "retry"))
			step()
		}
	}
	assert.True(t, h.c.Complete())

	// Retrying after completion keeps the cursor at the end.
	require.NoError(t, h.c.ToggleRetry(ctx, 3))
	h.eval.score(90, "ok")
	require.NoError(t, h.c.SubmitAnswer(ctx, "final retry"))
	step()
	assert.Equal(t, 3, h.c.Cursor())
}

func TestProgressRoundTrip(t *testing.T) {
	h := newHarness(t, manualGate)
	h.c.SetAutoAdvance(ctx, false)
	h.eval.score(77, "good")
	require.NoError(t, h.c.SubmitAnswer(ctx, "answer one"))

	reloaded := h.reopen(t)
	assert.Equal(t, h.c.Cursor(), reloaded.Cursor())
	assert.Equal(t, h.c.Answered(), reloaded.Answered())
	assert.Equal(t, h.c.ShowNext(), reloaded.ShowNext())
	assert.Equal(t, h.c.AutoAdvance(), reloaded.AutoAdvance())
	want, _ := h.c.Answer(1)
	got, ok := reloaded.Answer(1)
	require.True(t, ok)
	assert.Equal(t, want.Text, got.Text)
	assert.Equal(t, *want.Score, *got.Score)
	assert.Equal(t, *want.Feedback, *got.Feedback)
	assert.True(t, want.Timestamp.Equal(got.Timestamp))

	require.NoError(t, reloaded.AdvanceToNext(ctx))
	assert.Equal(t, 1, h.reopen(t).Cursor())
}

func TestMalformedSnapshotIsDiscarded(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{cursor:`},
		{"cursor past end", `{"cursor":9,"answered":[],"answers":{}}`},
		{"unknown question", `{"cursor":1,"answered":[7],"answers":{"7":{"text":"x"}}}`},
		{"answered without answer", `{"cursor":1,"answered":[1],"answers":{}}`},
		{"answer not marked answered", `{"cursor":0,"answered":[],"answers":{"1":{"text":"x"}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			repo := h.store.ProgressRepo()
			require.NoError(t, repo.Save(ctx, "sess-1", []byte(tt.data)))

			c := h.reopen(t)
			assert.Equal(t, 0, c.Cursor())
			assert.Empty(t, c.Answered())

			data, err := repo.Load(ctx, "sess-1")
			require.NoError(t, err)
			assert.Nil(t, data, "malformed snapshot should be deleted")
		})
	}
}

func TestVisibility(t *testing.T) {
	h := newHarness(t, manualGate)
	h.eval.score(70, "ok")
	require.NoError(t, h.c.SubmitAnswer(ctx, "one"))

	visible := h.c.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, 1, visible[0].ID)

	require.NoError(t, h.c.AdvanceToNext(ctx))
	assert.Len(t, h.c.Visible(), 2)
	assert.Equal(t, StateUnseen, h.c.StateOf(3))
}

func TestFinish(t *testing.T) {
	h := newHarness(t)
	assert.ErrorIs(t, h.c.Finish(ctx), ErrNotComplete)

	for i := 0; i < 3; i++ {
		h.eval.score(80, "ok")
		require.NoError(t, h.c.SubmitAnswer(ctx, "answer"))
	}
	_, err := h.c.ToggleRecording(ctx)
	assert.ErrorIs(t, err, ErrNoTarget)

	require.NoError(t, h.store.RecordingRepo().Put(ctx, storeRecording("sess-1", 1, "/tmp/a.ogg")))
	require.NoError(t, h.c.Finish(ctx))

	data, err := h.store.ProgressRepo().Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, data)
	recs, err := h.store.RecordingRepo().List(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.True(t, h.c.Closed())

	events, err := h.store.EventRepo().AnswerEvents(ctx, "sess-1")
	require.NoError(t, err)
	assert.Len(t, events, 3, "answer history outlives the progress snapshot")
}
