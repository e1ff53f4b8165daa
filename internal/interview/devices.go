package interview

import (
	"context"

	"github.com/mockt/mockt/internal/auth"
	"github.com/mockt/mockt/internal/backend"
)

// Evaluator scores answers.
type Evaluator interface {
	EvaluateAnswer(ctx context.Context, in backend.EvaluateInput) (*backend.Evaluation, error)
}

// Identity resolves the signed-in user. Submissions require one.
type Identity interface {
	CurrentUser(ctx context.Context) (*auth.User, error)
}

// Recorder captures microphone audio to a file.
type Recorder interface {
	Start(ctx context.Context, path string) error
	// Stop finishes the capture and returns the path of the written clip.
	Stop() (string, error)
	Recording() bool
}

// Camera shows a self-view of the video device.
type Camera interface {
	Open(ctx context.Context) error
	Close() error
	Active() bool
}

// Player plays audio clips. Each Play returns a playback ID; the owner of
// the player reports finished playbacks through Controller.ClipEnded.
type Player interface {
	Play(ctx context.Context, src string) (int64, error)
	Stop(id int64) error
	StopAll()
}

// ClipKind distinguishes question prompts from recorded answers.
type ClipKind int

const (
	ClipQuestion ClipKind = iota
	ClipAnswer
)

func (k ClipKind) String() string {
	if k == ClipAnswer {
		return "answer"
	}
	return "question"
}

// ClipRef identifies one playable clip.
type ClipRef struct {
	Kind       ClipKind
	QuestionID int
}
