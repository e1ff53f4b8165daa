package interview

import (
	"time"

	"github.com/mockt/mockt/internal/backend"
	flow "github.com/mockt/mockt/internal/interview"
	"github.com/mockt/mockt/internal/store"
)

// sessionLoadedMsg carries the session's questions, from the local mirror
// or the backend.
type sessionLoadedMsg struct {
	Record *store.SessionRecord
	Err    error
}

// progressLoadedMsg is sent once saved progress has been restored.
type progressLoadedMsg struct {
	Err error
}

// evaluatedMsg carries the result of an evaluation call.
type evaluatedMsg struct {
	Sub  *flow.Submission
	Eval *backend.Evaluation
	Err  error
}

// uploadedMsg reports a finished recording upload.
type uploadedMsg struct {
	QuestionID int
	Key        string
	Err        error
}

// spokenMsg carries a synthesized prompt clip for a question.
type spokenMsg struct {
	QuestionID int
	URL        string
	Err        error
}

// probedMsg carries the length of a finished recording.
type probedMsg struct {
	QuestionID int
	Length     time.Duration
	Err        error
}
