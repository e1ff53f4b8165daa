package screen

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"
	"go.uber.org/zap"

	"github.com/mockt/mockt/internal/auth"
	"github.com/mockt/mockt/internal/backend"
	"github.com/mockt/mockt/internal/interview"
	"github.com/mockt/mockt/internal/store"
)

// DefaultSessionTTL is how long a created session stays resumable from the
// home menu.
const DefaultSessionTTL = 12 * time.Hour

// Identity signs users in and out.
type Identity interface {
	SignIn(ctx context.Context, email, password string) (*auth.User, error)
	SignUp(ctx context.Context, email, password string) (*auth.User, error)
	SignOut(ctx context.Context) error
	CurrentUser(ctx context.Context) (*auth.User, error)
}

// ClipPlayer is a player that reports finished playbacks.
type ClipPlayer interface {
	interview.Player
	Ended() <-chan int64
}

// Uploader copies finished recordings to remote storage and returns the
// object key.
type Uploader interface {
	Upload(ctx context.Context, rec store.Recording) (string, error)
}

// Speech synthesizes a spoken rendition of a question and returns a
// playable URL.
type Speech interface {
	GenerateAudio(ctx context.Context, text string) (string, error)
}

// Services are the collaborators shared by the screens. Nil media devices,
// Identity, Uploader and Speech disable the matching features.
type Services struct {
	Identity Identity
	Backend  backend.Service

	Sessions   store.SessionRepo
	Progress   store.ProgressRepo
	Recordings store.RecordingRepo
	Events     store.EventRepo

	Recorder interview.Recorder
	Camera   interview.Camera
	Player   ClipPlayer
	Uploader Uploader
	Speech   Speech

	// Probe measures a finished recording. Nil skips the measurement.
	Probe func(path string) (time.Duration, error)

	ManualAdvance bool
	QuestionClips []string
	RecordingsDir string
	ExportDir     string
	SessionTTL    time.Duration

	Logger *zap.Logger
	Now    func() time.Time
}

// AuthChangedMsg announces the result of resolving or changing the
// signed-in user. User is nil when nobody is signed in.
type AuthChangedMsg struct {
	User *auth.User
	Err  error
}

// ResolveUser reports the signed-in user as an AuthChangedMsg.
func (s *Services) ResolveUser() tea.Cmd {
	identity := s.Identity
	return func() tea.Msg {
		if identity == nil {
			return AuthChangedMsg{}
		}
		u, err := identity.CurrentUser(context.Background())
		if err != nil {
			return AuthChangedMsg{Err: err}
		}
		return AuthChangedMsg{User: u}
	}
}

// Log returns the logger, never nil.
func (s *Services) Log() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// Clock returns the current time.
func (s *Services) Clock() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// TTL returns the current-session lifetime.
func (s *Services) TTL() time.Duration {
	if s.SessionTTL <= 0 {
		return DefaultSessionTTL
	}
	return s.SessionTTL
}
