package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To

	// Purpose keeps only LLM events with this purpose.
	Purpose string
}

// ProgressRepo stores the serialized in-progress state of an interview,
// one snapshot per session. The payload is opaque to the store.
type ProgressRepo interface {
	// Save replaces the snapshot for sessionID.
	Save(ctx context.Context, sessionID string, data []byte) error

	// Load returns the snapshot for sessionID, or nil if none exists.
	Load(ctx context.Context, sessionID string) ([]byte, error)

	// Delete removes the snapshot for sessionID. Deleting a missing
	// snapshot is not an error.
	Delete(ctx context.Context, sessionID string) error
}

// Recording references a locally captured voice answer.
type Recording struct {
	SessionID  string
	QuestionID int
	Path       string
	ObjectKey  string // set once uploaded to object storage
	CreatedAt  time.Time
}

// RecordingRepo manages per-question recording references.
type RecordingRepo interface {
	// Put stores rec, replacing any earlier recording for the same question.
	Put(ctx context.Context, rec Recording) error

	// SetObjectKey records where rec was uploaded.
	SetObjectKey(ctx context.Context, sessionID string, questionID int, key string) error

	// List returns the recordings of a session ordered by question ID.
	List(ctx context.Context, sessionID string) ([]Recording, error)

	// DeleteSession removes every recording reference of a session.
	DeleteSession(ctx context.Context, sessionID string) error
}

// StoredQuestion is a question as mirrored from the session backend.
type StoredQuestion struct {
	ID         int    `json:"id"`
	Text       string `json:"question"`
	AudioIndex int    `json:"audio_index"`
}

// SessionRecord mirrors a create-session response so an interview can be
// resumed without a network round trip.
type SessionRecord struct {
	SessionID      string
	JobRole        string
	JobDescription string
	Difficulty     string
	QuestionCount  int
	Questions      []StoredQuestion
	CreatedAt      time.Time
}

// SessionRepo manages mirrored sessions and the current-session pointer.
type SessionRepo interface {
	// Save stores or replaces a session record.
	Save(ctx context.Context, rec SessionRecord) error

	// Get returns the session with the given ID, or ErrNotFound.
	Get(ctx context.Context, sessionID string) (*SessionRecord, error)

	// List returns all sessions, newest first.
	List(ctx context.Context, limit int) ([]SessionRecord, error)

	// SetCurrent points the current-session pointer at sessionID until
	// expiresAt.
	SetCurrent(ctx context.Context, sessionID string, expiresAt time.Time) error

	// Current returns the current session ID, or "" if unset or expired
	// at now.
	Current(ctx context.Context, now time.Time) (string, error)

	// ClearCurrent removes the current-session pointer.
	ClearCurrent(ctx context.Context) error
}

// Credential is the persisted identity of the signed-in user.
type Credential struct {
	UID          string
	Email        string
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
}

// CredentialRepo persists at most one signed-in credential.
type CredentialRepo interface {
	// Save replaces the stored credential.
	Save(ctx context.Context, c Credential) error

	// Load returns the stored credential, or nil if nobody is signed in.
	Load(ctx context.Context) (*Credential, error)

	// Delete removes the stored credential.
	Delete(ctx context.Context) error
}

// AnswerEventData captures one answer evaluation attempt.
type AnswerEventData struct {
	SessionID    string
	QuestionID   int
	QuestionText string
	AnswerText   string
	Score        *int
	Feedback     string
	Retry        bool
	Success      bool
	ErrorMessage string
	LatencyMs    int64
}

// AnswerEvent is a persisted answer evaluation attempt.
type AnswerEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	AnswerEventData
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a persisted LLM request event.
type LLMRequestEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsageStats aggregates token usage for one purpose or model.
type LLMUsageStats struct {
	Key          string
	Requests     int
	Failures     int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// EventRepo provides append and query access to domain events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMRequests returns LLM request events, newest first.
	QueryLLMRequests(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)

	// GetLLMRequest returns a single LLM request event by ID, or ErrNotFound.
	GetLLMRequest(ctx context.Context, id int) (*LLMRequestEvent, error)

	// LLMUsageByPurpose aggregates LLM usage grouped by purpose.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error)

	// LLMUsageByModel aggregates LLM usage grouped by model.
	LLMUsageByModel(ctx context.Context) ([]LLMUsageStats, error)

	// AppendAnswerEvent records an answer evaluation attempt.
	AppendAnswerEvent(ctx context.Context, data AnswerEventData) error

	// AnswerEvents returns the answer events of a session in sequence order.
	AnswerEvents(ctx context.Context, sessionID string) ([]AnswerEvent, error)
}
