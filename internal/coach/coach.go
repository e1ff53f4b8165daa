// Package coach is an offline interview backend. It generates questions
// and scores answers with an LLM provider and keeps created sessions in
// the local store.
package coach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mockt/mockt/internal/backend"
	"github.com/mockt/mockt/internal/llm"
	"github.com/mockt/mockt/internal/store"
)

// Coach implements backend.Service on top of an llm.Provider.
type Coach struct {
	provider llm.Provider
	sessions store.SessionRepo
	config   Config
	log      *zap.Logger

	newID func() string
	now   func() time.Time
}

var _ backend.Service = (*Coach)(nil)

// New creates a Coach. Sessions are saved to sessions so FetchQuestions
// can find them later.
func New(provider llm.Provider, sessions store.SessionRepo, cfg Config, log *zap.Logger) *Coach {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coach{
		provider: provider,
		sessions: sessions,
		config:   cfg,
		log:      log.Named("coach"),
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

type questionSetOutput struct {
	Questions []struct {
		Question string `json:"question"`
	} `json:"questions"`
}

type evaluationOutput struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// CreateSession generates a question set for in and stores it.
func (c *Coach) CreateSession(ctx context.Context, in backend.CreateSessionInput) (*backend.Session, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeQuestionGen)

	resp, err := c.provider.Generate(ctx, llm.Request{
		System:      questionSystemPrompt,
		Messages:    llm.UserPrompt(buildQuestionMessage(in, c.config)),
		Schema:      QuestionSetSchema,
		MaxTokens:   c.config.QuestionTokens,
		Temperature: c.config.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}

	var raw questionSetOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("parse questions: %w", err)
	}
	texts := make([]string, 0, len(raw.Questions))
	for _, q := range raw.Questions {
		texts = append(texts, q.Question)
	}
	questions, err := buildQuestions(texts, in.QuestionCount)
	if err != nil {
		return nil, err
	}

	rec := store.SessionRecord{
		SessionID:      c.newID(),
		JobRole:        strings.TrimSpace(in.JobRole),
		JobDescription: in.JobDescription,
		Difficulty:     string(in.Difficulty),
		QuestionCount:  len(questions),
		Questions:      ToStored(questions),
		CreatedAt:      c.now().UTC(),
	}
	if err := c.sessions.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	c.log.Info("session created",
		zap.String("session", rec.SessionID),
		zap.String("difficulty", rec.Difficulty),
		zap.Int("questions", len(questions)),
	)

	return &backend.Session{SessionID: rec.SessionID, JobRole: rec.JobRole, Questions: questions}, nil
}

// FetchQuestions returns a session created earlier by this coach.
func (c *Coach) FetchQuestions(ctx context.Context, sessionID string) (*backend.Session, error) {
	rec, err := c.sessions.Get(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", backend.ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, err
	}
	return FromRecord(rec), nil
}

// EvaluateAnswer scores one answer.
func (c *Coach) EvaluateAnswer(ctx context.Context, in backend.EvaluateInput) (*backend.Evaluation, error) {
	if strings.TrimSpace(in.AnswerText) == "" {
		return nil, fmt.Errorf("%w: answer is empty", backend.ErrInvalidInput)
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeAnswerEval)

	resp, err := c.provider.Generate(ctx, llm.Request{
		System:    evaluationSystemPrompt,
		Messages:  llm.UserPrompt(buildEvaluationMessage(in)),
		Schema:    EvaluationSchema,
		MaxTokens: c.config.FeedbackTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("evaluate answer: %w", err)
	}

	var raw evaluationOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("parse evaluation: %w", err)
	}
	feedback := strings.TrimSpace(raw.Feedback)
	if feedback == "" {
		return nil, errors.New("evaluation has no feedback")
	}
	return &backend.Evaluation{Score: backend.ClampScore(raw.Score), Feedback: feedback}, nil
}

// buildQuestions numbers generated questions from 1 and assigns clip
// indexes by position. It rejects blank and repeated questions and trims
// a longer list to want.
func buildQuestions(texts []string, want int) ([]backend.Question, error) {
	if len(texts) < want {
		return nil, fmt.Errorf("generated %d questions, want %d", len(texts), want)
	}
	texts = texts[:want]

	seen := make(map[string]bool, len(texts))
	out := make([]backend.Question, 0, len(texts))
	for i, t := range texts {
		t = strings.TrimSpace(t)
		if t == "" {
			return nil, fmt.Errorf("generated question %d is empty", i+1)
		}
		key := strings.ToLower(t)
		if seen[key] {
			return nil, fmt.Errorf("generated question %d repeats an earlier one", i+1)
		}
		seen[key] = true
		out = append(out, backend.Question{ID: i + 1, Text: t, AudioIndex: i})
	}
	return out, nil
}

// ToStored converts questions for the session mirror.
func ToStored(qs []backend.Question) []store.StoredQuestion {
	out := make([]store.StoredQuestion, len(qs))
	for i, q := range qs {
		out[i] = store.StoredQuestion{ID: q.ID, Text: q.Text, AudioIndex: q.AudioIndex}
	}
	return out
}

// FromRecord rebuilds a session from its mirror.
func FromRecord(rec *store.SessionRecord) *backend.Session {
	qs := make([]backend.Question, len(rec.Questions))
	for i, q := range rec.Questions {
		qs[i] = backend.Question{ID: q.ID, Text: q.Text, AudioIndex: q.AudioIndex}
	}
	return &backend.Session{SessionID: rec.SessionID, JobRole: rec.JobRole, Questions: qs}
}
