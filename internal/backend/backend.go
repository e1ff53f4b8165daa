// Package backend talks to the interview session service: it creates
// sessions, fetches their questions and scores answers.
package backend

import (
	"context"
	"fmt"
	"strings"
)

// Difficulty is the requested interview difficulty.
type Difficulty string

const (
	DifficultyEasy       Difficulty = "easy"
	DifficultyMedium     Difficulty = "medium"
	DifficultyHard       Difficulty = "hard"
	DifficultyManagerial Difficulty = "managerial"
)

// Difficulties lists every accepted difficulty in display order.
var Difficulties = []Difficulty{
	DifficultyEasy,
	DifficultyMedium,
	DifficultyHard,
	DifficultyManagerial,
}

// ParseDifficulty parses a case-insensitive difficulty name.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Difficulties {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: unknown difficulty %q", ErrInvalidInput, s)
}

// Question count bounds accepted by the service.
const (
	MinQuestions     = 1
	MaxQuestions     = 10
	DefaultQuestions = 5
)

// Question is a single interview question. IDs are unique within a session.
type Question struct {
	ID         int    `json:"id"`
	Text       string `json:"question"`
	AudioIndex int    `json:"audio_index"`
}

// CreateSessionInput is the create-session form.
type CreateSessionInput struct {
	JobRole        string     `json:"job_role"`
	JobDescription string     `json:"job_description"`
	Difficulty     Difficulty `json:"interview_difficulty"`
	QuestionCount  int        `json:"question_count"`
}

// Validate rejects input the service would refuse.
func (in CreateSessionInput) Validate() error {
	if strings.TrimSpace(in.JobRole) == "" {
		return fmt.Errorf("%w: job title is required", ErrInvalidInput)
	}
	if _, err := ParseDifficulty(string(in.Difficulty)); err != nil {
		return err
	}
	if in.QuestionCount < MinQuestions || in.QuestionCount > MaxQuestions {
		return fmt.Errorf("%w: question count must be between %d and %d, got %d",
			ErrInvalidInput, MinQuestions, MaxQuestions, in.QuestionCount)
	}
	return nil
}

// Session is a created or fetched interview session.
type Session struct {
	SessionID string
	JobRole   string
	Questions []Question
}

// EvaluateInput is one answer to be scored.
type EvaluateInput struct {
	AnswerText   string `json:"answer_text"`
	QuestionText string `json:"question_text"`
	JobRole      string `json:"job_role"`
}

// Evaluation is the score and feedback for one answer.
type Evaluation struct {
	Score    int
	Feedback string
}

// Service is the interview session backend.
type Service interface {
	CreateSession(ctx context.Context, in CreateSessionInput) (*Session, error)
	FetchQuestions(ctx context.Context, sessionID string) (*Session, error)
	EvaluateAnswer(ctx context.Context, in EvaluateInput) (*Evaluation, error)
}

// ClampScore bounds a score to 0..100.
func ClampScore(score int) int {
	return max(0, min(100, score))
}
