package interview

import "errors"

// QuestionState is the lifecycle stage of a single question.
type QuestionState int

const (
	StateUnseen           QuestionState = iota // Cursor has not reached it
	StateActive                                // Open for an answer
	StateAwaitingFeedback                      // Submitted, evaluation in flight
	StateAnswered                              // Scored answer stored
)

func (s QuestionState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateAwaitingFeedback:
		return "awaiting-feedback"
	case StateAnswered:
		return "answered"
	default:
		return "unseen"
	}
}

var (
	// ErrEmptyAnswer is returned when a submission has no text after
	// trimming. Nothing changes.
	ErrEmptyAnswer = errors.New("answer is empty")

	// ErrSubmissionPending is returned while an evaluation is in flight.
	ErrSubmissionPending = errors.New("an answer is already being evaluated")

	// ErrNoTarget is returned when there is no question to answer: the
	// current one is already answered and no retry is selected.
	ErrNoTarget = errors.New("no question is open for an answer")

	// ErrNotAnswered is returned when retrying a question without an answer.
	ErrNotAnswered = errors.New("question has not been answered")

	// ErrUnknownQuestion is returned for question IDs outside the session.
	ErrUnknownQuestion = errors.New("unknown question")

	// ErrNoNext is returned when advancing while the next gate is closed.
	ErrNoNext = errors.New("next question is not available")

	// ErrNotComplete is returned when finishing before every question is
	// answered.
	ErrNotComplete = errors.New("interview is not complete")

	// ErrNoClip is returned when a clip has no playable source.
	ErrNoClip = errors.New("no clip available")

	// ErrMediaUnavailable is returned when a media feature has no device
	// configured.
	ErrMediaUnavailable = errors.New("media device not configured")

	// ErrClosed is returned after the controller has been torn down.
	ErrClosed = errors.New("interview closed")
)
