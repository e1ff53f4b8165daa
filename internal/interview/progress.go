package interview

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mockt/mockt/internal/backend"
)

// Question is an immutable interview question.
type Question = backend.Question

// VoiceMarker is appended to an answer's text when a voice recording
// exists for it.
const VoiceMarker = "[voice recorded]"

// Answer is the latest submission for a question. Retries replace it
// wholesale.
type Answer struct {
	Text      string    `json:"text"`
	Score     *int      `json:"score,omitempty"`
	Feedback  *string   `json:"feedback,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// HasVoice reports whether the answer carries the voice marker.
func (a Answer) HasVoice() bool {
	return strings.HasSuffix(strings.TrimSpace(a.Text), VoiceMarker)
}

// WithVoiceMarker appends the voice marker to text once, keeping any
// typed text.
func WithVoiceMarker(text string) string {
	text = StripVoiceMarker(text)
	if text == "" {
		return VoiceMarker
	}
	return text + " " + VoiceMarker
}

// StripVoiceMarker removes a trailing voice marker from text.
func StripVoiceMarker(text string) string {
	text = strings.TrimSpace(text)
	for strings.HasSuffix(text, VoiceMarker) {
		text = strings.TrimSpace(strings.TrimSuffix(text, VoiceMarker))
	}
	return text
}

// Progress is the mutable state of one interview session. It is the unit
// of persistence.
type Progress struct {
	Cursor      int            `json:"cursor"`
	Answered    []int          `json:"answered"`
	AutoAdvance bool           `json:"auto_advance"`
	ShowNext    bool           `json:"show_next"`
	Answers     map[int]Answer `json:"answers"`

	// RetryTarget is the question being re-answered. It is not persisted;
	// a reload leaves retry mode.
	RetryTarget *int `json:"-"`
}

func newProgress() *Progress {
	return &Progress{Answers: make(map[int]Answer)}
}

// IsAnswered reports whether questionID has a stored answer.
func (p *Progress) IsAnswered(questionID int) bool {
	return slices.Contains(p.Answered, questionID)
}

func (p *Progress) markAnswered(questionID int) {
	if !p.IsAnswered(questionID) {
		p.Answered = append(p.Answered, questionID)
	}
}

// InRetry reports whether questionID is the retry target.
func (p *Progress) InRetry(questionID int) bool {
	return p.RetryTarget != nil && *p.RetryTarget == questionID
}

func (p *Progress) marshal() ([]byte, error) {
	return json.Marshal(p)
}

// decodeProgress parses a snapshot and checks it against the session's
// questions. Any inconsistency makes the snapshot malformed.
func decodeProgress(data []byte, questions []Question) (*Progress, error) {
	p := newProgress()
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if p.Answers == nil {
		p.Answers = make(map[int]Answer)
	}
	if p.Cursor < 0 || p.Cursor > len(questions) {
		return nil, fmt.Errorf("snapshot cursor %d out of range", p.Cursor)
	}

	known := make(map[int]bool, len(questions))
	for _, q := range questions {
		known[q.ID] = true
	}
	seen := make(map[int]bool, len(p.Answered))
	for _, id := range p.Answered {
		if !known[id] {
			return nil, fmt.Errorf("snapshot answers unknown question %d", id)
		}
		if seen[id] {
			return nil, fmt.Errorf("snapshot lists question %d twice", id)
		}
		if _, ok := p.Answers[id]; !ok {
			return nil, fmt.Errorf("snapshot has no answer for question %d", id)
		}
		seen[id] = true
	}
	for id := range p.Answers {
		if !seen[id] {
			return nil, fmt.Errorf("snapshot answer for question %d is not marked answered", id)
		}
	}
	if p.ShowNext && p.Cursor >= len(questions)-1 {
		return nil, fmt.Errorf("snapshot shows next past the last question")
	}
	return p, nil
}
