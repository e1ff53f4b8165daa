package backend

import (
	"encoding/json"
	"fmt"
	"math"
)

// sessionResponse covers both the create and fetch payloads. Older
// deployments name the session key inserted_id.
type sessionResponse struct {
	SessionID  string            `json:"session_id"`
	InsertedID string            `json:"inserted_id"`
	JobRole    string            `json:"job_role"`
	Questions  []json.RawMessage `json:"questions"`
}

// wireQuestion is the object form of a question. The service may also send
// a bare string.
type wireQuestion struct {
	ID         *int   `json:"id"`
	Question   string `json:"question"`
	Text       string `json:"text"`
	AudioIndex *int   `json:"audio_index"`
}

type evaluationResponse struct {
	Score    json.Number `json:"score"`
	Feedback string      `json:"feedback"`
}

type detailResponse struct {
	Detail json.RawMessage `json:"detail"`
}

type audioResponse struct {
	AudioURL string `json:"audioUrl"`
}

func (r sessionResponse) session() (*Session, error) {
	id := r.SessionID
	if id == "" {
		id = r.InsertedID
	}
	questions, err := normalizeQuestions(r.Questions)
	if err != nil {
		return nil, err
	}
	return &Session{SessionID: id, JobRole: r.JobRole, Questions: questions}, nil
}

// normalizeQuestions converts string or object entries into Questions.
// Missing IDs default to the 1-based position and missing audio indexes to
// the 0-based position.
func normalizeQuestions(raw []json.RawMessage) ([]Question, error) {
	questions := make([]Question, 0, len(raw))
	seen := make(map[int]bool, len(raw))

	for i, item := range raw {
		q := Question{ID: i + 1, AudioIndex: i}

		var text string
		if err := json.Unmarshal(item, &text); err == nil {
			q.Text = text
		} else {
			var w wireQuestion
			if err := json.Unmarshal(item, &w); err != nil {
				return nil, fmt.Errorf("decode question %d: %w", i+1, err)
			}
			q.Text = w.Question
			if q.Text == "" {
				q.Text = w.Text
			}
			if w.ID != nil {
				q.ID = *w.ID
			}
			if w.AudioIndex != nil {
				q.AudioIndex = *w.AudioIndex
			}
		}

		if q.Text == "" {
			return nil, fmt.Errorf("question %d has no text", i+1)
		}
		if seen[q.ID] {
			return nil, fmt.Errorf("duplicate question id %d", q.ID)
		}
		seen[q.ID] = true
		questions = append(questions, q)
	}
	return questions, nil
}

func (r evaluationResponse) evaluation() (*Evaluation, error) {
	f, err := r.Score.Float64()
	if err != nil {
		return nil, fmt.Errorf("decode score %q: %w", r.Score, err)
	}
	return &Evaluation{
		Score:    ClampScore(int(math.Round(f))),
		Feedback: r.Feedback,
	}, nil
}

// detailText extracts a readable message from a detail payload, which is
// either a string or a list of validation errors.
func detailText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil && len(items) > 0 && items[0].Msg != "" {
		return items[0].Msg
	}
	return string(raw)
}
