package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var answerEventColumns = []string{
	"id", "sequence", "timestamp", "session_id", "question_id",
	"question_text", "answer_text", "score", "feedback", "retry",
	"success", "error_message", "latency_ms",
}

func (r *eventRepo) AppendAnswerEvent(ctx context.Context, data AnswerEventData) error {
	seqNum, err := r.nextSequence(ctx)
	if err != nil {
		return err
	}

	var score any
	if data.Score != nil {
		score = int64(*data.Score)
	}

	query, args := builder().Insert("answer_events").
		Columns(answerEventColumns[1:]...).
		Values(seqNum, time.Now().UnixNano(), data.SessionID, data.QuestionID,
			data.QuestionText, data.AnswerText, score, data.Feedback, boolInt(data.Retry),
			boolInt(data.Success), data.ErrorMessage, data.LatencyMs).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save answer event: %w", err)
	}
	return nil
}

func (r *eventRepo) AnswerEvents(ctx context.Context, sessionID string) ([]AnswerEvent, error) {
	query, args := builder().Select(answerEventColumns...).
		From(entsql.Table("answer_events")).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy("sequence").
		Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query answer events: %w", err)
	}
	defer rows.Close()

	var events []AnswerEvent
	for rows.Next() {
		var (
			e              AnswerEvent
			ts             int64
			score          sql.NullInt64
			retry, success int
		)
		err := rows.Scan(&e.ID, &e.Sequence, &ts, &e.SessionID, &e.QuestionID,
			&e.QuestionText, &e.AnswerText, &score, &e.Feedback, &retry,
			&success, &e.ErrorMessage, &e.LatencyMs)
		if err != nil {
			return nil, fmt.Errorf("scan answer event: %w", err)
		}
		e.Timestamp = time.Unix(0, ts).UTC()
		e.Retry = retry != 0
		e.Success = success != 0
		if score.Valid {
			s := int(score.Int64)
			e.Score = &s
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
