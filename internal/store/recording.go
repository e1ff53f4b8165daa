package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type recordingRepo struct {
	drv *entsql.Driver
}

func (r *recordingRepo) Put(ctx context.Context, rec Recording) error {
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	query, args := builder().Insert("recordings").
		Columns("session_id", "question_id", "path", "object_key", "created_at").
		Values(rec.SessionID, rec.QuestionID, rec.Path, rec.ObjectKey, created.UnixNano()).
		OnConflict(
			entsql.ConflictColumns("session_id", "question_id"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save recording: %w", err)
	}
	return nil
}

func (r *recordingRepo) SetObjectKey(ctx context.Context, sessionID string, questionID int, key string) error {
	query, args := builder().Update("recordings").
		Set("object_key", key).
		Where(entsql.And(
			entsql.EQ("session_id", sessionID),
			entsql.EQ("question_id", questionID),
		)).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("set recording object key: %w", err)
	}
	return nil
}

func (r *recordingRepo) List(ctx context.Context, sessionID string) ([]Recording, error) {
	query, args := builder().Select("session_id", "question_id", "path", "object_key", "created_at").
		From(entsql.Table("recordings")).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy("question_id").
		Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query recordings: %w", err)
	}
	defer rows.Close()

	var recs []Recording
	for rows.Next() {
		var (
			rec     Recording
			created int64
		)
		if err := rows.Scan(&rec.SessionID, &rec.QuestionID, &rec.Path, &rec.ObjectKey, &created); err != nil {
			return nil, fmt.Errorf("scan recording: %w", err)
		}
		rec.CreatedAt = time.Unix(0, created).UTC()
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (r *recordingRepo) DeleteSession(ctx context.Context, sessionID string) error {
	query, args := builder().Delete("recordings").
		Where(entsql.EQ("session_id", sessionID)).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("delete recordings: %w", err)
	}
	return nil
}
