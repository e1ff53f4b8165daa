package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type sessionRepo struct {
	drv *entsql.Driver
}

var sessionColumns = []string{
	"session_id", "job_role", "job_description", "difficulty",
	"question_count", "questions", "created_at",
}

func (r *sessionRepo) Save(ctx context.Context, rec SessionRecord) error {
	questions, err := json.Marshal(rec.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	query, args := builder().Insert("sessions").
		Columns(sessionColumns...).
		Values(rec.SessionID, rec.JobRole, rec.JobDescription, rec.Difficulty,
			rec.QuestionCount, string(questions), created.UnixNano()).
		OnConflict(
			entsql.ConflictColumns("session_id"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *sessionRepo) Get(ctx context.Context, sessionID string) (*SessionRecord, error) {
	query, args := builder().Select(sessionColumns...).
		From(entsql.Table("sessions")).
		Where(entsql.EQ("session_id", sessionID)).
		Query()

	recs, err := r.query(ctx, query, args)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	return &recs[0], nil
}

func (r *sessionRepo) List(ctx context.Context, limit int) ([]SessionRecord, error) {
	sel := builder().Select(sessionColumns...).
		From(entsql.Table("sessions")).
		OrderBy(entsql.Desc("created_at"))
	if limit > 0 {
		sel.Limit(limit)
	}
	query, args := sel.Query()
	return r.query(ctx, query, args)
}

func (r *sessionRepo) query(ctx context.Context, query string, args []any) ([]SessionRecord, error) {
	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var recs []SessionRecord
	for rows.Next() {
		var (
			rec       SessionRecord
			questions string
			created   int64
		)
		err := rows.Scan(&rec.SessionID, &rec.JobRole, &rec.JobDescription, &rec.Difficulty,
			&rec.QuestionCount, &questions, &created)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if err := json.Unmarshal([]byte(questions), &rec.Questions); err != nil {
			return nil, fmt.Errorf("unmarshal questions of session %s: %w", rec.SessionID, err)
		}
		rec.CreatedAt = time.Unix(0, created).UTC()
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (r *sessionRepo) SetCurrent(ctx context.Context, sessionID string, expiresAt time.Time) error {
	query, args := builder().Insert("current_session").
		Columns("id", "session_id", "expires_at").
		Values(1, sessionID, expiresAt.UnixNano()).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("set current session: %w", err)
	}
	return nil
}

func (r *sessionRepo) Current(ctx context.Context, now time.Time) (string, error) {
	query, args := builder().Select("session_id", "expires_at").
		From(entsql.Table("current_session")).
		Where(entsql.EQ("id", 1)).
		Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return "", fmt.Errorf("query current session: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return "", rows.Err()
	}
	var (
		id      string
		expires int64
	)
	if err := rows.Scan(&id, &expires); err != nil {
		return "", fmt.Errorf("scan current session: %w", err)
	}
	if !now.Before(time.Unix(0, expires)) {
		return "", nil
	}
	return id, nil
}

func (r *sessionRepo) ClearCurrent(ctx context.Context) error {
	query, args := builder().Delete("current_session").Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("clear current session: %w", err)
	}
	return nil
}
