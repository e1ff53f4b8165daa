package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// progressRepo implements ProgressRepo with one row per session.
type progressRepo struct {
	drv *entsql.Driver
}

func (r *progressRepo) Save(ctx context.Context, sessionID string, data []byte) error {
	query, args := builder().Insert("progress_snapshots").
		Columns("session_id", "data", "updated_at").
		Values(sessionID, string(data), time.Now().UnixNano()).
		OnConflict(
			entsql.ConflictColumns("session_id"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save progress snapshot: %w", err)
	}
	return nil
}

func (r *progressRepo) Load(ctx context.Context, sessionID string) ([]byte, error) {
	query, args := builder().Select("data").
		From(entsql.Table("progress_snapshots")).
		Where(entsql.EQ("session_id", sessionID)).
		Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query progress snapshot: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var data string
	if err := rows.Scan(&data); err != nil {
		return nil, fmt.Errorf("scan progress snapshot: %w", err)
	}
	return []byte(data), nil
}

func (r *progressRepo) Delete(ctx context.Context, sessionID string) error {
	query, args := builder().Delete("progress_snapshots").
		Where(entsql.EQ("session_id", sessionID)).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("delete progress snapshot: %w", err)
	}
	return nil
}
