package store

import (
	"context"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

// eventRepo implements EventRepo. Answer and LLM events live in separate
// tables but draw their sequence numbers from one counter, so the two
// streams can be merged in the order they were written.
type eventRepo struct {
	drv *entsql.Driver
}

// nextSequence allocates a sequence number. AUTOINCREMENT never hands out
// an ID twice, so older rows can be pruned without losing monotonicity.
func (r *eventRepo) nextSequence(ctx context.Context) (int64, error) {
	var rows entsql.Rows
	if err := r.drv.Query(ctx, `INSERT INTO event_sequence DEFAULT VALUES RETURNING id`, []any{}, &rows); err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, fmt.Errorf("next sequence: %w", err)
		}
		return 0, errors.New("next sequence: no row returned")
	}
	var seq int64
	if err := rows.Scan(&seq); err != nil {
		return 0, fmt.Errorf("scan sequence: %w", err)
	}
	// The statement holds the write lock until its rows are closed.
	rows.Close()

	if err := r.drv.Exec(ctx, `DELETE FROM event_sequence WHERE id < ?`, []any{seq}, nil); err != nil {
		return 0, fmt.Errorf("prune sequence: %w", err)
	}
	return seq, nil
}
