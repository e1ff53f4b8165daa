package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type credentialRepo struct {
	drv *entsql.Driver
}

func (r *credentialRepo) Save(ctx context.Context, c Credential) error {
	query, args := builder().Insert("credentials").
		Columns("id", "uid", "email", "id_token", "refresh_token", "expires_at").
		Values(1, c.UID, c.Email, c.IDToken, c.RefreshToken, c.ExpiresAt.UnixNano()).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

func (r *credentialRepo) Load(ctx context.Context) (*Credential, error) {
	query, args := builder().Select("uid", "email", "id_token", "refresh_token", "expires_at").
		From(entsql.Table("credentials")).
		Where(entsql.EQ("id", 1)).
		Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query credential: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var (
		c       Credential
		expires int64
	)
	if err := rows.Scan(&c.UID, &c.Email, &c.IDToken, &c.RefreshToken, &expires); err != nil {
		return nil, fmt.Errorf("scan credential: %w", err)
	}
	c.ExpiresAt = time.Unix(0, expires).UTC()
	return &c, nil
}

func (r *credentialRepo) Delete(ctx context.Context) error {
	query, args := builder().Delete("credentials").Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}
