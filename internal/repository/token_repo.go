package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"go-catalog-api/internal/model"
)

// TokenRepository persists refresh-token records. Rows are never deleted;
// consumed and logged-out tokens are flipped to revoked so the table doubles
// as an audit trail.
type TokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

func (r *TokenRepository) Save(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO refresh_tokens (user_id, token_hash, expires_at, created_at)
		 VALUES ($1, $2, $3, $4)`,
		userID, tokenHash, expiresAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

// Rotate revokes the active record for oldHash and inserts the successor in a
// single transaction. The conditional update closes the replay race: under
// concurrent presentation of the same token exactly one caller flips the row,
// everyone else sees zero rows affected and gets model.ErrTokenNotFound.
func (r *TokenRepository) Rotate(ctx context.Context, oldHash string, userID int64, newHash string, expiresAt time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin rotation: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE refresh_tokens SET revoked = TRUE
		 WHERE token_hash = $1 AND user_id = $2 AND revoked = FALSE AND expires_at > now()`,
		oldHash, userID)
	if err != nil {
		return fmt.Errorf("revoke consumed token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTokenNotFound
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO refresh_tokens (user_id, token_hash, expires_at, created_at)
		 VALUES ($1, $2, $3, $4)`,
		userID, newHash, expiresAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert successor token: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit rotation: %w", err)
	}
	return nil
}

func (r *TokenRepository) Revoke(ctx context.Context, tokenHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE refresh_tokens SET revoked = TRUE
		 WHERE token_hash = $1 AND revoked = FALSE AND expires_at > now()`,
		tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTokenNotFound
	}
	return nil
}
