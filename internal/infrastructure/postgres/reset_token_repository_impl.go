package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/promptguard/promptguard/internal/domain/entity"
	"github.com/promptguard/promptguard/internal/domain/repository"
)

type ResetTokenRepository struct {
	pool *pgxpool.Pool
}

func NewResetTokenRepository(pool *pgxpool.Pool) *ResetTokenRepository {
	return &ResetTokenRepository{pool: pool}
}

func (r *ResetTokenRepository) Insert(ctx context.Context, t *entity.PasswordResetToken) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO password_reset_tokens (user_id, token, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, used, created_at
	`, t.UserID, t.Token, t.ExpiresAt)

	return row.Scan(&t.ID, &t.Used, &t.CreatedAt)
}

func (r *ResetTokenRepository) GetByToken(ctx context.Context, token string) (*entity.PasswordResetToken, error) {
	t := &entity.PasswordResetToken{}
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, token, expires_at, used, created_at
		FROM password_reset_tokens
		WHERE token = $1
	`, token)
	if err := row.Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.Used, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

// Redeem flips used and replaces the owner's password hash in one transaction.
// The conditional UPDATE is the single-winner gate: of N concurrent calls with
// the same token, exactly one sees a row; the rest get ErrNotFound. A token is
// never marked used without the password changing in the same commit.
func (r *ResetTokenRepository) Redeem(ctx context.Context, token, passwordHash string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var userID string
	row := tx.QueryRow(ctx, `
		UPDATE password_reset_tokens
		SET used = TRUE
		WHERE token = $1 AND used = FALSE AND expires_at > now()
		RETURNING user_id
	`, token)
	if err := row.Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		return err
	}

	res, err := tx.Exec(ctx, `
		UPDATE users
		SET password_hash = $1, updated_at = now()
		WHERE id = $2
	`, passwordHash, userID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		// Owner vanished between issuance and redemption; roll the token back.
		return repository.ErrNotFound
	}

	return tx.Commit(ctx)
}

func (r *ResetTokenRepository) DeleteExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := r.pool.Exec(ctx, `
		DELETE FROM password_reset_tokens WHERE expires_at <= $1
	`, olderThan)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

var _ repository.ResetTokenRepository = (*ResetTokenRepository)(nil)
