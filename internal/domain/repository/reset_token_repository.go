package repository

import (
	"context"
	"time"

	"github.com/promptguard/promptguard/internal/domain/entity"
)

// ResetTokenRepository stores password reset tokens.
type ResetTokenRepository interface {
	Insert(ctx context.Context, t *entity.PasswordResetToken) error
	GetByToken(ctx context.Context, token string) (*entity.PasswordResetToken, error)
	// Redeem atomically marks the token used and replaces the owning user's
	// password hash. Both writes commit together or not at all. It returns
	// ErrNotFound when the token does not exist, is already used, is expired,
	// or its user is gone; at most one of N concurrent calls can succeed.
	Redeem(ctx context.Context, token, passwordHash string) error
	// DeleteExpired removes tokens past their expiry. Storage hygiene only;
	// redemption never relies on it.
	DeleteExpired(ctx context.Context, olderThan time.Time) (int64, error)
}
