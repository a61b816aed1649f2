package repository

import (
	"context"

	"github.com/promptguard/promptguard/internal/domain/entity"
)

// UserRepository defines user-related store operations. Emails passed in are
// expected to be normalized (lowercased) by the caller; implementations
// lowercase again on write so the uniqueness constraint always sees the
// normalized form.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	// Delete removes the user row; reset tokens and history rows cascade.
	Delete(ctx context.Context, id string) error
}
