package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/promptguard/promptguard/internal/domain/entity"
	repo "github.com/promptguard/promptguard/internal/domain/repository"
	"github.com/promptguard/promptguard/pkg/helpers"
)

// Notifier hands a reset link to the outside world. Implementations may fail
// independently of token issuance; callers swallow the error.
type Notifier interface {
	SendPasswordReset(ctx context.Context, email, name, link string) error
}

// ResetService issues and redeems password reset tokens.
type ResetService struct {
	Users    repo.UserRepository
	Tokens   repo.ResetTokenRepository
	Notifier Notifier
	ResetURL string
	TokenTTL time.Duration
	Logger   *logrus.Logger
}

func NewResetService(users repo.UserRepository, tokens repo.ResetTokenRepository, notifier Notifier, resetURL string, ttl time.Duration, logger *logrus.Logger) *ResetService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ResetService{Users: users, Tokens: tokens, Notifier: notifier, ResetURL: resetURL, TokenTTL: ttl, Logger: logger}
}

// IssueReset creates a reset token for the account behind email, if any, and
// hands the link to the notifier. The outcome is identical whether or not the
// account exists; only a persisted token betrays the difference, and only to
// the store. Outstanding tokens for the same user stay valid.
func (s *ResetService) IssueReset(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}

	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// The address belongs to nobody we know; keep it out of the logs.
			if s.Logger != nil {
				s.Logger.Debug("reset requested for unknown email")
			}
			return nil
		}
		return storeErr(err)
	}

	token, err := helpers.NewResetToken()
	if err != nil {
		return err
	}
	t := &entity.PasswordResetToken{
		UserID:    u.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(s.TokenTTL),
	}
	if err := s.Tokens.Insert(ctx, t); err != nil {
		return storeErr(err)
	}

	// Issuance is already durable; a notification failure is logged and
	// swallowed so it can never surface to the caller or hold a transaction.
	if s.Notifier != nil {
		link := s.ResetURL + "?token=" + token
		if nErr := s.Notifier.SendPasswordReset(ctx, u.Email, u.Name, link); nErr != nil && s.Logger != nil {
			s.Logger.WithError(nErr).WithField("user_id", u.ID).Warn("reset notification failed")
		}
	}
	return nil
}

// RedeemReset consumes a token and sets the new password. The store marks the
// token used and replaces the hash in one transaction, so of N concurrent
// redemptions at most one wins; every losing condition (missing, used,
// expired, orphaned) collapses to ErrInvalidOrExpiredToken.
func (s *ResetService) RedeemReset(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return ErrInvalidOrExpiredToken
	}
	if err := validPasswordLen(newPassword); err != nil {
		return err
	}

	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.Tokens.Redeem(ctx, token, hash); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return storeErr(err)
	}
	if s.Logger != nil {
		s.Logger.Info("password reset redeemed")
	}
	return nil
}

// SweepExpired deletes tokens past their expiry. Hygiene only; redemption
// validity never depends on the sweep having run.
func (s *ResetService) SweepExpired(ctx context.Context) {
	n, err := s.Tokens.DeleteExpired(ctx, time.Now())
	if s.Logger == nil {
		return
	}
	if err != nil {
		s.Logger.WithError(err).Warn("token sweep failed")
		return
	}
	if n > 0 {
		s.Logger.WithField("deleted", n).Debug("expired reset tokens swept")
	}
}
