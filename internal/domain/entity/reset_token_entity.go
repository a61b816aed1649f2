package entity

import (
	"time"
)

// PasswordResetToken is a single-use, time-limited secret that permits one
// password change without the original password. Used never reverts to false.
type PasswordResetToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

// Redeemable reports whether the token can still be redeemed at the given time.
// The owning user existing is checked separately by the store.
func (t *PasswordResetToken) Redeemable(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}
