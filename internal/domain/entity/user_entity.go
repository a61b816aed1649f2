package entity

import (
	"time"
)

// User is the aggregate root for the account domain.
// Password holds the bcrypt digest, never the plaintext.
type User struct {
	ID        string
	Email     string
	Password  string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
