package helpers

import (
	"crypto/rand"
	"encoding/base64"
)

// resetTokenBytes is the raw entropy of a reset token: 32 bytes = 256 bits.
const resetTokenBytes = 32

// NewResetToken generates an unguessable, URL-safe password reset token.
func NewResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
