package helpers

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResetTokenShape(t *testing.T) {
	tok, err := NewResetToken()
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(tok)
	require.NoError(t, err, "token must be URL-safe base64 with no padding")
	assert.Len(t, raw, resetTokenBytes)
	assert.NotContains(t, tok, "+")
	assert.NotContains(t, tok, "/")
	assert.NotContains(t, tok, "=")
}

func TestNewResetTokenUnique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		tok, err := NewResetToken()
		require.NoError(t, err)
		_, dup := seen[tok]
		require.False(t, dup, "token collision")
		seen[tok] = struct{}{}
	}
}
