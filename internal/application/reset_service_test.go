package application

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptguard/promptguard/internal/domain/entity"
)

const resetURL = "http://localhost:8080/reset-password"

func newResetFixture(t *testing.T) (*Service, *ResetService, *fakeUserRepo, *fakeTokenRepo, *recordingNotifier) {
	t.Helper()
	users := newFakeUserRepo()
	tokens := newFakeTokenRepo(users)
	notifier := &recordingNotifier{}
	return newUserService(users),
		NewResetService(users, tokens, notifier, resetURL, time.Hour, nil),
		users, tokens, notifier
}

func TestIssueResetUnknownEmail(t *testing.T) {
	ctx := context.Background()
	_, rs, _, tokens, notifier := newResetFixture(t)

	err := rs.IssueReset(ctx, "nobody@example.com")
	require.NoError(t, err, "unknown email must look like success")
	assert.Zero(t, tokens.count(), "no token may be minted for an unknown email")
	assert.Zero(t, notifier.calls)
}

func TestIssueResetValidation(t *testing.T) {
	_, rs, _, _, _ := newResetFixture(t)
	err := rs.IssueReset(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestResetRoundTrip(t *testing.T) {
	ctx := context.Background()
	us, rs, _, tokens, notifier := newResetFixture(t)

	_, err := us.Register(ctx, "Alice", "alice@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, rs.IssueReset(ctx, "alice@example.com"))
	require.Equal(t, 1, tokens.count())
	require.Len(t, notifier.sent, 1)

	link := notifier.sent[0]
	require.Contains(t, link, resetURL+"?token=")
	token := link[len(resetURL+"?token="):]
	require.NotEmpty(t, token)

	require.NoError(t, rs.RedeemReset(ctx, token, "newpass1"))

	_, err = us.Authenticate(ctx, "alice@example.com", "newpass1")
	assert.NoError(t, err, "new password must work after redemption")
	_, err = us.Authenticate(ctx, "alice@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "old password must stop working")
}

func TestRedeemResetSingleUse(t *testing.T) {
	ctx := context.Background()
	us, rs, _, _, notifier := newResetFixture(t)

	_, err := us.Register(ctx, "Alice", "alice@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, rs.IssueReset(ctx, "alice@example.com"))
	token := notifier.sent[0][len(resetURL+"?token="):]

	require.NoError(t, rs.RedeemReset(ctx, token, "newpass1"))

	err = rs.RedeemReset(ctx, token, "evilpass9")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)

	// the failed second attempt must not have touched the password
	_, err = us.Authenticate(ctx, "alice@example.com", "newpass1")
	assert.NoError(t, err)
	_, err = us.Authenticate(ctx, "alice@example.com", "evilpass9")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRedeemResetExpiredToken(t *testing.T) {
	ctx := context.Background()
	us, rs, _, tokens, _ := newResetFixture(t)

	u, err := us.Register(ctx, "Alice", "alice@example.com", "secret1")
	require.NoError(t, err)

	stale := &entity.PasswordResetToken{
		UserID:    u.ID,
		Token:     "stale-token",
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, tokens.Insert(ctx, stale))

	err = rs.RedeemReset(ctx, "stale-token", "newpass1")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)

	_, err = us.Authenticate(ctx, "alice@example.com", "secret1")
	assert.NoError(t, err, "expired redemption must leave the password alone")
}

func TestRedeemResetUnknownToken(t *testing.T) {
	_, rs, _, _, _ := newResetFixture(t)
	err := rs.RedeemReset(context.Background(), "no-such-token", "newpass1")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestRedeemResetBadPasswordLength(t *testing.T) {
	ctx := context.Background()
	us, rs, _, _, notifier := newResetFixture(t)

	_, err := us.Register(ctx, "Alice", "alice@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, rs.IssueReset(ctx, "alice@example.com"))
	token := notifier.sent[0][len(resetURL+"?token="):]

	err = rs.RedeemReset(ctx, token, "short")
	assert.ErrorIs(t, err, ErrValidation)

	err = rs.RedeemReset(ctx, token, strings.Repeat("a", 80))
	assert.ErrorIs(t, err, ErrValidation)

	// the token survives a rejected password and can still be redeemed
	assert.NoError(t, rs.RedeemReset(ctx, token, "longenough1"))
}

func TestRedeemResetConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	us, rs, _, _, notifier := newResetFixture(t)

	_, err := us.Register(ctx, "Alice", "alice@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, rs.IssueReset(ctx, "alice@example.com"))
	token := notifier.sent[0][len(resetURL+"?token="):]

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = rs.RedeemReset(ctx, token, "newpass1")
		}(i)
	}
	close(start)
	wg.Wait()

	var wins int
	for _, e := range errs {
		if e == nil {
			wins++
		} else {
			assert.ErrorIs(t, e, ErrInvalidOrExpiredToken)
		}
	}
	assert.Equal(t, 1, wins, "exactly one concurrent redemption may succeed")
}

func TestMultipleOutstandingTokens(t *testing.T) {
	ctx := context.Background()
	us, rs, _, tokens, notifier := newResetFixture(t)

	_, err := us.Register(ctx, "Alice", "alice@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, rs.IssueReset(ctx, "alice@example.com"))
	require.NoError(t, rs.IssueReset(ctx, "alice@example.com"))
	require.Equal(t, 2, tokens.count())
	require.Len(t, notifier.sent, 2)

	first := notifier.sent[0][len(resetURL+"?token="):]
	second := notifier.sent[1][len(resetURL+"?token="):]
	require.NotEqual(t, first, second)

	// redeeming the older token does not invalidate the newer one
	require.NoError(t, rs.RedeemReset(ctx, first, "newpass1"))
	require.NoError(t, rs.RedeemReset(ctx, second, "newpass2"))

	_, err = us.Authenticate(ctx, "alice@example.com", "newpass2")
	assert.NoError(t, err)
}

func TestIssueResetNotifierFailureSwallowed(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserRepo()
	tokens := newFakeTokenRepo(users)
	notifier := &recordingNotifier{fail: true}
	us := newUserService(users)
	rs := NewResetService(users, tokens, notifier, resetURL, time.Hour, nil)

	_, err := us.Register(ctx, "Alice", "alice@example.com", "secret1")
	require.NoError(t, err)

	err = rs.IssueReset(ctx, "alice@example.com")
	assert.NoError(t, err, "a delivery failure must not surface to the caller")
	assert.Equal(t, 1, tokens.count(), "the token is durable regardless of delivery")
	assert.Equal(t, 1, notifier.calls)
}

func TestIssueResetUnknownEmailKeptOutOfLogs(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserRepo()
	tokens := newFakeTokenRepo(users)
	logger, hook := logrustest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	rs := NewResetService(users, tokens, &recordingNotifier{}, resetURL, time.Hour, logger)

	const addr = "nobody@example.com"
	require.NoError(t, rs.IssueReset(ctx, addr))

	for _, e := range hook.AllEntries() {
		assert.NotContains(t, e.Message, addr)
		assert.NotContains(t, fmt.Sprint(e.Data), addr)
		assert.Equal(t, logrus.DebugLevel, e.Level, "unknown-email path must not log above debug")
	}
}

func TestSweepExpired(t *testing.T) {
	ctx := context.Background()
	us, rs, _, tokens, _ := newResetFixture(t)

	u, err := us.Register(ctx, "Alice", "alice@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, tokens.Insert(ctx, &entity.PasswordResetToken{
		UserID: u.ID, Token: "old", ExpiresAt: time.Now().Add(-time.Hour),
	}))
	require.NoError(t, tokens.Insert(ctx, &entity.PasswordResetToken{
		UserID: u.ID, Token: "fresh", ExpiresAt: time.Now().Add(time.Hour),
	}))

	rs.SweepExpired(ctx)
	assert.Equal(t, 1, tokens.count())
	_, err = tokens.GetByToken(ctx, "fresh")
	assert.NoError(t, err)
}
