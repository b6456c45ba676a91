package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestTokenService(now time.Time) *TokenService {
	return NewTokenService(TokenServiceOptions{
		Secret:       "test-secret",
		DefaultOwner: "primary",
		AuthRequired: true,
		TTL:          time.Hour,
		Now:          fixedClock(now),
	})
}

func TestTokenService_RoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestTokenService(now)

	for _, owner := range []string{"primary", "acct_42", "user.name-01"} {
		token, expiresAt := svc.Create(owner)
		require.NotEmpty(t, token)
		assert.Equal(t, now.Add(time.Hour).Unix(), expiresAt)

		sess := svc.Verify(token)
		assert.True(t, sess.Authenticated, "owner %q", owner)
		assert.True(t, sess.AuthRequired)
		assert.Equal(t, owner, sess.OwnerID)
		require.NotNil(t, sess.ExpiresAt)
		assert.Equal(t, expiresAt, *sess.ExpiresAt)
	}
}

func TestTokenService_CreateNormalizesOwner(t *testing.T) {
	svc := newTestTokenService(time.Now())

	for _, bad := range []string{"", "own er/1", "a b", strings.Repeat("x", 65)} {
		token, _ := svc.Create(bad)
		sess := svc.Verify(token)
		assert.True(t, sess.Authenticated)
		assert.Equal(t, "primary", sess.OwnerID, "input %q", bad)
	}
}

func TestTokenService_TamperRejection(t *testing.T) {
	svc := newTestTokenService(time.Now())
	token, _ := svc.Create("acct_42")

	// Flip every character in turn; each mutation must invalidate the token.
	for i := 0; i < len(token); i++ {
		if token[i] == '.' {
			continue
		}
		flipped := byte('0')
		if token[i] == '0' {
			flipped = '1'
		}
		mutated := token[:i] + string(flipped) + token[i+1:]
		sess := svc.Verify(mutated)
		assert.False(t, sess.Authenticated, "mutation at index %d", i)
	}
}

func TestTokenService_MalformedTokens(t *testing.T) {
	svc := newTestTokenService(time.Now())
	valid, _ := svc.Create("acct_42")

	malformed := []string{
		"",
		"no-separator",
		"a.b.c",
		valid + ".extra",
		".signatureonly",
		"!!!!.cafebabe",
	}
	for _, tok := range malformed {
		sess := svc.Verify(tok)
		assert.False(t, sess.Authenticated, "token %q", tok)
		assert.Equal(t, "primary", sess.OwnerID)
	}
}

func TestTokenService_ExpiryBoundary(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Token created one second before its own expiry check fails; a
	// fresh one-hour token verifies.
	issuer := NewTokenService(TokenServiceOptions{
		Secret:       "test-secret",
		DefaultOwner: "primary",
		AuthRequired: true,
		TTL:          -time.Second,
		Now:          fixedClock(now),
	})
	expired, _ := issuer.Create("acct_42")

	verifier := newTestTokenService(now)
	assert.False(t, verifier.Verify(expired).Authenticated)

	fresh, _ := verifier.Create("acct_42")
	assert.True(t, verifier.Verify(fresh).Authenticated)
}

func TestTokenService_ExpiryExactlyNowRejected(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewTokenService(TokenServiceOptions{
		Secret:       "test-secret",
		DefaultOwner: "primary",
		AuthRequired: true,
		TTL:          0, // exp == now: must be strictly in the future
		Now:          fixedClock(now),
	})
	token, _ := issuer.Create("acct_42")
	assert.False(t, issuer.Verify(token).Authenticated)
}

func TestTokenService_AuthNotRequiredShortCircuits(t *testing.T) {
	svc := NewTokenService(TokenServiceOptions{
		Secret:       "test-secret",
		DefaultOwner: "primary",
		AuthRequired: false,
		TTL:          time.Hour,
	})

	sess := svc.Verify("complete garbage")
	assert.True(t, sess.Authenticated)
	assert.False(t, sess.AuthRequired)
	assert.Equal(t, "primary", sess.OwnerID)
	assert.Nil(t, sess.ExpiresAt)
}

func TestTokenService_DifferentSecretsReject(t *testing.T) {
	now := time.Now()
	a := newTestTokenService(now)
	b := NewTokenService(TokenServiceOptions{
		Secret:       "other-secret",
		DefaultOwner: "primary",
		AuthRequired: true,
		TTL:          time.Hour,
		Now:          fixedClock(now),
	})

	token, _ := a.Create("acct_42")
	assert.False(t, b.Verify(token).Authenticated)
}
