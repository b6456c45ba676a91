package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	domainauth "github.com/Kjdragan/universal-agent-sub000/internal/domain/auth"
)

// tokenPayload is the JSON body of a session token.
type tokenPayload struct {
	OwnerID string `json:"owner_id"`
	Exp     int64  `json:"exp"`
}

// TokenServiceOptions groups dependencies for TokenService.
type TokenServiceOptions struct {
	Secret       string           // Required: HMAC signing secret
	DefaultOwner string           // Required: owner substituted for invalid ids
	AuthRequired bool             // Whether verification is enforced at all
	TTL          time.Duration    // Session lifetime for newly created tokens
	Now          func() time.Time // Optional: clock override for tests
}

// TokenService creates and verifies stateless HMAC-signed session tokens.
// Tokens are self-contained (owner id + expiry); nothing is stored
// server-side, so verification is a pure function of the token string,
// the secret, and the clock.
type TokenService struct {
	secret       []byte
	defaultOwner string
	authRequired bool
	ttl          time.Duration
	now          func() time.Time
}

// NewTokenService constructs a TokenService.
func NewTokenService(opts TokenServiceOptions) *TokenService {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &TokenService{
		secret:       []byte(opts.Secret),
		defaultOwner: opts.DefaultOwner,
		authRequired: opts.AuthRequired,
		ttl:          opts.TTL,
		now:          now,
	}
}

// Create issues a fresh token for ownerID. Invalid or empty owner ids
// silently fall back to the configured default rather than erroring.
func (s *TokenService) Create(ownerID string) (token string, expiresAt int64) {
	owner := domainauth.NormalizeOwnerID(ownerID, s.defaultOwner)
	expiresAt = s.now().Add(s.ttl).Unix()

	raw, err := json.Marshal(tokenPayload{OwnerID: owner, Exp: expiresAt})
	if err != nil {
		// tokenPayload marshalling cannot fail for string/int fields.
		return "", 0
	}
	payload := base64.RawURLEncoding.EncodeToString(raw)
	return payload + "." + s.sign(payload), expiresAt
}

// Verify resolves token into a session descriptor. It never returns an
// error and never leaks why a token was rejected: tampered, malformed,
// and expired tokens all yield the same unauthenticated session.
//
// When auth is not required the token is ignored entirely and a
// synthetic always-authenticated session is returned.
func (s *TokenService) Verify(token string) domainauth.Session {
	if !s.authRequired {
		return domainauth.Session{
			Authenticated: true,
			AuthRequired:  false,
			OwnerID:       s.defaultOwner,
		}
	}

	unauthenticated := domainauth.Session{AuthRequired: true, OwnerID: s.defaultOwner}

	payload, sig, ok := strings.Cut(token, ".")
	if !ok || payload == "" || strings.Contains(sig, ".") {
		return unauthenticated
	}
	if subtle.ConstantTimeCompare([]byte(s.sign(payload)), []byte(sig)) != 1 {
		return unauthenticated
	}

	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return unauthenticated
	}
	var body tokenPayload
	if err := json.Unmarshal(raw, &body); err != nil {
		return unauthenticated
	}
	if body.Exp <= s.now().Unix() {
		return unauthenticated
	}

	exp := body.Exp
	return domainauth.Session{
		Authenticated: true,
		AuthRequired:  true,
		OwnerID:       domainauth.NormalizeOwnerID(body.OwnerID, s.defaultOwner),
		ExpiresAt:     &exp,
	}
}

// sign computes the hex HMAC-SHA256 of the encoded payload.
func (s *TokenService) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
