// Package auth contains domain-level types for dashboard sessions.
// It is pure and free of framework/adapter concerns.
package auth

import "regexp"

// ownerIDPattern constrains owner identifiers to a conservative charset
// safe for query parameters and headers.
var ownerIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// Session describes the caller's authentication state for one request.
// It is derived purely from configuration and the session cookie; there
// is no server-side session record.
type Session struct {
	// Authenticated reports whether the caller holds a valid token,
	// or auth is not required (synthetic always-authenticated session).
	Authenticated bool `json:"authenticated"`

	// AuthRequired mirrors the process-wide configuration flag so the
	// UI can decide whether to show a login prompt.
	AuthRequired bool `json:"auth_required"`

	// OwnerID is the owner the session is scoped to. Never empty for
	// an authenticated session.
	OwnerID string `json:"owner_id"`

	// ExpiresAt is the token expiry in epoch seconds. Nil for the
	// synthetic session issued when auth is not required.
	ExpiresAt *int64 `json:"expires_at,omitempty"`
}

// ValidOwnerID reports whether raw is an acceptable owner identifier.
func ValidOwnerID(raw string) bool {
	return ownerIDPattern.MatchString(raw)
}

// NormalizeOwnerID returns raw when it is a valid owner id, otherwise
// fallback. Invalid ids are silently reassigned rather than rejected so
// local/dev flows without real owners keep working.
func NormalizeOwnerID(raw, fallback string) string {
	if ValidOwnerID(raw) {
		return raw
	}
	return fallback
}
