package config

import "strings"

const (
	// MinSessionTTLSeconds is the enforced floor for session lifetime.
	// Anything shorter produces cookies that expire mid-page-load.
	MinSessionTTLSeconds = 60

	// DefaultSessionTTLSeconds is one day.
	DefaultSessionTTLSeconds = 86400

	// DefaultOwnerID is used when no owner is configured or a supplied
	// owner id fails validation.
	DefaultOwnerID = "primary"

	// devSessionSecret is the final fallback for token signing so that
	// local development without any configured secrets still works.
	// It provides tamper-evidence only, not independent security.
	devSessionSecret = "ua-dashboard-dev-secret"
)

// AuthConfig groups dashboard authentication configuration.
//
// Whether authentication is required is either set explicitly via
// UA_DASHBOARD_AUTH_REQUIRED, or inferred from whether a password is
// configured: a password implies auth is required.
type AuthConfig struct {
	// Password is the shared dashboard password. Empty means the
	// dashboard runs open (unless RequiredOverride forces otherwise).
	Password string `env:"UA_DASHBOARD_PASSWORD"`

	// RequiredOverride explicitly forces auth on or off. Accepts
	// 1/true/yes/on (case-insensitive) and their negations; empty
	// defers to password presence.
	RequiredOverride string `env:"UA_DASHBOARD_AUTH_REQUIRED"`

	// DefaultOwner is the owner id assumed for unauthenticated or
	// invalid-owner sessions.
	DefaultOwner string `env:"UA_DEFAULT_OWNER"`

	// SessionTTLSeconds is the session token lifetime in seconds.
	SessionTTLSeconds int `env:"UA_DASHBOARD_SESSION_TTL" envDefault:"86400"`

	// SessionSecret signs session tokens. See ResolveSecret for the
	// fallback chain when unset.
	SessionSecret string `env:"UA_DASHBOARD_SESSION_SECRET"`
}

// Sanitize applies guardrails to authentication configuration values.
func (a *AuthConfig) Sanitize() {
	if a.SessionTTLSeconds < MinSessionTTLSeconds {
		a.SessionTTLSeconds = MinSessionTTLSeconds
	}
	if strings.TrimSpace(a.DefaultOwner) == "" {
		a.DefaultOwner = DefaultOwnerID
	}
}

// AuthRequired reports whether callers must present a valid session.
// An explicit override wins; otherwise auth is required iff a password
// is configured.
func (a *AuthConfig) AuthRequired() bool {
	if v := strings.TrimSpace(a.RequiredOverride); v != "" {
		return ParseBool(v)
	}
	return a.Password != ""
}

// ResolveSecret returns the session-signing secret, falling back through
// the configured password, the gateway ops token, and finally a fixed
// development default so unsecured local setups keep working.
func (a *AuthConfig) ResolveSecret(gw *GatewayConfig) string {
	if a.SessionSecret != "" {
		return a.SessionSecret
	}
	if a.Password != "" {
		return a.Password
	}
	if gw != nil {
		if tok := gw.ResolveOpsToken(); tok != "" {
			return tok
		}
	}
	return devSessionSecret
}

// ParseBool interprets common truthy strings (1/true/yes/on) case-insensitively.
// Everything else is false.
func ParseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
