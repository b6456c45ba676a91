package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	"github.com/Kjdragan/universal-agent-sub000/config"
	domainauth "github.com/Kjdragan/universal-agent-sub000/internal/domain/auth"
)

// LoginThrottle limits failed login attempts per key (typically client IP).
// Implementations live in internal/data.
type LoginThrottle interface {
	// Allow records an attempt for key and reports whether it is
	// within the window budget.
	Allow(ctx context.Context, key string) (bool, error)

	// Reset clears the counter for key after a successful login.
	Reset(ctx context.Context, key string) error
}

// Login errors surfaced to the HTTP layer.
var (
	ErrBadCredentials = errors.New("invalid password")
	ErrThrottled      = errors.New("too many login attempts")
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Auth     config.AuthConfig
	Gateway  config.GatewayConfig
	Throttle LoginThrottle // Optional: nil disables login throttling
	Logger   *slog.Logger  // Optional: structured logger
	Now      func() time.Time
}

// AuthService resolves session state from cookies and handles the
// login/logout contract. It is stateless aside from the optional
// login throttle.
type AuthService struct {
	cfg      config.AuthConfig
	tokens   *TokenService
	throttle LoginThrottle
	logger   *slog.Logger
}

// NewAuthService constructs an AuthService over the given configuration.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "auth_service")
	}
	gw := opts.Gateway
	tokens := NewTokenService(TokenServiceOptions{
		Secret:       opts.Auth.ResolveSecret(&gw),
		DefaultOwner: opts.Auth.DefaultOwner,
		AuthRequired: opts.Auth.AuthRequired(),
		TTL:          time.Duration(opts.Auth.SessionTTLSeconds) * time.Second,
		Now:          opts.Now,
	})
	return &AuthService{
		cfg:      opts.Auth,
		tokens:   tokens,
		throttle: opts.Throttle,
		logger:   logger,
	}
}

// ResolveSession derives the caller's session from the raw cookie value.
// Pure: no side effects, no I/O.
func (s *AuthService) ResolveSession(cookieValue string) domainauth.Session {
	return s.tokens.Verify(cookieValue)
}

// AuthRequired reports whether the dashboard enforces authentication.
func (s *AuthService) AuthRequired() bool {
	return s.cfg.AuthRequired()
}

// SessionTTL returns the configured session lifetime.
func (s *AuthService) SessionTTL() time.Duration {
	return time.Duration(s.cfg.SessionTTLSeconds) * time.Second
}

// LoginInput carries the login request fields.
type LoginInput struct {
	Password string
	OwnerID  string
	// ThrottleKey identifies the caller for rate limiting (client IP).
	ThrottleKey string
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Token     string
	OwnerID   string
	ExpiresAt int64
}

// Login validates credentials and issues a fresh session token. The
// password is only checked when auth is required; an open dashboard
// accepts any login and simply scopes the session to the requested
// owner (normalized).
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if s.cfg.AuthRequired() {
		if s.throttle != nil && input.ThrottleKey != "" {
			allowed, err := s.throttle.Allow(ctx, input.ThrottleKey)
			if err != nil {
				// A broken throttle backend must not lock operators out.
				if s.logger != nil {
					s.logger.WarnContext(ctx, "login throttle unavailable", "error", err)
				}
			} else if !allowed {
				return nil, ErrThrottled
			}
		}
		if subtle.ConstantTimeCompare([]byte(input.Password), []byte(s.cfg.Password)) != 1 {
			return nil, ErrBadCredentials
		}
		if s.throttle != nil && input.ThrottleKey != "" {
			if err := s.throttle.Reset(ctx, input.ThrottleKey); err != nil && s.logger != nil {
				s.logger.WarnContext(ctx, "login throttle reset failed", "error", err)
			}
		}
	}

	token, expiresAt := s.tokens.Create(input.OwnerID)
	return &LoginResult{
		Token:     token,
		OwnerID:   domainauth.NormalizeOwnerID(input.OwnerID, s.cfg.DefaultOwner),
		ExpiresAt: expiresAt,
	}, nil
}
