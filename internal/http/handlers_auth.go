package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Kjdragan/universal-agent-sub000/config"
	domainauth "github.com/Kjdragan/universal-agent-sub000/internal/domain/auth"
	"github.com/Kjdragan/universal-agent-sub000/internal/service"
)

// SessionCookieName is the fixed name of the dashboard session cookie.
const SessionCookieName = "ua_dashboard_session"

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	ResolveSession(cookieValue string) domainauth.Session
	AuthRequired() bool
	SessionTTL() time.Duration
	Login(ctx context.Context, input service.LoginInput) (*service.LoginResult, error)
}

// AuthHandlers provides HTTP handlers for the login/logout/session-check
// contract.
type AuthHandlers struct {
	Svc          AuthServiceInterface
	CookieDomain string
	Logger       *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// loginRequest is the login endpoint body.
type loginRequest struct {
	Password string `json:"password"`
	OwnerID  string `json:"owner_id"`
}

// Login handles the login endpoint.
// POST /auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.Svc.Login(r.Context(), service.LoginInput{
		Password:    req.Password,
		OwnerID:     req.OwnerID,
		ThrottleKey: clientKey(r),
	})
	switch {
	case errors.Is(err, service.ErrThrottled):
		WriteDetail(w, http.StatusTooManyRequests, "too many login attempts, try again later")
		return
	case errors.Is(err, service.ErrBadCredentials):
		WriteDetail(w, http.StatusUnauthorized, "invalid password")
		return
	case err != nil:
		h.logger().ErrorContext(r.Context(), "login failed", "error", err)
		WriteDetail(w, http.StatusInternalServerError, "login failed")
		return
	}

	h.setSessionCookie(w, r, result.Token)
	WriteJSON(w, http.StatusOK, map[string]any{
		"ok":            true,
		"auth_required": h.Svc.AuthRequired(),
		"owner_id":      result.OwnerID,
		"expires_at":    result.ExpiresAt,
	})
}

// Logout handles the logout endpoint.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w, r)
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Session returns the caller's current authentication state.
// GET /auth/session.
//
// Returns 401 only when auth is required and the caller is
// unauthenticated; an open dashboard always answers 200 with a
// synthetic authenticated session.
func (h *AuthHandlers) Session(w http.ResponseWriter, r *http.Request) {
	sess := h.Svc.ResolveSession(sessionCookieValue(r))

	code := http.StatusOK
	if sess.AuthRequired && !sess.Authenticated {
		code = http.StatusUnauthorized
	}
	WriteJSON(w, code, sess)
}

// sessionCookieValue extracts the raw session cookie, or empty string.
func sessionCookieValue(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// setSessionCookie installs the session token with the remaining TTL,
// clamped to the configured floor so a cookie never expires mid-flight.
func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, token string) {
	maxAge := int(h.Svc.SessionTTL().Seconds())
	if maxAge < config.MinSessionTTLSeconds {
		maxAge = config.MinSessionTTLSeconds
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   maxAge,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie expires the cookie immediately, mirroring the
// attributes used when setting it for cross-browser deletion.
func (h *AuthHandlers) clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

func isSecureRequest(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// clientKey identifies the caller for login throttling: the first
// X-Forwarded-For hop when present, else the remote address host.
func clientKey(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
