package httpx

import (
	"log/slog"
	"net/http"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth               AuthServiceInterface
	UpstreamURL        string
	OpsToken           string
	EnforceOwnerFilter bool
	Mirror             FeedMirror // optional: nil disables /api/notifications
	CookieDomain       string
	Logger             *slog.Logger // optional
}

// NewRouter creates and configures the dashboard HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{
		Svc:          services.Auth,
		CookieDomain: services.CookieDomain,
		Logger:       services.Logger,
	}
	gatewayHandlers := &GatewayHandlers{
		Resolver:           services.Auth,
		UpstreamURL:        services.UpstreamURL,
		OpsToken:           services.OpsToken,
		EnforceOwnerFilter: services.EnforceOwnerFilter,
		Logger:             services.Logger,
	}
	notificationHandlers := &NotificationHandlers{Mirror: services.Mirror}

	mux.HandleFunc("POST /auth/login", authHandlers.Login)
	mux.HandleFunc("POST /auth/logout", authHandlers.Logout)
	mux.HandleFunc("GET /auth/session", authHandlers.Session)

	for _, method := range []string{
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	} {
		mux.HandleFunc(method+" /gateway/{path...}", gatewayHandlers.Forward)
	}

	mux.HandleFunc("GET /api/notifications", notificationHandlers.List)
	mux.HandleFunc("GET /api/notifications/counters", notificationHandlers.Counters)
	mux.HandleFunc("GET /api/notifications/stream/status", notificationHandlers.StreamStatus)

	mux.HandleFunc("GET /healthz", healthHandler)
	mux.HandleFunc("HEAD /healthz", healthHandler)

	return mux
}
