package bootstrap

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Kjdragan/universal-agent-sub000/config"
	httpx "github.com/Kjdragan/universal-agent-sub000/internal/http"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) *http.Server {
	if cfg == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	// FeedMirror is an interface; only assign when a mirror exists so
	// the handlers see a true nil.
	var mirror httpx.FeedMirror
	if cfg.Services.Mirror != nil {
		mirror = cfg.Services.Mirror
	}

	services := httpx.RouterServices{
		Auth:               cfg.Services.Auth,
		UpstreamURL:        appCfg.Gateway.ResolveURL(),
		OpsToken:           appCfg.Gateway.ResolveOpsToken(),
		EnforceOwnerFilter: appCfg.Gateway.OwnerFilterEnforced(),
		Mirror:             mirror,
		CookieDomain:       appCfg.HTTP.CookieDomain,
		Logger:             logger,
	}

	handler := buildHTTPHandler(logger, services)

	return startServer(logger, handler, appCfg.HTTP)
}

// buildHTTPHandler stacks middleware around the router.
// Order: Recover -> RequestID -> Logging -> Router. RequestID must run
// before Logging so the access log sees the id it assigned.
func buildHTTPHandler(logger *slog.Logger, services httpx.RouterServices) http.Handler {
	h := httpx.NewRouter(services)
	h = httpx.Logging(logger)(h)
	h = httpx.RequestID()(h)
	h = httpx.Recover(logger)(h)
	return h
}

func startServer(logger *slog.Logger, handler http.Handler, cfg config.HTTPConfig) *http.Server {
	addr := cfg.Addr
	if addr == "" {
		addr = ":3000"
	}

	server := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		// WriteTimeout stays configurable and defaults to zero: the
		// proxy relays long-lived SSE responses.
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
		}
	}()

	return server
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	if server == nil {
		return nil
	}

	if logger != nil {
		logger.Info("shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if logger != nil {
		logger.Info("HTTP server stopped")
	}

	return nil
}
