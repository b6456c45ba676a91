package bootstrap

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Kjdragan/universal-agent-sub000/config"
	"github.com/Kjdragan/universal-agent-sub000/internal/data"
	httpx "github.com/Kjdragan/universal-agent-sub000/internal/http"
	"github.com/Kjdragan/universal-agent-sub000/internal/service"
	"github.com/Kjdragan/universal-agent-sub000/internal/stream"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Auth   *service.AuthService
	Mirror *stream.Client // nil when the feed mirror is disabled
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	RedisClient redis.UniversalClient // Optional: nil uses in-process throttling
	Logger      *slog.Logger
}

// NewServices wires up the application services from configuration.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	auth := service.NewAuthService(service.AuthServiceOptions{
		Auth:     cfg.Auth,
		Gateway:  cfg.Gateway,
		Throttle: newLoginThrottle(deps.RedisClient),
		Logger:   logger,
	})

	mirror, err := newFeedMirror(cfg, logger)
	if err != nil {
		return ServiceContainer{}, err
	}

	return ServiceContainer{Auth: auth, Mirror: mirror}, nil
}

// newLoginThrottle prefers the Redis-backed counter so attempts are
// shared across replicas, falling back to an in-process window.
func newLoginThrottle(client redis.UniversalClient) service.LoginThrottle {
	if client != nil {
		return data.NewRedisThrottle(data.RedisThrottleOptions{Client: client})
	}
	return data.NewMemoryThrottle(data.MemoryThrottleOptions{})
}

// newFeedMirror builds the SSE feed client when the mirror is enabled.
// The mirror consumes the upstream notification feed with the same
// trust headers the proxy injects, so the gateway sees one consistent
// caller identity.
func newFeedMirror(cfg *config.AppConfig, logger *slog.Logger) (*stream.Client, error) {
	if !cfg.Stream.MirrorEnabled {
		return nil, nil
	}

	headers := http.Header{}
	headers.Set(httpx.OwnerHeader, cfg.Auth.DefaultOwner)
	if token := cfg.Gateway.ResolveOpsToken(); token != "" {
		headers.Set(httpx.OpsTokenHeader, token)
		headers.Set("Authorization", "Bearer "+token)
	}

	return stream.NewClient(stream.ClientOptions{
		BaseURL:          cfg.Gateway.ResolveURL(),
		FeedPath:         cfg.Stream.FeedPath,
		ListPath:         cfg.Stream.ListPath,
		CountersPath:     cfg.Stream.CountersPath,
		Limit:            cfg.Stream.Limit,
		HeartbeatSeconds: cfg.Stream.HeartbeatSeconds,
		PollInterval:     time.Duration(cfg.Stream.PollIntervalSeconds) * time.Second,
		Headers:          headers,
		Logger:           logger,
	})
}
