package config

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: Dashboard authentication configuration
//   - gateway.go: Upstream gateway configuration
//   - http.go: HTTP server configuration
//   - redis.go: Optional Redis configuration (login throttle)
//   - stream.go: Event stream mirror configuration
type AppConfig struct {
	// IsDev enables development mode: debug-level logging. Set
	// DEV=true for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Authentication configuration
	Auth AuthConfig

	// Upstream gateway configuration
	Gateway GatewayConfig

	// HTTP server configuration
	HTTP HTTPConfig

	// Redis configuration (optional; used by the login throttle)
	Redis RedisConfig `envPrefix:"REDIS_"`

	// Event stream mirror configuration
	Stream StreamConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Auth.Sanitize()
	c.Gateway.Sanitize()
	c.HTTP.Sanitize()
	c.Stream.Sanitize()
}
