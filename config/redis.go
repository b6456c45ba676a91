package config

// RedisConfig contains optional Redis configuration. The dashboard holds
// no server-side session state; Redis only backs the login throttle so
// brute-force counters survive restarts and are shared across replicas.
// When URL is empty the throttle falls back to an in-process counter.
type RedisConfig struct {
	// URL is a redis connection URL (redis://host:port/db).
	URL string `env:"URL"`
}

// Enabled reports whether a Redis connection is configured.
func (r *RedisConfig) Enabled() bool {
	return r.URL != ""
}
