package config

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":3000"`

	// CookieDomain is the domain for session cookies.
	// Leave empty to use the request domain.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`

	// ReadTimeoutSeconds bounds how long reading a request may take.
	ReadTimeoutSeconds int `env:"HTTP_READ_TIMEOUT" envDefault:"30"`

	// WriteTimeoutSeconds bounds how long writing a response may take.
	// Zero disables the write deadline; the gateway relay streams
	// long-lived SSE responses through this server.
	WriteTimeoutSeconds int `env:"HTTP_WRITE_TIMEOUT" envDefault:"0"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if h.Addr == "" {
		h.Addr = ":3000"
	}
	if h.ReadTimeoutSeconds < 0 {
		h.ReadTimeoutSeconds = 0
	}
	if h.WriteTimeoutSeconds < 0 {
		h.WriteTimeoutSeconds = 0
	}
}
