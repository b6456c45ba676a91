package config

import "strings"

// DefaultGatewayURL is where the upstream gateway listens in local development.
const DefaultGatewayURL = "http://localhost:8787"

// GatewayConfig contains upstream gateway configuration.
//
// The base URL and ops token each accept several aliased environment
// variables because deployments predating the dashboard used different
// names. Resolution order is fixed: the UA_-prefixed name wins.
type GatewayConfig struct {
	// URL is the upstream gateway base URL.
	URL string `env:"UA_GATEWAY_URL"`

	// URLAlt and URLBase are legacy aliases for URL.
	URLAlt  string `env:"GATEWAY_URL"`
	URLBase string `env:"UA_GATEWAY_BASE_URL"`

	// OpsToken is the operations bearer token forwarded upstream.
	OpsToken string `env:"UA_OPS_TOKEN"`

	// OpsTokenAlt is a legacy alias for OpsToken.
	OpsTokenAlt string `env:"UA_GATEWAY_TOKEN"`

	// EnforceOwnerFilter injects an owner query parameter on the
	// allow-listed owner-scoped upstream paths. Accepts 1/true/yes/on
	// case-insensitively.
	EnforceOwnerFilter string `env:"UA_ENFORCE_OWNER_FILTER"`
}

// Sanitize applies guardrails to gateway configuration values.
func (g *GatewayConfig) Sanitize() {
	g.URL = strings.TrimSpace(g.URL)
	g.URLAlt = strings.TrimSpace(g.URLAlt)
	g.URLBase = strings.TrimSpace(g.URLBase)
}

// ResolveURL returns the upstream base URL with any trailing slash
// stripped, following the alias fallback chain.
func (g *GatewayConfig) ResolveURL() string {
	for _, candidate := range []string{g.URL, g.URLAlt, g.URLBase} {
		if candidate != "" {
			return strings.TrimRight(candidate, "/")
		}
	}
	return DefaultGatewayURL
}

// ResolveOpsToken returns the operations token, or empty when none is
// configured.
func (g *GatewayConfig) ResolveOpsToken() string {
	if g.OpsToken != "" {
		return g.OpsToken
	}
	return g.OpsTokenAlt
}

// OwnerFilterEnforced reports whether owner-scoped upstream paths should
// receive an injected owner parameter.
func (g *GatewayConfig) OwnerFilterEnforced() bool {
	return ParseBool(g.EnforceOwnerFilter)
}
