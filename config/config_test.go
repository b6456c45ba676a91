package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthConfig_SanitizeEnforcesTTLFloor(t *testing.T) {
	cfg := AuthConfig{SessionTTLSeconds: 5}
	cfg.Sanitize()
	assert.Equal(t, MinSessionTTLSeconds, cfg.SessionTTLSeconds)

	cfg = AuthConfig{SessionTTLSeconds: 7200}
	cfg.Sanitize()
	assert.Equal(t, 7200, cfg.SessionTTLSeconds)
}

func TestAuthConfig_SanitizeDefaultsOwner(t *testing.T) {
	cfg := AuthConfig{DefaultOwner: "  "}
	cfg.Sanitize()
	assert.Equal(t, DefaultOwnerID, cfg.DefaultOwner)

	cfg = AuthConfig{DefaultOwner: "acct_1"}
	cfg.Sanitize()
	assert.Equal(t, "acct_1", cfg.DefaultOwner)
}

func TestAuthConfig_AuthRequired(t *testing.T) {
	tests := []struct {
		name     string
		password string
		override string
		want     bool
	}{
		{"no password, no override", "", "", false},
		{"password implies required", "secret", "", true},
		{"override forces off despite password", "secret", "false", false},
		{"override forces on without password", "", "yes", true},
		{"override ON case-insensitive", "", "ON", true},
		{"garbage override is false", "secret", "maybe", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := AuthConfig{Password: tt.password, RequiredOverride: tt.override}
			assert.Equal(t, tt.want, cfg.AuthRequired())
		})
	}
}

func TestAuthConfig_ResolveSecretChain(t *testing.T) {
	gw := &GatewayConfig{OpsToken: "ops-token"}

	cfg := AuthConfig{SessionSecret: "explicit", Password: "pw"}
	assert.Equal(t, "explicit", cfg.ResolveSecret(gw))

	cfg = AuthConfig{Password: "pw"}
	assert.Equal(t, "pw", cfg.ResolveSecret(gw))

	cfg = AuthConfig{}
	assert.Equal(t, "ops-token", cfg.ResolveSecret(gw))

	// Nothing configured: a working dev fallback must still exist.
	cfg = AuthConfig{}
	secret := cfg.ResolveSecret(&GatewayConfig{})
	assert.NotEmpty(t, secret)
}

func TestGatewayConfig_ResolveURL(t *testing.T) {
	cfg := GatewayConfig{}
	assert.Equal(t, DefaultGatewayURL, cfg.ResolveURL())

	cfg = GatewayConfig{URLBase: "http://base:1/", URLAlt: "http://alt:2"}
	assert.Equal(t, "http://alt:2", cfg.ResolveURL())

	cfg = GatewayConfig{URL: "http://primary:3///", URLAlt: "http://alt:2"}
	assert.Equal(t, "http://primary:3", cfg.ResolveURL())
}

func TestGatewayConfig_ResolveOpsToken(t *testing.T) {
	cfg := GatewayConfig{OpsTokenAlt: "legacy"}
	assert.Equal(t, "legacy", cfg.ResolveOpsToken())

	cfg.OpsToken = "current"
	assert.Equal(t, "current", cfg.ResolveOpsToken())
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", "yes", "On", " on "} {
		assert.True(t, ParseBool(v), "value %q", v)
	}
	for _, v := range []string{"", "0", "false", "off", "no", "2", "enabled"} {
		assert.False(t, ParseBool(v), "value %q", v)
	}
}

func TestStreamConfig_Sanitize(t *testing.T) {
	cfg := StreamConfig{Limit: -1, HeartbeatSeconds: 0, PollIntervalSeconds: -5}
	cfg.Sanitize()
	assert.Equal(t, 100, cfg.Limit)
	assert.Equal(t, 25, cfg.HeartbeatSeconds)
	assert.Equal(t, 15, cfg.PollIntervalSeconds)
}
