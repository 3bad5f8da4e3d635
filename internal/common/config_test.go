package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Auth.GetAccessTokenExpiry())
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.GetRefreshTokenExpiry())
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "advisor.toml")
	content := `
environment = "production"

[server]
port = 9090

[auth]
access_secret = "file-secret"
access_token_expiry = "15m"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "file-secret", cfg.Auth.AccessSecret)
	assert.Equal(t, 15*time.Minute, cfg.Auth.GetAccessTokenExpiry())
	// Untouched sections keep their defaults.
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/advisor.toml")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ADVISOR_PORT", "7070")
	t.Setenv("ADVISOR_AUTH_ACCESS_SECRET", "env-secret")
	t.Setenv("ADVISOR_AUTH_REFRESH_TOKEN_EXPIRY", "48h")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "env-secret", cfg.Auth.AccessSecret)
	assert.Equal(t, 48*time.Hour, cfg.Auth.GetRefreshTokenExpiry())
}

func TestTokenExpiryFallback(t *testing.T) {
	auth := AuthConfig{AccessTokenExpiry: "not-a-duration", RefreshTokenExpiry: ""}
	assert.Equal(t, 30*time.Minute, auth.GetAccessTokenExpiry())
	assert.Equal(t, 7*24*time.Hour, auth.GetRefreshTokenExpiry())
}
