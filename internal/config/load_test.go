package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.False(t, cfg.Server.Debug)
	assert.Equal(t, "features", cfg.Features.Dir)
	assert.False(t, cfg.Features.Watch)
	assert.Equal(t, 2, cfg.Async.Workers)
	assert.Equal(t, 100, cfg.Async.QueueSize)
	assert.Equal(t, 60, cfg.Auth.TokenLifetimeMinutes)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("TRAILWAY_SERVER_PORT", "9090")
	t.Setenv("TRAILWAY_SERVER_LOG_LEVEL", "debug")
	t.Setenv("TRAILWAY_FEATURES_DIR", "app/features")
	t.Setenv("TRAILWAY_FEATURES_WATCH", "true")
	t.Setenv("TRAILWAY_ASYNC_WORKERS", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "app/features", cfg.Features.Dir)
	assert.True(t, cfg.Features.Watch)
	assert.Equal(t, 8, cfg.Async.Workers)
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	t.Setenv("TRAILWAY_SERVER_PORT", "70000")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLoadRejectsInvalidLogLevel(t *testing.T) {
	t.Setenv("TRAILWAY_SERVER_LOG_LEVEL", "chatty")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLoadJWTSecretFromEnvironment(t *testing.T) {
	secret := "0123456789abcdef0123456789abcdef"
	t.Setenv("TRAILWAY_AUTH_JWT_SECRET", secret)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, secret, cfg.Auth.JWTSecret)
}

func TestLoadRejectsShortJWTSecret(t *testing.T) {
	t.Setenv("TRAILWAY_AUTH_JWT_SECRET", "too-short")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
