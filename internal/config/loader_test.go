package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, DefaultAPIVersion, cfg.API.Version)
	assert.Equal(t, DefaultCallbackPort, cfg.OAuth.CallbackPort)
	assert.Empty(t, cfg.Realtime.Endpoint, "realtime endpoint has no default")
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
api:
  baseUrl: https://area.example.com/
  version: api
realtime:
  endpoint: wss://area.example.com/ws
oauth:
  callbackPort: 9099
  providers:
    github:
      clientId: gh-client-123
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte(content), 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://area.example.com/", cfg.API.BaseURL)
	assert.Equal(t, "wss://area.example.com/ws", cfg.Realtime.Endpoint)
	assert.Equal(t, 9099, cfg.OAuth.CallbackPort)
	assert.Equal(t, "gh-client-123", cfg.OAuth.ClientID("github"))
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte("api: [not a mapping"), 0o600))

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(EnvAPIBaseURL, "http://override:9000")
	t.Setenv(EnvRealtimeURL, "ws://override:9000/ws")
	t.Setenv(EnvGitHubClientID, "env-gh-id")
	t.Setenv(EnvCallbackPort, "7777")

	cfg := GetDefaultConfig()
	ApplyEnvOverrides(&cfg)

	assert.Equal(t, "http://override:9000", cfg.API.BaseURL)
	assert.Equal(t, "ws://override:9000/ws", cfg.Realtime.Endpoint)
	assert.Equal(t, "env-gh-id", cfg.OAuth.ClientID("github"))
	assert.Equal(t, 7777, cfg.OAuth.CallbackPort)
}

func TestApplyEnvOverridesInvalidPort(t *testing.T) {
	t.Setenv(EnvCallbackPort, "not-a-port")

	cfg := GetDefaultConfig()
	ApplyEnvOverrides(&cfg)

	assert.Equal(t, DefaultCallbackPort, cfg.OAuth.CallbackPort)
}

func TestClientIDUnconfiguredProvider(t *testing.T) {
	cfg := GetDefaultConfig()
	assert.Empty(t, cfg.OAuth.ClientID("discord"))
}
