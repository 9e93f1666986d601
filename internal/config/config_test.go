package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	// Point at a non-existent file so neither the user's real config nor
	// their environment leaks in.
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "github.com", cfg.Host)
	assert.Equal(t, DefaultClientID, cfg.ClientID)
	assert.Equal(t, DefaultScopes, cfg.Scopes)
	assert.Equal(t, "https://github.com/login/device/code", cfg.DeviceCodeURL)
	assert.Equal(t, "https://github.com/login/oauth/access_token", cfg.TokenURL)
	assert.Equal(t, "https://api.github.com", cfg.APIBaseURL)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Retry.BaseDelay)
	assert.Equal(t, 60*time.Second, cfg.Retry.MaxDelay)
	assert.True(t, cfg.Retry.Exponential)
	assert.True(t, cfg.Retry.Jitter)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
host: ghe.example.com
scopes: repo
retry:
  maxAttempts: 5
  baseDelay: 1s
  maxDelay: 30s
  exponential: true
  jitter: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ghe.example.com", cfg.Host)
	assert.Equal(t, "repo", cfg.Scopes)
	assert.Equal(t, DefaultClientID, cfg.ClientID, "unset keys keep defaults")
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Retry.BaseDelay)
	assert.False(t, cfg.Retry.Jitter)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `host: ghe.example.com`)

	t.Setenv("GH_CLI_HOST", "env.example.com")
	t.Setenv("GH_CLI_SCOPES", "gist")
	t.Setenv("GH_CLI_RETRY_MAX_ATTEMPTS", "7")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env.example.com", cfg.Host)
	assert.Equal(t, "gist", cfg.Scopes)
	assert.Equal(t, 7, cfg.Retry.MaxAttempts)
}

func TestLoad_MalformedFileFails(t *testing.T) {
	path := writeConfigFile(t, "host: [unterminated")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestLoad_Validation(t *testing.T) {
	t.Run("zero attempts rejected", func(t *testing.T) {
		path := writeConfigFile(t, `
retry:
  maxAttempts: 0
  baseDelay: 1s
  maxDelay: 30s
`)
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "maxAttempts")
	})

	t.Run("inverted delays rejected", func(t *testing.T) {
		path := writeConfigFile(t, `
retry:
  maxAttempts: 3
  baseDelay: 2m
  maxDelay: 30s
`)
		_, err := Load(path)
		require.Error(t, err)
	})

	t.Run("empty client id rejected", func(t *testing.T) {
		path := writeConfigFile(t, `clientId: ""`)
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "client id")
	})
}
