package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://api.mentapp.la
  timeout: 30s
google:
  client_id: client-123
  redirect_uri: https://app.mentapp.la/auth/callback
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.mentapp.la", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, "client-123", cfg.Google.ClientID)
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_MENTAPP_URL", "https://env.mentapp.la")
	path := writeConfig(t, `
api:
  base_url: ${TEST_MENTAPP_URL}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://env.mentapp.la", cfg.API.BaseURL)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("MENTAPP_API_BASE_URL", "https://override.mentapp.la")
	path := writeConfig(t, `
api:
  base_url: https://file.mentapp.la
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://override.mentapp.la", cfg.API.BaseURL)
}

func TestLoad_MissingBaseURLIsFatal(t *testing.T) {
	path := writeConfig(t, `
google:
  client_id: client-123
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base URL")
}
