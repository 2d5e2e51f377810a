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
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 8, cfg.Engine.MaxConcurrent)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  address: ":9000"
  read_timeout: 10s
engine:
  max_concurrent: 4
  template_dir: /etc/automation/templates
logging:
  level: debug
`)

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 4, cfg.Engine.MaxConcurrent)
	assert.Equal(t, "/etc/automation/templates", cfg.Engine.TemplateDir)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Values not present in the file keep their defaults.
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfigFile(t, "server:\n  adress: \":9000\"\n")

	_, err := NewLoader().WithConfigPath(path).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "adress")
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, "engine:\n  max_concurrent: 4\n")
	t.Setenv("AE_ENGINE_MAX_CONCURRENT", "16")
	t.Setenv("AE_SERVER_ENABLE_CORS", "false")

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 16, cfg.Engine.MaxConcurrent)
	assert.False(t, cfg.Server.EnableCORS)
}

func TestOverridesWinOverEnv(t *testing.T) {
	t.Setenv("AE_ENGINE_MAX_CONCURRENT", "16")

	cfg, err := NewLoader().
		WithOverrides(map[string]string{"engine.max_concurrent": "2"}).
		Load()
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Engine.MaxConcurrent)
}

func TestLoadRejectsUnknownOverridePath(t *testing.T) {
	_, err := NewLoader().
		WithOverrides(map[string]string{"engine.no_such_key": "1"}).
		Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown configuration path")
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.MaxConcurrent = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Logging.Level = "verbose"
	assert.Error(t, cfg.Validate())

	assert.NoError(t, DefaultConfig().Validate())
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := NewLoader().WithConfigPath("/nonexistent/config.yaml").Load()
	assert.Error(t, err)
}
