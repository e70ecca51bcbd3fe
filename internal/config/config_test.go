package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME and the working directory at temp dirs so no real
// config or .env is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())
	return home
}

func TestLoadDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000", cfg.API.URL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, "ws://localhost:5000/ws", cfg.Realtime.URL)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, filepath.Join(home, ".hackforge"), cfg.Storage.Path)
	assert.Equal(t, 12, cfg.UI.PageSize)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFileAndEnv(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "hackforge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  url: https://api.example.com
  timeout: 3s
storage:
  backend: sqlite
  path: ~/data
ui:
  page_size: 20
`), 0o600))
	t.Setenv("HACKFORGE_UI_PAGE_SIZE", "30")
	t.Setenv("HACKFORGE_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.API.URL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, 30, cfg.UI.PageSize, "env beats file")
	assert.Equal(t, "debug", cfg.Log.Level)

	home, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(home, "data"), cfg.Storage.Path)
	assert.Equal(t, filepath.Join(home, "data", "hackforge.db"), cfg.StoragePath())
}

func TestLoadDotEnv(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile(".env", []byte("HACKFORGE_API_URL=http://dotenv.test:9000\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("HACKFORGE_API_URL") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://dotenv.test:9000", cfg.API.URL)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	isolate(t)
	t.Setenv("HACKFORGE_API_URL", "ftp://example.com")
	t.Setenv("HACKFORGE_STORAGE_BACKEND", "redis")
	t.Setenv("HACKFORGE_UI_PAGE_SIZE", "0")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.url")
	assert.Contains(t, err.Error(), "storage.backend")
	assert.Contains(t, err.Error(), "ui.page_size")
}
