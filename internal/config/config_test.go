package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutPath(t *testing.T) {
	t.Setenv("NEONITE_CONFIG", "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, 5000, cfg.Behaviors.SwordCooldownMs, "Кулдаун меча по умолчанию 5 секунд")
	assert.Equal(t, 5, cfg.Behaviors.ArmorPollTicks)
	assert.Equal(t, 6, cfg.Behaviors.PlatePollTicks)
}

func TestLoad_OverridesFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	data := []byte(`
storage:
  backend: sqlite
  sqlite:
    path: /tmp/x.db
behaviors:
  locator_radius: 12
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "/tmp/x.db", cfg.Storage.SQLite.Path)
	assert.Equal(t, 12, cfg.Behaviors.LocatorRadius)
	// Незаданные поля сохраняют значения по умолчанию
	assert.Equal(t, 5000, cfg.Behaviors.SwordCooldownMs)
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  backend: floppy\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestServerConfig_PortFallback(t *testing.T) {
	s := ServerConfig{}
	t.Setenv("NEONITE_REST_PORT", "9999")
	assert.Equal(t, 9999, s.GetRESTPort())
	s.RESTPort = 1234
	assert.Equal(t, 1234, s.GetRESTPort())
	assert.Equal(t, 2112, (&ServerConfig{}).GetMetricsPort())
}

func TestLoad_SampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "badger", cfg.Storage.Backend)
	assert.False(t, cfg.Storage.Cache.Enabled)
	assert.Equal(t, 30, cfg.Storage.Cache.TTLSeconds)
	assert.Equal(t, 20, cfg.Server.TickRate)
	assert.Equal(t, "assets/items", cfg.Sandbox.ItemsDir)
}

func TestLoad_RejectsNegativeCacheTTL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  cache:\n    ttl_seconds: -1\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
