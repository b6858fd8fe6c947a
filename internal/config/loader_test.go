package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rpattn/logstack/internal/analytics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, analytics.DefaultAutocompleteLimit, cfg.Analytics.AutocompleteLimit)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
database:
  host: db.internal
  port: 6543
  max_conn_lifetime: 10m
server:
  addr: ":9090"
  allowed_origins: ["https://charts.example.com"]
analytics:
  degenerate_trend: skip
  compare_max_page_size: 50
log:
  level: debug
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, 10*time.Minute, cfg.Database.MaxConnLifetime)
	assert.Equal(t, "flamecharts", cfg.Database.DBName)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"https://charts.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "skip", cfg.Analytics.DegenerateTrend)
	assert.Equal(t, 50, cfg.Analytics.CompareMaxPageSize)
	assert.Equal(t, 1000, cfg.Analytics.MaxPageSize)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "database:\n  host: from-file\n")
	t.Setenv("LOGSTACK_SERVER_ADDR", ":7070")
	t.Setenv("LOGSTACK_ANALYTICS_AUTOCOMPLETE_LIMIT", "25")
	t.Setenv("POSTGRES_HOST", "from-env")
	t.Setenv("POSTGRES_DATABASE", "errors")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, 25, cfg.Analytics.AutocompleteLimit)
	assert.Equal(t, "from-env", cfg.Database.Host)
	assert.Equal(t, "errors", cfg.Database.DBName)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "analytics:\n  degenerate_trend: guess\n")
	_, err := Load(dir)
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadDBConfigExplicitFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "database:\n  user: reader\n  sslmode: require\n")

	cfg, err := LoadDBConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "reader", cfg.User)
	assert.Equal(t, "require", cfg.SSLMode)
}
