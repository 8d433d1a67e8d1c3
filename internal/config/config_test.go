package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/albapepper/scoracle-events/internal/table"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "data", cfg.Storage.Root)
	assert.Equal(t, "leverkusen_matches", cfg.Storage.MatchesName)
	assert.Equal(t, "parquet", cfg.Storage.ReadFormat)
	assert.Equal(t, 120, cfg.Provider.RequestsPerMinute)
	assert.Equal(t, 9, cfg.Collect.CompetitionID)
	assert.Equal(t, 281, cfg.Collect.SeasonID)
	assert.Equal(t, "Bayer Leverkusen", cfg.Collect.Team)
	assert.Equal(t, 8000, cfg.API.Port)
	assert.True(t, cfg.API.RateLimitEnabled)
	assert.Len(t, cfg.API.CORSAllowOrigins, 3)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, time.Duration(0), cfg.CallTimeout())
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
storage:
  root: /srv/statsbomb
  read_format: csv
collect:
  team: Real Madrid
  season_id: 90
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/statsbomb", cfg.Storage.Root)
	assert.Equal(t, table.CSV, cfg.ReadFormat())
	assert.Equal(t, "Real Madrid", cfg.Collect.Team)
	assert.Equal(t, 90, cfg.Collect.SeasonID)
	assert.Equal(t, "console", cfg.Log.Format)
	// Defaults still apply for unset values
	assert.Equal(t, 9, cfg.Collect.CompetitionID)
	assert.Equal(t, filepath.Join("/srv/statsbomb", "leverkusen_matches.csv"), cfg.Layout().MatchesPath(table.CSV))
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
storage:
  root: /from/file
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("SCORACLE_STORAGE_ROOT", "/from/env")
	t.Setenv("SCORACLE_LOG_LEVEL", "warn")
	t.Setenv("SCORACLE_PROVIDER_CALL_TIMEOUT_SECS", "15")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "/from/env", cfg.Storage.Root)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 15*time.Second, cfg.CallTimeout())
}

func TestLoadBadYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("storage: [unclosed"), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	chdirTemp(t)
	base, err := Load()
	require.NoError(t, err)

	cases := map[string]func(c *Config){
		"empty root":       func(c *Config) { c.Storage.Root = "" },
		"bad format":       func(c *Config) { c.Storage.ReadFormat = "xlsx" },
		"zero rpm":         func(c *Config) { c.Provider.RequestsPerMinute = 0 },
		"negative timeout": func(c *Config) { c.Provider.CallTimeoutSecs = -1 },
		"bad port":         func(c *Config) { c.API.Port = 70000 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := *base
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestNewLoggerConsole(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: "debug", Format: "console"}, "scoracle-collect")
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestInitLoggerJSON(t *testing.T) {
	logger, err := InitLogger(LogConfig{Level: "info", Format: "json"}, "scoracle-api")
	require.NoError(t, err)
	assert.Equal(t, logger, zap.L())
}

func TestNewLoggerInvalidLevel(t *testing.T) {
	_, err := NewLogger(LogConfig{Level: "invalid", Format: "json"}, "scoracle-collect")
	assert.Error(t, err)
}
