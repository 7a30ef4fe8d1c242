package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "xdg"))
	return home
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 10, cfg.TUI.PageSize)
	require.Equal(t, 2, cfg.Schedule.SoonHorizonDays)
	require.Equal(t, filepath.Join(cfg.Global.DataDir, "visitwatch.db"), cfg.DatabasePath())
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"empty base url":   func(c *Config) { c.API.BaseURL = "" },
		"non-http url":     func(c *Config) { c.API.BaseURL = "ftp://host" },
		"zero api timeout": func(c *Config) { c.API.Timeout = 0 },
		"negative horizon": func(c *Config) { c.Schedule.SoonHorizonDays = -1 },
		"bad timezone":     func(c *Config) { c.Schedule.Timezone = "Mars/Olympus" },
		"zero page size":   func(c *Config) { c.TUI.PageSize = 0 },
		"unknown theme":    func(c *Config) { c.TUI.Theme = "neon" },
		"bad log level":    func(c *Config) { c.Logging.Level = "loud" },
		"bad log format":   func(c *Config) { c.Logging.Format = "xml" },
		"no connections":   func(c *Config) { c.Database.MaxConnections = 0 },
		"fast refresh":     func(c *Config) { c.TUI.RefreshInterval = time.Millisecond },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestLocation(t *testing.T) {
	cfg := DefaultConfig()
	loc, err := cfg.Location()
	require.NoError(t, err)
	require.Equal(t, time.Local, loc)

	cfg.Schedule.Timezone = "UTC"
	loc, err = cfg.Location()
	require.NoError(t, err)
	require.Equal(t, "UTC", loc.String())
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	isolate(t)

	cfg, err := LoadDefault()
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:8080", cfg.API.BaseURL)
	require.Equal(t, 10*time.Second, cfg.API.Timeout)
}

func TestLoadFromFileAndEnv(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "visitwatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: http://subjects.internal:9000
  timeout: 3s
database:
  path: ~/data/subjects.db
schedule:
  soon_horizon_days: 5
tui:
  page_size: 25
`), 0o644))

	t.Setenv("VISITWATCH_TUI_PAGE_SIZE", "50")
	t.Setenv("VISITWATCH_LOGGING_LEVEL", "debug")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, "http://subjects.internal:9000", cfg.API.BaseURL)
	require.Equal(t, 3*time.Second, cfg.API.Timeout)
	require.Equal(t, filepath.Join(home, "data", "subjects.db"), cfg.DatabasePath())
	require.Equal(t, 5, cfg.Schedule.SoonHorizonDays)
	require.Equal(t, 50, cfg.TUI.PageSize)
	require.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFindsXDGConfig(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, "xdg", "visitwatch")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("tui:\n  theme: high-contrast\n"), 0o644))

	cfg, err := LoadDefault()
	require.NoError(t, err)
	require.Equal(t, "high-contrast", cfg.TUI.Theme)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	isolate(t)
	t.Setenv("VISITWATCH_SCHEDULE_SOON_HORIZON_DAYS", "-3")
	_, err := LoadDefault()
	require.Error(t, err)
}

func TestLoaderSetOverrides(t *testing.T) {
	isolate(t)
	l := NewLoader()
	l.Set("api.base_url", "https://example.test")
	cfg, err := l.Load()
	require.NoError(t, err)
	require.Equal(t, "https://example.test", cfg.API.BaseURL)
}

func TestEnvVar(t *testing.T) {
	require.Equal(t, "VISITWATCH_API_BASE_URL", EnvVar("api.base_url"))
}

func TestExpandTilde(t *testing.T) {
	home := isolate(t)
	require.Equal(t, home, expandTilde("~"))
	require.Equal(t, filepath.Join(home, "x"), expandTilde("~/x"))
	require.Equal(t, "/abs", expandTilde("/abs"))
}
