package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/specialistvlad/assetgrid/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()

	valid := Config{File: "assetgrid.hcl", Workers: 4, LogLevel: "INFO", LogFormat: "Text"}
	cfg, err := NewConfig(valid)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)

	cases := []struct {
		name     string
		mutate   func(c *Config)
		contains string
	}{
		{"empty file", func(c *Config) { c.File = "" }, "task file path"},
		{"no workers", func(c *Config) { c.Workers = 0 }, "workers"},
		{"bad level", func(c *Config) { c.LogLevel = "trace" }, "invalid log level"},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, "invalid log format"},
		{"bad port", func(c *Config) { c.Port = 70000 }, "out of range"},
		{"bad open", func(c *Config) { c.Open = "tunnel" }, "invalid open mode"},
		{"negative debounce", func(c *Config) { c.Debounce = -time.Second }, "debounce"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := valid
			tc.mutate(&c)
			_, err := NewConfig(c)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.contains)
		})
	}
}

func TestApplyOverrides(t *testing.T) {
	t.Parallel()

	model := config.NewModel()
	model.Server.Open = "local"
	applyOverrides(model, &Config{Port: 8080, Open: "none", Debounce: time.Second})
	assert.Equal(t, 8080, model.Server.Port)
	assert.Empty(t, model.Server.Open)
	assert.Equal(t, time.Second, model.Watcher.Debounce)

	model = config.NewModel()
	applyOverrides(model, &Config{})
	assert.Equal(t, config.DefaultPort, model.Server.Port)
	assert.Equal(t, config.DefaultDebounce, model.Watcher.Debounce)
}

func TestLoadSettings_FileNextToTaskFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, SettingsFile), []byte(`
workers = 2

[log]
level = "debug"

[server]
port = 5555
`), 0o644))

	s, err := LoadSettings(filepath.Join(dir, "assetgrid.hcl"))
	require.NoError(t, err)
	assert.Equal(t, 2, s.Workers)
	assert.Equal(t, "debug", s.Log.Level)
	assert.Equal(t, "text", s.Log.Format)
	assert.Equal(t, 5555, s.Server.Port)

	cfg := s.Config()
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 5555, cfg.Port)
}

func TestLoadSettings_EnvironmentWins(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, SettingsFile), []byte("workers = 2\n"), 0o644))
	t.Setenv("ASSETGRID_WORKERS", "7")
	t.Setenv("ASSETGRID_WATCH_DEBOUNCE", "1s")

	s, err := LoadSettings(dir)
	require.NoError(t, err)
	assert.Equal(t, 7, s.Workers)
	assert.Equal(t, time.Second, s.Watch.Debounce)
}

func TestLoadSettings_Defaults(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "assetgrid.hcl"))
	require.NoError(t, err)
	assert.Equal(t, "assetgrid.hcl", s.File)
	assert.Equal(t, 4, s.Workers)
	assert.Equal(t, "info", s.Log.Level)
	assert.Zero(t, s.Server.Port)
}
