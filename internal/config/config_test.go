package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PKPLOT_CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "data", cfg.Paths.DataDir)
	assert.Equal(t, 900, cfg.Plot.Width)
	assert.Equal(t, 600, cfg.Plot.Height)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("PKPLOT_SERVER_PORT", "9999")
	t.Setenv("PKPLOT_LOGGING_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("plot:\n  width: 1200\n  height: 800\n"), 0644))
	t.Setenv("PKPLOT_CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1200, cfg.Plot.Width)
	assert.Equal(t, 800, cfg.Plot.Height)
}

func TestLoad_EnvWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 7000\nplot:\n  width: 1200\n"), 0644))
	t.Setenv("PKPLOT_CONFIG_FILE", path)
	t.Setenv("PKPLOT_SERVER_PORT", "9999")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port, "explicit env var must not be clobbered by the file")
	assert.Equal(t, 1200, cfg.Plot.Width, "file still fills fields without an env var")
	assert.Equal(t, 600, cfg.Plot.Height, "defaults cover the rest")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = -1 }, true},
		{"bad plot size", func(c *Config) { c.Plot.Width = 0 }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Server:  ServerConfig{Port: 8080},
				Logging: LoggingConfig{Level: "info"},
				Plot:    PlotConfig{Width: 900, Height: 600},
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_NewLogger(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{Level: "info", Format: "json"}}
	assert.NotNil(t, cfg.NewLogger())
}
