package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("MODELSCOPE_HOME", home)
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://modelscope.cn", cfg.BaseURL)
	assert.Equal(t, home, cfg.HomeDir)
	assert.Equal(t, filepath.Join(home, "models"), cfg.SaveDir)
	assert.Equal(t, filepath.Join(home, "downloads.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join(home, "config"), cfg.ConfigDir())
	assert.Equal(t, 0, cfg.MaxParallel)
	assert.Equal(t, 10*time.Second, cfg.ConnectTimeout)
	assert.True(t, cfg.HistoryEnabled)
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoadConfig_Overrides(t *testing.T) {
	home := t.TempDir()
	t.Setenv("MODELSCOPE_HOME", home)
	t.Setenv("SAVE_DIR", "/data/models")
	t.Setenv("MAX_PARALLEL", "4")
	t.Setenv("TELEMETRY_ENABLED", "true")
	t.Setenv("METRICS_ADDR", "127.0.0.1:9464")
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "/data/models", cfg.SaveDir)
	assert.Equal(t, 4, cfg.MaxParallel)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "127.0.0.1:9464", cfg.Telemetry.MetricsAddr)
}

func TestLoadConfig_InvalidValue(t *testing.T) {
	t.Setenv("MODELSCOPE_HOME", t.TempDir())
	t.Setenv("MAX_PARALLEL", "many")
	t.Chdir(t.TempDir())

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error processing env")
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"Warn", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.level}
			assert.Equal(t, tt.want, cfg.SlogLevel())
		})
	}
}
