package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("File values", func(t *testing.T) {
		path := writeConfig(t, `
log-level: debug
http:
  addr: ":9999"
telemetry:
  endpoint: "collector:4317"
game:
  computer-delay: 250ms
  strategy: random
  default-mode: single_player
`)

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, ":9999", cfg.HTTP.Addr)
		assert.Equal(t, "collector:4317", cfg.Telemetry.Endpoint)
		assert.Equal(t, "tic-tac-toe", cfg.Telemetry.ServiceName)
		assert.Equal(t, 250*time.Millisecond, cfg.Game.ComputerDelay)
		assert.Equal(t, "random", cfg.Game.Strategy)
		assert.Equal(t, "single_player", cfg.Game.DefaultMode)
	})

	t.Run("Environment overrides file", func(t *testing.T) {
		path := writeConfig(t, "http:\n  addr: \":9999\"\n")
		t.Setenv("HTTP_ADDR", ":7070")
		t.Setenv("COMPUTER_DELAY", "0s")

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, ":7070", cfg.HTTP.Addr)
		assert.Equal(t, time.Duration(0), cfg.Game.ComputerDelay)
	})

	t.Run("Missing file uses defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
		require.NoError(t, err)

		assert.Equal(t, ":8080", cfg.HTTP.Addr)
		assert.Equal(t, 500*time.Millisecond, cfg.Game.ComputerDelay)
		assert.Equal(t, "minimax", cfg.Game.Strategy)
		assert.Equal(t, "two_player", cfg.Game.DefaultMode)
		assert.Empty(t, cfg.Telemetry.Endpoint)
	})

	t.Run("Malformed file", func(t *testing.T) {
		path := writeConfig(t, "game: [not, a, map")
		_, err := Load(path)
		require.Error(t, err)
		assert.Panics(t, func() { MustLoad(path) })
	})
}

func TestConfig_Level(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			cfg := &Config{LogLevel: in}
			assert.Equal(t, want, cfg.Level())
		})
	}
}
