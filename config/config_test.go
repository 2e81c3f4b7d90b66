package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "awreplay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("defaults apply without a file", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		require.Equal(t, Default(), cfg)
	})

	t.Run("the file overrides defaults", func(t *testing.T) {
		cfg, err := Load(writeFile(t, "log_level: debug\nstep_interval: 250ms\nstrict: false\nlisten_addr: \":9000\"\n"))
		require.NoError(t, err)
		require.Equal(t, "debug", cfg.LogLevel)
		require.Equal(t, 250*time.Millisecond, cfg.StepInterval)
		require.False(t, cfg.Strict)
		require.Equal(t, ":9000", cfg.ListenAddr)
		require.Equal(t, Default().CatalogPath, cfg.CatalogPath, "Unset keys keep their default")
	})

	t.Run("the environment overrides the file", func(t *testing.T) {
		t.Setenv("AWREPLAY_LOG_LEVEL", "warn")
		t.Setenv("AWREPLAY_UPDATE_BUFFER", "8")
		cfg, err := Load(writeFile(t, "log_level: debug\n"))
		require.NoError(t, err)
		require.Equal(t, "warn", cfg.LogLevel)
		require.Equal(t, 8, cfg.UpdateBuffer)
	})

	t.Run("an empty file is fine", func(t *testing.T) {
		cfg, err := Load(writeFile(t, ""))
		require.NoError(t, err)
		require.Equal(t, Default(), cfg)
	})
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
		want string
	}{
		{"unknown keys are rejected", "colour: blue\n", nil, "parse config"},
		{"bad durations are rejected", "step_interval: soon\n", nil, "parse config"},
		{"bad environment values are rejected", "", map[string]string{"AWREPLAY_UPDATE_BUFFER": "lots"}, "parse env"},
		{"levels are checked", "log_level: loud\n", nil, "invalid log level"},
		{"intervals must be positive", "step_interval: 0s\n", nil, "step interval"},
		{"buffers must hold an update", "update_buffer: 0\n", nil, "update buffer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeFile(t, tt.body))
			require.ErrorContains(t, err, tt.want)
		})
	}

	t.Run("missing files are reported", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.ErrorContains(t, err, "open config")
	})
}

func TestSetupLogging(t *testing.T) {
	require.NoError(t, SetupLogging("debug", false))
	require.NoError(t, SetupLogging("info", true))
	require.Error(t, SetupLogging("chatty", false))
}
