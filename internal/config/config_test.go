package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StudyBoard/internal/state"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ModeDesktop, cfg.Mode)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.True(t, cfg.Advertise)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.IsDebug())
	assert.Equal(t, state.DefaultToolSettings(), cfg.ToolSettings())
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STUDYBOARD_PORT", "9000")
	t.Setenv("STUDYBOARD_LOGLEVEL", "debug")
	t.Setenv("GEMINI_API_KEY", "from-env")

	cfg, err := Load([]string{"--data", dir, "--loglevel", "warn", "--penwidth", "4", "lecture.pdf"})
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port, "env beats default")
	assert.Equal(t, "warn", cfg.LogLevel, "flag beats env")
	assert.Equal(t, 4.0, cfg.ToolSettings().PenWidth)
	assert.Equal(t, "from-env", cfg.APIKey)
	assert.Equal(t, "lecture.pdf", cfg.Document)
	assert.Equal(t, "0.0.0.0:9000", cfg.Address())
}

func TestLoadVersion(t *testing.T) {
	_, err := Load([]string{"--version"})
	assert.ErrorIs(t, err, ErrVersionRequested)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "valid desktop", modify: func(*Config) {}},
		{name: "valid mcp ignores port", modify: func(c *Config) { c.Mode = ModeMCP; c.Port = 0 }},
		{name: "bad mode", modify: func(c *Config) { c.Mode = "kiosk" }, wantErr: "invalid mode"},
		{name: "bad port", modify: func(c *Config) { c.Mode = ModeServe; c.Port = 70000 }, wantErr: "port"},
		{name: "empty data dir", modify: func(c *Config) { c.DataDir = "" }, wantErr: "data directory"},
		{name: "zero width", modify: func(c *Config) { c.EraserWidth = 0 }, wantErr: "widths"},
		{name: "bad color", modify: func(c *Config) { c.PenColor = "not-a-color" }, wantErr: "pen color"},
		{name: "bad log level", modify: func(c *Config) { c.LogLevel = "trace" }, wantErr: "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.DataDir = filepath.Join(t.TempDir(), "store")
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.wantErr), err.Error())
		})
	}
}

func TestValidateCreatesDataDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = filepath.Join(t.TempDir(), "nested", "store")
	require.NoError(t, cfg.Validate())
	assert.DirExists(t, cfg.DataDir)
}
