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

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultEndpoint, cfg.Stream.Endpoint)
	assert.Equal(t, DefaultChannel, cfg.Stream.Channel)
	assert.Equal(t, 5*time.Second, cfg.Stream.ReconnectDelay)
	assert.Equal(t, 30*time.Second, cfg.Stream.IdleTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.Stream.PollInterval)
	assert.Equal(t, 10*time.Second, cfg.Stream.HandshakeTimeout)
	assert.Equal(t, 5*time.Second, cfg.Stream.WriteTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.True(t, cfg.Presenter.PrimarySurface)
	assert.EqualValues(t, 256, cfg.Presenter.Buffer)
	assert.Equal(t, 16, cfg.Presenter.Surfaces)
	assert.False(t, cfg.Admin.Enabled)
	assert.Equal(t, ":9464", cfg.Admin.Address)
	assert.False(t, cfg.AMQP.Enabled)
	assert.Equal(t, "checkin.notifications", cfg.AMQP.Exchange)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := writeFile(t, "checkin.yaml", `
stream:
  endpoint: ws://localhost:8999
  reconnect_delay: 2s
log:
  level: debug
  format: json
presenter:
  primary_surface: false
`)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "ws://localhost:8999", cfg.Stream.Endpoint)
	assert.Equal(t, 2*time.Second, cfg.Stream.ReconnectDelay)
	assert.Equal(t, 30*time.Second, cfg.Stream.IdleTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.False(t, cfg.Presenter.PrimarySurface)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "checkin.yaml", "stream:\n  endpoint: ws://from-file:1\n")
	t.Setenv("CHECKIN_STREAM_ENDPOINT", "wss://from-env:2")
	t.Setenv("CHECKIN_STREAM_IDLE_TIMEOUT", "45s")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "wss://from-env:2", cfg.Stream.Endpoint)
	assert.Equal(t, 45*time.Second, cfg.Stream.IdleTimeout)
}

func TestLoadConfig_SetFlagsWin(t *testing.T) {
	t.Setenv("CHECKIN_STREAM_ENDPOINT", "wss://from-env:2")
	fs := NewFlagSet()
	require.NoError(t, fs.Parse([]string{"--endpoint", "ws://from-flag:3", "--log_level", "warn"}))

	cfg, err := LoadConfig("", fs)
	require.NoError(t, err)

	assert.Equal(t, "ws://from-flag:3", cfg.Stream.Endpoint)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, slog.LevelWarn, cfg.Log.SlogLevel())
}

func TestLoadConfig_UnsetFlagsKeepDefaults(t *testing.T) {
	fs := NewFlagSet()
	require.NoError(t, fs.Parse(nil))

	cfg, err := LoadConfig("", fs)
	require.NoError(t, err)

	assert.Equal(t, DefaultEndpoint, cfg.Stream.Endpoint)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestLoadConfig_RejectsInvalid(t *testing.T) {
	path := writeFile(t, "checkin.yaml", "stream:\n  endpoint: http://example.com\n")

	_, err := LoadConfig(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported scheme")
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"empty endpoint", func(c *Config) { c.Stream.Endpoint = "" }, "stream.endpoint is required"},
		{"bad scheme", func(c *Config) { c.Stream.Endpoint = "https://x" }, "unsupported scheme"},
		{"empty channel", func(c *Config) { c.Stream.Channel = "" }, "stream.channel"},
		{"zero reconnect", func(c *Config) { c.Stream.ReconnectDelay = 0 }, "stream.reconnect_delay"},
		{"negative idle", func(c *Config) { c.Stream.IdleTimeout = -time.Second }, "stream.idle_timeout"},
		{"zero poll", func(c *Config) { c.Stream.PollInterval = 0 }, "stream.poll_interval"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"no surfaces", func(c *Config) { c.Presenter.Surfaces = 0 }, "presenter.surfaces"},
		{"negative buffer", func(c *Config) { c.Presenter.Buffer = -1 }, "presenter.buffer"},
		{"admin without address", func(c *Config) { c.Admin.Enabled = true; c.Admin.Address = "" }, "admin.address"},
		{"amqp without url", func(c *Config) { c.AMQP.Enabled = true }, "amqp.url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSlogLevel_FallsBackToInfo(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, LogConfig{Level: "nonsense"}.SlogLevel())
	assert.Equal(t, slog.LevelDebug, LogConfig{Level: "DEBUG"}.SlogLevel())
}

func TestLoader_WatchWithoutFile(t *testing.T) {
	l, err := NewLoader("", nil)
	require.NoError(t, err)
	assert.False(t, l.Watch(func(*Config) {}, nil))
}

func TestLoader_WatchAppliesValidChanges(t *testing.T) {
	path := writeFile(t, "checkin.yaml", "log:\n  level: info\n")
	l, err := NewLoader(path, nil)
	require.NoError(t, err)

	changes := make(chan *Config, 64)
	require.True(t, l.Watch(func(c *Config) {
		select {
		case changes <- c:
		default:
		}
	}, nil))

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o600))

	// A write can surface as several events, the first possibly on a truncated file.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-changes:
			if cfg.Log.Level == "debug" {
				return
			}
		case <-deadline:
			t.Fatal("config change not observed")
		}
	}
}
