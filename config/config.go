package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultEndpoint = "wss://faye.chalamministries.com:8999"
	DefaultChannel  = "/notifications"
)

type Config struct {
	Stream    StreamConfig    `mapstructure:"stream"`
	Log       LogConfig       `mapstructure:"log"`
	Presenter PresenterConfig `mapstructure:"presenter"`
	Admin     AdminConfig     `mapstructure:"admin"`
	AMQP      AMQPConfig      `mapstructure:"amqp"`
}

// StreamConfig drives the connection manager.
type StreamConfig struct {
	Endpoint         string        `mapstructure:"endpoint"`
	Channel          string        `mapstructure:"channel"`
	ReconnectDelay   time.Duration `mapstructure:"reconnect_delay"`
	IdleTimeout      time.Duration `mapstructure:"idle_timeout"`
	PollInterval     time.Duration `mapstructure:"poll_interval"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// PresenterConfig sizes the display side of the hand-off bus.
type PresenterConfig struct {
	PrimarySurface bool  `mapstructure:"primary_surface"`
	Buffer         int64 `mapstructure:"buffer"`
	Surfaces       int   `mapstructure:"surfaces"`
}

type AdminConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

type AMQPConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

// SlogLevel parses log.level; unknown names fall back to info.
func (c LogConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func (c *Config) Validate() error {
	var errs []error

	s := c.Stream
	if s.Endpoint == "" {
		errs = append(errs, errors.New("stream.endpoint is required"))
	} else if u, err := url.Parse(s.Endpoint); err != nil {
		errs = append(errs, fmt.Errorf("stream.endpoint: %w", err))
	} else if u.Scheme != "ws" && u.Scheme != "wss" {
		errs = append(errs, fmt.Errorf("stream.endpoint: unsupported scheme %q", u.Scheme))
	}
	if s.Channel == "" {
		errs = append(errs, errors.New("stream.channel is required"))
	}
	for name, d := range map[string]time.Duration{
		"stream.reconnect_delay":   s.ReconnectDelay,
		"stream.idle_timeout":      s.IdleTimeout,
		"stream.poll_interval":     s.PollInterval,
		"stream.handshake_timeout": s.HandshakeTimeout,
		"stream.write_timeout":     s.WriteTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: want text or json, got %q", c.Log.Format))
	}

	if c.Presenter.Buffer < 0 {
		errs = append(errs, errors.New("presenter.buffer must not be negative"))
	}
	if c.Presenter.Surfaces <= 0 {
		errs = append(errs, errors.New("presenter.surfaces must be positive"))
	}
	if c.Admin.Enabled && c.Admin.Address == "" {
		errs = append(errs, errors.New("admin.address is required when admin is enabled"))
	}
	if c.AMQP.Enabled {
		if c.AMQP.URL == "" {
			errs = append(errs, errors.New("amqp.url is required when amqp is enabled"))
		}
		if c.AMQP.Exchange == "" {
			errs = append(errs, errors.New("amqp.exchange is required when amqp is enabled"))
		}
	}

	return errors.Join(errs...)
}
