package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "CHECKIN"

	FlagEndpoint = "endpoint"
	FlagLogLevel = "log_level"
)

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	FlagEndpoint: "stream.endpoint",
	FlagLogLevel: "log.level",
}

// NewFlagSet declares the flags that can override configuration keys.
func NewFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("checkin-notifier", pflag.ContinueOnError)
	fs.String(FlagEndpoint, "", "WebSocket endpoint of the check-in stream")
	fs.String(FlagLogLevel, "", "Log level (debug, info, warn, error)")
	return fs
}

// Loader layers defaults, an optional file, CHECKIN_* env vars and set flags.
type Loader struct {
	v    *viper.Viper
	file string
}

func NewLoader(file string, flags *pflag.FlagSet) (*Loader, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	return &Loader{v: v, file: file}, nil
}

func (l *Loader) Load() (*Config, error) {
	cfg := new(Config)
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Watch calls fn with every valid configuration the file changes into.
// Invalid edits are reported through onErr and otherwise ignored.
// It reports false when there is no file to watch.
func (l *Loader) Watch(fn func(*Config), onErr func(error)) bool {
	if l.file == "" {
		return false
	}
	l.v.OnConfigChange(func(fsnotify.Event) {
		cfg, err := l.Load()
		if err != nil {
			if onErr != nil {
				onErr(err)
			}
			return
		}
		fn(cfg)
	})
	l.v.WatchConfig()
	return true
}

// LoadConfig is the one-shot form of NewLoader + Load.
func LoadConfig(file string, flags *pflag.FlagSet) (*Config, error) {
	l, err := NewLoader(file, flags)
	if err != nil {
		return nil, err
	}
	return l.Load()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("stream.endpoint", DefaultEndpoint)
	v.SetDefault("stream.channel", DefaultChannel)
	v.SetDefault("stream.reconnect_delay", 5*time.Second)
	v.SetDefault("stream.idle_timeout", 30*time.Second)
	v.SetDefault("stream.poll_interval", 100*time.Millisecond)
	v.SetDefault("stream.handshake_timeout", 10*time.Second)
	v.SetDefault("stream.write_timeout", 5*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("presenter.primary_surface", true)
	v.SetDefault("presenter.buffer", 256)
	v.SetDefault("presenter.surfaces", 16)

	v.SetDefault("admin.enabled", false)
	v.SetDefault("admin.address", ":9464")

	v.SetDefault("amqp.enabled", false)
	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.exchange", "checkin.notifications")
}
