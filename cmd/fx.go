package cmd

import (
	"log/slog"

	"github.com/webitel/checkin-notifier/config"
	"github.com/webitel/checkin-notifier/infra/server/admin"
	pubsubadapter "github.com/webitel/checkin-notifier/internal/adapter/pubsub"
	"github.com/webitel/checkin-notifier/internal/domain/registry"
	pubsubhandler "github.com/webitel/checkin-notifier/internal/handler/pubsub"
	"github.com/webitel/checkin-notifier/internal/handler/ws"
	"github.com/webitel/checkin-notifier/internal/metrics"
	"github.com/webitel/checkin-notifier/internal/service"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

func NewApp(cfg *config.Config, loader *config.Loader) *fx.App {
	return fx.New(
		Options(cfg, loader),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With("component", "fx")}
		}),
	)
}

// Options is the whole dependency graph; loader may be nil when nothing is watched.
func Options(cfg *config.Config, loader *config.Loader) fx.Option {
	return fx.Options(
		fx.Provide(
			func() *config.Config { return cfg },
			func() *config.Loader { return loader },
			NewLevelVar,
			ProvideLogger,
			ProvideWatermillLogger,
			metrics.New,
			ProvideDisplayPresenter,
		),
		fx.Invoke(WatchConfig),
		// Order matters: the presenter router must be consuming before the
		// stream client starts, and stops after it.
		registry.Module,
		pubsubadapter.Module,
		pubsubhandler.Module,
		ws.Module,
		admin.Module,
	)
}

// ProvideDisplayPresenter is what the bus consumer hands notifications to:
// the local surfaces plus the broker when it is enabled.
func ProvideDisplayPresenter(reg registry.Registrar, amqp *pubsubadapter.AMQPPresenter) service.Presenter {
	presenters := []service.Presenter{service.NewSurfacePresenter(reg)}
	if amqp != nil {
		presenters = append(presenters, amqp)
	}
	return service.NewMultiPresenter(presenters...)
}

// WatchConfig applies log level changes from the config file without a restart.
func WatchConfig(loader *config.Loader, level *slog.LevelVar, logger *slog.Logger) {
	if loader == nil {
		return
	}
	watching := loader.Watch(
		func(cfg *config.Config) {
			next := cfg.Log.SlogLevel()
			if next != level.Level() {
				logger.Info("LOG_LEVEL_CHANGED", "from", level.Level().String(), "to", next.String())
				level.Set(next)
			}
		},
		func(err error) {
			logger.Warn("CONFIG_RELOAD_REJECTED", "err", err)
		},
	)
	if watching {
		logger.Debug("CONFIG_WATCH_STARTED")
	}
}
