package ws

import (
	"context"
	"log/slog"

	"github.com/webitel/checkin-notifier/config"
	"github.com/webitel/checkin-notifier/internal/metrics"
	"github.com/webitel/checkin-notifier/internal/service"
	"go.uber.org/fx"
)

var Module = fx.Module("stream-client",
	fx.Provide(
		// [ASYNC_HAND_OFF] The manager only ever talks to the bus presenter,
		// never to a display surface directly.
		fx.Annotate(
			NewManagerFromConfig,
			fx.ParamTags(``, `name:"bus"`, ``, ``),
		),
	),
	fx.Invoke(func(lc fx.Lifecycle, m *Manager) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				m.Start()
				return nil
			},
			OnStop: m.Stop,
		})
	}),
)

// NewManagerFromConfig builds a Manager from the stream section of the configuration.
func NewManagerFromConfig(cfg *config.Config, presenter service.Presenter, logger *slog.Logger, m *metrics.Metrics) *Manager {
	sc := cfg.Stream
	return NewManager(
		sc.Endpoint,
		NewDialer(sc.HandshakeTimeout),
		presenter,
		logger,
		m,
		WithChannel(sc.Channel),
		WithReconnectDelay(sc.ReconnectDelay),
		WithIdleTimeout(sc.IdleTimeout),
		WithPollInterval(sc.PollInterval),
		WithWriteTimeout(sc.WriteTimeout),
	)
}
