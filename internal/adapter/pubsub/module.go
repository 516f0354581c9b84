package pubsub

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/webitel/checkin-notifier/config"
	"github.com/webitel/checkin-notifier/internal/service"
	"go.uber.org/fx"
)

var Module = fx.Module("pubsub-adapter",
	fx.Provide(
		NewBus,
		func(cfg *config.Config, bus *gochannel.GoChannel, logger watermill.LoggerAdapter) *OrderedPublisher {
			return NewOrderedPublisher(bus, int(cfg.Presenter.Buffer), logger)
		},
		func(bus *gochannel.GoChannel) message.Subscriber { return bus },
		func(bus *gochannel.GoChannel) message.Publisher { return bus },
		// [BUS_PRESENTER] what the stream client publishes into.
		fx.Annotate(
			func(ordered *OrderedPublisher) service.Presenter { return NewEventDispatcher(ordered) },
			fx.ResultTags(`name:"bus"`),
		),
		ProvideAMQPPresenter,
	),
	fx.Invoke(func(lc fx.Lifecycle, bus *gochannel.GoChannel, ordered *OrderedPublisher, amqp *AMQPPresenter) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if amqp != nil {
					if err := amqp.Close(); err != nil {
						return err
					}
				}
				// The bus goes first so a pump waiting on an ack is released.
				busErr := bus.Close()
				_ = ordered.Close()
				return busErr
			},
		})
	}),
)

// ProvideAMQPPresenter returns nil when the broker sink is disabled.
func ProvideAMQPPresenter(cfg *config.Config, wmLogger watermill.LoggerAdapter, logger *slog.Logger) (*AMQPPresenter, error) {
	if !cfg.AMQP.Enabled {
		return nil, nil
	}
	pub, err := NewAMQPPublisher(AMQPConfig{URL: cfg.AMQP.URL, Exchange: cfg.AMQP.Exchange}, wmLogger)
	if err != nil {
		return nil, err
	}
	logger.Info("AMQP_PRESENTER_ENABLED", "exchange", cfg.AMQP.Exchange)
	return NewAMQPPresenter(pub, logger.With("component", "amqp-presenter")), nil
}
