package pubsub

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/fx"
)

var Module = fx.Module("presenter-handler",
	fx.Provide(
		NewPresenterHandler,
		NewWatermillRouter,
	),

	fx.Invoke(
		func(h *PresenterHandler, router *message.Router, sub message.Subscriber, pub message.Publisher) error {
			return h.RegisterHandlers(router, sub, pub)
		},
		runRouter,
	),
)

// runRouter starts consuming before the stream client is started, so the
// first notification after connect already has a subscriber.
func runRouter(lc fx.Lifecycle, router *message.Router, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := router.Run(context.Background()); err != nil {
					logger.Error("ROUTER_STOPPED", "err", err)
				}
			}()
			select {
			case <-router.Running():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
		OnStop: func(ctx context.Context) error {
			return router.Close()
		},
	})
}
