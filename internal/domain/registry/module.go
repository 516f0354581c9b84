package registry

import (
	"context"
	"log/slog"

	"github.com/webitel/checkin-notifier/config"
	"github.com/webitel/checkin-notifier/internal/domain/event"
	"go.uber.org/fx"
)

var Module = fx.Module("registry",
	fx.Provide(
		func(logger *slog.Logger, cfg *config.Config) (*Registry, error) {
			return NewRegistry(
				NewLogSurfaceFactory(logger),
				WithCapacity(cfg.Presenter.Surfaces),
				WithPinned(event.PrimarySurface),
			)
		},
		fx.Annotate(
			func(r *Registry) Registrar { return r },
			fx.As(new(Registrar)),
		),
	),
	fx.Invoke(func(lc fx.Lifecycle, r *Registry, cfg *config.Config) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				// The primary surface is the forward target for raw check-ins.
				if !cfg.Presenter.PrimarySurface {
					return nil
				}
				_, err := r.EnsureSurface(event.PrimarySurface)
				return err
			},
			OnStop: func(ctx context.Context) error {
				r.Shutdown()
				return nil
			},
		})
	}),
)
