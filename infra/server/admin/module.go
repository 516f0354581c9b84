package admin

import (
	"context"
	"log/slog"

	"github.com/webitel/checkin-notifier/config"
	"github.com/webitel/checkin-notifier/internal/domain/registry"
	"github.com/webitel/checkin-notifier/internal/metrics"
	"go.uber.org/fx"
)

var Module = fx.Module("admin-server",
	fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, m *metrics.Metrics, reg *registry.Registry, logger *slog.Logger) {
		if !cfg.Admin.Enabled {
			return
		}
		srv := NewServer(cfg.Admin.Address, NewRouter(m, reg), logger.With("component", "admin"))
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				_, err := srv.Start()
				return err
			},
			OnStop: srv.Stop,
		})
	}),
)
