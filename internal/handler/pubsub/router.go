package pubsub

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/webitel/checkin-notifier/internal/domain/event"
	"github.com/webitel/checkin-notifier/internal/metrics"
	"github.com/webitel/checkin-notifier/internal/service"
)

const (
	// PoisonTopic receives bus messages whose presenter call failed after all retries.
	// Nothing subscribes to it on the in-process bus, so they are dropped after logging.
	PoisonTopic = "presenter.poison"

	handlerTimeout = 10 * time.Second
)

type PresenterHandler struct {
	presenter service.Presenter
	logger    *slog.Logger
	metrics   *metrics.Metrics
	wmLogger  watermill.LoggerAdapter
}

func NewPresenterHandler(presenter service.Presenter, logger *slog.Logger, m *metrics.Metrics, wmLogger watermill.LoggerAdapter) *PresenterHandler {
	return &PresenterHandler{presenter: presenter, logger: logger, metrics: m, wmLogger: wmLogger}
}

func NewWatermillRouter(logger watermill.LoggerAdapter) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 5 * time.Second}, logger)
	if err != nil {
		return nil, fmt.Errorf("watermill router: %w", err)
	}
	router.AddMiddleware(middleware.Recoverer)
	return router, nil
}

// [REGISTRATION_PIPELINE]
func (h *PresenterHandler) RegisterHandlers(router *message.Router, sub message.Subscriber, pub message.Publisher) error {
	poison, err := middleware.PoisonQueue(pub, PoisonTopic)
	if err != nil {
		return fmt.Errorf("POISON_SETUP_FAILED: %w", err)
	}

	configs := []struct {
		name      string
		topic     string
		operation string
		handler   message.NoPublishHandlerFunc
	}{
		{"ON_NOTIFICATION", event.NotificationData.Topic(), "display", Bind(h, h.OnNotification)},
		{"ON_CHECKIN", event.CheckinData.Topic(), "forward_raw", Bind(h, h.OnCheckin)},
	}

	for _, c := range configs {
		// Outermost first: poison only sees what retry gave up on.
		router.AddNoPublisherHandler(c.name, c.topic, sub, c.handler).AddMiddleware(
			LoggingMiddleware(h.logger),
			poison,
			GiveUpMiddleware(h.metrics, c.operation),
			NewRetryMiddleware(h.wmLogger).Middleware,
			middleware.Timeout(handlerTimeout),
		)
	}

	h.logger.Info("PRESENTER_PIPELINE_READY", "handlers", len(configs))
	return nil
}
