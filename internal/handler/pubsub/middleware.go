package pubsub

import (
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/webitel/checkin-notifier/internal/metrics"
)

// [LOGGING_MIDDLEWARE]
// Structured logging with latency per handled message.
func LoggingMiddleware(logger *slog.Logger) message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			start := time.Now()
			msgs, err := h(msg)

			logger.Debug("MESSAGE_HANDLED",
				"msg_id", msg.UUID,
				"kind", msg.Metadata.Get("kind"),
				"duration_ms", time.Since(start).Milliseconds(),
				"success", err == nil,
			)
			return msgs, err
		}
	}
}

// [RETRY_MIDDLEWARE]
// Surfaces are local, so retries stay short; a display that keeps failing
// is parked on the poison topic instead of blocking the ones behind it.
func NewRetryMiddleware(logger watermill.LoggerAdapter) middleware.Retry {
	return middleware.Retry{
		MaxRetries:      2,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     500 * time.Millisecond,
		Multiplier:      2.0,
		Logger:          logger,
	}
}

// [GIVE_UP_COUNTER]
// Sits between the poison queue and retry, so it only sees the error left
// after the last retry: one failed message counts once.
func GiveUpMiddleware(m *metrics.Metrics, operation string) message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			msgs, err := h(msg)
			if err != nil {
				m.PresenterError(operation)
			}
			return msgs, err
		}
	}
}
