package pubsub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/sony/gobreaker"
	"github.com/webitel/checkin-notifier/internal/domain/model"
)

// breakerTripAfter consecutive publish failures open the circuit.
const breakerTripAfter = 3

// AMQPPresenter re-publishes classified notifications to a broker.
// Publishing goes through a circuit breaker so a dead broker costs one fast
// error per call instead of a dial timeout.
type AMQPPresenter struct {
	dispatcher EventDispatcher
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

func NewAMQPPresenter(pub message.Publisher, logger *slog.Logger) *AMQPPresenter {
	p := &AMQPPresenter{
		dispatcher: NewEventDispatcher(pub),
		logger:     logger,
	}
	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "amqp-presenter",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTripAfter
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("BREAKER_STATE_CHANGED", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return p
}

func (p *AMQPPresenter) Display(ctx context.Context, n model.NotificationData) error {
	return p.execute(func() error { return p.dispatcher.Display(ctx, n) })
}

func (p *AMQPPresenter) ForwardRaw(ctx context.Context, ev model.RawEvent) error {
	return p.execute(func() error { return p.dispatcher.ForwardRaw(ctx, ev) })
}

// State exposes the breaker state for logs and tests.
func (p *AMQPPresenter) State() gobreaker.State {
	return p.breaker.State()
}

func (p *AMQPPresenter) Close() error {
	return p.dispatcher.Publisher().Close()
}

func (p *AMQPPresenter) execute(fn func() error) error {
	_, err := p.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("amqp presenter unavailable: %w", err)
	}
	return err
}
