package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/webitel/checkin-notifier/internal/domain/event"
	"github.com/webitel/checkin-notifier/internal/domain/model"
)

// EventDispatcher publishes presenter payloads onto a topic.
// It satisfies service.Presenter, so the stream client can hand off through it.
type EventDispatcher interface {
	Display(ctx context.Context, n model.NotificationData) error
	ForwardRaw(ctx context.Context, ev model.RawEvent) error
	Publisher() message.Publisher
}

type eventDispatcher struct {
	publisher message.Publisher
}

// NewEventDispatcher wraps pub; Display and ForwardRaw return once the message is queued.
func NewEventDispatcher(pub message.Publisher) EventDispatcher {
	return &eventDispatcher{
		publisher: pub,
	}
}

func (d *eventDispatcher) Display(ctx context.Context, n model.NotificationData) error {
	return d.publish(ctx, event.NotificationData, n)
}

func (d *eventDispatcher) ForwardRaw(ctx context.Context, ev model.RawEvent) error {
	return d.publish(ctx, event.CheckinData, ev)
}

func (d *eventDispatcher) publish(ctx context.Context, kind event.Kind, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("dispatch %s: marshal: %w", kind, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.SetContext(ctx)
	msg.Metadata.Set(MetadataKind, kind.String())

	if err := d.publisher.Publish(kind.Topic(), msg); err != nil {
		return fmt.Errorf("dispatch %s: publish: %w", kind, err)
	}
	return nil
}

func (d *eventDispatcher) Publisher() message.Publisher {
	return d.publisher
}
