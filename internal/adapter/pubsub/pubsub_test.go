package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webitel/checkin-notifier/internal/domain/event"
	"github.com/webitel/checkin-notifier/internal/domain/model"
)

type fakePublisher struct {
	mu     sync.Mutex
	err    error
	calls  int
	topics []string
	closed bool
}

func (f *fakePublisher) Publish(topic string, msgs ...*message.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.topics = append(f.topics, topic)
	return f.err
}

func (f *fakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEventDispatcher_RoundTripOverBus(t *testing.T) {
	bus := NewBus(watermill.NopLogger{})
	ordered := NewOrderedPublisher(bus, 8, watermill.NopLogger{})
	defer func() {
		_ = bus.Close()
		_ = ordered.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	notifications, err := bus.Subscribe(ctx, event.TopicNotificationData)
	require.NoError(t, err)
	checkins, err := bus.Subscribe(ctx, event.TopicCheckinData)
	require.NoError(t, err)

	d := NewEventDispatcher(ordered)
	want := model.NotificationData{Title: "Jane", Message: "EXPIRED", Type: model.SeverityRed, RequiresInteraction: true}
	require.NoError(t, d.Display(ctx, want))
	require.NoError(t, d.ForwardRaw(ctx, model.RawEvent{"member": "Jane"}))

	select {
	case msg := <-notifications:
		var got model.NotificationData
		require.NoError(t, json.Unmarshal(msg.Payload, &got))
		assert.Equal(t, want, got)
		assert.Equal(t, event.NotificationData.String(), msg.Metadata.Get(MetadataKind))
		msg.Ack()
	case <-ctx.Done():
		t.Fatal("notification not delivered")
	}

	select {
	case msg := <-checkins:
		var got model.RawEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &got))
		assert.Equal(t, "Jane", got.String("member"))
		msg.Ack()
	case <-ctx.Done():
		t.Fatal("check-in not delivered")
	}
}

func TestOrderedPublisher_PreservesCallOrderAcrossTopics(t *testing.T) {
	bus := NewBus(watermill.NopLogger{})
	ordered := NewOrderedPublisher(bus, 256, watermill.NopLogger{})
	defer func() {
		_ = bus.Close()
		_ = ordered.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a, err := bus.Subscribe(ctx, "a")
	require.NoError(t, err)
	b, err := bus.Subscribe(ctx, "b")
	require.NoError(t, err)

	const total = 200
	for i := 0; i < total; i++ {
		topic := "a"
		if i%2 == 1 {
			topic = "b"
		}
		require.NoError(t, ordered.Publish(topic, message.NewMessage(strconv.Itoa(i), nil)))
	}

	got := make([]string, 0, total)
	for len(got) < total {
		select {
		case msg := <-a:
			got = append(got, msg.UUID)
			msg.Ack()
		case msg := <-b:
			got = append(got, msg.UUID)
			msg.Ack()
		case <-ctx.Done():
			t.Fatalf("only %d of %d delivered", len(got), total)
		}
	}

	for i, id := range got {
		require.Equal(t, strconv.Itoa(i), id, "position %d", i)
	}
}

func TestOrderedPublisher_PublishDoesNotWaitForConsumer(t *testing.T) {
	bus := NewBus(watermill.NopLogger{})
	ordered := NewOrderedPublisher(bus, 4, watermill.NopLogger{})
	defer func() {
		_ = bus.Close()
		_ = ordered.Close()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, err := bus.Subscribe(ctx, "a")
	require.NoError(t, err)

	// Nobody reads or acks: the first message parks in the pump, the rest fill the queue.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5; i++ {
			_ = ordered.Publish("a", message.NewMessage(watermill.NewUUID(), nil))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked while the queue had room")
	}
}

func TestOrderedPublisher_ClosedRejectsPublish(t *testing.T) {
	ordered := NewOrderedPublisher(&fakePublisher{}, 1, watermill.NopLogger{})
	require.NoError(t, ordered.Close())
	require.NoError(t, ordered.Close())

	err := ordered.Publish("a", message.NewMessage(watermill.NewUUID(), nil))
	assert.ErrorIs(t, err, ErrPublisherClosed)
}

func TestEventDispatcher_WrapsPublishError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("boom")}
	d := NewEventDispatcher(pub)

	err := d.Display(context.Background(), model.NotificationData{})
	require.Error(t, err)
	assert.ErrorIs(t, err, pub.err)
	assert.Equal(t, []string{event.TopicNotificationData}, pub.topics)
	assert.Same(t, pub, d.Publisher())
}

func TestAMQPPresenter_PublishesToTopics(t *testing.T) {
	pub := &fakePublisher{}
	p := NewAMQPPresenter(pub, discardLogger())

	require.NoError(t, p.Display(context.Background(), model.NotificationData{Title: "A"}))
	require.NoError(t, p.ForwardRaw(context.Background(), model.RawEvent{"status": 1}))

	assert.Equal(t, []string{event.TopicNotificationData, event.TopicCheckinData}, pub.topics)
	assert.Equal(t, gobreaker.StateClosed, p.State())
}

func TestAMQPPresenter_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	p := NewAMQPPresenter(pub, discardLogger())

	for i := 0; i < breakerTripAfter; i++ {
		err := p.Display(context.Background(), model.NotificationData{})
		require.Error(t, err)
		assert.ErrorIs(t, err, pub.err)
	}
	assert.Equal(t, gobreaker.StateOpen, p.State())

	// Open circuit fails fast without touching the publisher.
	err := p.Display(context.Background(), model.NotificationData{})
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, breakerTripAfter, pub.calls)
}

func TestAMQPPresenter_CloseClosesPublisher(t *testing.T) {
	pub := &fakePublisher{}
	p := NewAMQPPresenter(pub, discardLogger())

	require.NoError(t, p.Close())
	assert.True(t, pub.closed)
}
