package pubsub

import (
	"errors"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// MetadataKind names the event.Kind a message was published as.
const MetadataKind = "kind"

var ErrPublisherClosed = errors.New("ordered publisher closed")

// NewBus builds the in-process pub/sub that decouples the stream client from presenters.
//
// Publish returns only once the subscriber acked, so the router never holds more
// than one message and presenters observe frame order. Callers that must not
// block publish through an OrderedPublisher.
func NewBus(logger watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{
		BlockPublishUntilSubscriberAck: true,
	}, logger)
}

type queuedMessage struct {
	topic string
	msg   *message.Message
}

// OrderedPublisher queues messages in call order and hands them to next from a
// single goroutine. Publish only waits when the queue is full.
type OrderedPublisher struct {
	next   message.Publisher
	logger watermill.LoggerAdapter

	queue     chan queuedMessage
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewOrderedPublisher(next message.Publisher, buffer int, logger watermill.LoggerAdapter) *OrderedPublisher {
	if buffer < 0 {
		buffer = 0
	}
	p := &OrderedPublisher{
		next:   next,
		logger: logger,
		queue:  make(chan queuedMessage, buffer),
		done:   make(chan struct{}),
	}
	p.wg.Add(1)
	go p.pump()
	return p
}

func (p *OrderedPublisher) Publish(topic string, msgs ...*message.Message) error {
	for _, msg := range msgs {
		select {
		case <-p.done:
			return ErrPublisherClosed
		default:
		}

		select {
		case p.queue <- queuedMessage{topic: topic, msg: msg}:
		case <-msg.Context().Done():
			return msg.Context().Err()
		case <-p.done:
			return ErrPublisherClosed
		}
	}
	return nil
}

func (p *OrderedPublisher) pump() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case q := <-p.queue:
			if err := p.next.Publish(q.topic, q.msg); err != nil {
				p.logger.Error("ordered publish failed", err, watermill.LogFields{
					"topic":  q.topic,
					"msg_id": q.msg.UUID,
				})
			}
		}
	}
}

// Close stops the pump; messages still queued are dropped. Close next first
// when a publish may be waiting on an ack.
func (p *OrderedPublisher) Close() error {
	p.closeOnce.Do(func() { close(p.done) })
	p.wg.Wait()
	return nil
}
