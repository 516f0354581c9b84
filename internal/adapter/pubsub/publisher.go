package pubsub

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"
)

// AMQPConfig describes the broker the classified notifications are re-published to.
type AMQPConfig struct {
	URL      string
	Exchange string
}

// NewAMQPPublisher publishes each kind to its own durable fanout exchange,
// named "<exchange>.<topic>" (e.g. checkin.notifications.notification-data).
func NewAMQPPublisher(cfg AMQPConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	c := amqp.NewDurablePubSubConfig(cfg.URL, amqp.GenerateQueueNameTopicNameWithSuffix("checkin-notifier"))
	c.Exchange.GenerateName = func(topic string) string {
		return cfg.Exchange + "." + topic
	}

	pub, err := amqp.NewPublisher(c, logger)
	if err != nil {
		return nil, fmt.Errorf("amqp publisher: %w", err)
	}
	return pub, nil
}
