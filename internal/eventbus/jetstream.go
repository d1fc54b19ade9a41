package eventbus

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"
)

// JetStreamEventBus backs the bus with NATS JetStream for multi-instance
// deployments. Same at-least-once contract as the in-process backend.
type JetStreamEventBus struct {
	logger     watermill.LoggerAdapter
	natsURL    string
	publisher  *wmnats.Publisher
	subscriber *wmnats.Subscriber
}

var _ EventBus = (*JetStreamEventBus)(nil)

// NewJetStreamEventBus connects to NATS and builds the watermill publisher
// and subscriber pair.
func NewJetStreamEventBus(natsURL string, logger watermill.LoggerAdapter) (*JetStreamEventBus, error) {
	options := []nc.Option{
		nc.RetryOnFailedConnect(true),
		nc.Timeout(30 * time.Second),
		nc.ReconnectWait(1 * time.Second),
		nc.ErrorHandler(func(_ *nc.Conn, s *nc.Subscription, err error) {
			if s != nil {
				logger.Error("Error in subscription", err, watermill.LogFields{
					"subject": s.Subject,
					"queue":   s.Queue,
				})
			} else {
				logger.Error("Error in connection", err, nil)
			}
		}),
	}

	// The publisher and subscriber each dial their own connection; this one
	// only verifies the server speaks JetStream before building them.
	conn, err := nc.Connect(natsURL, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer conn.Close()
	if _, err := conn.JetStream(); err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	publisher, err := wmnats.NewPublisher(
		wmnats.PublisherConfig{
			URL:         natsURL,
			NatsOptions: options,
			Marshaler:   &wmnats.NATSMarshaler{},
			JetStream: wmnats.JetStreamConfig{
				Disabled:      false,
				AutoProvision: true,
			},
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create watermill NATS publisher: %w", err)
	}

	subscriber, err := wmnats.NewSubscriber(
		wmnats.SubscriberConfig{
			URL:         natsURL,
			NatsOptions: options,
			Unmarshaler: &wmnats.NATSMarshaler{},
			JetStream: wmnats.JetStreamConfig{
				Disabled:      false,
				AutoProvision: true,
			},
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create watermill NATS subscriber: %w", err)
	}

	return &JetStreamEventBus{
		logger:     logger,
		natsURL:    natsURL,
		publisher:  publisher,
		subscriber: subscriber,
	}, nil
}

func (b *JetStreamEventBus) Publish(topic string, messages ...*message.Message) error {
	return b.publisher.Publish(topic, messages...)
}

func (b *JetStreamEventBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.subscriber.Subscribe(ctx, topic)
}

func (b *JetStreamEventBus) Close() error {
	var errs []error
	if err := b.subscriber.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close subscriber: %w", err))
	}
	if err := b.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close publisher: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred during close: %v", errs)
	}
	return nil
}

// Subscriber exposes the underlying watermill subscriber for router wiring.
func (b *JetStreamEventBus) Subscriber() message.Subscriber {
	return b.subscriber
}
