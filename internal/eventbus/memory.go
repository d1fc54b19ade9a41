package eventbus

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// MemoryEventBus is the single-process backend: a watermill gochannel pub/sub
// with a per-subscriber buffered queue. The default for single-instance
// deployments.
type MemoryEventBus struct {
	pubsub *gochannel.GoChannel
}

var _ EventBus = (*MemoryEventBus)(nil)

// NewMemoryEventBus creates an in-process event bus.
func NewMemoryEventBus(logger watermill.LoggerAdapter) *MemoryEventBus {
	return &MemoryEventBus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{
				OutputChannelBuffer: 256,
			},
			logger,
		),
	}
}

func (b *MemoryEventBus) Publish(topic string, messages ...*message.Message) error {
	return b.pubsub.Publish(topic, messages...)
}

func (b *MemoryEventBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, topic)
}

func (b *MemoryEventBus) Close() error {
	return b.pubsub.Close()
}

// Subscriber exposes the underlying watermill subscriber for router wiring.
func (b *MemoryEventBus) Subscriber() message.Subscriber {
	return b.pubsub
}
