package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

// EventBus decouples contribution writes from cache invalidation, achievement
// checks and logging. Delivery is at-least-once; subscribers must be
// idempotent.
type EventBus interface {
	Publish(topic string, messages ...*message.Message) error
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
	// Subscriber exposes the raw watermill subscriber for router wiring.
	Subscriber() message.Subscriber
	Close() error
}

// NewMessage marshals payload to JSON and wraps it in a watermill message
// with a fresh UUID and correlation id.
func NewMessage(payload any) (*message.Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	middleware.SetCorrelationID(watermill.NewUUID(), msg)
	return msg, nil
}

// NewResultMessage builds a follow-up message carrying the correlation id of
// the message that triggered it.
func NewResultMessage(trigger *message.Message, payload any) (*message.Message, error) {
	msg, err := NewMessage(payload)
	if err != nil {
		return nil, err
	}
	if trigger != nil {
		if id := middleware.MessageCorrelationID(trigger); id != "" {
			middleware.SetCorrelationID(id, msg)
		}
	}
	return msg, nil
}

// UnmarshalPayload decodes a message payload into v.
func UnmarshalPayload(msg *message.Message, v any) error {
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("failed to unmarshal event payload: %w", err)
	}
	return nil
}
