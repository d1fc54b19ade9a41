package achievementhandlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	achievementservice "github.com/wordbloom/contrib-engine/app/modules/achievement/application"
	"github.com/wordbloom/contrib-engine/internal/eventbus"
	"github.com/wordbloom/contrib-engine/internal/observability/attr"
	"github.com/wordbloom/contrib-engine/internal/observability/metrics"
)

// AchievementHandlers subscribes the achievement module to the bus.
type AchievementHandlers struct {
	service achievementservice.Service
	logger  *slog.Logger
	metrics metrics.AchievementMetrics
}

// NewAchievementHandlers creates the handler set.
func NewAchievementHandlers(service achievementservice.Service, logger *slog.Logger, m metrics.AchievementMetrics) *AchievementHandlers {
	return &AchievementHandlers{
		service: service,
		logger:  logger,
		metrics: m,
	}
}

// handlerWrapper decodes the payload, stashes the correlation id on the
// context and times the handler. Handlers must be idempotent: delivery is
// at-least-once.
func (h *AchievementHandlers) handlerWrapper(
	handlerName string,
	payloadInstance any,
	handlerFunc func(ctx context.Context, msg *message.Message, payload any) ([]*message.Message, error),
) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		start := time.Now()
		h.metrics.RecordOperationAttempt(msg.Context(), handlerName)

		if err := eventbus.UnmarshalPayload(msg, payloadInstance); err != nil {
			h.logger.Error("Failed to unmarshal event payload",
				attr.String("handler", handlerName),
				attr.CorrelationIDFromMsg(msg),
				attr.Error(err),
			)
			h.metrics.RecordOperationFailure(msg.Context(), handlerName)
			// A malformed payload never becomes parseable; don't redeliver.
			return nil, nil
		}

		ctx := attr.WithCorrelationID(msg.Context(), middleware.MessageCorrelationID(msg))

		out, err := handlerFunc(ctx, msg, payloadInstance)

		h.metrics.RecordOperationDuration(ctx, handlerName, time.Since(start))
		if err != nil {
			h.metrics.RecordOperationFailure(ctx, handlerName)
			return nil, err
		}
		h.metrics.RecordOperationSuccess(ctx, handlerName)
		return out, nil
	}
}
