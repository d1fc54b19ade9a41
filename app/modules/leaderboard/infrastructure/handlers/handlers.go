package leaderboardhandlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	leaderboardservice "github.com/wordbloom/contrib-engine/app/modules/leaderboard/application"
	"github.com/wordbloom/contrib-engine/internal/eventbus"
	"github.com/wordbloom/contrib-engine/internal/observability/attr"
	"github.com/wordbloom/contrib-engine/internal/observability/metrics"
)

// LeaderboardHandlers subscribes the leaderboard module to the bus.
type LeaderboardHandlers struct {
	service leaderboardservice.Service
	logger  *slog.Logger
	metrics metrics.LeaderboardMetrics
}

// NewLeaderboardHandlers creates the handler set.
func NewLeaderboardHandlers(service leaderboardservice.Service, logger *slog.Logger, m metrics.LeaderboardMetrics) *LeaderboardHandlers {
	return &LeaderboardHandlers{
		service: service,
		logger:  logger,
		metrics: m,
	}
}

// handlerWrapper decodes the payload, stashes the correlation id on the
// context and times the handler. Handlers must be idempotent: delivery is
// at-least-once.
func (h *LeaderboardHandlers) handlerWrapper(
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
