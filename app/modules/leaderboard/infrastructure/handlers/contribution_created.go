package leaderboardhandlers

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/wordbloom/contrib-engine/internal/events"
	"github.com/wordbloom/contrib-engine/internal/observability/attr"
)

// HandleContributionCreated drops every memoized leaderboard page. Coarse on
// purpose: any write can shift any ranking, and invalidation is idempotent
// so redelivery is harmless.
func (h *LeaderboardHandlers) HandleContributionCreated(msg *message.Message) ([]*message.Message, error) {
	wrappedHandler := h.handlerWrapper("HandleContributionCreated", &events.ContributionCreatedPayload{},
		func(ctx context.Context, msg *message.Message, payload any) ([]*message.Message, error) {
			contributionCreatedPayload := payload.(*events.ContributionCreatedPayload)

			h.logger.InfoContext(ctx, "Received contribution.created event",
				attr.CorrelationIDFromMsg(msg),
				attr.UserID("user_id", contributionCreatedPayload.UserID),
				attr.String("type_name", contributionCreatedPayload.TypeName),
			)

			h.service.InvalidateCache(ctx)
			return nil, nil
		},
	)

	return wrappedHandler(msg)
}
