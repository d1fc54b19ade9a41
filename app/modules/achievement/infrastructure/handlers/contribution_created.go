package achievementhandlers

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/wordbloom/contrib-engine/internal/events"
	"github.com/wordbloom/contrib-engine/internal/observability/attr"
)

// HandleContributionCreated evaluates counter-based achievements for the
// contributing user. Rank achievements are left to the daily sweep: a rank
// query per write would be too expensive. Returning an error redelivers the
// message; awarding is idempotent, so that is safe.
func (h *AchievementHandlers) HandleContributionCreated(msg *message.Message) ([]*message.Message, error) {
	wrappedHandler := h.handlerWrapper("HandleContributionCreated", &events.ContributionCreatedPayload{},
		func(ctx context.Context, msg *message.Message, payload any) ([]*message.Message, error) {
			contributionCreatedPayload := payload.(*events.ContributionCreatedPayload)

			awards, err := h.service.CheckAndAward(ctx, contributionCreatedPayload.UserID)
			if err != nil {
				return nil, err
			}

			for _, award := range awards {
				h.logger.InfoContext(ctx, "Achievement awarded",
					attr.CorrelationIDFromMsg(msg),
					attr.UserID("user_id", contributionCreatedPayload.UserID),
					attr.String("achievement_id", award.AchievementID),
				)
			}
			return nil, nil
		},
	)

	return wrappedHandler(msg)
}
