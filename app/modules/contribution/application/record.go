package contributionservice

import (
	"context"
	"strings"
	"time"

	"github.com/uptrace/bun"

	contributiondb "github.com/wordbloom/contrib-engine/app/modules/contribution/infrastructure/repositories"
	"github.com/wordbloom/contrib-engine/app/shared"
	"github.com/wordbloom/contrib-engine/internal/eventbus"
	"github.com/wordbloom/contrib-engine/internal/events"
	"github.com/wordbloom/contrib-engine/internal/observability/attr"
)

// idempotencyKeyField is the metadata key callers may set to make write
// retries safe.
const idempotencyKeyField = "idempotency_key"

func (s *ContributionService) RecordContribution(ctx context.Context, input RecordContributionInput) (*RecordedContribution, error) {
	return withTelemetry(s, ctx, "record_contribution", input.UserID, func(ctx context.Context) (*RecordedContribution, error) {
		if err := validateRecordInput(input); err != nil {
			return nil, err
		}

		recorded, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (*RecordedContribution, error) {
			ct, err := s.repo.FindOrCreateType(ctx, db, input.TypeName)
			if err != nil {
				return nil, err
			}

			points := ct.DefaultPoints
			if input.Points != nil {
				points = *input.Points
			}

			record := &contributiondb.Contribution{
				UserID:             input.UserID,
				ContributionTypeID: ct.ID,
				TypeName:           ct.Name,
				Points:             points,
				Metadata:           input.Metadata,
				IdempotencyKey:     input.Metadata[idempotencyKeyField],
				CreatedAt:          time.Now().UTC(),
			}

			row, created, err := s.repo.AppendContribution(ctx, db, record)
			if err != nil {
				return nil, err
			}

			if !created {
				// Idempotent replay: the ledger and aggregate were already
				// updated by the first append. Report the original row.
				return &RecordedContribution{
					RecordID:  row.ID,
					UserID:    row.UserID,
					TypeName:  row.TypeName,
					Points:    row.Points,
					CreatedAt: row.CreatedAt,
					Duplicate: true,
				}, nil
			}

			if _, err := s.repo.ApplyContribution(ctx, db, row.UserID, row.TypeName, row.Points, row.CreatedAt); err != nil {
				return nil, err
			}

			return &RecordedContribution{
				RecordID:  row.ID,
				UserID:    row.UserID,
				TypeName:  row.TypeName,
				Points:    row.Points,
				CreatedAt: row.CreatedAt,
			}, nil
		})
		if err != nil {
			return nil, err
		}

		s.metrics.RecordContribution(ctx, recorded.TypeName, recorded.Points)

		if !recorded.Duplicate {
			s.publishContributionCreated(ctx, recorded)
		}

		return recorded, nil
	})
}

func (s *ContributionService) publishContributionCreated(ctx context.Context, recorded *RecordedContribution) {
	msg, err := eventbus.NewMessage(events.ContributionCreatedPayload{
		RecordID:  recorded.RecordID,
		UserID:    recorded.UserID,
		TypeName:  recorded.TypeName,
		Points:    recorded.Points,
		CreatedAt: recorded.CreatedAt,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to build contribution.created message", attr.Error(err))
		return
	}
	// The write is already durable; a publish failure only delays downstream
	// cache invalidation and achievement checks until the scheduled sweeps.
	if err := s.EventBus.Publish(events.ContributionCreated, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish contribution.created",
			attr.UserID("user_id", recorded.UserID),
			attr.Error(err),
		)
	}
}

func validateRecordInput(input RecordContributionInput) error {
	if strings.TrimSpace(input.UserID) == "" {
		return shared.NewValidationError("userId", "must not be empty")
	}
	if strings.TrimSpace(input.TypeName) == "" {
		return shared.NewValidationError("type", "must not be empty")
	}
	if input.Points != nil && *input.Points < 0 {
		return shared.NewValidationError("points", "must not be negative")
	}
	return nil
}
