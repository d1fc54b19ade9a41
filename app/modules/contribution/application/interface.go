package contributionservice

import (
	"context"

	"github.com/wordbloom/contrib-engine/app/shared"
)

// Service is the contribution module's public surface.
type Service interface {
	// RecordContribution validates, appends to the ledger, applies the
	// aggregate update atomically and publishes contribution.created.
	RecordContribution(ctx context.Context, input RecordContributionInput) (*RecordedContribution, error)

	// GetUserContributions pages a user's ledger rows in the window.
	GetUserContributions(ctx context.Context, userID string, timeRange shared.TimeRange, page, pageSize int) (*PagedContributions, error)

	// GetStatistics aggregates the ledger over the window.
	GetStatistics(ctx context.Context, timeRange shared.TimeRange) (*Statistics, error)
}
