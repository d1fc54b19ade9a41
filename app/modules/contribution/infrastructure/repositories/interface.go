package contributiondb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository is the persistence contract for the ledger, the type catalog
// and the aggregate store. Methods take a bun.IDB so service-level
// transactions flow through; passing the root *bun.DB is fine outside one.
type Repository interface {
	// AppendContribution inserts a ledger row. When the row carries an
	// idempotency key that already exists, the original row is returned
	// unchanged and created reports false.
	AppendContribution(ctx context.Context, db bun.IDB, record *Contribution) (row *Contribution, created bool, err error)

	// FindOrCreateType resolves a type by name, creating it with the
	// well-known default points on first use. Safe under concurrent first
	// use; the unique constraint on name arbitrates.
	FindOrCreateType(ctx context.Context, db bun.IDB, name string) (*ContributionType, error)

	// ApplyContribution performs the atomic per-row aggregate upsert:
	// insert-or-increment in a single statement so concurrent contributions
	// from the same user never lose an update.
	ApplyContribution(ctx context.Context, db bun.IDB, userID, typeName string, points int64, now time.Time) (*UserAggregate, error)

	// GetAggregate returns a user's aggregate row or ErrAggregateNotFound.
	GetAggregate(ctx context.Context, db bun.IDB, userID string) (*UserAggregate, error)

	// GetContribution returns a ledger row by id.
	GetContribution(ctx context.Context, db bun.IDB, id uuid.UUID) (*Contribution, error)

	// ListUserContributions pages a user's ledger rows inside [start, end),
	// newest first, and returns the total count in the window.
	ListUserContributions(ctx context.Context, db bun.IDB, userID string, start, end time.Time, limit, offset int) ([]Contribution, int, error)

	// Statistics aggregates the ledger over [start, end).
	Statistics(ctx context.Context, db bun.IDB, start, end time.Time) (*StatisticsRow, error)

	// ListActiveUserIDs returns ids of users with total_points > 0, in
	// stable order, for the achievement sweep.
	ListActiveUserIDs(ctx context.Context, db bun.IDB) ([]string, error)
}

// StatisticsRow is the raw aggregation result for a window.
type StatisticsRow struct {
	TotalContributions int64
	ByType             map[string]int64
	ActiveUsers        int64
	TopContributors    []TopContributor
}

// TopContributor is one row of the capped top-contributor list.
type TopContributor struct {
	UserID string `bun:"user_id"`
	Points int64  `bun:"points"`
	Count  int64  `bun:"count"`
}
