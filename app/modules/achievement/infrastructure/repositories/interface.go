package achievementdb

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Repository is the persistence contract for the achievement catalog and the
// award ledger.
type Repository interface {
	// SeedCatalog inserts every catalog row whose id is absent. Idempotent;
	// runs on every boot.
	SeedCatalog(ctx context.Context, db bun.IDB, catalog []Achievement) error

	// ListCatalog returns the full achievement catalog.
	ListCatalog(ctx context.Context, db bun.IDB) ([]Achievement, error)

	// ListEarnedIDs returns the achievement ids a user has already earned.
	ListEarnedIDs(ctx context.Context, db bun.IDB, userID string) (map[string]bool, error)

	// Award inserts the (user, achievement) pair. A duplicate insert reports
	// created=false and no error: the unique key makes awarding idempotent
	// under concurrent evaluation.
	Award(ctx context.Context, db bun.IDB, userID, achievementID string, awardedAt time.Time) (created bool, err error)

	// BadgesForUsers returns earned badges for a batch of users, joined with
	// the catalog names.
	BadgesForUsers(ctx context.Context, db bun.IDB, userIDs []string) ([]EarnedBadge, error)
}
