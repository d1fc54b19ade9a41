package achievementservice

import (
	"context"

	leaderboardservice "github.com/wordbloom/contrib-engine/app/modules/leaderboard/application"
)

// Service is the achievement module's public surface.
type Service interface {
	// SeedCatalog makes sure every well-known achievement row exists.
	// Idempotent; runs on every boot.
	SeedCatalog(ctx context.Context) error

	// CheckAndAward evaluates every unearned achievement for a user and
	// grants the ones whose threshold is met. Awarding is idempotent:
	// concurrent evaluations of the same user grant each badge at most once.
	CheckAndAward(ctx context.Context, userID string, opts ...CheckOption) ([]Awarded, error)

	// ListUserAchievements returns a user's earned achievements with catalog
	// details, newest first.
	ListUserAchievements(ctx context.Context, userID string) ([]Earned, error)

	// SweepAll runs a full evaluation pass, rank rules included, over every
	// active user. One user's failure never aborts the pass.
	SweepAll(ctx context.Context) (*SweepReport, error)

	// BadgesFor implements leaderboard page enrichment.
	BadgesFor(ctx context.Context, userIDs []string) (map[string][]leaderboardservice.Badge, error)
}

var _ leaderboardservice.BadgeProvider = (Service)(nil)
