package leaderboardservice

import (
	"context"

	"github.com/wordbloom/contrib-engine/app/shared"
)

// Service is the leaderboard module's public surface.
type Service interface {
	// GetLeaderboard returns one ranked page, served from cache when live,
	// recomputed from the aggregate store otherwise. An empty window is a
	// valid empty page, not an error.
	GetLeaderboard(ctx context.Context, q Query) (*LeaderboardPage, error)

	// RankOf returns a user's 1-based all-time rank, 0 when unranked.
	RankOf(ctx context.Context, userID string) (int, error)

	// RenderTopChart renders a PNG bar chart of the window's top n users by
	// total points.
	RenderTopChart(ctx context.Context, timeRange shared.TimeRange, n int) ([]byte, error)

	// InvalidateCache drops every memoized page. Called on contribution
	// writes and by the hourly sweep.
	InvalidateCache(ctx context.Context)
}

// BadgeProvider supplies earned badges for page enrichment. Best effort: an
// error degrades entries to an empty badge list, it never fails the page.
type BadgeProvider interface {
	BadgesFor(ctx context.Context, userIDs []string) (map[string][]Badge, error)
}
