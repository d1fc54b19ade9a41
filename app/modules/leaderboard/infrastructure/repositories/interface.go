package leaderboarddb

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Repository is the ranking engine's read-only view over the aggregate
// store. It never writes; the contribution module owns the rows.
type Repository interface {
	// QueryPage returns one ordered leaderboard page plus the total number
	// of qualifying users. Ordering: active sort key descending, ties broken
	// by last_contribution_date descending.
	QueryPage(ctx context.Context, db bun.IDB, q PageQuery) ([]AggregateRow, int, error)

	// RankOf returns a user's 1-based all-time rank by total points, or 0
	// when the user has no aggregate row.
	RankOf(ctx context.Context, db bun.IDB, userID string) (int, error)
}

// PageQuery describes one leaderboard page request after validation.
type PageQuery struct {
	// WindowStart bounds last_contribution_date; zero means all-time.
	WindowStart time.Time
	// CounterColumn is the per-type sort column, or "" to sort by
	// total_points. Callers must map type names through a closed set; this
	// value is interpolated into SQL.
	CounterColumn string
	Limit         int
	Offset        int
}

// AggregateRow is one qualifying user row, sorted and windowed.
type AggregateRow struct {
	UserID               string    `bun:"user_id"`
	TotalPoints          int64     `bun:"total_points"`
	SubmissionCount      int64     `bun:"submission_count"`
	EditCount            int64     `bun:"edit_count"`
	ApprovalCount        int64     `bun:"approval_count"`
	CommentCount         int64     `bun:"comment_count"`
	LastContributionDate time.Time `bun:"last_contribution_date"`
}
