package achievementservice

import (
	"context"
	"time"
)

// AggregateSnapshot is the per-user counter view the rules are evaluated
// against.
type AggregateSnapshot struct {
	UserID          string
	TotalPoints     int64
	SubmissionCount int64
	EditCount       int64
	ApprovalCount   int64
	CommentCount    int64
}

// Contributions is the total contribution count across all types.
func (s AggregateSnapshot) Contributions() int64 {
	return s.SubmissionCount + s.EditCount + s.ApprovalCount + s.CommentCount
}

// AggregateSource reads user aggregates from the contribution module. The
// found flag distinguishes a user with no aggregate row from a read failure.
type AggregateSource interface {
	AggregateFor(ctx context.Context, userID string) (snapshot *AggregateSnapshot, found bool, err error)
	ActiveUserIDs(ctx context.Context) ([]string, error)
}

// RankSource resolves a user's current all-time rank, 0 when unranked.
type RankSource interface {
	RankOf(ctx context.Context, userID string) (int, error)
}

// Awarded is one achievement granted by an evaluation pass.
type Awarded struct {
	AchievementID string    `json:"achievement_id"`
	Name          string    `json:"name"`
	AwardedAt     time.Time `json:"awarded_at"`
}

// Earned is one achievement a user holds, joined with catalog details.
type Earned struct {
	AchievementID string    `json:"achievement_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	AwardedAt     time.Time `json:"awarded_at"`
}

// SweepReport summarizes one full evaluation pass over all active users.
type SweepReport struct {
	UsersChecked int `json:"users_checked"`
	Awards       int `json:"awards"`
	Failures     int `json:"failures"`
	RankChanges  int `json:"rank_changes"`
}

// CheckOption tweaks a single CheckAndAward call.
type CheckOption func(*checkOptions)

type checkOptions struct {
	evaluateRank bool

	// rank carries a rank the caller already resolved, so evaluate does
	// not pay a second rank query for the same user.
	rank      int
	rankKnown bool
}

// WithRankEvaluation enables rank-threshold rules for this call. Rank
// queries are comparatively expensive, so event-driven checks skip them and
// leave rank achievements to the periodic sweep.
func WithRankEvaluation() CheckOption {
	return func(o *checkOptions) { o.evaluateRank = true }
}
