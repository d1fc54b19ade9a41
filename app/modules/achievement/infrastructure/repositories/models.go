package achievementdb

import (
	"time"

	"github.com/uptrace/bun"
)

// RuleType selects how an achievement's threshold is evaluated.
type RuleType string

const (
	RuleTotal      RuleType = "total"
	RuleSubmission RuleType = "submission"
	RuleEdit       RuleType = "edit"
	RuleApproval   RuleType = "approval"
	RuleRank       RuleType = "rank"
)

// Achievement is one row of the static catalog, seeded at startup.
type Achievement struct {
	bun.BaseModel `bun:"table:achievements,alias:a"`

	ID          string    `bun:"id,pk"`
	Name        string    `bun:"name,notnull"`
	Description string    `bun:"description,nullzero"`
	Threshold   int64     `bun:"threshold,notnull"`
	Type        RuleType  `bun:"type,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// UserAchievement records one award. The (user_id, achievement_id) primary
// key is the idempotence invariant: the same badge can never be granted
// twice, even under concurrent evaluation.
type UserAchievement struct {
	bun.BaseModel `bun:"table:user_achievements,alias:uach"`

	UserID        string    `bun:"user_id,pk"`
	AchievementID string    `bun:"achievement_id,pk"`
	AwardedAt     time.Time `bun:"awarded_at,notnull"`
}

// EarnedBadge is the join row used for leaderboard enrichment.
type EarnedBadge struct {
	UserID        string    `bun:"user_id"`
	AchievementID string    `bun:"achievement_id"`
	Name          string    `bun:"name"`
	AwardedAt     time.Time `bun:"awarded_at"`
}

// Catalog is the well-known achievement set. Seeding inserts each id only if
// absent, so running it on every boot is safe.
func Catalog() []Achievement {
	return []Achievement{
		{ID: "first-contribution", Name: "First Contribution", Description: "Make your first contribution.", Threshold: 1, Type: RuleTotal},
		{ID: "contributor-10", Name: "Regular Contributor", Description: "Make 10 contributions.", Threshold: 10, Type: RuleTotal},
		{ID: "contributor-50", Name: "Dedicated Contributor", Description: "Make 50 contributions.", Threshold: 50, Type: RuleTotal},
		{ID: "submitter-25", Name: "Wordsmith", Description: "Submit 25 words.", Threshold: 25, Type: RuleSubmission},
		{ID: "editor-25", Name: "Sharp Eye", Description: "Make 25 edits.", Threshold: 25, Type: RuleEdit},
		{ID: "approver-25", Name: "Gatekeeper", Description: "Approve 25 contributions.", Threshold: 25, Type: RuleApproval},
		{ID: "top-10", Name: "Top Ten", Description: "Reach the all-time top 10.", Threshold: 10, Type: RuleRank},
		{ID: "top-3", Name: "Podium", Description: "Reach the all-time top 3.", Threshold: 3, Type: RuleRank},
	}
}
