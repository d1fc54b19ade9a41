// Package events defines the closed set of topics and payloads flowing over
// the bus. One payload type per topic; handlers unmarshal exactly one of
// these.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Topic names. Delivery is at-least-once; every subscriber must be
// idempotent.
const (
	ContributionCreated = "contribution.created"
	AchievementAwarded  = "achievement.awarded"
	LeaderboardUpdated  = "leaderboard.updated"
	UserRankChanged     = "user.rank.changed"
)

// ContributionCreatedPayload is published after a contribution has been
// durably appended and the user's aggregate updated.
type ContributionCreatedPayload struct {
	RecordID  uuid.UUID `json:"record_id"`
	UserID    string    `json:"user_id"`
	TypeName  string    `json:"type_name"`
	Points    int64     `json:"points"`
	CreatedAt time.Time `json:"created_at"`
}

// AchievementAwardedPayload is published once per newly earned achievement.
type AchievementAwardedPayload struct {
	UserID        string    `json:"user_id"`
	AchievementID string    `json:"achievement_id"`
	Name          string    `json:"name"`
	AwardedAt     time.Time `json:"awarded_at"`
}

// LeaderboardUpdatedPayload is published when a leaderboard page was
// recomputed from the aggregate store.
type LeaderboardUpdatedPayload struct {
	TimeRange  string    `json:"time_range"`
	TypeFilter string    `json:"type_filter,omitempty"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalItems int       `json:"total_items"`
	ComputedAt time.Time `json:"computed_at"`
}

// UserRankChangedPayload is published by the achievement sweep when a user's
// all-time rank moved since the last observation.
type UserRankChangedPayload struct {
	UserID       string    `json:"user_id"`
	PreviousRank int       `json:"previous_rank"`
	CurrentRank  int       `json:"current_rank"`
	ObservedAt   time.Time `json:"observed_at"`
}
