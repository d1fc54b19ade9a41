package leaderboardservice

import (
	"fmt"
	"time"

	"github.com/wordbloom/contrib-engine/app/shared"
)

// Badge is an earned achievement shown on a leaderboard entry.
type Badge struct {
	AchievementID string    `json:"achievement_id"`
	Name          string    `json:"name"`
	AwardedAt     time.Time `json:"awarded_at"`
}

// LeaderboardEntry is one ranked row of a page.
type LeaderboardEntry struct {
	Rank                 int       `json:"rank"`
	UserID               string    `json:"user_id"`
	DisplayName          string    `json:"display_name"`
	AvatarURL            string    `json:"avatar_url,omitempty"`
	TotalPoints          int64     `json:"total_points"`
	SubmissionCount      int64     `json:"submission_count"`
	EditCount            int64     `json:"edit_count"`
	ApprovalCount        int64     `json:"approval_count"`
	CommentCount         int64     `json:"comment_count"`
	LastContributionDate time.Time `json:"last_contribution_date"`
	Badges               []Badge   `json:"badges,omitempty"`
}

// LeaderboardPage is a ranked, paginated view over aggregates for a window.
type LeaderboardPage struct {
	TimeRange  string             `json:"time_range"`
	TypeFilter string             `json:"type_filter,omitempty"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalItems int                `json:"total_items"`
	Entries    []LeaderboardEntry `json:"entries"`
	ComputedAt time.Time          `json:"computed_at"`
}

// Query is one validated leaderboard request.
type Query struct {
	TimeRange  shared.TimeRange
	TypeFilter string
	Page       int
	PageSize   int
}

// CacheKey derives the memoization key. Purely a function of the query
// parameters: identical queries always hit the same entry.
func (q Query) CacheKey() string {
	return fmt.Sprintf("leaderboard:v1:%s:%s:%d:%d", q.TimeRange, q.TypeFilter, q.Page, q.PageSize)
}
