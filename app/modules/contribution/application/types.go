package contributionservice

import (
	"time"

	"github.com/google/uuid"
)

// RecordContributionInput is the validated write request passed down from
// the API layer.
type RecordContributionInput struct {
	UserID   string
	TypeName string
	// Points overrides the type default when non-nil. Must be >= 0.
	Points   *int64
	Metadata map[string]string
}

// RecordedContribution is the success payload of RecordContribution.
type RecordedContribution struct {
	RecordID  uuid.UUID `json:"record_id"`
	UserID    string    `json:"user_id"`
	TypeName  string    `json:"type_name"`
	Points    int64     `json:"points"`
	CreatedAt time.Time `json:"created_at"`
	// Duplicate is true when an idempotency key matched an earlier append
	// and no new row was written.
	Duplicate bool `json:"duplicate,omitempty"`
}

// ContributionView is one ledger row as returned to callers.
type ContributionView struct {
	ID        uuid.UUID         `json:"id"`
	UserID    string            `json:"user_id"`
	TypeName  string            `json:"type_name"`
	Points    int64             `json:"points"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// PagedContributions is a page of a user's ledger.
type PagedContributions struct {
	Entries    []ContributionView `json:"entries"`
	TotalItems int                `json:"total_items"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
}

// Statistics is the read-only aggregation over a window.
type Statistics struct {
	TimeRange          string           `json:"time_range"`
	TotalContributions int64            `json:"total_contributions"`
	ByType             map[string]int64 `json:"by_type"`
	ActiveUsers        int64            `json:"active_users"`
	TopContributors    []TopContributor `json:"top_contributors"`
	AvgPerUser         float64          `json:"avg_per_user"`
}

// TopContributor is one entry of the capped top list.
type TopContributor struct {
	UserID string `json:"user_id"`
	Points int64  `json:"points"`
	Count  int64  `json:"count"`
}
