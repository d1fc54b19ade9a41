package contributiondb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Contribution is one row of the append-only ledger. Never updated or
// deleted; the audit trail is the point.
type Contribution struct {
	bun.BaseModel `bun:"table:contributions,alias:c"`

	ID                 uuid.UUID         `bun:"id,pk,type:uuid"`
	UserID             string            `bun:"user_id,notnull"`
	ContributionTypeID int64             `bun:"contribution_type_id,notnull"`
	TypeName           string            `bun:"type_name,notnull"`
	Points             int64             `bun:"points,notnull"`
	Metadata           map[string]string `bun:"metadata,type:jsonb,nullzero"`
	IdempotencyKey     string            `bun:"idempotency_key,nullzero"`
	CreatedAt          time.Time         `bun:"created_at,notnull,default:current_timestamp"`
}

// ContributionType is the lazily-created catalog of contribution kinds.
// Rows are created on first use and mutated only administratively.
type ContributionType struct {
	bun.BaseModel `bun:"table:contribution_types,alias:ct"`

	ID            int64     `bun:"id,pk,autoincrement"`
	Name          string    `bun:"name,notnull,unique"`
	DefaultPoints int64     `bun:"default_points,notnull"`
	Description   string    `bun:"description,nullzero"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// UserAggregate is the one mutable summary row per user, derived from the
// ledger. totalPoints and each counter equal the sum/count over the user's
// ledger rows via the atomic upsert in ApplyContribution.
type UserAggregate struct {
	bun.BaseModel `bun:"table:user_aggregates,alias:ua"`

	UserID               string    `bun:"user_id,pk"`
	TotalPoints          int64     `bun:"total_points,notnull,default:0"`
	SubmissionCount      int64     `bun:"submission_count,notnull,default:0"`
	EditCount            int64     `bun:"edit_count,notnull,default:0"`
	ApprovalCount        int64     `bun:"approval_count,notnull,default:0"`
	CommentCount         int64     `bun:"comment_count,notnull,default:0"`
	LastContributionDate time.Time `bun:"last_contribution_date,notnull"`
	UpdatedAt            time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

