package rollupdb

import (
	"time"

	"github.com/uptrace/bun"
)

// Rollup is one materialized aggregation of the ledger over a complete
// period. The (period, period_start) unique key makes re-running a period a
// harmless overwrite with identical data.
type Rollup struct {
	bun.BaseModel `bun:"table:contribution_rollups,alias:cr"`

	ID                 int64            `bun:"id,pk,autoincrement"`
	Period             string           `bun:"period,notnull"`
	PeriodStart        time.Time        `bun:"period_start,notnull"`
	PeriodEnd          time.Time        `bun:"period_end,notnull"`
	TotalContributions int64            `bun:"total_contributions,notnull"`
	TotalPoints        int64            `bun:"total_points,notnull"`
	ActiveUsers        int64            `bun:"active_users,notnull"`
	ByType             map[string]int64 `bun:"by_type,type:jsonb,nullzero"`
	CreatedAt          time.Time        `bun:"created_at,notnull,default:current_timestamp"`
}

// WindowTotals is the raw aggregation over one ledger window.
type WindowTotals struct {
	TotalContributions int64
	TotalPoints        int64
	ActiveUsers        int64
	ByType             map[string]int64
}
