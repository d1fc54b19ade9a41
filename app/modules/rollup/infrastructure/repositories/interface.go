package rollupdb

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Repository persists rollup rows and aggregates the ledger. Reads from the
// contributions table are strictly read-only; the contribution module owns
// those rows.
type Repository interface {
	// WindowTotals aggregates the ledger over [start, end).
	WindowTotals(ctx context.Context, db bun.IDB, start, end time.Time) (*WindowTotals, error)

	// UpsertRollup writes the rollup row, overwriting an existing row for
	// the same (period, period_start).
	UpsertRollup(ctx context.Context, db bun.IDB, rollup *Rollup) error

	// ListRecent returns the newest rollups for a period, newest first.
	ListRecent(ctx context.Context, db bun.IDB, period string, limit int) ([]Rollup, error)
}
