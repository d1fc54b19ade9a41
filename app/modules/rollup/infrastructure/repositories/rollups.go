package rollupdb

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// DBRepository is the bun-backed Repository implementation.
type DBRepository struct {
	DB *bun.DB
}

var _ Repository = (*DBRepository)(nil)

// NewDBRepository wraps a bun handle.
func NewDBRepository(db *bun.DB) *DBRepository {
	return &DBRepository{DB: db}
}

func (r *DBRepository) idb(db bun.IDB) bun.IDB {
	if db != nil {
		return db
	}
	return r.DB
}

func (r *DBRepository) WindowTotals(ctx context.Context, db bun.IDB, start, end time.Time) (*WindowTotals, error) {
	totals := &WindowTotals{ByType: make(map[string]int64)}

	err := r.idb(db).NewSelect().
		TableExpr("contributions").
		ColumnExpr("COUNT(*) AS total_contributions").
		ColumnExpr("COALESCE(SUM(points), 0) AS total_points").
		ColumnExpr("COUNT(DISTINCT user_id) AS active_users").
		Where("created_at >= ?", start).
		Where("created_at < ?", end).
		Scan(ctx, &totals.TotalContributions, &totals.TotalPoints, &totals.ActiveUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate window totals: %w", err)
	}

	var byType []struct {
		TypeName string `bun:"type_name"`
		Count    int64  `bun:"count"`
	}
	err = r.idb(db).NewSelect().
		TableExpr("contributions").
		Column("type_name").
		ColumnExpr("COUNT(*) AS count").
		Where("created_at >= ?", start).
		Where("created_at < ?", end).
		Group("type_name").
		Scan(ctx, &byType)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate window by type: %w", err)
	}
	for _, row := range byType {
		totals.ByType[row.TypeName] = row.Count
	}

	return totals, nil
}

func (r *DBRepository) UpsertRollup(ctx context.Context, db bun.IDB, rollup *Rollup) error {
	if rollup.CreatedAt.IsZero() {
		rollup.CreatedAt = time.Now().UTC()
	}

	_, err := r.idb(db).NewInsert().
		Model(rollup).
		On("CONFLICT (period, period_start) DO UPDATE").
		Set("period_end = EXCLUDED.period_end").
		Set("total_contributions = EXCLUDED.total_contributions").
		Set("total_points = EXCLUDED.total_points").
		Set("active_users = EXCLUDED.active_users").
		Set("by_type = EXCLUDED.by_type").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert rollup: %w", err)
	}
	return nil
}

func (r *DBRepository) ListRecent(ctx context.Context, db bun.IDB, period string, limit int) ([]Rollup, error) {
	var rollups []Rollup
	err := r.idb(db).NewSelect().
		Model(&rollups).
		Where("period = ?", period).
		Order("period_start DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rollups: %w", err)
	}
	return rollups, nil
}
