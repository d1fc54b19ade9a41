package leaderboarddb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

// DBRepository is the bun-backed ranking repository.
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

// sortColumns is the closed set of permissible sort keys. PageQuery's
// CounterColumn is interpolated into SQL, so anything outside this set is
// rejected.
var sortColumns = map[string]bool{
	"total_points":     true,
	"submission_count": true,
	"edit_count":       true,
	"approval_count":   true,
	"comment_count":    true,
}

func (r *DBRepository) QueryPage(ctx context.Context, db bun.IDB, q PageQuery) ([]AggregateRow, int, error) {
	sortCol := q.CounterColumn
	if sortCol == "" {
		sortCol = "total_points"
	}
	if !sortColumns[sortCol] {
		return nil, 0, fmt.Errorf("invalid sort column %q", sortCol)
	}

	base := r.idb(db).NewSelect().
		TableExpr("user_aggregates AS ua").
		Column("user_id", "total_points", "submission_count", "edit_count", "approval_count", "comment_count", "last_contribution_date")

	if !q.WindowStart.IsZero() {
		base = base.Where("last_contribution_date >= ?", q.WindowStart)
	}
	if q.CounterColumn != "" {
		base = base.Where(fmt.Sprintf("%s > 0", sortCol))
	}

	var rows []AggregateRow
	count, err := base.
		OrderExpr(fmt.Sprintf("%s DESC", sortCol)).
		OrderExpr("last_contribution_date DESC").
		Limit(q.Limit).
		Offset(q.Offset).
		ScanAndCount(ctx, &rows)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query leaderboard page: %w", err)
	}
	return rows, count, nil
}

func (r *DBRepository) RankOf(ctx context.Context, db bun.IDB, userID string) (int, error) {
	var target struct {
		TotalPoints          int64        `bun:"total_points"`
		LastContributionDate sql.NullTime `bun:"last_contribution_date"`
	}
	err := r.idb(db).NewSelect().
		TableExpr("user_aggregates").
		Column("total_points", "last_contribution_date").
		Where("user_id = ?", userID).
		Scan(ctx, &target)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to load aggregate for rank: %w", err)
	}

	// Rank = 1 + number of users strictly ahead under the (points, recency)
	// ordering.
	ahead, err := r.idb(db).NewSelect().
		TableExpr("user_aggregates").
		Where("total_points > ? OR (total_points = ? AND last_contribution_date > ?)",
			target.TotalPoints, target.TotalPoints, target.LastContributionDate.Time).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count users ahead: %w", err)
	}
	return ahead + 1, nil
}
