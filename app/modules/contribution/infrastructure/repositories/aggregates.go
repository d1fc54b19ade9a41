package contributiondb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"time"

	"github.com/uptrace/bun"

	"github.com/wordbloom/contrib-engine/app/shared"
)

func (r *DBRepository) ApplyContribution(ctx context.Context, db bun.IDB, userID, typeName string, points int64, now time.Time) (*UserAggregate, error) {
	agg := &UserAggregate{
		UserID:               userID,
		TotalPoints:          points,
		LastContributionDate: now,
		UpdatedAt:            now,
	}

	counter := shared.CounterColumnFor(typeName)
	switch counter {
	case "submission_count":
		agg.SubmissionCount = 1
	case "edit_count":
		agg.EditCount = 1
	case "approval_count":
		agg.ApprovalCount = 1
	case "comment_count":
		agg.CommentCount = 1
	}

	// Single-statement insert-or-increment. The whole read-modify-write runs
	// inside Postgres, so concurrent contributions from the same user
	// serialize on the row and no increment is lost.
	q := r.idb(db).NewInsert().
		Model(agg).
		On("CONFLICT (user_id) DO UPDATE").
		Set("total_points = ua.total_points + EXCLUDED.total_points").
		Set("last_contribution_date = EXCLUDED.last_contribution_date").
		Set("updated_at = EXCLUDED.updated_at")
	if counter != "" {
		q = q.Set(fmt.Sprintf("%s = ua.%s + 1", counter, counter))
	}
	q = q.Returning("*")

	if _, err := q.Exec(ctx); err != nil {
		return nil, mapError("apply_contribution", "user_aggregate", userID, err)
	}
	return agg, nil
}

func (r *DBRepository) GetAggregate(ctx context.Context, db bun.IDB, userID string) (*UserAggregate, error) {
	agg := new(UserAggregate)
	err := r.idb(db).NewSelect().
		Model(agg).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAggregateNotFound
		}
		return nil, mapError("get_aggregate", "user_aggregate", userID, err)
	}
	return agg, nil
}
