package contributiondb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/wordbloom/contrib-engine/app/shared"
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

// idb resolves the effective handle: the transaction passed in, or the root
// connection.
func (r *DBRepository) idb(db bun.IDB) bun.IDB {
	if db != nil {
		return db
	}
	return r.DB
}

func (r *DBRepository) AppendContribution(ctx context.Context, db bun.IDB, record *Contribution) (*Contribution, bool, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	insert := r.idb(db).NewInsert().Model(record)
	if record.IdempotencyKey != "" {
		// DO NOTHING instead of letting the partial unique index raise a
		// unique violation: a violation would abort the caller's open
		// transaction and the reselect below would fail with 25P02.
		insert = insert.On("CONFLICT (idempotency_key) WHERE idempotency_key IS NOT NULL DO NOTHING")
	}
	res, err := insert.Exec(ctx)
	if err != nil {
		return nil, false, mapError("append_contribution", "contribution", record.IdempotencyKey, err)
	}

	if record.IdempotencyKey != "" {
		if affected, raErr := res.RowsAffected(); raErr == nil && affected == 0 {
			// The key was already appended. Return the original row so
			// retries observe the first write.
			existing := new(Contribution)
			selErr := r.idb(db).NewSelect().
				Model(existing).
				Where("idempotency_key = ?", record.IdempotencyKey).
				Limit(1).
				Scan(ctx)
			if selErr != nil {
				return nil, false, fmt.Errorf("failed to load contribution for idempotency key %q: %w", record.IdempotencyKey, selErr)
			}
			return existing, false, nil
		}
	}
	return record, true, nil
}

func (r *DBRepository) GetContribution(ctx context.Context, db bun.IDB, id uuid.UUID) (*Contribution, error) {
	record := new(Contribution)
	err := r.idb(db).NewSelect().
		Model(record).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.NewNotFoundError("contribution", id.String())
		}
		return nil, mapError("get_contribution", "contribution", id.String(), err)
	}
	return record, nil
}

func (r *DBRepository) ListUserContributions(ctx context.Context, db bun.IDB, userID string, start, end time.Time, limit, offset int) ([]Contribution, int, error) {
	var records []Contribution
	count, err := r.idb(db).NewSelect().
		Model(&records).
		Where("user_id = ?", userID).
		Where("created_at >= ?", start).
		Where("created_at < ?", end).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, mapError("list_user_contributions", "contribution", userID, err)
	}
	return records, count, nil
}

func (r *DBRepository) Statistics(ctx context.Context, db bun.IDB, start, end time.Time) (*StatisticsRow, error) {
	stats := &StatisticsRow{ByType: make(map[string]int64)}

	total, err := r.idb(db).NewSelect().
		Model((*Contribution)(nil)).
		Where("created_at >= ?", start).
		Where("created_at < ?", end).
		Count(ctx)
	if err != nil {
		return nil, mapError("statistics_total", "contribution", "", err)
	}
	stats.TotalContributions = int64(total)

	var byType []struct {
		TypeName string `bun:"type_name"`
		Count    int64  `bun:"count"`
	}
	err = r.idb(db).NewSelect().
		Model((*Contribution)(nil)).
		Column("type_name").
		ColumnExpr("COUNT(*) AS count").
		Where("created_at >= ?", start).
		Where("created_at < ?", end).
		Group("type_name").
		Scan(ctx, &byType)
	if err != nil {
		return nil, mapError("statistics_by_type", "contribution", "", err)
	}
	for _, row := range byType {
		stats.ByType[row.TypeName] = row.Count
	}

	err = r.idb(db).NewSelect().
		Model((*Contribution)(nil)).
		ColumnExpr("COUNT(DISTINCT user_id)").
		Where("created_at >= ?", start).
		Where("created_at < ?", end).
		Scan(ctx, &stats.ActiveUsers)
	if err != nil {
		return nil, mapError("statistics_active_users", "contribution", "", err)
	}

	err = r.idb(db).NewSelect().
		Model((*Contribution)(nil)).
		Column("user_id").
		ColumnExpr("SUM(points) AS points").
		ColumnExpr("COUNT(*) AS count").
		Where("created_at >= ?", start).
		Where("created_at < ?", end).
		Group("user_id").
		OrderExpr("SUM(points) DESC").
		Limit(10).
		Scan(ctx, &stats.TopContributors)
	if err != nil {
		return nil, mapError("statistics_top_contributors", "contribution", "", err)
	}

	return stats, nil
}

func (r *DBRepository) ListActiveUserIDs(ctx context.Context, db bun.IDB) ([]string, error) {
	var ids []string
	err := r.idb(db).NewSelect().
		Model((*UserAggregate)(nil)).
		Column("user_id").
		Where("total_points > 0").
		Order("user_id ASC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, mapError("list_active_user_ids", "user_aggregate", "", err)
	}
	return ids, nil
}
