package achievementdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
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

func (r *DBRepository) SeedCatalog(ctx context.Context, db bun.IDB, catalog []Achievement) error {
	if len(catalog) == 0 {
		return nil
	}
	rows := make([]Achievement, len(catalog))
	copy(rows, catalog)
	for i := range rows {
		if rows[i].CreatedAt.IsZero() {
			rows[i].CreatedAt = time.Now().UTC()
		}
	}
	_, err := r.idb(db).NewInsert().
		Model(&rows).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed achievement catalog: %w", err)
	}
	return nil
}

func (r *DBRepository) ListCatalog(ctx context.Context, db bun.IDB) ([]Achievement, error) {
	var rows []Achievement
	err := r.idb(db).NewSelect().
		Model(&rows).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievement catalog: %w", err)
	}
	return rows, nil
}

func (r *DBRepository) ListEarnedIDs(ctx context.Context, db bun.IDB, userID string) (map[string]bool, error) {
	var ids []string
	err := r.idb(db).NewSelect().
		Model((*UserAchievement)(nil)).
		Column("achievement_id").
		Where("user_id = ?", userID).
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list earned achievements: %w", err)
	}
	earned := make(map[string]bool, len(ids))
	for _, id := range ids {
		earned[id] = true
	}
	return earned, nil
}

func (r *DBRepository) Award(ctx context.Context, db bun.IDB, userID, achievementID string, awardedAt time.Time) (bool, error) {
	row := &UserAchievement{
		UserID:        userID,
		AchievementID: achievementID,
		AwardedAt:     awardedAt,
	}
	_, err := r.idb(db).NewInsert().Model(row).Exec(ctx)
	if err != nil {
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) && pgErr.IntegrityViolation() {
			// Already awarded, possibly by a concurrent check. Not an error.
			return false, nil
		}
		return false, fmt.Errorf("failed to award achievement %s to %s: %w", achievementID, userID, err)
	}
	return true, nil
}

func (r *DBRepository) BadgesForUsers(ctx context.Context, db bun.IDB, userIDs []string) ([]EarnedBadge, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var rows []EarnedBadge
	err := r.idb(db).NewSelect().
		TableExpr("user_achievements AS uach").
		Join("JOIN achievements AS a ON a.id = uach.achievement_id").
		Column("uach.user_id", "uach.achievement_id", "uach.awarded_at").
		ColumnExpr("a.name AS name").
		Where("uach.user_id IN (?)", bun.In(userIDs)).
		Order("uach.awarded_at ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to load badges: %w", err)
	}
	return rows, nil
}
