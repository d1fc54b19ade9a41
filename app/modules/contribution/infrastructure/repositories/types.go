package contributiondb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/wordbloom/contrib-engine/app/shared"
)

func (r *DBRepository) FindOrCreateType(ctx context.Context, db bun.IDB, name string) (*ContributionType, error) {
	ct := new(ContributionType)
	err := r.idb(db).NewSelect().
		Model(ct).
		Where("name = ?", name).
		Scan(ctx)
	if err == nil {
		return ct, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, mapError("find_contribution_type", "contribution_type", name, err)
	}

	// First use of this type name. ON CONFLICT DO NOTHING keeps a concurrent
	// first use from failing; whoever loses the race reselects the winner's
	// row.
	ct = &ContributionType{
		Name:          name,
		DefaultPoints: shared.DefaultPointsFor(name),
	}
	_, err = r.idb(db).NewInsert().
		Model(ct).
		On("CONFLICT (name) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, mapError("create_contribution_type", "contribution_type", name, err)
	}

	err = r.idb(db).NewSelect().
		Model(ct).
		Where("name = ?", name).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reselect contribution type %q: %w", name, err)
	}
	return ct, nil
}
