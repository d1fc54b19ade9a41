package rollupmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating rollup tables...")

		if _, err := db.NewRaw(`
			CREATE TABLE IF NOT EXISTS contribution_rollups (
				id                  bigserial   PRIMARY KEY,
				period              text        NOT NULL,
				period_start        timestamptz NOT NULL,
				period_end          timestamptz NOT NULL,
				total_contributions bigint      NOT NULL DEFAULT 0,
				total_points        bigint      NOT NULL DEFAULT 0,
				active_users        bigint      NOT NULL DEFAULT 0,
				by_type             jsonb       NULL,
				created_at          timestamptz NOT NULL DEFAULT now()
			)
		`).Exec(ctx); err != nil {
			return err
		}

		if _, err := db.NewRaw(`
			CREATE UNIQUE INDEX IF NOT EXISTS contribution_rollups_period_idx
				ON contribution_rollups (period, period_start)
		`).Exec(ctx); err != nil {
			return err
		}

		fmt.Println("Rollup tables created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping rollup tables...")

		if _, err := db.NewRaw("DROP TABLE IF EXISTS contribution_rollups").Exec(ctx); err != nil {
			return err
		}

		fmt.Println("Rollup tables dropped successfully!")
		return nil
	})
}
