package achievementmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating achievement tables...")

		if _, err := db.NewRaw(`
			CREATE TABLE IF NOT EXISTS achievements (
				id          text        PRIMARY KEY,
				name        text        NOT NULL,
				description text        NULL,
				threshold   bigint      NOT NULL,
				type        text        NOT NULL,
				created_at  timestamptz NOT NULL DEFAULT now()
			)
		`).Exec(ctx); err != nil {
			return err
		}

		if _, err := db.NewRaw(`
			CREATE TABLE IF NOT EXISTS user_achievements (
				user_id        text        NOT NULL,
				achievement_id text        NOT NULL REFERENCES achievements (id),
				awarded_at     timestamptz NOT NULL DEFAULT now(),
				PRIMARY KEY (user_id, achievement_id)
			)
		`).Exec(ctx); err != nil {
			return err
		}

		if _, err := db.NewRaw(`
			CREATE INDEX IF NOT EXISTS user_achievements_user_idx
				ON user_achievements (user_id)
		`).Exec(ctx); err != nil {
			return err
		}

		fmt.Println("Achievement tables created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping achievement tables...")

		for _, stmt := range []string{
			"DROP TABLE IF EXISTS user_achievements",
			"DROP TABLE IF EXISTS achievements",
		} {
			if _, err := db.NewRaw(stmt).Exec(ctx); err != nil {
				return err
			}
		}

		fmt.Println("Achievement tables dropped successfully!")
		return nil
	})
}
