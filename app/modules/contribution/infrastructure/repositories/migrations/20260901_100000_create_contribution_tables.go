package contributionmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating contribution tables...")

		if _, err := db.NewRaw(`
			CREATE TABLE IF NOT EXISTS contribution_types (
				id             bigserial PRIMARY KEY,
				name           text      NOT NULL UNIQUE,
				default_points bigint    NOT NULL DEFAULT 0,
				description    text      NULL,
				created_at     timestamptz NOT NULL DEFAULT now()
			)
		`).Exec(ctx); err != nil {
			return err
		}

		if _, err := db.NewRaw(`
			CREATE TABLE IF NOT EXISTS contributions (
				id                   uuid        PRIMARY KEY,
				user_id              text        NOT NULL,
				contribution_type_id bigint      NOT NULL REFERENCES contribution_types (id),
				type_name            text        NOT NULL,
				points               bigint      NOT NULL CHECK (points >= 0),
				metadata             jsonb       NULL,
				idempotency_key      text        NULL,
				created_at           timestamptz NOT NULL DEFAULT now()
			)
		`).Exec(ctx); err != nil {
			return err
		}

		if _, err := db.NewRaw(`
			CREATE UNIQUE INDEX IF NOT EXISTS contributions_idempotency_key_uq
				ON contributions (idempotency_key)
				WHERE idempotency_key IS NOT NULL
		`).Exec(ctx); err != nil {
			return err
		}

		if _, err := db.NewRaw(`
			CREATE INDEX IF NOT EXISTS contributions_user_created_idx
				ON contributions (user_id, created_at DESC)
		`).Exec(ctx); err != nil {
			return err
		}

		if _, err := db.NewRaw(`
			CREATE INDEX IF NOT EXISTS contributions_created_idx
				ON contributions (created_at)
		`).Exec(ctx); err != nil {
			return err
		}

		if _, err := db.NewRaw(`
			CREATE TABLE IF NOT EXISTS user_aggregates (
				user_id                text        PRIMARY KEY,
				total_points           bigint      NOT NULL DEFAULT 0,
				submission_count       bigint      NOT NULL DEFAULT 0,
				edit_count             bigint      NOT NULL DEFAULT 0,
				approval_count         bigint      NOT NULL DEFAULT 0,
				comment_count          bigint      NOT NULL DEFAULT 0,
				last_contribution_date timestamptz NOT NULL,
				updated_at             timestamptz NOT NULL DEFAULT now()
			)
		`).Exec(ctx); err != nil {
			return err
		}

		if _, err := db.NewRaw(`
			CREATE INDEX IF NOT EXISTS user_aggregates_ranking_idx
				ON user_aggregates (total_points DESC, last_contribution_date DESC)
		`).Exec(ctx); err != nil {
			return err
		}

		fmt.Println("Contribution tables created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping contribution tables...")

		for _, stmt := range []string{
			"DROP TABLE IF EXISTS user_aggregates",
			"DROP TABLE IF EXISTS contributions",
			"DROP TABLE IF EXISTS contribution_types",
		} {
			if _, err := db.NewRaw(stmt).Exec(ctx); err != nil {
				return err
			}
		}

		fmt.Println("Contribution tables dropped successfully!")
		return nil
	})
}
