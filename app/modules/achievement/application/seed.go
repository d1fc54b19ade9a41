package achievementservice

import (
	"context"
	"fmt"

	achievementdb "github.com/wordbloom/contrib-engine/app/modules/achievement/infrastructure/repositories"
	"github.com/wordbloom/contrib-engine/internal/observability/attr"
)

// SeedCatalog makes sure every well-known achievement row exists.
func (s *AchievementService) SeedCatalog(ctx context.Context) error {
	_, err := withTelemetry(s, ctx, "SeedCatalog", "", func(ctx context.Context) (struct{}, error) {
		catalog := achievementdb.Catalog()
		if err := s.repo.SeedCatalog(ctx, s.db, catalog); err != nil {
			return struct{}{}, fmt.Errorf("failed to seed achievement catalog: %w", err)
		}
		s.logger.InfoContext(ctx, "Achievement catalog seeded",
			attr.Int("achievements", len(catalog)),
		)
		return struct{}{}, nil
	})
	return err
}
