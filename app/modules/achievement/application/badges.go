package achievementservice

import (
	"context"
	"fmt"

	leaderboardservice "github.com/wordbloom/contrib-engine/app/modules/leaderboard/application"
)

// BadgesFor returns the earned badges for a batch of users, keyed by user
// id. Users without badges are simply absent from the map.
func (s *AchievementService) BadgesFor(ctx context.Context, userIDs []string) (map[string][]leaderboardservice.Badge, error) {
	if len(userIDs) == 0 {
		return map[string][]leaderboardservice.Badge{}, nil
	}

	rows, err := s.repo.BadgesForUsers(ctx, s.db, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load badges: %w", err)
	}

	out := make(map[string][]leaderboardservice.Badge, len(userIDs))
	for _, row := range rows {
		out[row.UserID] = append(out[row.UserID], leaderboardservice.Badge{
			AchievementID: row.AchievementID,
			Name:          row.Name,
			AwardedAt:     row.AwardedAt,
		})
	}
	return out, nil
}
