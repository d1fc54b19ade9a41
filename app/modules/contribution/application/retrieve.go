package contributionservice

import (
	"context"
	"strings"
	"time"

	"github.com/wordbloom/contrib-engine/app/shared"
)

func (s *ContributionService) GetUserContributions(ctx context.Context, userID string, timeRange shared.TimeRange, page, pageSize int) (*PagedContributions, error) {
	return withTelemetry(s, ctx, "get_user_contributions", userID, func(ctx context.Context) (*PagedContributions, error) {
		if strings.TrimSpace(userID) == "" {
			return nil, shared.NewValidationError("userId", "must not be empty")
		}
		page, pageSize := shared.NormalizePagination(page, pageSize)

		start, end := timeRange.Window(time.Now().UTC())
		records, total, err := s.repo.ListUserContributions(ctx, nil, userID, start, end, pageSize, (page-1)*pageSize)
		if err != nil {
			return nil, err
		}

		entries := make([]ContributionView, 0, len(records))
		for _, r := range records {
			entries = append(entries, ContributionView{
				ID:        r.ID,
				UserID:    r.UserID,
				TypeName:  r.TypeName,
				Points:    r.Points,
				Metadata:  r.Metadata,
				CreatedAt: r.CreatedAt,
			})
		}

		return &PagedContributions{
			Entries:    entries,
			TotalItems: total,
			Page:       page,
			PageSize:   pageSize,
		}, nil
	})
}

func (s *ContributionService) GetStatistics(ctx context.Context, timeRange shared.TimeRange) (*Statistics, error) {
	return withTelemetry(s, ctx, "get_statistics", "", func(ctx context.Context) (*Statistics, error) {
		start, end := timeRange.Window(time.Now().UTC())
		row, err := s.repo.Statistics(ctx, nil, start, end)
		if err != nil {
			return nil, err
		}

		top := make([]TopContributor, 0, len(row.TopContributors))
		for _, tc := range row.TopContributors {
			top = append(top, TopContributor{
				UserID: tc.UserID,
				Points: tc.Points,
				Count:  tc.Count,
			})
		}

		stats := &Statistics{
			TimeRange:          timeRange.String(),
			TotalContributions: row.TotalContributions,
			ByType:             row.ByType,
			ActiveUsers:        row.ActiveUsers,
			TopContributors:    top,
		}
		if row.ActiveUsers > 0 {
			stats.AvgPerUser = float64(row.TotalContributions) / float64(row.ActiveUsers)
		}
		return stats, nil
	})
}
