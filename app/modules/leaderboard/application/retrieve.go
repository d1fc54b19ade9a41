package leaderboardservice

import (
	"context"
	"errors"
	"time"

	"github.com/wordbloom/contrib-engine/app/shared"
	leaderboarddb "github.com/wordbloom/contrib-engine/app/modules/leaderboard/infrastructure/repositories"
	"github.com/wordbloom/contrib-engine/internal/eventbus"
	"github.com/wordbloom/contrib-engine/internal/events"
	"github.com/wordbloom/contrib-engine/internal/identity"
	"github.com/wordbloom/contrib-engine/internal/observability/attr"
)

func (s *LeaderboardService) GetLeaderboard(ctx context.Context, q Query) (*LeaderboardPage, error) {
	return withTelemetry(s, ctx, "get_leaderboard", func(ctx context.Context) (*LeaderboardPage, error) {
		q.Page, q.PageSize = shared.NormalizePagination(q.Page, q.PageSize)

		key := q.CacheKey()
		if s.cache != nil {
			if page, ok := s.cache.Get(ctx, key); ok {
				s.metrics.RecordCacheHit(ctx)
				return page, nil
			}
			s.metrics.RecordCacheMiss(ctx)
		}

		computeCtx, cancel := context.WithTimeout(ctx, s.readTimeout)
		defer cancel()

		page, err := s.computePage(computeCtx, q)
		if err != nil {
			// Degrade to a stale page rather than blocking the caller when
			// the recomputation timed out. The cache is allowed to be stale
			// by design; the ranking engine remains the source of truth.
			if errors.Is(err, context.DeadlineExceeded) && s.cache != nil {
				if stale, ok := s.cache.GetStale(ctx, key); ok {
					s.logger.WarnContext(ctx, "Leaderboard recomputation timed out, serving stale page",
						attr.String("cache_key", key),
					)
					return stale, nil
				}
			}
			return nil, err
		}

		if s.cache != nil {
			s.cache.Put(ctx, key, page, s.cacheTTL)
		}
		s.publishLeaderboardUpdated(ctx, page)
		return page, nil
	})
}

func (s *LeaderboardService) computePage(ctx context.Context, q Query) (*LeaderboardPage, error) {
	now := time.Now().UTC()
	page := &LeaderboardPage{
		TimeRange:  q.TimeRange.String(),
		TypeFilter: q.TypeFilter,
		Page:       q.Page,
		PageSize:   q.PageSize,
		Entries:    []LeaderboardEntry{},
		ComputedAt: now,
	}

	counter := ""
	if q.TypeFilter != "" {
		counter = shared.CounterColumnFor(q.TypeFilter)
		if counter == "" {
			// A filter on a type with no dedicated counter can match nobody.
			return page, nil
		}
	}

	var windowStart time.Time
	if !q.TimeRange.IsAllTime() {
		windowStart, _ = q.TimeRange.Window(now)
	}

	rows, total, err := s.repo.QueryPage(ctx, nil, leaderboarddb.PageQuery{
		WindowStart:   windowStart,
		CounterColumn: counter,
		Limit:         q.PageSize,
		Offset:        (q.Page - 1) * q.PageSize,
	})
	if err != nil {
		return nil, err
	}
	page.TotalItems = total
	if len(rows) == 0 {
		return page, nil
	}

	userIDs := make([]string, len(rows))
	for i, row := range rows {
		userIDs[i] = row.UserID
	}

	identities := s.resolveIdentities(ctx, userIDs)
	badges := s.resolveBadges(ctx, userIDs)

	page.Entries = make([]LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		ident, ok := identities[row.UserID]
		if !ok {
			ident = identity.Placeholder(row.UserID)
		}
		page.Entries = append(page.Entries, LeaderboardEntry{
			Rank:                 shared.RankFor(q.Page, q.PageSize, i),
			UserID:               row.UserID,
			DisplayName:          ident.DisplayName,
			AvatarURL:            ident.AvatarURL,
			TotalPoints:          row.TotalPoints,
			SubmissionCount:      row.SubmissionCount,
			EditCount:            row.EditCount,
			ApprovalCount:        row.ApprovalCount,
			CommentCount:         row.CommentCount,
			LastContributionDate: row.LastContributionDate,
			Badges:               badges[row.UserID],
		})
	}
	return page, nil
}

// resolveIdentities is decoration only; an error falls back to placeholders
// for the whole batch.
func (s *LeaderboardService) resolveIdentities(ctx context.Context, userIDs []string) map[string]identity.Identity {
	if s.identity == nil {
		return nil
	}
	identities, err := s.identity.Resolve(ctx, userIDs)
	if err != nil {
		s.logger.WarnContext(ctx, "Identity enrichment failed, using placeholders", attr.Error(err))
		return nil
	}
	return identities
}

// resolveBadges is best effort; missing achievement data must not fail the
// page.
func (s *LeaderboardService) resolveBadges(ctx context.Context, userIDs []string) map[string][]Badge {
	if s.badges == nil {
		return nil
	}
	badges, err := s.badges.BadgesFor(ctx, userIDs)
	if err != nil {
		s.logger.WarnContext(ctx, "Badge enrichment failed, omitting badges", attr.Error(err))
		return nil
	}
	return badges
}

func (s *LeaderboardService) RankOf(ctx context.Context, userID string) (int, error) {
	return withTelemetry(s, ctx, "rank_of", func(ctx context.Context) (int, error) {
		return s.repo.RankOf(ctx, nil, userID)
	})
}

func (s *LeaderboardService) publishLeaderboardUpdated(ctx context.Context, page *LeaderboardPage) {
	msg, err := eventbus.NewMessage(events.LeaderboardUpdatedPayload{
		TimeRange:  page.TimeRange,
		TypeFilter: page.TypeFilter,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalItems: page.TotalItems,
		ComputedAt: page.ComputedAt,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to build leaderboard.updated message", attr.Error(err))
		return
	}
	if err := s.EventBus.Publish(events.LeaderboardUpdated, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish leaderboard.updated", attr.Error(err))
	}
}
