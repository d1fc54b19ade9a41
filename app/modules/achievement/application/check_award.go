package achievementservice

import (
	"context"
	"fmt"
	"sort"
	"time"

	achievementdb "github.com/wordbloom/contrib-engine/app/modules/achievement/infrastructure/repositories"
	"github.com/wordbloom/contrib-engine/app/shared"
	"github.com/wordbloom/contrib-engine/internal/eventbus"
	"github.com/wordbloom/contrib-engine/internal/events"
	"github.com/wordbloom/contrib-engine/internal/observability/attr"
)

// CheckAndAward evaluates every unearned achievement for a user and grants
// the ones whose threshold is met.
func (s *AchievementService) CheckAndAward(ctx context.Context, userID string, opts ...CheckOption) ([]Awarded, error) {
	return withTelemetry(s, ctx, "CheckAndAward", userID, func(ctx context.Context) ([]Awarded, error) {
		if userID == "" {
			return nil, shared.NewValidationError("user_id", "must not be empty")
		}

		var options checkOptions
		for _, opt := range opts {
			opt(&options)
		}

		snapshot, found, err := s.aggregates.AggregateFor(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to read aggregate: %w", err)
		}
		if !found {
			// No contributions yet means nothing to evaluate.
			return nil, nil
		}

		return s.evaluate(ctx, userID, snapshot, options)
	})
}

// evaluate runs the rule pass against a snapshot. Shared by CheckAndAward
// and the sweep, which has already fetched the snapshot and holds its own
// telemetry scope.
func (s *AchievementService) evaluate(ctx context.Context, userID string, snapshot *AggregateSnapshot, options checkOptions) ([]Awarded, error) {
	catalog, err := s.repo.ListCatalog(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievement catalog: %w", err)
	}

	earned, err := s.repo.ListEarnedIDs(ctx, s.db, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list earned achievements: %w", err)
	}

	rank := options.rank
	if options.evaluateRank && !options.rankKnown && s.ranks != nil && needsRank(catalog, earned) {
		if err := s.rankLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rank throttle interrupted: %w", err)
		}
		rank, err = s.ranks.RankOf(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve rank: %w", err)
		}
	}

	var awards []Awarded
	now := time.Now().UTC()
	for _, a := range catalog {
		if earned[a.ID] {
			continue
		}
		if a.Type == achievementdb.RuleRank && !options.evaluateRank {
			continue
		}
		if !ruleMet(a, snapshot, rank) {
			continue
		}

		created, err := s.repo.Award(ctx, s.db, userID, a.ID, now)
		if err != nil {
			return awards, fmt.Errorf("failed to award %q: %w", a.ID, err)
		}
		if !created {
			// Another evaluation got there first; the unique key arbitrated.
			continue
		}

		s.metrics.RecordAward(ctx, a.ID)
		awards = append(awards, Awarded{AchievementID: a.ID, Name: a.Name, AwardedAt: now})
		s.publishAwarded(ctx, userID, a, now)
	}

	sort.Slice(awards, func(i, j int) bool { return awards[i].AchievementID < awards[j].AchievementID })
	return awards, nil
}

// ruleMet reports whether the achievement's threshold is satisfied. A rank
// of 0 means unranked and never satisfies a rank rule.
func ruleMet(a achievementdb.Achievement, snapshot *AggregateSnapshot, rank int) bool {
	switch a.Type {
	case achievementdb.RuleTotal:
		return snapshot.Contributions() >= a.Threshold
	case achievementdb.RuleSubmission:
		return snapshot.SubmissionCount >= a.Threshold
	case achievementdb.RuleEdit:
		return snapshot.EditCount >= a.Threshold
	case achievementdb.RuleApproval:
		return snapshot.ApprovalCount >= a.Threshold
	case achievementdb.RuleRank:
		return rank > 0 && int64(rank) <= a.Threshold
	default:
		return false
	}
}

// needsRank reports whether any rank achievement is still unearned, so the
// sweep can skip the rank query entirely for fully decorated users.
func needsRank(catalog []achievementdb.Achievement, earned map[string]bool) bool {
	for _, a := range catalog {
		if a.Type == achievementdb.RuleRank && !earned[a.ID] {
			return true
		}
	}
	return false
}

// publishAwarded emits achievement.awarded. The award itself is already
// durable, so a publish failure is logged and swallowed.
func (s *AchievementService) publishAwarded(ctx context.Context, userID string, a achievementdb.Achievement, awardedAt time.Time) {
	msg, err := eventbus.NewMessage(events.AchievementAwardedPayload{
		UserID:        userID,
		AchievementID: a.ID,
		Name:          a.Name,
		AwardedAt:     awardedAt,
	})
	if err == nil {
		err = s.EventBus.Publish(events.AchievementAwarded, msg)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish achievement.awarded",
			attr.ExtractCorrelationID(ctx),
			attr.UserID("user_id", userID),
			attr.String("achievement_id", a.ID),
			attr.Error(err),
		)
	}
}

// ListUserAchievements returns a user's earned achievements with catalog
// details, newest first.
func (s *AchievementService) ListUserAchievements(ctx context.Context, userID string) ([]Earned, error) {
	return withTelemetry(s, ctx, "ListUserAchievements", userID, func(ctx context.Context) ([]Earned, error) {
		if userID == "" {
			return nil, shared.NewValidationError("user_id", "must not be empty")
		}

		badges, err := s.repo.BadgesForUsers(ctx, s.db, []string{userID})
		if err != nil {
			return nil, fmt.Errorf("failed to list user achievements: %w", err)
		}

		catalog, err := s.repo.ListCatalog(ctx, s.db)
		if err != nil {
			return nil, fmt.Errorf("failed to list achievement catalog: %w", err)
		}
		descriptions := make(map[string]string, len(catalog))
		for _, a := range catalog {
			descriptions[a.ID] = a.Description
		}

		earned := make([]Earned, 0, len(badges))
		for _, b := range badges {
			earned = append(earned, Earned{
				AchievementID: b.AchievementID,
				Name:          b.Name,
				Description:   descriptions[b.AchievementID],
				AwardedAt:     b.AwardedAt,
			})
		}
		sort.Slice(earned, func(i, j int) bool { return earned[i].AwardedAt.After(earned[j].AwardedAt) })
		return earned, nil
	})
}
