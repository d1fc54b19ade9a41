package achievementservice

import (
	"context"
	"fmt"
	"time"

	"github.com/wordbloom/contrib-engine/internal/eventbus"
	"github.com/wordbloom/contrib-engine/internal/events"
	"github.com/wordbloom/contrib-engine/internal/observability/attr"
)

// SweepAll runs a full evaluation pass, rank rules included, over every
// active user. The sweep is the backstop for events lost between the
// contribution write and the event-driven check, and the only place rank
// achievements are granted.
func (s *AchievementService) SweepAll(ctx context.Context) (*SweepReport, error) {
	return withTelemetry(s, ctx, "SweepAll", "", func(ctx context.Context) (*SweepReport, error) {
		userIDs, err := s.aggregates.ActiveUserIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list active users: %w", err)
		}

		report := &SweepReport{}
		for _, userID := range userIDs {
			if err := ctx.Err(); err != nil {
				return report, fmt.Errorf("sweep interrupted after %d users: %w", report.UsersChecked, err)
			}

			awards, err := s.sweepUser(ctx, userID, report)
			if err != nil {
				// One bad user must not abort the pass.
				report.Failures++
				s.metrics.RecordSweepUserFailure(ctx)
				s.logger.ErrorContext(ctx, "Sweep failed for user",
					attr.UserID("user_id", userID),
					attr.Error(err),
				)
				continue
			}
			report.UsersChecked++
			report.Awards += len(awards)
		}

		s.logger.InfoContext(ctx, "Achievement sweep finished",
			attr.Int("users_checked", report.UsersChecked),
			attr.Int("awards", report.Awards),
			attr.Int("failures", report.Failures),
			attr.Int("rank_changes", report.RankChanges),
		)
		return report, nil
	})
}

func (s *AchievementService) sweepUser(ctx context.Context, userID string, report *SweepReport) ([]Awarded, error) {
	snapshot, found, err := s.aggregates.AggregateFor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read aggregate: %w", err)
	}
	if !found {
		return nil, nil
	}

	options := checkOptions{evaluateRank: true}
	if s.ranks != nil {
		rank, err := s.observeRank(ctx, userID, report)
		if err != nil {
			return nil, err
		}
		// One rank query per user per sweep; evaluate reuses it.
		options.rank, options.rankKnown = rank, true
	}

	return s.evaluate(ctx, userID, snapshot, options)
}

// observeRank compares the user's current rank against the last sweep's
// observation and publishes user.rank.changed on movement. The first
// observation after a restart only primes the baseline.
func (s *AchievementService) observeRank(ctx context.Context, userID string, report *SweepReport) (int, error) {
	if err := s.rankLimiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rank throttle interrupted: %w", err)
	}
	rank, err := s.ranks.RankOf(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve rank: %w", err)
	}

	s.mu.Lock()
	previous, seen := s.prevRanks[userID]
	s.prevRanks[userID] = rank
	s.mu.Unlock()

	if !seen || previous == rank {
		return rank, nil
	}

	report.RankChanges++
	msg, err := eventbus.NewMessage(events.UserRankChangedPayload{
		UserID:       userID,
		PreviousRank: previous,
		CurrentRank:  rank,
		ObservedAt:   time.Now().UTC(),
	})
	if err == nil {
		err = s.EventBus.Publish(events.UserRankChanged, msg)
	}
	if err != nil {
		// Rank observations are advisory; the next sweep reports again.
		s.logger.ErrorContext(ctx, "Failed to publish user.rank.changed",
			attr.UserID("user_id", userID),
			attr.Error(err),
		)
	}
	return rank, nil
}
