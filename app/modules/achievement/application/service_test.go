package achievementservice

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	achievementdb "github.com/wordbloom/contrib-engine/app/modules/achievement/infrastructure/repositories"
	"github.com/wordbloom/contrib-engine/app/shared"
	"github.com/wordbloom/contrib-engine/internal/events"
	"github.com/wordbloom/contrib-engine/internal/observability"
)

func testCatalog() []achievementdb.Achievement {
	return []achievementdb.Achievement{
		{ID: "first-contribution", Name: "First Contribution", Threshold: 1, Type: achievementdb.RuleTotal},
		{ID: "contributor-10", Name: "Regular Contributor", Threshold: 10, Type: achievementdb.RuleTotal},
		{ID: "submitter-25", Name: "Wordsmith", Threshold: 25, Type: achievementdb.RuleSubmission},
		{ID: "editor-25", Name: "Sharp Eye", Threshold: 25, Type: achievementdb.RuleEdit},
		{ID: "top-3", Name: "Podium", Threshold: 3, Type: achievementdb.RuleRank},
	}
}

func newTestAchievementService(
	repo *FakeAchievementRepository,
	aggregates *FakeAggregateSource,
	ranks *FakeRankSource,
	bus *FakeEventBus,
) *AchievementService {
	obs := observability.NewForTest()
	return NewAchievementService(repo, aggregates, ranks, bus,
		obs.Logger, obs.Registry.Achievement, obs.Tracer, nil, Config{RankQueriesPerSecond: 10000})
}

func TestAchievementService_CheckAndAward(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		snapshot   *AggregateSnapshot
		earned     map[string]bool
		opts       []CheckOption
		rank       int
		wantIDs    []string
		wantEvents int
	}{
		{
			name:       "first contribution crosses the lowest threshold",
			snapshot:   &AggregateSnapshot{UserID: "user-1", SubmissionCount: 1},
			wantIDs:    []string{"first-contribution"},
			wantEvents: 1,
		},
		{
			name: "total rule sums every counter",
			snapshot: &AggregateSnapshot{
				UserID:          "user-1",
				SubmissionCount: 3,
				EditCount:       3,
				ApprovalCount:   2,
				CommentCount:    2,
			},
			wantIDs:    []string{"contributor-10", "first-contribution"},
			wantEvents: 2,
		},
		{
			name:       "per-type rule ignores other counters",
			snapshot:   &AggregateSnapshot{UserID: "user-1", SubmissionCount: 25},
			earned:     map[string]bool{"first-contribution": true, "contributor-10": true},
			wantIDs:    []string{"submitter-25"},
			wantEvents: 1,
		},
		{
			name:     "below every threshold awards nothing",
			snapshot: &AggregateSnapshot{UserID: "user-1"},
		},
		{
			name:     "rank rules are skipped without the option",
			snapshot: &AggregateSnapshot{UserID: "user-1", SubmissionCount: 1},
			earned:   map[string]bool{"first-contribution": true},
			rank:     1,
		},
		{
			name:       "rank rule with the option",
			snapshot:   &AggregateSnapshot{UserID: "user-1", SubmissionCount: 1},
			earned:     map[string]bool{"first-contribution": true},
			opts:       []CheckOption{WithRankEvaluation()},
			rank:       2,
			wantIDs:    []string{"top-3"},
			wantEvents: 1,
		},
		{
			name:     "unranked user never satisfies a rank rule",
			snapshot: &AggregateSnapshot{UserID: "user-1", SubmissionCount: 1},
			earned:   map[string]bool{"first-contribution": true},
			opts:     []CheckOption{WithRankEvaluation()},
			rank:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewFakeAchievementRepository(testCatalog()...)
			if tt.earned != nil {
				repo.ListEarnedIDsFunc = func(ctx context.Context, db bun.IDB, userID string) (map[string]bool, error) {
					return tt.earned, nil
				}
			}
			aggregates := &FakeAggregateSource{Snapshots: map[string]*AggregateSnapshot{"user-1": tt.snapshot}}
			ranks := &FakeRankSource{Ranks: map[string]int{"user-1": tt.rank}}
			bus := NewFakeEventBus()
			s := newTestAchievementService(repo, aggregates, ranks, bus)

			awards, err := s.CheckAndAward(ctx, "user-1", tt.opts...)
			require.NoError(t, err)

			ids := make([]string, 0, len(awards))
			for _, a := range awards {
				ids = append(ids, a.AchievementID)
			}
			if tt.wantIDs == nil {
				assert.Empty(t, ids)
			} else {
				assert.Equal(t, tt.wantIDs, ids)
			}
			assert.Len(t, bus.Published[events.AchievementAwarded], tt.wantEvents)
		})
	}
}

func TestAchievementService_CheckAndAward_EmptyUserID(t *testing.T) {
	s := newTestAchievementService(NewFakeAchievementRepository(), &FakeAggregateSource{}, &FakeRankSource{}, NewFakeEventBus())

	_, err := s.CheckAndAward(context.Background(), "")
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestAchievementService_CheckAndAward_UnknownUser(t *testing.T) {
	repo := NewFakeAchievementRepository(testCatalog()...)
	s := newTestAchievementService(repo, &FakeAggregateSource{}, &FakeRankSource{}, NewFakeEventBus())

	awards, err := s.CheckAndAward(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, awards)
	assert.Empty(t, repo.Trace(), "no aggregate row means no rule evaluation")
}

func TestAchievementService_CheckAndAward_RankQuerySkippedWhenDecorated(t *testing.T) {
	repo := NewFakeAchievementRepository(testCatalog()...)
	repo.ListEarnedIDsFunc = func(ctx context.Context, db bun.IDB, userID string) (map[string]bool, error) {
		return map[string]bool{
			"first-contribution": true, "contributor-10": true,
			"submitter-25": true, "editor-25": true, "top-3": true,
		}, nil
	}
	aggregates := &FakeAggregateSource{Snapshots: map[string]*AggregateSnapshot{
		"user-1": {UserID: "user-1", SubmissionCount: 100},
	}}
	ranks := &FakeRankSource{Ranks: map[string]int{"user-1": 1}}
	s := newTestAchievementService(repo, aggregates, ranks, NewFakeEventBus())

	awards, err := s.CheckAndAward(context.Background(), "user-1", WithRankEvaluation())
	require.NoError(t, err)
	assert.Empty(t, awards)
	assert.Zero(t, ranks.Calls, "fully decorated users need no rank lookup")
}

func TestAchievementService_CheckAndAward_DuplicateAwardEmitsNoEvent(t *testing.T) {
	repo := NewFakeAchievementRepository(testCatalog()...)
	repo.AwardFunc = func(ctx context.Context, db bun.IDB, userID, achievementID string, awardedAt time.Time) (bool, error) {
		// Concurrent evaluation lost the race; the unique key arbitrated.
		return false, nil
	}
	aggregates := &FakeAggregateSource{Snapshots: map[string]*AggregateSnapshot{
		"user-1": {UserID: "user-1", SubmissionCount: 1},
	}}
	bus := NewFakeEventBus()
	s := newTestAchievementService(repo, aggregates, &FakeRankSource{}, bus)

	awards, err := s.CheckAndAward(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, awards)
	assert.Empty(t, bus.Published[events.AchievementAwarded])
}

func TestAchievementService_SweepAll(t *testing.T) {
	ctx := context.Background()
	repo := NewFakeAchievementRepository(testCatalog()...)
	aggregates := &FakeAggregateSource{Snapshots: map[string]*AggregateSnapshot{
		"user-a": {UserID: "user-a", SubmissionCount: 30},
		"user-b": {UserID: "user-b", CommentCount: 2},
	}}
	aggregates.ActiveUserIDsFunc = func(ctx context.Context) ([]string, error) {
		return []string{"user-a", "user-b"}, nil
	}
	ranks := &FakeRankSource{Ranks: map[string]int{"user-a": 1, "user-b": 2}}
	bus := NewFakeEventBus()
	s := newTestAchievementService(repo, aggregates, ranks, bus)

	report, err := s.SweepAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, report.UsersChecked)
	assert.Zero(t, report.Failures)
	// user-a: first-contribution, contributor-10, submitter-25, top-3.
	// user-b: first-contribution, top-3.
	assert.Equal(t, 6, report.Awards)
	assert.Zero(t, report.RankChanges, "first observation only primes the baseline")

	// A later sweep after movement reports the change.
	ranks.Ranks = map[string]int{"user-a": 2, "user-b": 1}
	report, err = s.SweepAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.RankChanges)
	assert.Len(t, bus.Published[events.UserRankChanged], 2)
	assert.Zero(t, report.Awards, "already granted badges stay granted")
}

func TestAchievementService_SweepAll_OneRankQueryPerUser(t *testing.T) {
	repo := NewFakeAchievementRepository(testCatalog()...)
	aggregates := &FakeAggregateSource{Snapshots: map[string]*AggregateSnapshot{
		"user-a": {UserID: "user-a", SubmissionCount: 30},
		"user-b": {UserID: "user-b", CommentCount: 2},
	}}
	aggregates.ActiveUserIDsFunc = func(ctx context.Context) ([]string, error) {
		return []string{"user-a", "user-b"}, nil
	}
	ranks := &FakeRankSource{Ranks: map[string]int{"user-a": 1, "user-b": 2}}
	s := newTestAchievementService(repo, aggregates, ranks, NewFakeEventBus())

	report, err := s.SweepAll(context.Background())
	require.NoError(t, err)

	// The rank observed for change detection also feeds rule evaluation.
	assert.Equal(t, 2, ranks.Calls)
	assert.Equal(t, 6, report.Awards)
}

func TestAchievementService_SweepAll_OneBadUserDoesNotAbort(t *testing.T) {
	repo := NewFakeAchievementRepository(testCatalog()...)
	aggregates := &FakeAggregateSource{}
	aggregates.ActiveUserIDsFunc = func(ctx context.Context) ([]string, error) {
		return []string{"user-a", "broken", "user-b"}, nil
	}
	aggregates.AggregateForFunc = func(ctx context.Context, userID string) (*AggregateSnapshot, bool, error) {
		if userID == "broken" {
			return nil, false, assert.AnError
		}
		return &AggregateSnapshot{UserID: userID, SubmissionCount: 1}, true, nil
	}
	s := newTestAchievementService(repo, aggregates, &FakeRankSource{}, NewFakeEventBus())

	report, err := s.SweepAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.UsersChecked)
	assert.Equal(t, 1, report.Failures)
	assert.Equal(t, 2, report.Awards)
}

func TestAchievementService_ListUserAchievements(t *testing.T) {
	now := time.Now().UTC()
	catalog := testCatalog()
	catalog[0].Description = "Make your first contribution."
	repo := NewFakeAchievementRepository(catalog...)
	repo.BadgesForUsersFunc = func(ctx context.Context, db bun.IDB, userIDs []string) ([]achievementdb.EarnedBadge, error) {
		return []achievementdb.EarnedBadge{
			{UserID: "user-1", AchievementID: "first-contribution", Name: "First Contribution", AwardedAt: now.Add(-time.Hour)},
			{UserID: "user-1", AchievementID: "contributor-10", Name: "Regular Contributor", AwardedAt: now},
		}, nil
	}
	s := newTestAchievementService(repo, &FakeAggregateSource{}, &FakeRankSource{}, NewFakeEventBus())

	earned, err := s.ListUserAchievements(context.Background(), "user-1")
	require.NoError(t, err)

	require.Len(t, earned, 2)
	assert.Equal(t, "contributor-10", earned[0].AchievementID, "newest first")
	assert.Equal(t, "first-contribution", earned[1].AchievementID)
	assert.Equal(t, "Make your first contribution.", earned[1].Description)
}

func TestAchievementService_BadgesFor(t *testing.T) {
	now := time.Now().UTC()
	repo := NewFakeAchievementRepository(testCatalog()...)
	repo.Awards = map[string]map[string]time.Time{
		"user-a": {"first-contribution": now},
	}
	s := newTestAchievementService(repo, &FakeAggregateSource{}, &FakeRankSource{}, NewFakeEventBus())

	badges, err := s.BadgesFor(context.Background(), []string{"user-a", "user-b"})
	require.NoError(t, err)

	require.Len(t, badges["user-a"], 1)
	assert.Equal(t, "First Contribution", badges["user-a"][0].Name)
	assert.Empty(t, badges["user-b"])
}
