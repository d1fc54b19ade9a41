package leaderboardservice

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	leaderboarddb "github.com/wordbloom/contrib-engine/app/modules/leaderboard/infrastructure/repositories"
	"github.com/wordbloom/contrib-engine/app/shared"
	"github.com/wordbloom/contrib-engine/internal/cache"
	"github.com/wordbloom/contrib-engine/internal/events"
	"github.com/wordbloom/contrib-engine/internal/identity"
	"github.com/wordbloom/contrib-engine/internal/observability"
)

func newTestLeaderboardService(
	repo *FakeLeaderboardRepository,
	pageCache cache.Cache[*LeaderboardPage],
	badges BadgeProvider,
	identities identity.Provider,
	bus *FakeEventBus,
) *LeaderboardService {
	obs := observability.NewForTest()
	return NewLeaderboardService(repo, pageCache, badges, identities, bus,
		obs.Logger, obs.Registry.Leaderboard, obs.Tracer, nil, Config{})
}

func aggregateRows(now time.Time) []leaderboarddb.AggregateRow {
	return []leaderboarddb.AggregateRow{
		{UserID: "user-a", TotalPoints: 300, SubmissionCount: 20, LastContributionDate: now},
		{UserID: "user-b", TotalPoints: 150, EditCount: 30, LastContributionDate: now.Add(-time.Hour)},
		{UserID: "user-c", TotalPoints: 150, CommentCount: 5, LastContributionDate: now.Add(-2 * time.Hour)},
	}
}

func TestLeaderboardService_GetLeaderboard(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	repo := NewFakeLeaderboardRepository()
	repo.QueryPageFunc = func(ctx context.Context, db bun.IDB, q leaderboarddb.PageQuery) ([]leaderboarddb.AggregateRow, int, error) {
		assert.Equal(t, "", q.CounterColumn)
		assert.True(t, q.WindowStart.IsZero(), "all-time queries carry no window bound")
		return aggregateRows(now), 3, nil
	}
	badges := &FakeBadgeProvider{Badges: map[string][]Badge{
		"user-a": {{AchievementID: "bronze-contributor", Name: "Bronze Contributor", AwardedAt: now}},
	}}
	identities := &identity.Static{Identities: map[string]identity.Identity{
		"user-a": {UserID: "user-a", DisplayName: "Ada"},
	}}
	bus := NewFakeEventBus()
	s := newTestLeaderboardService(repo, nil, badges, identities, bus)

	page, err := s.GetLeaderboard(ctx, Query{TimeRange: shared.TimeRangeAllTime})
	require.NoError(t, err)

	require.Len(t, page.Entries, 3)
	assert.Equal(t, 3, page.TotalItems)

	// Repository order is authoritative; ranks are positional.
	assert.Equal(t, []int{1, 2, 3}, []int{page.Entries[0].Rank, page.Entries[1].Rank, page.Entries[2].Rank})
	assert.Equal(t, "user-a", page.Entries[0].UserID)

	// Resolved identity for user-a, placeholder for the rest.
	assert.Equal(t, "Ada", page.Entries[0].DisplayName)
	assert.Equal(t, "player-user-b", page.Entries[1].DisplayName)

	require.Len(t, page.Entries[0].Badges, 1)
	assert.Equal(t, "bronze-contributor", page.Entries[0].Badges[0].AchievementID)
	assert.Empty(t, page.Entries[1].Badges)

	assert.Len(t, bus.Published[events.LeaderboardUpdated], 1)
}

func TestLeaderboardService_GetLeaderboard_RankOffsetAcrossPages(t *testing.T) {
	now := time.Now().UTC()
	repo := NewFakeLeaderboardRepository()
	repo.QueryPageFunc = func(ctx context.Context, db bun.IDB, q leaderboarddb.PageQuery) ([]leaderboarddb.AggregateRow, int, error) {
		assert.Equal(t, 5, q.Limit)
		assert.Equal(t, 10, q.Offset)
		return []leaderboarddb.AggregateRow{
			{UserID: "user-k", TotalPoints: 40, LastContributionDate: now},
			{UserID: "user-l", TotalPoints: 35, LastContributionDate: now},
		}, 12, nil
	}
	s := newTestLeaderboardService(repo, nil, nil, nil, NewFakeEventBus())

	page, err := s.GetLeaderboard(context.Background(), Query{
		TimeRange: shared.TimeRangeAllTime,
		Page:      3,
		PageSize:  5,
	})
	require.NoError(t, err)

	require.Len(t, page.Entries, 2)
	assert.Equal(t, 11, page.Entries[0].Rank)
	assert.Equal(t, 12, page.Entries[1].Rank)
}

func TestLeaderboardService_GetLeaderboard_EmptyWindow(t *testing.T) {
	repo := NewFakeLeaderboardRepository()
	s := newTestLeaderboardService(repo, nil, nil, nil, NewFakeEventBus())

	page, err := s.GetLeaderboard(context.Background(), Query{TimeRange: shared.TimeRangeWeekly})
	require.NoError(t, err)

	assert.NotNil(t, page.Entries)
	assert.Empty(t, page.Entries)
	assert.Equal(t, 0, page.TotalItems)
}

func TestLeaderboardService_GetLeaderboard_UnknownTypeFilter(t *testing.T) {
	repo := NewFakeLeaderboardRepository()
	s := newTestLeaderboardService(repo, nil, nil, nil, NewFakeEventBus())

	page, err := s.GetLeaderboard(context.Background(), Query{
		TimeRange:  shared.TimeRangeAllTime,
		TypeFilter: "translation",
	})
	require.NoError(t, err)

	// No counter column exists for the filter, so nobody can qualify and
	// the aggregate store is never consulted.
	assert.Empty(t, page.Entries)
	assert.Empty(t, repo.Trace())
}

func TestLeaderboardService_GetLeaderboard_TypeFilterColumn(t *testing.T) {
	now := time.Now().UTC()
	repo := NewFakeLeaderboardRepository()
	var gotColumn string
	repo.QueryPageFunc = func(ctx context.Context, db bun.IDB, q leaderboarddb.PageQuery) ([]leaderboarddb.AggregateRow, int, error) {
		gotColumn = q.CounterColumn
		assert.False(t, q.WindowStart.IsZero(), "weekly queries bound the window")
		return aggregateRows(now)[:1], 1, nil
	}
	s := newTestLeaderboardService(repo, nil, nil, nil, NewFakeEventBus())

	_, err := s.GetLeaderboard(context.Background(), Query{
		TimeRange:  shared.TimeRangeWeekly,
		TypeFilter: shared.TypeEdit,
	})
	require.NoError(t, err)
	assert.Equal(t, "edit_count", gotColumn)
}

func TestLeaderboardService_GetLeaderboard_CacheTransparency(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	repo := NewFakeLeaderboardRepository()
	calls := 0
	repo.QueryPageFunc = func(ctx context.Context, db bun.IDB, q leaderboarddb.PageQuery) ([]leaderboarddb.AggregateRow, int, error) {
		calls++
		return aggregateRows(now), 3, nil
	}
	q := Query{TimeRange: shared.TimeRangeAllTime}

	uncached := newTestLeaderboardService(repo, nil, nil, nil, NewFakeEventBus())
	want, err := uncached.GetLeaderboard(ctx, q)
	require.NoError(t, err)

	cached := newTestLeaderboardService(repo, cache.NewMemory[*LeaderboardPage](), nil, nil, NewFakeEventBus())
	first, err := cached.GetLeaderboard(ctx, q)
	require.NoError(t, err)
	second, err := cached.GetLeaderboard(ctx, q)
	require.NoError(t, err)

	// Caching changes freshness, never content.
	opts := []cmp.Option{cmp.FilterPath(
		func(p cmp.Path) bool { return p.Last().String() == ".ComputedAt" },
		cmp.Ignore(),
	)}
	if diff := cmp.Diff(want, first, opts...); diff != "" {
		t.Errorf("cached page differs from uncached (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("cache hit differs from cached page (-first +second):\n%s", diff)
	}

	// One compute for the uncached service, one for the cached pair.
	assert.Equal(t, 2, calls)
}

func TestLeaderboardService_GetLeaderboard_ServesStaleOnTimeout(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	clock := now
	pageCache := cache.NewMemoryWithClock[*LeaderboardPage](func() time.Time { return clock })

	repo := NewFakeLeaderboardRepository()
	repo.QueryPageFunc = func(ctx context.Context, db bun.IDB, q leaderboarddb.PageQuery) ([]leaderboarddb.AggregateRow, int, error) {
		return aggregateRows(now), 3, nil
	}
	s := newTestLeaderboardService(repo, pageCache, nil, nil, NewFakeEventBus())
	q := Query{TimeRange: shared.TimeRangeAllTime}

	fresh, err := s.GetLeaderboard(ctx, q)
	require.NoError(t, err)

	// Let the entry expire, then make recomputation time out.
	clock = clock.Add(2 * time.Hour)
	repo.QueryPageFunc = func(ctx context.Context, db bun.IDB, q leaderboarddb.PageQuery) ([]leaderboarddb.AggregateRow, int, error) {
		return nil, 0, context.DeadlineExceeded
	}

	stale, err := s.GetLeaderboard(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, fresh, stale)
}

func TestLeaderboardService_GetLeaderboard_BadgeFailureDegrades(t *testing.T) {
	now := time.Now().UTC()
	repo := NewFakeLeaderboardRepository()
	repo.QueryPageFunc = func(ctx context.Context, db bun.IDB, q leaderboarddb.PageQuery) ([]leaderboarddb.AggregateRow, int, error) {
		return aggregateRows(now), 3, nil
	}
	badges := &FakeBadgeProvider{Err: assert.AnError}
	s := newTestLeaderboardService(repo, nil, badges, nil, NewFakeEventBus())

	page, err := s.GetLeaderboard(context.Background(), Query{TimeRange: shared.TimeRangeAllTime})
	require.NoError(t, err)
	for _, e := range page.Entries {
		assert.Empty(t, e.Badges)
	}
}

func TestLeaderboardService_RankOf(t *testing.T) {
	repo := NewFakeLeaderboardRepository()
	repo.RankOfFunc = func(ctx context.Context, db bun.IDB, userID string) (int, error) {
		if userID == "user-a" {
			return 4, nil
		}
		return 0, nil
	}
	s := newTestLeaderboardService(repo, nil, nil, nil, NewFakeEventBus())

	rank, err := s.RankOf(context.Background(), "user-a")
	require.NoError(t, err)
	assert.Equal(t, 4, rank)

	rank, err = s.RankOf(context.Background(), "unranked")
	require.NoError(t, err)
	assert.Equal(t, 0, rank)
}

func TestLeaderboardService_RenderTopChart(t *testing.T) {
	now := time.Now().UTC()
	repo := NewFakeLeaderboardRepository()
	var gotLimit int
	repo.QueryPageFunc = func(ctx context.Context, db bun.IDB, q leaderboarddb.PageQuery) ([]leaderboarddb.AggregateRow, int, error) {
		gotLimit = q.Limit
		return aggregateRows(now), 3, nil
	}
	s := newTestLeaderboardService(repo, nil, nil, nil, NewFakeEventBus())

	png, err := s.RenderTopChart(context.Background(), shared.TimeRangeAllTime, 0)
	require.NoError(t, err)
	assert.Equal(t, 10, gotLimit, "zero n falls back to the top 10")
	require.Greater(t, len(png), 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}

func TestLeaderboardService_RenderTopChart_EmptyWindow(t *testing.T) {
	repo := NewFakeLeaderboardRepository()
	s := newTestLeaderboardService(repo, nil, nil, nil, NewFakeEventBus())

	png, err := s.RenderTopChart(context.Background(), shared.TimeRangeWeekly, 5)
	require.NoError(t, err)
	require.Greater(t, len(png), 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}

func TestLeaderboardService_InvalidateCache(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	repo := NewFakeLeaderboardRepository()
	calls := 0
	repo.QueryPageFunc = func(ctx context.Context, db bun.IDB, q leaderboarddb.PageQuery) ([]leaderboarddb.AggregateRow, int, error) {
		calls++
		return aggregateRows(now), 3, nil
	}
	s := newTestLeaderboardService(repo, cache.NewMemory[*LeaderboardPage](), nil, nil, NewFakeEventBus())
	q := Query{TimeRange: shared.TimeRangeAllTime}

	_, err := s.GetLeaderboard(ctx, q)
	require.NoError(t, err)
	s.InvalidateCache(ctx)
	_, err = s.GetLeaderboard(ctx, q)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}
