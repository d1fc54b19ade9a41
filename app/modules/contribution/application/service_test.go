package contributionservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	contributiondb "github.com/wordbloom/contrib-engine/app/modules/contribution/infrastructure/repositories"
	"github.com/wordbloom/contrib-engine/app/shared"
	"github.com/wordbloom/contrib-engine/internal/events"
	"github.com/wordbloom/contrib-engine/internal/observability"
)

func newTestService(repo *FakeContributionRepository, bus *FakeEventBus) *ContributionService {
	obs := observability.NewForTest()
	return NewContributionService(repo, bus, obs.Logger, obs.Registry.Contribution, obs.Tracer, nil)
}

func int64Ptr(v int64) *int64 { return &v }

func TestContributionService_RecordContribution(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		input         RecordContributionInput
		setup         func(*FakeContributionRepository)
		wantErr       bool
		wantValidate  bool
		wantPoints    int64
		wantDuplicate bool
		wantPublished int
		wantApplied   bool
	}{
		{
			name:          "default points from type",
			input:         RecordContributionInput{UserID: "user-1", TypeName: shared.TypeSubmission},
			setup:         func(f *FakeContributionRepository) {},
			wantPoints:    10,
			wantPublished: 1,
			wantApplied:   true,
		},
		{
			name:  "explicit points override",
			input: RecordContributionInput{UserID: "user-1", TypeName: shared.TypeComment, Points: int64Ptr(42)},
			setup: func(f *FakeContributionRepository) {
				f.FindOrCreateTypeFunc = func(ctx context.Context, db bun.IDB, name string) (*contributiondb.ContributionType, error) {
					return &contributiondb.ContributionType{ID: 4, Name: name, DefaultPoints: 1}, nil
				}
			},
			wantPoints:    42,
			wantPublished: 1,
			wantApplied:   true,
		},
		{
			name:         "empty user id rejected",
			input:        RecordContributionInput{UserID: "  ", TypeName: shared.TypeEdit},
			setup:        func(f *FakeContributionRepository) {},
			wantErr:      true,
			wantValidate: true,
		},
		{
			name:         "empty type rejected",
			input:        RecordContributionInput{UserID: "user-1", TypeName: ""},
			setup:        func(f *FakeContributionRepository) {},
			wantErr:      true,
			wantValidate: true,
		},
		{
			name:         "negative points rejected",
			input:        RecordContributionInput{UserID: "user-1", TypeName: shared.TypeEdit, Points: int64Ptr(-1)},
			setup:        func(f *FakeContributionRepository) {},
			wantErr:      true,
			wantValidate: true,
		},
		{
			name: "idempotent replay skips aggregate and publish",
			input: RecordContributionInput{
				UserID:   "user-1",
				TypeName: shared.TypeSubmission,
				Metadata: map[string]string{"idempotency_key": "evt-123"},
			},
			setup: func(f *FakeContributionRepository) {
				f.AppendContributionFunc = func(ctx context.Context, db bun.IDB, record *contributiondb.Contribution) (*contributiondb.Contribution, bool, error) {
					existing := *record
					existing.ID = uuid.New()
					return &existing, false, nil
				}
			},
			wantPoints:    10,
			wantDuplicate: true,
			wantPublished: 0,
			wantApplied:   false,
		},
		{
			name:  "append failure propagates",
			input: RecordContributionInput{UserID: "user-1", TypeName: shared.TypeApproval},
			setup: func(f *FakeContributionRepository) {
				f.AppendContributionFunc = func(ctx context.Context, db bun.IDB, record *contributiondb.Contribution) (*contributiondb.Contribution, bool, error) {
					return nil, false, errors.New("insert failed")
				}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewFakeContributionRepository()
			tt.setup(repo)
			bus := NewFakeEventBus()
			s := newTestService(repo, bus)

			got, err := s.RecordContribution(ctx, tt.input)
			if tt.wantErr {
				require.Error(t, err)
				if tt.wantValidate {
					assert.True(t, shared.IsValidation(err), "expected validation error, got %v", err)
					assert.Empty(t, repo.Trace(), "validation failures must not touch the repository")
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantPoints, got.Points)
			assert.Equal(t, tt.wantDuplicate, got.Duplicate)
			assert.NotEqual(t, uuid.Nil, got.RecordID)
			assert.Len(t, bus.Published[events.ContributionCreated], tt.wantPublished)

			applied := false
			for _, step := range repo.Trace() {
				if step == "ApplyContribution" {
					applied = true
				}
			}
			assert.Equal(t, tt.wantApplied, applied)
		})
	}
}

func TestContributionService_RecordContribution_PublishFailureStillSucceeds(t *testing.T) {
	repo := NewFakeContributionRepository()
	bus := NewFakeEventBus()
	bus.PublishFunc = func(topic string, messages ...*message.Message) error {
		return errors.New("broker unavailable")
	}
	s := newTestService(repo, bus)

	got, err := s.RecordContribution(context.Background(), RecordContributionInput{
		UserID:   "user-1",
		TypeName: shared.TypeSubmission,
	})

	// The write is durable before the publish; a broker outage must not
	// surface to the caller.
	require.NoError(t, err)
	assert.False(t, got.Duplicate)
	assert.Equal(t, int64(10), got.Points)
}

func TestContributionService_GetUserContributions(t *testing.T) {
	ctx := context.Background()
	userID := gofakeit.Username()
	now := time.Now().UTC()

	repo := NewFakeContributionRepository()
	var gotLimit, gotOffset int
	repo.ListUserContributionsFunc = func(ctx context.Context, db bun.IDB, uid string, start, end time.Time, limit, offset int) ([]contributiondb.Contribution, int, error) {
		gotLimit, gotOffset = limit, offset
		assert.Equal(t, userID, uid)
		return []contributiondb.Contribution{
			{ID: uuid.New(), UserID: uid, TypeName: shared.TypeSubmission, Points: 10, CreatedAt: now},
			{ID: uuid.New(), UserID: uid, TypeName: shared.TypeComment, Points: 1, CreatedAt: now.Add(-time.Hour)},
		}, 12, nil
	}
	s := newTestService(repo, NewFakeEventBus())

	page, err := s.GetUserContributions(ctx, userID, shared.TimeRangeWeekly, 2, 5)
	require.NoError(t, err)

	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 5, page.PageSize)
	assert.Equal(t, 12, page.TotalItems)
	assert.Len(t, page.Entries, 2)
	assert.Equal(t, 5, gotLimit)
	assert.Equal(t, 5, gotOffset)
}

func TestContributionService_GetUserContributions_CapsPageSize(t *testing.T) {
	repo := NewFakeContributionRepository()
	var gotLimit int
	repo.ListUserContributionsFunc = func(ctx context.Context, db bun.IDB, uid string, start, end time.Time, limit, offset int) ([]contributiondb.Contribution, int, error) {
		gotLimit = limit
		return nil, 0, nil
	}
	s := newTestService(repo, NewFakeEventBus())

	page, err := s.GetUserContributions(context.Background(), "user-1", shared.TimeRangeAllTime, 1, 5000)
	require.NoError(t, err)
	assert.Equal(t, shared.MaxPageSize, gotLimit)
	assert.Equal(t, shared.MaxPageSize, page.PageSize)
	assert.Empty(t, page.Entries)
}

func TestContributionService_GetStatistics(t *testing.T) {
	repo := NewFakeContributionRepository()
	repo.StatisticsFunc = func(ctx context.Context, db bun.IDB, start, end time.Time) (*contributiondb.StatisticsRow, error) {
		return &contributiondb.StatisticsRow{
			TotalContributions: 30,
			ByType:             map[string]int64{shared.TypeSubmission: 20, shared.TypeEdit: 10},
			ActiveUsers:        6,
			TopContributors: []contributiondb.TopContributor{
				{UserID: "user-1", Points: 200, Count: 18},
			},
		}, nil
	}
	s := newTestService(repo, NewFakeEventBus())

	stats, err := s.GetStatistics(context.Background(), shared.TimeRangeMonthly)
	require.NoError(t, err)

	assert.Equal(t, "monthly", stats.TimeRange)
	assert.Equal(t, int64(30), stats.TotalContributions)
	assert.Equal(t, int64(6), stats.ActiveUsers)
	assert.InDelta(t, 5.0, stats.AvgPerUser, 0.001)
	require.Len(t, stats.TopContributors, 1)
	assert.Equal(t, "user-1", stats.TopContributors[0].UserID)
}
