package contributionservice

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	contributiondb "github.com/wordbloom/contrib-engine/app/modules/contribution/infrastructure/repositories"
)

// FakeContributionRepository provides a programmable stub for the
// contributiondb.Repository interface.
type FakeContributionRepository struct {
	trace []string

	AppendContributionFunc    func(ctx context.Context, db bun.IDB, record *contributiondb.Contribution) (*contributiondb.Contribution, bool, error)
	FindOrCreateTypeFunc      func(ctx context.Context, db bun.IDB, name string) (*contributiondb.ContributionType, error)
	ApplyContributionFunc     func(ctx context.Context, db bun.IDB, userID, typeName string, points int64, now time.Time) (*contributiondb.UserAggregate, error)
	GetAggregateFunc          func(ctx context.Context, db bun.IDB, userID string) (*contributiondb.UserAggregate, error)
	GetContributionFunc       func(ctx context.Context, db bun.IDB, id uuid.UUID) (*contributiondb.Contribution, error)
	ListUserContributionsFunc func(ctx context.Context, db bun.IDB, userID string, start, end time.Time, limit, offset int) ([]contributiondb.Contribution, int, error)
	StatisticsFunc            func(ctx context.Context, db bun.IDB, start, end time.Time) (*contributiondb.StatisticsRow, error)
	ListActiveUserIDsFunc     func(ctx context.Context, db bun.IDB) ([]string, error)
}

// NewFakeContributionRepository initializes a fake with an empty trace.
func NewFakeContributionRepository() *FakeContributionRepository {
	return &FakeContributionRepository{trace: []string{}}
}

// Trace returns the sequence of method calls made to the fake.
func (f *FakeContributionRepository) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeContributionRepository) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeContributionRepository) AppendContribution(ctx context.Context, db bun.IDB, record *contributiondb.Contribution) (*contributiondb.Contribution, bool, error) {
	f.record("AppendContribution")
	if f.AppendContributionFunc != nil {
		return f.AppendContributionFunc(ctx, db, record)
	}
	record.ID = uuid.New()
	return record, true, nil
}

func (f *FakeContributionRepository) FindOrCreateType(ctx context.Context, db bun.IDB, name string) (*contributiondb.ContributionType, error) {
	f.record("FindOrCreateType")
	if f.FindOrCreateTypeFunc != nil {
		return f.FindOrCreateTypeFunc(ctx, db, name)
	}
	return &contributiondb.ContributionType{ID: 1, Name: name, DefaultPoints: 10}, nil
}

func (f *FakeContributionRepository) ApplyContribution(ctx context.Context, db bun.IDB, userID, typeName string, points int64, now time.Time) (*contributiondb.UserAggregate, error) {
	f.record("ApplyContribution")
	if f.ApplyContributionFunc != nil {
		return f.ApplyContributionFunc(ctx, db, userID, typeName, points, now)
	}
	return &contributiondb.UserAggregate{UserID: userID, TotalPoints: points}, nil
}

func (f *FakeContributionRepository) GetAggregate(ctx context.Context, db bun.IDB, userID string) (*contributiondb.UserAggregate, error) {
	f.record("GetAggregate")
	if f.GetAggregateFunc != nil {
		return f.GetAggregateFunc(ctx, db, userID)
	}
	return nil, contributiondb.ErrAggregateNotFound
}

func (f *FakeContributionRepository) GetContribution(ctx context.Context, db bun.IDB, id uuid.UUID) (*contributiondb.Contribution, error) {
	f.record("GetContribution")
	if f.GetContributionFunc != nil {
		return f.GetContributionFunc(ctx, db, id)
	}
	return nil, nil
}

func (f *FakeContributionRepository) ListUserContributions(ctx context.Context, db bun.IDB, userID string, start, end time.Time, limit, offset int) ([]contributiondb.Contribution, int, error) {
	f.record("ListUserContributions")
	if f.ListUserContributionsFunc != nil {
		return f.ListUserContributionsFunc(ctx, db, userID, start, end, limit, offset)
	}
	return nil, 0, nil
}

func (f *FakeContributionRepository) Statistics(ctx context.Context, db bun.IDB, start, end time.Time) (*contributiondb.StatisticsRow, error) {
	f.record("Statistics")
	if f.StatisticsFunc != nil {
		return f.StatisticsFunc(ctx, db, start, end)
	}
	return &contributiondb.StatisticsRow{ByType: map[string]int64{}}, nil
}

func (f *FakeContributionRepository) ListActiveUserIDs(ctx context.Context, db bun.IDB) ([]string, error) {
	f.record("ListActiveUserIDs")
	if f.ListActiveUserIDsFunc != nil {
		return f.ListActiveUserIDsFunc(ctx, db)
	}
	return nil, nil
}

var _ contributiondb.Repository = (*FakeContributionRepository)(nil)

// FakeEventBus captures published messages grouped by topic.
type FakeEventBus struct {
	Published map[string][]*message.Message

	PublishFunc func(topic string, messages ...*message.Message) error
}

func NewFakeEventBus() *FakeEventBus {
	return &FakeEventBus{Published: map[string][]*message.Message{}}
}

func (f *FakeEventBus) Publish(topic string, messages ...*message.Message) error {
	if f.PublishFunc != nil {
		return f.PublishFunc(topic, messages...)
	}
	f.Published[topic] = append(f.Published[topic], messages...)
	return nil
}

func (f *FakeEventBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return nil, nil
}

func (f *FakeEventBus) Subscriber() message.Subscriber { return nil }

func (f *FakeEventBus) Close() error { return nil }
