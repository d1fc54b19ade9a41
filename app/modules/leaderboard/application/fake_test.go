package leaderboardservice

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"

	leaderboarddb "github.com/wordbloom/contrib-engine/app/modules/leaderboard/infrastructure/repositories"
)

// FakeLeaderboardRepository provides a programmable stub for the
// leaderboarddb.Repository interface.
type FakeLeaderboardRepository struct {
	trace []string

	QueryPageFunc func(ctx context.Context, db bun.IDB, q leaderboarddb.PageQuery) ([]leaderboarddb.AggregateRow, int, error)
	RankOfFunc    func(ctx context.Context, db bun.IDB, userID string) (int, error)
}

func NewFakeLeaderboardRepository() *FakeLeaderboardRepository {
	return &FakeLeaderboardRepository{trace: []string{}}
}

// Trace returns the sequence of method calls made to the fake.
func (f *FakeLeaderboardRepository) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeLeaderboardRepository) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeLeaderboardRepository) QueryPage(ctx context.Context, db bun.IDB, q leaderboarddb.PageQuery) ([]leaderboarddb.AggregateRow, int, error) {
	f.record("QueryPage")
	if f.QueryPageFunc != nil {
		return f.QueryPageFunc(ctx, db, q)
	}
	return nil, 0, nil
}

func (f *FakeLeaderboardRepository) RankOf(ctx context.Context, db bun.IDB, userID string) (int, error) {
	f.record("RankOf")
	if f.RankOfFunc != nil {
		return f.RankOfFunc(ctx, db, userID)
	}
	return 0, nil
}

var _ leaderboarddb.Repository = (*FakeLeaderboardRepository)(nil)

// FakeBadgeProvider returns a fixed badge map.
type FakeBadgeProvider struct {
	Badges map[string][]Badge
	Err    error
}

func (f *FakeBadgeProvider) BadgesFor(_ context.Context, userIDs []string) (map[string][]Badge, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Badges, nil
}

var _ BadgeProvider = (*FakeBadgeProvider)(nil)

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
