package achievementservice

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"

	achievementdb "github.com/wordbloom/contrib-engine/app/modules/achievement/infrastructure/repositories"
)

// FakeAchievementRepository provides a programmable stub for the
// achievementdb.Repository interface. Award bookkeeping is in-memory so the
// default behavior is already idempotent, matching the unique key in the
// real store.
type FakeAchievementRepository struct {
	trace []string

	Catalog []achievementdb.Achievement
	Awards  map[string]map[string]time.Time

	SeedCatalogFunc    func(ctx context.Context, db bun.IDB, catalog []achievementdb.Achievement) error
	ListCatalogFunc    func(ctx context.Context, db bun.IDB) ([]achievementdb.Achievement, error)
	ListEarnedIDsFunc  func(ctx context.Context, db bun.IDB, userID string) (map[string]bool, error)
	AwardFunc          func(ctx context.Context, db bun.IDB, userID, achievementID string, awardedAt time.Time) (bool, error)
	BadgesForUsersFunc func(ctx context.Context, db bun.IDB, userIDs []string) ([]achievementdb.EarnedBadge, error)
}

func NewFakeAchievementRepository(catalog ...achievementdb.Achievement) *FakeAchievementRepository {
	return &FakeAchievementRepository{
		trace:   []string{},
		Catalog: catalog,
		Awards:  map[string]map[string]time.Time{},
	}
}

// Trace returns the sequence of method calls made to the fake.
func (f *FakeAchievementRepository) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeAchievementRepository) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeAchievementRepository) SeedCatalog(ctx context.Context, db bun.IDB, catalog []achievementdb.Achievement) error {
	f.record("SeedCatalog")
	if f.SeedCatalogFunc != nil {
		return f.SeedCatalogFunc(ctx, db, catalog)
	}
	f.Catalog = catalog
	return nil
}

func (f *FakeAchievementRepository) ListCatalog(ctx context.Context, db bun.IDB) ([]achievementdb.Achievement, error) {
	f.record("ListCatalog")
	if f.ListCatalogFunc != nil {
		return f.ListCatalogFunc(ctx, db)
	}
	return f.Catalog, nil
}

func (f *FakeAchievementRepository) ListEarnedIDs(ctx context.Context, db bun.IDB, userID string) (map[string]bool, error) {
	f.record("ListEarnedIDs")
	if f.ListEarnedIDsFunc != nil {
		return f.ListEarnedIDsFunc(ctx, db, userID)
	}
	earned := map[string]bool{}
	for id := range f.Awards[userID] {
		earned[id] = true
	}
	return earned, nil
}

func (f *FakeAchievementRepository) Award(ctx context.Context, db bun.IDB, userID, achievementID string, awardedAt time.Time) (bool, error) {
	f.record("Award")
	if f.AwardFunc != nil {
		return f.AwardFunc(ctx, db, userID, achievementID, awardedAt)
	}
	if _, dup := f.Awards[userID][achievementID]; dup {
		return false, nil
	}
	if f.Awards[userID] == nil {
		f.Awards[userID] = map[string]time.Time{}
	}
	f.Awards[userID][achievementID] = awardedAt
	return true, nil
}

func (f *FakeAchievementRepository) BadgesForUsers(ctx context.Context, db bun.IDB, userIDs []string) ([]achievementdb.EarnedBadge, error) {
	f.record("BadgesForUsers")
	if f.BadgesForUsersFunc != nil {
		return f.BadgesForUsersFunc(ctx, db, userIDs)
	}
	names := make(map[string]string, len(f.Catalog))
	for _, a := range f.Catalog {
		names[a.ID] = a.Name
	}
	var badges []achievementdb.EarnedBadge
	for _, userID := range userIDs {
		for id, at := range f.Awards[userID] {
			badges = append(badges, achievementdb.EarnedBadge{
				UserID:        userID,
				AchievementID: id,
				Name:          names[id],
				AwardedAt:     at,
			})
		}
	}
	return badges, nil
}

var _ achievementdb.Repository = (*FakeAchievementRepository)(nil)

// FakeAggregateSource serves snapshots from a fixed map.
type FakeAggregateSource struct {
	Snapshots map[string]*AggregateSnapshot

	AggregateForFunc  func(ctx context.Context, userID string) (*AggregateSnapshot, bool, error)
	ActiveUserIDsFunc func(ctx context.Context) ([]string, error)
}

func (f *FakeAggregateSource) AggregateFor(ctx context.Context, userID string) (*AggregateSnapshot, bool, error) {
	if f.AggregateForFunc != nil {
		return f.AggregateForFunc(ctx, userID)
	}
	s, ok := f.Snapshots[userID]
	return s, ok, nil
}

func (f *FakeAggregateSource) ActiveUserIDs(ctx context.Context) ([]string, error) {
	if f.ActiveUserIDsFunc != nil {
		return f.ActiveUserIDsFunc(ctx)
	}
	ids := make([]string, 0, len(f.Snapshots))
	for id := range f.Snapshots {
		ids = append(ids, id)
	}
	return ids, nil
}

var _ AggregateSource = (*FakeAggregateSource)(nil)

// FakeRankSource serves ranks from a fixed map, counting lookups.
type FakeRankSource struct {
	Ranks map[string]int
	Calls int

	RankOfFunc func(ctx context.Context, userID string) (int, error)
}

func (f *FakeRankSource) RankOf(ctx context.Context, userID string) (int, error) {
	f.Calls++
	if f.RankOfFunc != nil {
		return f.RankOfFunc(ctx, userID)
	}
	return f.Ranks[userID], nil
}

var _ RankSource = (*FakeRankSource)(nil)

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
