package achievement

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"

	achievementservice "github.com/wordbloom/contrib-engine/app/modules/achievement/application"
	achievementhandlers "github.com/wordbloom/contrib-engine/app/modules/achievement/infrastructure/handlers"
	achievementdb "github.com/wordbloom/contrib-engine/app/modules/achievement/infrastructure/repositories"
	contributiondb "github.com/wordbloom/contrib-engine/app/modules/contribution/infrastructure/repositories"
	leaderboarddb "github.com/wordbloom/contrib-engine/app/modules/leaderboard/infrastructure/repositories"
	"github.com/wordbloom/contrib-engine/config"
	"github.com/wordbloom/contrib-engine/internal/eventbus"
	"github.com/wordbloom/contrib-engine/internal/events"
	"github.com/wordbloom/contrib-engine/internal/observability"
)

// Module represents the achievement module.
type Module struct {
	EventBus           eventbus.EventBus
	AchievementService *achievementservice.AchievementService
	Repo               achievementdb.Repository
	config             *config.Config
	observability      *observability.Observability
	cancelFunc         context.CancelFunc
}

// NewAchievementModule creates a new instance of the achievement module,
// seeds the catalog and registers its event handlers on the router. It reads
// aggregates and ranks through the sibling modules' repositories.
func NewAchievementModule(
	ctx context.Context,
	cfg *config.Config,
	obs *observability.Observability,
	db *bun.DB,
	eventBus eventbus.EventBus,
	router *message.Router,
	contributions contributiondb.Repository,
	leaderboards leaderboarddb.Repository,
) (*Module, error) {
	logger := obs.Logger
	m := obs.Registry.Achievement

	logger.InfoContext(ctx, "achievement.NewAchievementModule called")

	repo := achievementdb.NewDBRepository(db)
	service := achievementservice.NewAchievementService(
		repo,
		&aggregateSource{repo: contributions, db: db},
		&rankSource{repo: leaderboards, db: db},
		eventBus, logger, m, obs.Tracer, db,
		achievementservice.Config{},
	)

	if err := service.SeedCatalog(ctx); err != nil {
		return nil, fmt.Errorf("failed to seed achievement catalog: %w", err)
	}

	handlers := achievementhandlers.NewAchievementHandlers(service, logger, m)
	if router == nil {
		return nil, fmt.Errorf("achievement module requires a router")
	}
	router.AddNoPublisherHandler(
		"achievement.contribution-created",
		events.ContributionCreated,
		eventBus.Subscriber(),
		func(msg *message.Message) error {
			_, err := handlers.HandleContributionCreated(msg)
			return err
		},
	)

	return &Module{
		EventBus:           eventBus,
		AchievementService: service,
		Repo:               repo,
		config:             cfg,
		observability:      obs,
	}, nil
}

// aggregateSource adapts the contribution repository to the counter view the
// rule engine evaluates.
type aggregateSource struct {
	repo contributiondb.Repository
	db   *bun.DB
}

func (s *aggregateSource) AggregateFor(ctx context.Context, userID string) (*achievementservice.AggregateSnapshot, bool, error) {
	agg, err := s.repo.GetAggregate(ctx, s.db, userID)
	if err != nil {
		if errors.Is(err, contributiondb.ErrAggregateNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &achievementservice.AggregateSnapshot{
		UserID:          agg.UserID,
		TotalPoints:     agg.TotalPoints,
		SubmissionCount: agg.SubmissionCount,
		EditCount:       agg.EditCount,
		ApprovalCount:   agg.ApprovalCount,
		CommentCount:    agg.CommentCount,
	}, true, nil
}

func (s *aggregateSource) ActiveUserIDs(ctx context.Context) ([]string, error) {
	return s.repo.ListActiveUserIDs(ctx, s.db)
}

// rankSource adapts the leaderboard repository's all-time rank query.
type rankSource struct {
	repo leaderboarddb.Repository
	db   *bun.DB
}

func (s *rankSource) RankOf(ctx context.Context, userID string) (int, error) {
	return s.repo.RankOf(ctx, s.db, userID)
}

// Run keeps the module alive until the context is canceled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.observability.Logger
	logger.InfoContext(ctx, "Starting achievement module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	<-ctx.Done()
	logger.InfoContext(ctx, "Achievement module goroutine stopped")
}

// Close stops the achievement module.
func (m *Module) Close() error {
	logger := m.observability.Logger
	logger.Info("Stopping achievement module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	logger.Info("Achievement module stopped")
	return nil
}
