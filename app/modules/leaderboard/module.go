package leaderboard

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"

	leaderboardservice "github.com/wordbloom/contrib-engine/app/modules/leaderboard/application"
	leaderboardhandlers "github.com/wordbloom/contrib-engine/app/modules/leaderboard/infrastructure/handlers"
	leaderboarddb "github.com/wordbloom/contrib-engine/app/modules/leaderboard/infrastructure/repositories"
	"github.com/wordbloom/contrib-engine/config"
	"github.com/wordbloom/contrib-engine/internal/cache"
	"github.com/wordbloom/contrib-engine/internal/eventbus"
	"github.com/wordbloom/contrib-engine/internal/events"
	"github.com/wordbloom/contrib-engine/internal/identity"
	"github.com/wordbloom/contrib-engine/internal/observability"
)

// Module represents the leaderboard module.
type Module struct {
	EventBus           eventbus.EventBus
	LeaderboardService leaderboardservice.Service
	Repo               leaderboarddb.Repository
	config             *config.Config
	observability      *observability.Observability
	cancelFunc         context.CancelFunc
}

// NewLeaderboardModule creates a new instance of the leaderboard module and
// registers its event handlers on the router. The badge provider is supplied
// by the achievement module; passing nil disables badge enrichment.
func NewLeaderboardModule(
	ctx context.Context,
	cfg *config.Config,
	obs *observability.Observability,
	db *bun.DB,
	eventBus eventbus.EventBus,
	router *message.Router,
	badges leaderboardservice.BadgeProvider,
	identities identity.Provider,
) (*Module, error) {
	logger := obs.Logger
	m := obs.Registry.Leaderboard

	logger.InfoContext(ctx, "leaderboard.NewLeaderboardModule called")

	repo := leaderboarddb.NewDBRepository(db)

	var pageCache cache.Cache[*leaderboardservice.LeaderboardPage]
	if !cfg.Cache.Disabled {
		pageCache = cache.NewMemory[*leaderboardservice.LeaderboardPage]()
	}

	service := leaderboardservice.NewLeaderboardService(
		repo, pageCache, badges, identities, eventBus, logger, m, obs.Tracer, db,
		leaderboardservice.Config{CacheTTL: cfg.Cache.TTL},
	)

	handlers := leaderboardhandlers.NewLeaderboardHandlers(service, logger, m)
	if router == nil {
		return nil, fmt.Errorf("leaderboard module requires a router")
	}
	router.AddNoPublisherHandler(
		"leaderboard.contribution-created",
		events.ContributionCreated,
		eventBus.Subscriber(),
		func(msg *message.Message) error {
			_, err := handlers.HandleContributionCreated(msg)
			return err
		},
	)

	return &Module{
		EventBus:           eventBus,
		LeaderboardService: service,
		Repo:               repo,
		config:             cfg,
		observability:      obs,
	}, nil
}

// Run keeps the module alive until the context is canceled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.observability.Logger
	logger.InfoContext(ctx, "Starting leaderboard module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	<-ctx.Done()
	logger.InfoContext(ctx, "Leaderboard module goroutine stopped")
}

// Close stops the leaderboard module.
func (m *Module) Close() error {
	logger := m.observability.Logger
	logger.Info("Stopping leaderboard module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	logger.Info("Leaderboard module stopped")
	return nil
}
