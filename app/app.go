package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/uptrace/bun"

	"github.com/wordbloom/contrib-engine/api"
	"github.com/wordbloom/contrib-engine/api/handlers"
	"github.com/wordbloom/contrib-engine/app/modules/achievement"
	"github.com/wordbloom/contrib-engine/app/modules/contribution"
	"github.com/wordbloom/contrib-engine/app/modules/leaderboard"
	leaderboarddb "github.com/wordbloom/contrib-engine/app/modules/leaderboard/infrastructure/repositories"
	"github.com/wordbloom/contrib-engine/app/modules/rollup"
	"github.com/wordbloom/contrib-engine/config"
	"github.com/wordbloom/contrib-engine/internal/db/bundb"
	"github.com/wordbloom/contrib-engine/internal/eventbus"
	"github.com/wordbloom/contrib-engine/internal/events"
	"github.com/wordbloom/contrib-engine/internal/identity"
	"github.com/wordbloom/contrib-engine/internal/observability"
	"github.com/wordbloom/contrib-engine/internal/observability/attr"
	"github.com/wordbloom/contrib-engine/internal/queue"
)

// App assembles the engine: database, event bus, modules, scheduler and the
// HTTP front.
type App struct {
	Config        *config.Config
	Observability *observability.Observability
	DB            *bun.DB
	EventBus      eventbus.EventBus
	Router        *message.Router

	ContributionModule *contribution.Module
	LeaderboardModule  *leaderboard.Module
	AchievementModule  *achievement.Module
	RollupModule       *rollup.Module

	Queue  *queue.Service
	Server *api.Server

	wg sync.WaitGroup
}

// NewApp wires everything together. Construction order matters: the
// achievement module reads through the contribution and leaderboard
// repositories, and the leaderboard enriches pages through the achievement
// service.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	obs := observability.New(observability.Config{
		ServiceName:    "contrib-engine",
		Environment:    cfg.Observability.Environment,
		MetricsAddress: cfg.Observability.MetricsAddress,
	})
	logger := obs.Logger

	db, err := bundb.New(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	watermillLogger := watermill.NewSlogLogger(logger)

	bus, err := newEventBus(cfg, watermillLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize event bus: %w", err)
	}

	router, err := message.NewRouter(message.RouterConfig{}, watermillLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}
	router.AddMiddleware(
		middleware.Recoverer,
		middleware.CorrelationID,
	)

	contributionModule, err := contribution.NewContributionModule(ctx, cfg, obs, db, bus)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize contribution module: %w", err)
	}

	// The achievement module reads ranks through the leaderboard repository
	// directly; only the leaderboard *service* depends on achievements (for
	// badges), which keeps construction acyclic.
	achievementModule, err := achievement.NewAchievementModule(
		ctx, cfg, obs, db, bus, router,
		contributionModule.Repo,
		leaderboarddb.NewDBRepository(db),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize achievement module: %w", err)
	}

	leaderboardModule, err := leaderboard.NewLeaderboardModule(
		ctx, cfg, obs, db, bus, router,
		achievementModule.AchievementService,
		&identity.Static{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize leaderboard module: %w", err)
	}

	rollupModule, err := rollup.NewRollupModule(ctx, cfg, obs, db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize rollup module: %w", err)
	}

	queueService, err := queue.NewService(
		ctx, db, logger, obs.Registry.Rollup,
		queue.Config{
			DSN:                      cfg.Postgres.DSN,
			CacheSweepInterval:       cfg.Scheduler.CacheSweepInterval,
			AchievementSweepInterval: cfg.Scheduler.AchievementSweepInterval,
		},
		leaderboardModule.LeaderboardService,
		achievementModule.AchievementService,
		rollupModule.RollupService,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize queue service: %w", err)
	}

	a := &App{
		Config:             cfg,
		Observability:      obs,
		DB:                 db,
		EventBus:           bus,
		Router:             router,
		ContributionModule: contributionModule,
		LeaderboardModule:  leaderboardModule,
		AchievementModule:  achievementModule,
		RollupModule:       rollupModule,
		Queue:              queueService,
	}

	a.registerLoggingHandlers()

	a.Server = api.NewServer(cfg, obs, api.Services{
		Contributions: contributionModule.ContributionService,
		Leaderboard:   leaderboardModule.LeaderboardService,
		Achievements:  achievementModule.AchievementService,
	},
		handlers.HealthCheck{Name: "postgres", Check: func(ctx context.Context) error { return db.PingContext(ctx) }},
		handlers.HealthCheck{Name: "queue", Check: queueService.HealthCheck},
	)

	return a, nil
}

func newEventBus(cfg *config.Config, logger watermill.LoggerAdapter) (eventbus.EventBus, error) {
	if cfg.EventBus.Backend == config.EventBusJetStream {
		return eventbus.NewJetStreamEventBus(cfg.NATS.URL, logger)
	}
	return eventbus.NewMemoryEventBus(logger), nil
}

// registerLoggingHandlers records result events. Purely observational; they
// never fail a message.
func (a *App) registerLoggingHandlers() {
	logger := a.Observability.Logger

	a.Router.AddNoPublisherHandler(
		"log.achievement-awarded",
		events.AchievementAwarded,
		a.EventBus.Subscriber(),
		func(msg *message.Message) error {
			var payload events.AchievementAwardedPayload
			if err := eventbus.UnmarshalPayload(msg, &payload); err != nil {
				logger.Error("Malformed achievement.awarded payload", attr.Error(err))
				return nil
			}
			logger.Info("Achievement awarded",
				attr.CorrelationIDFromMsg(msg),
				attr.UserID("user_id", payload.UserID),
				attr.String("achievement_id", payload.AchievementID),
			)
			return nil
		},
	)

	a.Router.AddNoPublisherHandler(
		"log.leaderboard-updated",
		events.LeaderboardUpdated,
		a.EventBus.Subscriber(),
		func(msg *message.Message) error {
			var payload events.LeaderboardUpdatedPayload
			if err := eventbus.UnmarshalPayload(msg, &payload); err != nil {
				logger.Error("Malformed leaderboard.updated payload", attr.Error(err))
				return nil
			}
			logger.Info("Leaderboard page recomputed",
				attr.CorrelationIDFromMsg(msg),
				attr.String("time_range", payload.TimeRange),
				attr.Int("page", payload.Page),
				attr.Int("total_items", payload.TotalItems),
			)
			return nil
		},
	)
}

// Run starts every component and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	logger := a.Observability.Logger

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.Router.Run(ctx); err != nil {
			logger.Error("Router stopped", attr.Error(err))
		}
	}()

	// Handlers must be registered before the router starts consuming.
	<-a.Router.Running()

	if err := a.Queue.Start(ctx); err != nil {
		return fmt.Errorf("failed to start queue: %w", err)
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.Observability.ServeMetrics(); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics server stopped", attr.Error(err))
		}
	}()

	a.wg.Add(1)
	go a.ContributionModule.Run(ctx, &a.wg)
	a.wg.Add(1)
	go a.LeaderboardModule.Run(ctx, &a.wg)
	a.wg.Add(1)
	go a.AchievementModule.Run(ctx, &a.wg)
	a.wg.Add(1)
	go a.RollupModule.Run(ctx, &a.wg)

	// Cancellation drains the HTTP server so ListenAndServe can return.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = a.Server.Shutdown(shutdownCtx)
	}()

	logger.Info("Serving HTTP", attr.String("address", a.Config.HTTP.Address))
	if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Close shuts components down in reverse dependency order.
func (a *App) Close(ctx context.Context) error {
	logger := a.Observability.Logger
	logger.Info("Shutting down")

	if err := a.Server.Shutdown(ctx); err != nil {
		logger.Error("HTTP shutdown failed", attr.Error(err))
	}
	if err := a.Queue.Stop(ctx); err != nil {
		logger.Error("Queue shutdown failed", attr.Error(err))
	}
	if err := a.Router.Close(); err != nil {
		logger.Error("Router shutdown failed", attr.Error(err))
	}
	if err := a.EventBus.Close(); err != nil {
		logger.Error("Event bus shutdown failed", attr.Error(err))
	}

	_ = a.ContributionModule.Close()
	_ = a.LeaderboardModule.Close()
	_ = a.AchievementModule.Close()
	_ = a.RollupModule.Close()

	if err := a.Observability.Shutdown(ctx); err != nil {
		logger.Error("Observability shutdown failed", attr.Error(err))
	}
	if err := a.DB.Close(); err != nil {
		logger.Error("Database close failed", attr.Error(err))
	}

	a.wg.Wait()
	logger.Info("Shutdown complete")
	return nil
}
