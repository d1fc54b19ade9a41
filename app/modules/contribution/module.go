package contribution

import (
	"context"
	"sync"

	"github.com/uptrace/bun"

	contributionservice "github.com/wordbloom/contrib-engine/app/modules/contribution/application"
	contributiondb "github.com/wordbloom/contrib-engine/app/modules/contribution/infrastructure/repositories"
	"github.com/wordbloom/contrib-engine/config"
	"github.com/wordbloom/contrib-engine/internal/eventbus"
	"github.com/wordbloom/contrib-engine/internal/observability"
)

// Module represents the contribution module. It owns the ledger, the type
// catalog and the aggregate store, and publishes contribution.created; it
// subscribes to nothing.
type Module struct {
	EventBus            eventbus.EventBus
	ContributionService contributionservice.Service
	Repo                contributiondb.Repository
	config              *config.Config
	observability       *observability.Observability
	cancelFunc          context.CancelFunc
}

// NewContributionModule creates a new instance of the contribution module.
func NewContributionModule(
	ctx context.Context,
	cfg *config.Config,
	obs *observability.Observability,
	db *bun.DB,
	eventBus eventbus.EventBus,
) (*Module, error) {
	logger := obs.Logger

	logger.InfoContext(ctx, "contribution.NewContributionModule called")

	repo := contributiondb.NewDBRepository(db)
	service := contributionservice.NewContributionService(
		repo, eventBus, logger, obs.Registry.Contribution, obs.Tracer, db,
	)

	return &Module{
		EventBus:            eventBus,
		ContributionService: service,
		Repo:                repo,
		config:              cfg,
		observability:       obs,
	}, nil
}

// Run keeps the module alive until the context is canceled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.observability.Logger
	logger.InfoContext(ctx, "Starting contribution module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	<-ctx.Done()
	logger.InfoContext(ctx, "Contribution module goroutine stopped")
}

// Close stops the contribution module.
func (m *Module) Close() error {
	logger := m.observability.Logger
	logger.Info("Stopping contribution module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	logger.Info("Contribution module stopped")
	return nil
}
