package rollup

import (
	"context"
	"sync"

	"github.com/uptrace/bun"

	rollupservice "github.com/wordbloom/contrib-engine/app/modules/rollup/application"
	rollupdb "github.com/wordbloom/contrib-engine/app/modules/rollup/infrastructure/repositories"
	"github.com/wordbloom/contrib-engine/config"
	"github.com/wordbloom/contrib-engine/internal/observability"
)

// Module represents the rollup module. It is driven entirely by the
// scheduler; it subscribes to nothing and serves no requests.
type Module struct {
	RollupService rollupservice.Service
	Repo          rollupdb.Repository
	config        *config.Config
	observability *observability.Observability
	cancelFunc    context.CancelFunc
}

// NewRollupModule creates a new instance of the rollup module.
func NewRollupModule(
	ctx context.Context,
	cfg *config.Config,
	obs *observability.Observability,
	db *bun.DB,
) (*Module, error) {
	logger := obs.Logger

	logger.InfoContext(ctx, "rollup.NewRollupModule called")

	repo := rollupdb.NewDBRepository(db)
	service := rollupservice.NewRollupService(
		repo, logger, obs.Registry.Rollup, obs.Tracer, db,
		rollupservice.Config{ExportDir: cfg.Scheduler.RollupExportDir},
	)

	return &Module{
		RollupService: service,
		Repo:          repo,
		config:        cfg,
		observability: obs,
	}, nil
}

// Run keeps the module alive until the context is canceled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.observability.Logger
	logger.InfoContext(ctx, "Starting rollup module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	<-ctx.Done()
	logger.InfoContext(ctx, "Rollup module goroutine stopped")
}

// Close stops the rollup module.
func (m *Module) Close() error {
	logger := m.observability.Logger
	logger.Info("Stopping rollup module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	logger.Info("Rollup module stopped")
	return nil
}
