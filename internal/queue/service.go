package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/uptrace/bun"

	rollupservice "github.com/wordbloom/contrib-engine/app/modules/rollup/application"
	"github.com/wordbloom/contrib-engine/internal/observability/attr"
	"github.com/wordbloom/contrib-engine/internal/observability/metrics"
)

// Config tunes the periodic schedule. Zero intervals fall back to defaults.
type Config struct {
	DSN                      string
	CacheSweepInterval       time.Duration
	AchievementSweepInterval time.Duration
}

const (
	defaultCacheSweepInterval       = time.Hour
	defaultAchievementSweepInterval = 24 * time.Hour
)

// Service drives the periodic jobs through a River client over its own pgx
// pool. River requires pgx; the rest of the app stays on bun.
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	logger  *slog.Logger
	db      *bun.DB
	metrics metrics.OperationMetrics
}

// NewService creates the River-backed scheduler and registers the periodic
// jobs: hourly cache sweep, daily achievement sweep, and the rollup ladder.
func NewService(
	ctx context.Context,
	bunDB *bun.DB,
	logger *slog.Logger,
	m metrics.OperationMetrics,
	cfg Config,
	invalidator CacheInvalidator,
	sweeper AchievementSweeper,
	runner RollupRunner,
) (*Service, error) {
	ctxLogger := logger.With(
		attr.String("component", "river_queue"),
	)

	start := time.Now()
	m.RecordOperationAttempt(ctx, "initialize_queue")

	ctxLogger.Info("Initializing queue service")

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		m.RecordOperationFailure(ctx, "initialize_queue")
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		m.RecordOperationFailure(ctx, "initialize_queue")
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		m.RecordOperationFailure(ctx, "initialize_queue")
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewCacheSweepWorker(ctxLogger, invalidator))
	river.AddWorker(workers, NewAchievementSweepWorker(ctxLogger, sweeper))
	river.AddWorker(workers, NewRollupWorker(ctxLogger, runner))

	cacheInterval := cfg.CacheSweepInterval
	if cacheInterval <= 0 {
		cacheInterval = defaultCacheSweepInterval
	}
	sweepInterval := cfg.AchievementSweepInterval
	if sweepInterval <= 0 {
		sweepInterval = defaultAchievementSweepInterval
	}

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
		},
		Workers:      workers,
		PeriodicJobs: periodicJobs(cacheInterval, sweepInterval),
	})
	if err != nil {
		pool.Close()
		m.RecordOperationFailure(ctx, "initialize_queue")
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	service := &Service{
		client:  riverClient,
		pool:    pool,
		logger:  ctxLogger,
		db:      bunDB,
		metrics: m,
	}

	m.RecordOperationSuccess(ctx, "initialize_queue")
	m.RecordOperationDuration(ctx, "initialize_queue", time.Since(start))

	ctxLogger.Info("Queue service initialized successfully")
	return service, nil
}

// periodicJobs builds the recurring schedule. Every job carries unique opts
// keyed by args and period so overlapping instances enqueue one run.
func periodicJobs(cacheInterval, sweepInterval time.Duration) []*river.PeriodicJob {
	unique := func(period time.Duration) *river.InsertOpts {
		return &river.InsertOpts{
			UniqueOpts: river.UniqueOpts{ByArgs: true, ByPeriod: period},
		}
	}

	jobs := []*river.PeriodicJob{
		river.NewPeriodicJob(
			river.PeriodicInterval(cacheInterval),
			func() (river.JobArgs, *river.InsertOpts) {
				return CacheSweepArgs{}, unique(cacheInterval)
			},
			nil,
		),
		river.NewPeriodicJob(
			river.PeriodicInterval(sweepInterval),
			func() (river.JobArgs, *river.InsertOpts) {
				return AchievementSweepArgs{}, unique(sweepInterval)
			},
			&river.PeriodicJobOpts{RunOnStart: true},
		),
	}

	rollups := []struct {
		period   rollupservice.Period
		interval time.Duration
	}{
		{rollupservice.PeriodDaily, 24 * time.Hour},
		{rollupservice.PeriodWeekly, 7 * 24 * time.Hour},
		{rollupservice.PeriodMonthly, 30 * 24 * time.Hour},
	}
	for _, r := range rollups {
		r := r
		jobs = append(jobs, river.NewPeriodicJob(
			river.PeriodicInterval(r.interval),
			func() (river.JobArgs, *river.InsertOpts) {
				return RollupArgs{Period: string(r.period)}, unique(r.interval)
			},
			&river.PeriodicJobOpts{RunOnStart: true},
		))
	}

	return jobs
}

// Start starts the River client.
func (s *Service) Start(ctx context.Context) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "start_queue")

	s.logger.Info("Starting queue service")

	if err := s.client.Start(ctx); err != nil {
		s.metrics.RecordOperationFailure(ctx, "start_queue")
		return fmt.Errorf("failed to start River client: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "start_queue")
	s.metrics.RecordOperationDuration(ctx, "start_queue", time.Since(start))

	s.logger.Info("Queue service started successfully")
	return nil
}

// Stop stops the River client and releases the pool.
func (s *Service) Stop(ctx context.Context) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "stop_queue")

	s.logger.Info("Stopping queue service")

	if err := s.client.Stop(ctx); err != nil {
		s.metrics.RecordOperationFailure(ctx, "stop_queue")
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.pool.Close()

	s.metrics.RecordOperationSuccess(ctx, "stop_queue")
	s.metrics.RecordOperationDuration(ctx, "stop_queue", time.Since(start))

	s.logger.Info("Queue service stopped successfully")
	return nil
}

// HealthCheck verifies the queue tables are reachable.
func (s *Service) HealthCheck(ctx context.Context) error {
	s.metrics.RecordOperationAttempt(ctx, "queue_health_check")

	if s.client == nil {
		s.metrics.RecordOperationFailure(ctx, "queue_health_check")
		return fmt.Errorf("river client is nil")
	}

	var count int
	err := s.db.NewSelect().
		Table("river_job").
		ColumnExpr("COUNT(*)").
		Scan(ctx, &count)
	if err != nil {
		s.metrics.RecordOperationFailure(ctx, "queue_health_check")
		return fmt.Errorf("queue health check failed: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "queue_health_check")
	s.logger.Debug("Queue health check passed", attr.Int("total_jobs", count))
	return nil
}

// GetClient returns the underlying River client for advanced operations.
func (s *Service) GetClient() *river.Client[pgx.Tx] {
	return s.client
}
