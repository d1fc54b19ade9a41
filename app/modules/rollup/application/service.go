package rollupservice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	rollupdb "github.com/wordbloom/contrib-engine/app/modules/rollup/infrastructure/repositories"
	"github.com/wordbloom/contrib-engine/internal/observability/attr"
	"github.com/wordbloom/contrib-engine/internal/observability/metrics"
)

// Config tunes the rollup service.
type Config struct {
	// ExportDir is where XLSX workbooks land. Empty disables exports.
	ExportDir string
	// ExportRows caps how many recent rollups one workbook carries. Zero
	// means the default.
	ExportRows int
}

const defaultExportRows = 52

// RollupService implements the Service interface.
type RollupService struct {
	repo    rollupdb.Repository
	logger  *slog.Logger
	metrics metrics.RollupMetrics
	tracer  trace.Tracer
	db      *bun.DB
	cfg     Config

	// now is injectable for tests.
	now func() time.Time
}

var _ Service = (*RollupService)(nil)

// NewRollupService creates a new RollupService.
func NewRollupService(
	repo rollupdb.Repository,
	logger *slog.Logger,
	m metrics.RollupMetrics,
	tracer trace.Tracer,
	db *bun.DB,
	cfg Config,
) *RollupService {
	if cfg.ExportRows <= 0 {
		cfg.ExportRows = defaultExportRows
	}
	return &RollupService{
		repo:    repo,
		logger:  logger,
		metrics: m,
		tracer:  tracer,
		db:      db,
		cfg:     cfg,
		now:     time.Now,
	}
}

type operationFunc[T any] func(ctx context.Context) (T, error)

// withTelemetry wraps a service operation with tracing, metrics, and panic
// recovery.
func withTelemetry[T any](
	s *RollupService,
	ctx context.Context,
	operationName string,
	op operationFunc[T],
) (result T, err error) {
	ctx, span := s.tracer.Start(ctx, operationName, trace.WithAttributes(
		attribute.String("operation", operationName),
	))
	defer span.End()

	s.metrics.RecordOperationAttempt(ctx, operationName)

	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, time.Since(startTime))
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.Error(err),
			)
			s.metrics.RecordOperationFailure(ctx, operationName)
			span.RecordError(err)
		}
	}()

	result, err = op(ctx)
	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.Error(wrappedErr),
		)
		s.metrics.RecordOperationFailure(ctx, operationName)
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	s.metrics.RecordOperationSuccess(ctx, operationName)
	return result, nil
}

// RunRollup aggregates the most recent complete period and persists it.
func (s *RollupService) RunRollup(ctx context.Context, period Period) (*RollupView, error) {
	return withTelemetry(s, ctx, "RunRollup", func(ctx context.Context) (*RollupView, error) {
		if _, err := ParsePeriod(string(period)); err != nil {
			return nil, err
		}

		start, end := period.Window(s.now())

		totals, err := s.repo.WindowTotals(ctx, s.db, start, end)
		if err != nil {
			return nil, err
		}

		rollup := &rollupdb.Rollup{
			Period:             string(period),
			PeriodStart:        start,
			PeriodEnd:          end,
			TotalContributions: totals.TotalContributions,
			TotalPoints:        totals.TotalPoints,
			ActiveUsers:        totals.ActiveUsers,
			ByType:             totals.ByType,
		}
		if err := s.repo.UpsertRollup(ctx, s.db, rollup); err != nil {
			return nil, err
		}

		s.metrics.RecordRollup(ctx, string(period))
		s.logger.InfoContext(ctx, "Rollup materialized",
			attr.String("period", string(period)),
			attr.Time("period_start", start),
			attr.Int64("total_contributions", totals.TotalContributions),
			attr.Int64("active_users", totals.ActiveUsers),
		)

		return &RollupView{
			Period:             string(period),
			PeriodStart:        start,
			PeriodEnd:          end,
			TotalContributions: totals.TotalContributions,
			TotalPoints:        totals.TotalPoints,
			ActiveUsers:        totals.ActiveUsers,
			ByType:             totals.ByType,
		}, nil
	})
}
