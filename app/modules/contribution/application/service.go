package contributionservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	contributiondb "github.com/wordbloom/contrib-engine/app/modules/contribution/infrastructure/repositories"
	"github.com/wordbloom/contrib-engine/internal/eventbus"
	"github.com/wordbloom/contrib-engine/internal/observability/attr"
	"github.com/wordbloom/contrib-engine/internal/observability/metrics"
)

// ContributionService implements the Service interface.
type ContributionService struct {
	repo     contributiondb.Repository
	EventBus eventbus.EventBus
	logger   *slog.Logger
	metrics  metrics.ContributionMetrics
	tracer   trace.Tracer
	db       *bun.DB
}

var _ Service = (*ContributionService)(nil)

// NewContributionService creates a new ContributionService.
func NewContributionService(
	repo contributiondb.Repository,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
	m metrics.ContributionMetrics,
	tracer trace.Tracer,
	db *bun.DB,
) *ContributionService {
	return &ContributionService{
		repo:     repo,
		EventBus: eventBus,
		logger:   logger,
		metrics:  m,
		tracer:   tracer,
		db:       db,
	}
}

// operationFunc is the generic signature for service operation functions.
type operationFunc[T any] func(ctx context.Context) (T, error)

// withTelemetry wraps a service operation with tracing, metrics, and panic
// recovery.
func withTelemetry[T any](
	s *ContributionService,
	ctx context.Context,
	operationName string,
	userID string,
	op operationFunc[T],
) (result T, err error) {
	ctx, span := s.tracer.Start(ctx, operationName, trace.WithAttributes(
		attribute.String("operation", operationName),
		attribute.String("user_id", userID),
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
				attr.UserID("user_id", userID),
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
			attr.UserID("user_id", userID),
			attr.Error(wrappedErr),
		)
		s.metrics.RecordOperationFailure(ctx, operationName)
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	s.metrics.RecordOperationSuccess(ctx, operationName)
	return result, nil
}

// runInTx ensures the operation runs within a transaction.
func runInTx[T any](
	s *ContributionService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (T, error),
) (T, error) {
	if s.db == nil {
		return fn(ctx, nil)
	}

	var result T
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		return txErr
	})
	return result, err
}
