package achievementservice

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	achievementdb "github.com/wordbloom/contrib-engine/app/modules/achievement/infrastructure/repositories"
	"github.com/wordbloom/contrib-engine/internal/eventbus"
	"github.com/wordbloom/contrib-engine/internal/observability/attr"
	"github.com/wordbloom/contrib-engine/internal/observability/metrics"
)

// Config tunes the sweep.
type Config struct {
	// RankQueriesPerSecond throttles rank lookups during the sweep so a big
	// user base does not hammer the aggregate store. Zero means the default.
	RankQueriesPerSecond float64
}

const defaultRankQueriesPerSecond = 25

// AchievementService implements the Service interface.
type AchievementService struct {
	repo       achievementdb.Repository
	aggregates AggregateSource
	ranks      RankSource
	EventBus   eventbus.EventBus
	logger     *slog.Logger
	metrics    metrics.AchievementMetrics
	tracer     trace.Tracer
	db         *bun.DB

	rankLimiter *rate.Limiter

	// prevRanks remembers the last observed rank per user between sweeps so
	// rank changes can be reported. Process-local; after a restart the first
	// sweep only primes it.
	mu        sync.Mutex
	prevRanks map[string]int
}

var _ Service = (*AchievementService)(nil)

// NewAchievementService creates a new AchievementService.
func NewAchievementService(
	repo achievementdb.Repository,
	aggregates AggregateSource,
	ranks RankSource,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
	m metrics.AchievementMetrics,
	tracer trace.Tracer,
	db *bun.DB,
	cfg Config,
) *AchievementService {
	qps := cfg.RankQueriesPerSecond
	if qps <= 0 {
		qps = defaultRankQueriesPerSecond
	}
	return &AchievementService{
		repo:        repo,
		aggregates:  aggregates,
		ranks:       ranks,
		EventBus:    eventBus,
		logger:      logger,
		metrics:     m,
		tracer:      tracer,
		db:          db,
		rankLimiter: rate.NewLimiter(rate.Limit(qps), 1),
		prevRanks:   make(map[string]int),
	}
}

// operationFunc is the generic signature for service operation functions.
type operationFunc[T any] func(ctx context.Context) (T, error)

// withTelemetry wraps a service operation with tracing, metrics, and panic
// recovery.
func withTelemetry[T any](
	s *AchievementService,
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
