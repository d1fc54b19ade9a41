package leaderboardservice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	leaderboarddb "github.com/wordbloom/contrib-engine/app/modules/leaderboard/infrastructure/repositories"
	"github.com/wordbloom/contrib-engine/internal/cache"
	"github.com/wordbloom/contrib-engine/internal/eventbus"
	"github.com/wordbloom/contrib-engine/internal/identity"
	"github.com/wordbloom/contrib-engine/internal/observability/attr"
	"github.com/wordbloom/contrib-engine/internal/observability/metrics"
)

// LeaderboardService implements the Service interface. The cache is injected
// and optional: with a nil cache every read recomputes, and the response
// content is identical.
type LeaderboardService struct {
	repo     leaderboarddb.Repository
	cache    cache.Cache[*LeaderboardPage]
	cacheTTL time.Duration
	badges   BadgeProvider
	identity identity.Provider
	EventBus eventbus.EventBus
	logger   *slog.Logger
	metrics  metrics.LeaderboardMetrics
	tracer   trace.Tracer
	db       *bun.DB

	// readTimeout bounds one leaderboard recomputation.
	readTimeout time.Duration
}

var _ Service = (*LeaderboardService)(nil)

// Config tunes the leaderboard service.
type Config struct {
	CacheTTL    time.Duration
	ReadTimeout time.Duration
}

// NewLeaderboardService creates a new LeaderboardService.
func NewLeaderboardService(
	repo leaderboarddb.Repository,
	pageCache cache.Cache[*LeaderboardPage],
	badges BadgeProvider,
	identities identity.Provider,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
	m metrics.LeaderboardMetrics,
	tracer trace.Tracer,
	db *bun.DB,
	cfg Config,
) *LeaderboardService {
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = time.Hour
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 5 * time.Second
	}
	return &LeaderboardService{
		repo:        repo,
		cache:       pageCache,
		cacheTTL:    cfg.CacheTTL,
		badges:      badges,
		identity:    identities,
		EventBus:    eventBus,
		logger:      logger,
		metrics:     m,
		tracer:      tracer,
		db:          db,
		readTimeout: cfg.ReadTimeout,
	}
}

type operationFunc[T any] func(ctx context.Context) (T, error)

// withTelemetry wraps a service operation with tracing, metrics, and panic
// recovery.
func withTelemetry[T any](
	s *LeaderboardService,
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

func (s *LeaderboardService) InvalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.cache.InvalidateAll(ctx)
	s.metrics.RecordCacheInvalidation(ctx)
	s.logger.DebugContext(ctx, "Leaderboard cache invalidated")
}
