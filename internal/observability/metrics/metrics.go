package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OperationMetrics is the per-module operation instrumentation surface every
// service carries.
type OperationMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation string)
	RecordOperationSuccess(ctx context.Context, operation string)
	RecordOperationFailure(ctx context.Context, operation string)
	RecordOperationDuration(ctx context.Context, operation string, duration time.Duration)
}

// ContributionMetrics adds contribution-specific counters.
type ContributionMetrics interface {
	OperationMetrics
	RecordContribution(ctx context.Context, typeName string, points int64)
}

// LeaderboardMetrics adds cache and ranking counters.
type LeaderboardMetrics interface {
	OperationMetrics
	RecordCacheHit(ctx context.Context)
	RecordCacheMiss(ctx context.Context)
	RecordCacheInvalidation(ctx context.Context)
}

// AchievementMetrics adds award and sweep counters.
type AchievementMetrics interface {
	OperationMetrics
	RecordAward(ctx context.Context, achievementID string)
	RecordSweepUserFailure(ctx context.Context)
}

// RollupMetrics adds rollup counters.
type RollupMetrics interface {
	OperationMetrics
	RecordRollup(ctx context.Context, period string)
}

type operationMetrics struct {
	attempts  *prometheus.CounterVec
	successes *prometheus.CounterVec
	failures  *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

func newOperationMetrics(reg prometheus.Registerer, module string) *operationMetrics {
	m := &operationMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contrib_engine",
			Subsystem: module,
			Name:      "operation_attempts_total",
			Help:      "Number of operation attempts.",
		}, []string{"operation"}),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contrib_engine",
			Subsystem: module,
			Name:      "operation_successes_total",
			Help:      "Number of successful operations.",
		}, []string{"operation"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contrib_engine",
			Subsystem: module,
			Name:      "operation_failures_total",
			Help:      "Number of failed operations.",
		}, []string{"operation"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "contrib_engine",
			Subsystem: module,
			Name:      "operation_duration_seconds",
			Help:      "Operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	reg.MustRegister(m.attempts, m.successes, m.failures, m.durations)
	return m
}

func (m *operationMetrics) RecordOperationAttempt(_ context.Context, operation string) {
	m.attempts.WithLabelValues(operation).Inc()
}

func (m *operationMetrics) RecordOperationSuccess(_ context.Context, operation string) {
	m.successes.WithLabelValues(operation).Inc()
}

func (m *operationMetrics) RecordOperationFailure(_ context.Context, operation string) {
	m.failures.WithLabelValues(operation).Inc()
}

func (m *operationMetrics) RecordOperationDuration(_ context.Context, operation string, duration time.Duration) {
	m.durations.WithLabelValues(operation).Observe(duration.Seconds())
}

type contributionMetrics struct {
	*operationMetrics
	contributions *prometheus.CounterVec
	points        *prometheus.CounterVec
}

// NewContributionMetrics registers and returns contribution metrics.
func NewContributionMetrics(reg prometheus.Registerer) ContributionMetrics {
	m := &contributionMetrics{
		operationMetrics: newOperationMetrics(reg, "contribution"),
		contributions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contrib_engine",
			Subsystem: "contribution",
			Name:      "recorded_total",
			Help:      "Contributions recorded, by type.",
		}, []string{"type"}),
		points: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contrib_engine",
			Subsystem: "contribution",
			Name:      "points_total",
			Help:      "Points awarded, by type.",
		}, []string{"type"}),
	}
	reg.MustRegister(m.contributions, m.points)
	return m
}

func (m *contributionMetrics) RecordContribution(_ context.Context, typeName string, points int64) {
	m.contributions.WithLabelValues(typeName).Inc()
	m.points.WithLabelValues(typeName).Add(float64(points))
}

type leaderboardMetrics struct {
	*operationMetrics
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	cacheInvalidations prometheus.Counter
}

// NewLeaderboardMetrics registers and returns leaderboard metrics.
func NewLeaderboardMetrics(reg prometheus.Registerer) LeaderboardMetrics {
	m := &leaderboardMetrics{
		operationMetrics: newOperationMetrics(reg, "leaderboard"),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "contrib_engine",
			Subsystem: "leaderboard",
			Name:      "cache_hits_total",
			Help:      "Leaderboard cache hits.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "contrib_engine",
			Subsystem: "leaderboard",
			Name:      "cache_misses_total",
			Help:      "Leaderboard cache misses.",
		}),
		cacheInvalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "contrib_engine",
			Subsystem: "leaderboard",
			Name:      "cache_invalidations_total",
			Help:      "Broad cache invalidations.",
		}),
	}
	reg.MustRegister(m.cacheHits, m.cacheMisses, m.cacheInvalidations)
	return m
}

func (m *leaderboardMetrics) RecordCacheHit(_ context.Context)  { m.cacheHits.Inc() }
func (m *leaderboardMetrics) RecordCacheMiss(_ context.Context) { m.cacheMisses.Inc() }
func (m *leaderboardMetrics) RecordCacheInvalidation(_ context.Context) {
	m.cacheInvalidations.Inc()
}

type achievementMetrics struct {
	*operationMetrics
	awards            *prometheus.CounterVec
	sweepUserFailures prometheus.Counter
}

// NewAchievementMetrics registers and returns achievement metrics.
func NewAchievementMetrics(reg prometheus.Registerer) AchievementMetrics {
	m := &achievementMetrics{
		operationMetrics: newOperationMetrics(reg, "achievement"),
		awards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contrib_engine",
			Subsystem: "achievement",
			Name:      "awards_total",
			Help:      "Achievements awarded, by achievement id.",
		}, []string{"achievement"}),
		sweepUserFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "contrib_engine",
			Subsystem: "achievement",
			Name:      "sweep_user_failures_total",
			Help:      "Users skipped by the sweep due to errors.",
		}),
	}
	reg.MustRegister(m.awards, m.sweepUserFailures)
	return m
}

func (m *achievementMetrics) RecordAward(_ context.Context, achievementID string) {
	m.awards.WithLabelValues(achievementID).Inc()
}

func (m *achievementMetrics) RecordSweepUserFailure(_ context.Context) {
	m.sweepUserFailures.Inc()
}

type rollupMetrics struct {
	*operationMetrics
	rollups *prometheus.CounterVec
}

// NewRollupMetrics registers and returns rollup metrics.
func NewRollupMetrics(reg prometheus.Registerer) RollupMetrics {
	m := &rollupMetrics{
		operationMetrics: newOperationMetrics(reg, "rollup"),
		rollups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contrib_engine",
			Subsystem: "rollup",
			Name:      "runs_total",
			Help:      "Rollup runs, by period.",
		}, []string{"period"}),
	}
	reg.MustRegister(m.rollups)
	return m
}

func (m *rollupMetrics) RecordRollup(_ context.Context, period string) {
	m.rollups.WithLabelValues(period).Inc()
}
