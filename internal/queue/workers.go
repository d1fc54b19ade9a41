package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/riverqueue/river"

	achievementservice "github.com/wordbloom/contrib-engine/app/modules/achievement/application"
	rollupservice "github.com/wordbloom/contrib-engine/app/modules/rollup/application"
	"github.com/wordbloom/contrib-engine/internal/observability/attr"
)

// CacheInvalidator is the slice of the leaderboard service the sweep needs.
type CacheInvalidator interface {
	InvalidateCache(ctx context.Context)
}

// AchievementSweeper is the slice of the achievement service the sweep needs.
type AchievementSweeper interface {
	SweepAll(ctx context.Context) (*achievementservice.SweepReport, error)
}

// RollupRunner is the slice of the rollup service the rollup jobs need.
type RollupRunner interface {
	RunRollup(ctx context.Context, period rollupservice.Period) (*rollupservice.RollupView, error)
	ExportWorkbook(ctx context.Context, period rollupservice.Period) (string, error)
}

// CacheSweepWorker drops every memoized leaderboard page on a timer.
type CacheSweepWorker struct {
	river.WorkerDefaults[CacheSweepArgs]
	logger      *slog.Logger
	invalidator CacheInvalidator
}

// NewCacheSweepWorker creates the cache sweep worker.
func NewCacheSweepWorker(logger *slog.Logger, invalidator CacheInvalidator) *CacheSweepWorker {
	return &CacheSweepWorker{logger: logger, invalidator: invalidator}
}

func (w *CacheSweepWorker) Work(ctx context.Context, job *river.Job[CacheSweepArgs]) error {
	w.logger.InfoContext(ctx, "Running scheduled cache sweep",
		attr.Int64("job_id", job.ID),
	)
	w.invalidator.InvalidateCache(ctx)
	return nil
}

// AchievementSweepWorker runs the full achievement evaluation pass.
type AchievementSweepWorker struct {
	river.WorkerDefaults[AchievementSweepArgs]
	logger  *slog.Logger
	sweeper AchievementSweeper
}

// NewAchievementSweepWorker creates the achievement sweep worker.
func NewAchievementSweepWorker(logger *slog.Logger, sweeper AchievementSweeper) *AchievementSweepWorker {
	return &AchievementSweepWorker{logger: logger, sweeper: sweeper}
}

func (w *AchievementSweepWorker) Work(ctx context.Context, job *river.Job[AchievementSweepArgs]) error {
	w.logger.InfoContext(ctx, "Running scheduled achievement sweep",
		attr.Int64("job_id", job.ID),
	)
	report, err := w.sweeper.SweepAll(ctx)
	if err != nil {
		return fmt.Errorf("achievement sweep failed: %w", err)
	}
	w.logger.InfoContext(ctx, "Scheduled achievement sweep completed",
		attr.Int64("job_id", job.ID),
		attr.Int("users_checked", report.UsersChecked),
		attr.Int("awards", report.Awards),
		attr.Int("failures", report.Failures),
	)
	return nil
}

// RollupWorker materializes one rollup period and exports the workbook.
type RollupWorker struct {
	river.WorkerDefaults[RollupArgs]
	logger *slog.Logger
	runner RollupRunner
}

// NewRollupWorker creates the rollup worker.
func NewRollupWorker(logger *slog.Logger, runner RollupRunner) *RollupWorker {
	return &RollupWorker{logger: logger, runner: runner}
}

func (w *RollupWorker) Work(ctx context.Context, job *river.Job[RollupArgs]) error {
	period, err := rollupservice.ParsePeriod(job.Args.Period)
	if err != nil {
		// Bad args never become good; cancel instead of retrying.
		return river.JobCancel(err)
	}

	w.logger.InfoContext(ctx, "Running scheduled rollup",
		attr.Int64("job_id", job.ID),
		attr.String("period", string(period)),
	)

	if _, err := w.runner.RunRollup(ctx, period); err != nil {
		return fmt.Errorf("rollup failed: %w", err)
	}

	path, err := w.runner.ExportWorkbook(ctx, period)
	if err != nil {
		return fmt.Errorf("rollup export failed: %w", err)
	}
	if path != "" {
		w.logger.InfoContext(ctx, "Rollup workbook written",
			attr.Int64("job_id", job.ID),
			attr.String("path", path),
		)
	}
	return nil
}
