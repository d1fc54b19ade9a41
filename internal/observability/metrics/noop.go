package metrics

import (
	"context"
	"time"
)

// NoOp satisfies every metrics interface; used by tests and by callers that
// run without a metrics address configured.
type NoOp struct{}

func (NoOp) RecordOperationAttempt(context.Context, string)                {}
func (NoOp) RecordOperationSuccess(context.Context, string)                {}
func (NoOp) RecordOperationFailure(context.Context, string)                {}
func (NoOp) RecordOperationDuration(context.Context, string, time.Duration) {}
func (NoOp) RecordContribution(context.Context, string, int64)             {}
func (NoOp) RecordCacheHit(context.Context)                                {}
func (NoOp) RecordCacheMiss(context.Context)                               {}
func (NoOp) RecordCacheInvalidation(context.Context)                       {}
func (NoOp) RecordAward(context.Context, string)                           {}
func (NoOp) RecordSweepUserFailure(context.Context)                        {}
func (NoOp) RecordRollup(context.Context, string)                          {}

var (
	_ ContributionMetrics = NoOp{}
	_ LeaderboardMetrics  = NoOp{}
	_ AchievementMetrics  = NoOp{}
	_ RollupMetrics       = NoOp{}
)
