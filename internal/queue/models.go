package queue

// CacheSweepArgs triggers a full leaderboard cache invalidation, bounding
// staleness even when no contribution arrives.
type CacheSweepArgs struct{}

// Kind returns the job type identifier for River.
func (CacheSweepArgs) Kind() string { return "cache_sweep" }

// AchievementSweepArgs triggers a full achievement evaluation pass, rank
// rules included.
type AchievementSweepArgs struct{}

// Kind returns the job type identifier for River.
func (AchievementSweepArgs) Kind() string { return "achievement_sweep" }

// RollupArgs materializes the most recent complete period and exports the
// workbook when an export directory is configured.
type RollupArgs struct {
	Period string `json:"period"`
}

// Kind returns the job type identifier for River.
func (RollupArgs) Kind() string { return "rollup" }
