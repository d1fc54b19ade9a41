package shared

import (
	"fmt"
	"time"
)

// TimeRange is a named leaderboard window, resolved to concrete dates at
// query time.
type TimeRange string

const (
	TimeRangeWeekly  TimeRange = "weekly"
	TimeRangeMonthly TimeRange = "monthly"
	TimeRangeYearly  TimeRange = "yearly"
	TimeRangeAllTime TimeRange = "all-time"
)

// ParseTimeRange validates a caller-supplied range name. Empty means
// all-time.
func ParseTimeRange(s string) (TimeRange, error) {
	switch TimeRange(s) {
	case TimeRangeWeekly, TimeRangeMonthly, TimeRangeYearly, TimeRangeAllTime:
		return TimeRange(s), nil
	case "":
		return TimeRangeAllTime, nil
	default:
		return "", NewValidationError("timeRange", fmt.Sprintf("unknown time range %q", s))
	}
}

// Window resolves the range to [start, now).
func (r TimeRange) Window(now time.Time) (start, end time.Time) {
	switch r {
	case TimeRangeWeekly:
		return now.AddDate(0, 0, -7), now
	case TimeRangeMonthly:
		return now.AddDate(0, -1, 0), now
	case TimeRangeYearly:
		return now.AddDate(-1, 0, 0), now
	default:
		return time.Unix(0, 0).UTC(), now
	}
}

// IsAllTime reports whether the window starts at the epoch.
func (r TimeRange) IsAllTime() bool {
	return r == TimeRangeAllTime || r == ""
}

func (r TimeRange) String() string {
	return string(r)
}
