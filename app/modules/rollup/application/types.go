package rollupservice

import (
	"time"

	"github.com/wordbloom/contrib-engine/app/shared"
)

// Period selects the rollup granularity.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// ParsePeriod validates a period name.
func ParsePeriod(raw string) (Period, error) {
	switch Period(raw) {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return Period(raw), nil
	default:
		return "", shared.NewValidationError("period", "must be one of daily, weekly, monthly")
	}
}

// Window returns the most recent complete period before now, in UTC.
// Weekly periods start on Monday; monthly on the first of the month.
func (p Period) Window(now time.Time) (start, end time.Time) {
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch p {
	case PeriodWeekly:
		weekday := int(midnight.Weekday())
		if weekday == 0 {
			weekday = 7 // Sunday
		}
		end = midnight.AddDate(0, 0, -(weekday - 1))
		start = end.AddDate(0, 0, -7)
	case PeriodMonthly:
		end = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		start = end.AddDate(0, -1, 0)
	default: // daily
		end = midnight
		start = end.AddDate(0, 0, -1)
	}
	return start, end
}

// RollupView is the materialized aggregation returned to callers.
type RollupView struct {
	Period             string           `json:"period"`
	PeriodStart        time.Time        `json:"period_start"`
	PeriodEnd          time.Time        `json:"period_end"`
	TotalContributions int64            `json:"total_contributions"`
	TotalPoints        int64            `json:"total_points"`
	ActiveUsers        int64            `json:"active_users"`
	ByType             map[string]int64 `json:"by_type,omitempty"`
}
