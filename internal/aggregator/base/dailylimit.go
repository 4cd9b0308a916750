// Package base provides the shared nine-stage aggregation pipeline every
// concrete Aggregator embeds, grounded directly on
// original_source/legacy_backend/aggregators/base/aggregator.py
// (BaseAggregator.aggregate/process_article) and daily_limit.py
// (DailyLimitMixin), translated from Python mixins into a Hooks interface
// concrete aggregators implement by embedding Base and overriding methods.
package base

import (
	"math"
	"time"
)

// DailyLimitSafetyMax is the per-run cap applied when a feed's DailyLimit
// is -1 (unlimited), ported from daily_limit.py's "safety maximum".
const DailyLimitSafetyMax = 100

// DefaultSecondsSinceLastRun is used when no article has been added yet
// today and the run is happening at (or before) UTC midnight, ported from
// daily_limit.py's 1800-second fallback.
const DefaultSecondsSinceLastRun = 1800

// DynamicFetchLimit implements get_dynamic_fetch_limit: how many entries
// to fetch this run given a feed's daily_limit, how many posts it already
// has today, and an estimate of how many more runs will occur before UTC
// midnight.
//
//   - limit == -1: unlimited, capped at DailyLimitSafetyMax per run.
//   - limit == 0: disabled, always 0.
//   - limit > 0 and forceRefresh: the full limit, bypassing pacing.
//   - limit > 0 otherwise: ceil((limit - postsToday) / remainingRuns),
//     at least 1, or 0 if postsToday already meets/exceeds limit.
func DynamicFetchLimit(limit int, postsToday int, forceRefresh bool, now time.Time, mostRecentPostToday *time.Time) int {
	switch {
	case limit == -1:
		return DailyLimitSafetyMax
	case limit == 0:
		return 0
	case forceRefresh:
		return limit
	}

	remainingQuota := limit - postsToday
	if remainingQuota <= 0 {
		return 0
	}

	runs := RemainingRunsToday(now, mostRecentPostToday)
	dynamic := int(math.Ceil(float64(remainingQuota) / float64(runs)))
	if dynamic < 1 {
		dynamic = 1
	}
	return dynamic
}

// RemainingRunsToday estimates how many more aggregation runs will happen
// before UTC midnight, based on the time since the most recent article was
// added today (or, absent one, the time since UTC midnight).
func RemainingRunsToday(now time.Time, mostRecentPostToday *time.Time) int {
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	secondsUntilMidnight := midnight.Sub(now).Seconds()

	var secondsSinceLastRun float64
	if mostRecentPostToday != nil {
		secondsSinceLastRun = now.Sub(*mostRecentPostToday).Seconds()
	} else {
		todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		secondsSinceMidnight := now.Sub(todayStart).Seconds()
		if secondsSinceMidnight > 0 {
			secondsSinceLastRun = secondsSinceMidnight
		} else {
			secondsSinceLastRun = DefaultSecondsSinceLastRun
		}
	}
	if secondsSinceLastRun <= 0 {
		secondsSinceLastRun = DefaultSecondsSinceLastRun
	}

	estimated := int(math.Ceil(secondsUntilMidnight / secondsSinceLastRun))
	if estimated < 1 {
		return 1
	}
	return estimated
}
