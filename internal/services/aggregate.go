package services

import (
	"math"
	"sort"
	"time"

	"github.com/yungbote/attendly-backend/internal/types"
)

// Aggregation is pure: every function here takes an event slice and returns a
// reporting structure. Results are reproducible given the same ledger
// contents, and "no data" conditions yield zeroed values, never errors.

// GroupEventsByDay partitions events by calendar day and sorts each group by
// occurrence time, so classification sees checkins before their checkouts
// even when a slow network delivered them out of order.
func GroupEventsByDay(events []*types.AttendanceEvent) map[string][]*types.AttendanceEvent {
	groups := make(map[string][]*types.AttendanceEvent)
	for _, ev := range events {
		key := types.DayKey(ev.Day)
		groups[key] = append(groups[key], ev)
	}
	for _, group := range groups {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].OccurredAt.Before(group[j].OccurredAt)
		})
	}
	return groups
}

// ClassifyDay labels one day's event group. A legacy_present mark sharing a
// day with any checkin/checkout (a migration artifact) is Unknown: the
// aggregator does not guess.
func ClassifyDay(group []*types.AttendanceEvent) types.DayStatus {
	var checkins, checkouts, legacy int
	for _, ev := range group {
		switch ev.Action {
		case types.ActionCheckin:
			checkins++
		case types.ActionCheckout:
			checkouts++
		case types.ActionLegacyPresent:
			legacy++
		}
	}

	switch {
	case checkins == 0 && checkouts == 0 && legacy == 0:
		return types.StatusAbsent
	case legacy == 1 && checkins == 0 && checkouts == 0:
		return types.StatusLegacyPresent
	case legacy == 0 && checkins == 1 && checkouts == 1:
		return types.StatusComplete
	case legacy == 0 && checkins == 1 && checkouts == 0:
		return types.StatusPartial
	default:
		return types.StatusUnknown
	}
}

// DayWorkingDuration computes a day's working time, floor-truncated to the
// minute by the caller. Complete days measure checkout minus checkin. Partial
// days measure against now and are flagged in progress; the provisional value
// is never written anywhere. For any other status ok is false: the duration
// is undefined, not zero.
func DayWorkingDuration(group []*types.AttendanceEvent, now time.Time) (d time.Duration, inProgress bool, ok bool) {
	status := ClassifyDay(group)
	if status != types.StatusComplete && status != types.StatusPartial {
		return 0, false, false
	}

	var checkin, checkout *types.AttendanceEvent
	for _, ev := range group {
		switch ev.Action {
		case types.ActionCheckin:
			checkin = ev
		case types.ActionCheckout:
			checkout = ev
		}
	}

	if status == types.StatusComplete {
		d = checkout.OccurredAt.Sub(checkin.OccurredAt)
		if d < 0 {
			d = 0
		}
		return d, false, true
	}

	d = now.Sub(checkin.OccurredAt)
	if d < 0 {
		d = 0
	}
	return d, true, true
}

// FloorMinutes truncates a duration down to whole minutes.
func FloorMinutes(d time.Duration) int {
	if d < 0 {
		return 0
	}
	return int(d / time.Minute)
}

// ComputePeriodStats aggregates an inclusive [startDay, endDay] range.
// presentDays = completeDays + legacyDays; the rate is a rounded percentage
// and is 0 for an empty range (never a division error). Partial and unknown
// days are excluded from both the rate numerator and the working-time sum.
func ComputePeriodStats(events []*types.AttendanceEvent, startDay, endDay time.Time) types.PeriodStats {
	var stats types.PeriodStats
	if startDay.IsZero() || endDay.IsZero() || endDay.Before(startDay) {
		return stats
	}
	stats.TotalDays = int(endDay.Sub(startDay)/(24*time.Hour)) + 1

	for _, group := range GroupEventsByDay(events) {
		day := group[0].Day
		if day.Before(startDay) || day.After(endDay) {
			continue
		}
		switch ClassifyDay(group) {
		case types.StatusComplete:
			stats.CompleteDays++
			if d, _, ok := DayWorkingDuration(group, time.Time{}); ok {
				stats.TotalWorkingMinutes += FloorMinutes(d)
			}
		case types.StatusPartial:
			stats.PartialDays++
		case types.StatusLegacyPresent:
			stats.LegacyDays++
		case types.StatusUnknown:
			stats.UnknownDays++
		}
	}

	stats.PresentDays = stats.CompleteDays + stats.LegacyDays
	if stats.TotalDays > 0 {
		stats.AttendanceRate = int(math.Round(float64(stats.PresentDays) / float64(stats.TotalDays) * 100))
	}
	return stats
}

// streakHistoryDays is the trailing window reported in StreakRecord.History.
const streakHistoryDays = 30

// ComputeStreaks walks the user's full history. A day qualifies when it
// classifies Complete or LegacyPresent; missing days are non-qualifying. The
// current streak counts backward from today, except that a still-open today
// (no events yet, or checked in without a checkout) is skipped rather than
// treated as a break. When today has no events at all the walk starts from
// the most recent day that has any.
func ComputeStreaks(events []*types.AttendanceEvent, today time.Time) types.StreakRecord {
	record := types.StreakRecord{History: make([]bool, streakHistoryDays)}

	groups := GroupEventsByDay(events)
	qualifies := make(map[string]bool, len(groups))
	var eventDays []time.Time
	for _, group := range groups {
		day := group[0].Day
		eventDays = append(eventDays, day)
		status := ClassifyDay(group)
		qualifies[types.DayKey(day)] = status == types.StatusComplete || status == types.StatusLegacyPresent
	}

	for i := 0; i < streakHistoryDays; i++ {
		day := today.AddDate(0, 0, i-streakHistoryDays+1)
		record.History[i] = qualifies[types.DayKey(day)]
	}

	if len(eventDays) == 0 {
		return record
	}
	sort.Slice(eventDays, func(i, j int) bool { return eventDays[i].Before(eventDays[j]) })

	cursor := today
	if _, hasToday := groups[types.DayKey(today)]; !hasToday {
		// Today is still open with nothing recorded; resume from the most
		// recent day that has events.
		cursor = latestDayAtOrBefore(eventDays, today)
	} else if !qualifies[types.DayKey(today)] && DeriveDayState(groups[types.DayKey(today)]) == types.DayCheckedIn {
		// Checked in but not out yet; the day cannot qualify until checkout,
		// so it is skipped instead of breaking the run.
		cursor = today.AddDate(0, 0, -1)
	}
	for !cursor.IsZero() && qualifies[types.DayKey(cursor)] {
		record.Current++
		cursor = cursor.AddDate(0, 0, -1)
	}

	run := 0
	var prev time.Time
	for _, day := range eventDays {
		if !qualifies[types.DayKey(day)] {
			run = 0
			prev = time.Time{}
			continue
		}
		if !prev.IsZero() && day.Equal(prev.AddDate(0, 0, 1)) {
			run++
		} else {
			run = 1
		}
		if run > record.Longest {
			record.Longest = run
		}
		prev = day
	}
	return record
}

func latestDayAtOrBefore(sortedDays []time.Time, limit time.Time) time.Time {
	for i := len(sortedDays) - 1; i >= 0; i-- {
		if !sortedDays[i].After(limit) {
			return sortedDays[i]
		}
	}
	return time.Time{}
}

// BuildTodaySummary combines the derived session state for a day with its
// checkin/checkout instants and working duration so callers get everything
// in one read.
func BuildTodaySummary(dayEvents []*types.AttendanceEvent, now, day time.Time) *types.TodaySummary {
	sorted := make([]*types.AttendanceEvent, len(dayEvents))
	copy(sorted, dayEvents)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OccurredAt.Before(sorted[j].OccurredAt)
	})

	summary := &types.TodaySummary{
		Day:   day,
		State: DeriveDayState(sorted),
	}
	for _, ev := range sorted {
		occurred := ev.OccurredAt
		switch ev.Action {
		case types.ActionCheckin:
			summary.Checkin = &occurred
		case types.ActionCheckout:
			summary.Checkout = &occurred
		}
		last := occurred
		summary.LastEventAt = &last
	}

	if d, inProgress, ok := DayWorkingDuration(sorted, now); ok {
		minutes := FloorMinutes(d)
		summary.DurationMinutes = &minutes
		summary.InProgress = inProgress
	}
	return summary
}
