package services

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/attendly-backend/internal/types"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func completeDay(userID uuid.UUID, d time.Time, inHour, outHour int, outMinute int) []*types.AttendanceEvent {
	checkin := &types.AttendanceEvent{
		ID: uuid.New(), UserID: userID, Action: types.ActionCheckin,
		OccurredAt: d.Add(time.Duration(inHour) * time.Hour), Day: d,
	}
	checkout := &types.AttendanceEvent{
		ID: uuid.New(), UserID: userID, Action: types.ActionCheckout,
		OccurredAt: d.Add(time.Duration(outHour)*time.Hour + time.Duration(outMinute)*time.Minute), Day: d,
	}
	return []*types.AttendanceEvent{checkin, checkout}
}

func partialDay(userID uuid.UUID, d time.Time, inHour int) []*types.AttendanceEvent {
	return []*types.AttendanceEvent{{
		ID: uuid.New(), UserID: userID, Action: types.ActionCheckin,
		OccurredAt: d.Add(time.Duration(inHour) * time.Hour), Day: d,
	}}
}

func legacyDay(userID uuid.UUID, d time.Time) []*types.AttendanceEvent {
	return []*types.AttendanceEvent{{
		ID: uuid.New(), UserID: userID, Action: types.ActionLegacyPresent,
		OccurredAt: d, Day: d,
	}}
}

func TestClassifyDay(t *testing.T) {
	userID := uuid.New()
	d := day(2024, 3, 11)

	cases := []struct {
		name  string
		group []*types.AttendanceEvent
		want  types.DayStatus
	}{
		{"empty", nil, types.StatusAbsent},
		{"complete", completeDay(userID, d, 9, 17, 0), types.StatusComplete},
		{"partial", partialDay(userID, d, 9), types.StatusPartial},
		{"legacy", legacyDay(userID, d), types.StatusLegacyPresent},
		{
			"stray_checkout_is_unknown",
			[]*types.AttendanceEvent{{
				ID: uuid.New(), UserID: userID, Action: types.ActionCheckout,
				OccurredAt: d.Add(17 * time.Hour), Day: d,
			}},
			types.StatusUnknown,
		},
		{
			"legacy_mixed_with_checkin_is_unknown",
			append(legacyDay(userID, d), partialDay(userID, d, 9)...),
			types.StatusUnknown,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyDay(tc.group); got != tc.want {
				t.Fatalf("ClassifyDay()=%s, want %s", got, tc.want)
			}
		})
	}
}

func TestGroupEventsByDaySortsWithinDay(t *testing.T) {
	userID := uuid.New()
	d := day(2024, 3, 11)

	// Delivered out of order by a slow network.
	events := []*types.AttendanceEvent{
		{ID: uuid.New(), UserID: userID, Action: types.ActionCheckout, OccurredAt: d.Add(17 * time.Hour), Day: d},
		{ID: uuid.New(), UserID: userID, Action: types.ActionCheckin, OccurredAt: d.Add(9 * time.Hour), Day: d},
	}

	groups := GroupEventsByDay(events)
	group, ok := groups[types.DayKey(d)]
	if !ok || len(group) != 2 {
		t.Fatalf("expected one group of 2 events, got %v", groups)
	}
	if group[0].Action != types.ActionCheckin || group[1].Action != types.ActionCheckout {
		t.Fatalf("group not sorted by occurrence: %s then %s", group[0].Action, group[1].Action)
	}
}

func TestDayWorkingDuration(t *testing.T) {
	userID := uuid.New()
	d := day(2024, 3, 11)

	t.Run("complete_9_to_17_30_is_8h30m", func(t *testing.T) {
		group := completeDay(userID, d, 9, 17, 30)
		dur, inProgress, ok := DayWorkingDuration(group, time.Time{})
		if !ok || inProgress {
			t.Fatalf("ok=%v inProgress=%v, want ok and not in progress", ok, inProgress)
		}
		if got := FloorMinutes(dur); got != 8*60+30 {
			t.Fatalf("minutes=%d, want 510", got)
		}
	})

	t.Run("partial_measures_against_now", func(t *testing.T) {
		group := partialDay(userID, d, 9)
		now := d.Add(12*time.Hour + 45*time.Minute + 30*time.Second)
		dur, inProgress, ok := DayWorkingDuration(group, now)
		if !ok || !inProgress {
			t.Fatalf("ok=%v inProgress=%v, want ok and in progress", ok, inProgress)
		}
		if got := FloorMinutes(dur); got != 3*60+45 {
			t.Fatalf("minutes=%d, want 225 (floor to minute)", got)
		}
	})

	t.Run("legacy_has_no_duration", func(t *testing.T) {
		if _, _, ok := DayWorkingDuration(legacyDay(userID, d), time.Time{}); ok {
			t.Fatal("legacy day should have undefined duration")
		}
	})

	t.Run("absent_has_no_duration", func(t *testing.T) {
		if _, _, ok := DayWorkingDuration(nil, time.Time{}); ok {
			t.Fatal("empty day should have undefined duration")
		}
	})
}

func TestComputePeriodStats(t *testing.T) {
	userID := uuid.New()
	start := day(2024, 3, 11)

	t.Run("empty_range_is_all_zero", func(t *testing.T) {
		stats := ComputePeriodStats(nil, start, start.AddDate(0, 0, -1))
		if stats != (types.PeriodStats{}) {
			t.Fatalf("expected zero stats, got %+v", stats)
		}
	})

	t.Run("no_events_zero_rate_not_nan", func(t *testing.T) {
		stats := ComputePeriodStats(nil, start, start.AddDate(0, 0, 6))
		if stats.TotalDays != 7 || stats.AttendanceRate != 0 {
			t.Fatalf("totalDays=%d rate=%d, want 7 and 0", stats.TotalDays, stats.AttendanceRate)
		}
	})

	t.Run("single_complete_day_round_trip", func(t *testing.T) {
		events := completeDay(userID, start, 9, 17, 30)
		stats := ComputePeriodStats(events, start, start)
		if stats.TotalDays != 1 || stats.PresentDays != 1 || stats.CompleteDays != 1 {
			t.Fatalf("unexpected counts: %+v", stats)
		}
		if stats.AttendanceRate != 100 {
			t.Fatalf("rate=%d, want 100", stats.AttendanceRate)
		}
		if stats.TotalWorkingMinutes != 510 {
			t.Fatalf("workingMinutes=%d, want 510", stats.TotalWorkingMinutes)
		}
	})

	t.Run("legacy_counts_present_but_no_hours", func(t *testing.T) {
		var events []*types.AttendanceEvent
		events = append(events, completeDay(userID, start, 9, 17, 0)...)
		events = append(events, legacyDay(userID, start.AddDate(0, 0, 1))...)
		stats := ComputePeriodStats(events, start, start.AddDate(0, 0, 1))
		if stats.PresentDays != 2 || stats.CompleteDays != 1 || stats.LegacyDays != 1 {
			t.Fatalf("unexpected counts: %+v", stats)
		}
		if stats.TotalWorkingMinutes != 8*60 {
			t.Fatalf("workingMinutes=%d, want 480 (legacy contributes none)", stats.TotalWorkingMinutes)
		}
		if stats.AttendanceRate != 100 {
			t.Fatalf("rate=%d, want 100", stats.AttendanceRate)
		}
	})

	t.Run("partial_and_unknown_excluded_from_numerator", func(t *testing.T) {
		var events []*types.AttendanceEvent
		events = append(events, completeDay(userID, start, 9, 17, 0)...)
		events = append(events, partialDay(userID, start.AddDate(0, 0, 1), 9)...)
		stray := &types.AttendanceEvent{
			ID: uuid.New(), UserID: userID, Action: types.ActionCheckout,
			OccurredAt: start.AddDate(0, 0, 2).Add(17 * time.Hour), Day: start.AddDate(0, 0, 2),
		}
		events = append(events, stray)

		stats := ComputePeriodStats(events, start, start.AddDate(0, 0, 3))
		if stats.TotalDays != 4 || stats.PresentDays != 1 || stats.PartialDays != 1 || stats.UnknownDays != 1 {
			t.Fatalf("unexpected counts: %+v", stats)
		}
		if stats.AttendanceRate != 25 {
			t.Fatalf("rate=%d, want 25", stats.AttendanceRate)
		}
	})

	t.Run("events_outside_range_ignored", func(t *testing.T) {
		var events []*types.AttendanceEvent
		events = append(events, completeDay(userID, start.AddDate(0, 0, -1), 9, 17, 0)...)
		stats := ComputePeriodStats(events, start, start)
		if stats.PresentDays != 0 {
			t.Fatalf("presentDays=%d, want 0", stats.PresentDays)
		}
	})
}

func TestComputeStreaks(t *testing.T) {
	userID := uuid.New()

	t.Run("five_break_two", func(t *testing.T) {
		// 5 qualifying days, 1 non-qualifying (checkin only), 2 qualifying,
		// today is the last of the two.
		base := day(2024, 3, 11)
		var events []*types.AttendanceEvent
		for i := 0; i < 5; i++ {
			events = append(events, completeDay(userID, base.AddDate(0, 0, i), 9, 17, 0)...)
		}
		events = append(events, partialDay(userID, base.AddDate(0, 0, 5), 9)...)
		events = append(events, completeDay(userID, base.AddDate(0, 0, 6), 9, 17, 0)...)
		events = append(events, completeDay(userID, base.AddDate(0, 0, 7), 9, 17, 0)...)

		record := ComputeStreaks(events, base.AddDate(0, 0, 7))
		if record.Current != 2 {
			t.Fatalf("current=%d, want 2", record.Current)
		}
		if record.Longest != 5 {
			t.Fatalf("longest=%d, want 5", record.Longest)
		}
	})

	t.Run("no_events", func(t *testing.T) {
		record := ComputeStreaks(nil, day(2024, 3, 11))
		if record.Current != 0 || record.Longest != 0 {
			t.Fatalf("expected zero streaks, got %+v", record)
		}
		if len(record.History) != streakHistoryDays {
			t.Fatalf("history length=%d, want %d", len(record.History), streakHistoryDays)
		}
	})

	t.Run("open_today_with_no_events_does_not_break", func(t *testing.T) {
		base := day(2024, 3, 11)
		var events []*types.AttendanceEvent
		for i := 0; i < 3; i++ {
			events = append(events, completeDay(userID, base.AddDate(0, 0, i), 9, 17, 0)...)
		}
		// Today is the day after the run, with nothing recorded yet.
		record := ComputeStreaks(events, base.AddDate(0, 0, 3))
		if record.Current != 3 {
			t.Fatalf("current=%d, want 3", record.Current)
		}
	})

	t.Run("checked_in_today_is_skipped_not_broken", func(t *testing.T) {
		base := day(2024, 3, 11)
		var events []*types.AttendanceEvent
		events = append(events, completeDay(userID, base, 9, 17, 0)...)
		events = append(events, completeDay(userID, base.AddDate(0, 0, 1), 9, 17, 0)...)
		events = append(events, partialDay(userID, base.AddDate(0, 0, 2), 9)...)

		record := ComputeStreaks(events, base.AddDate(0, 0, 2))
		if record.Current != 2 {
			t.Fatalf("current=%d, want 2", record.Current)
		}
	})

	t.Run("missing_day_breaks_run", func(t *testing.T) {
		base := day(2024, 3, 11)
		var events []*types.AttendanceEvent
		events = append(events, completeDay(userID, base, 9, 17, 0)...)
		// Gap on base+1.
		events = append(events, completeDay(userID, base.AddDate(0, 0, 2), 9, 17, 0)...)

		record := ComputeStreaks(events, base.AddDate(0, 0, 2))
		if record.Current != 1 {
			t.Fatalf("current=%d, want 1", record.Current)
		}
		if record.Longest != 1 {
			t.Fatalf("longest=%d, want 1", record.Longest)
		}
	})

	t.Run("legacy_days_qualify", func(t *testing.T) {
		base := day(2024, 3, 11)
		var events []*types.AttendanceEvent
		events = append(events, legacyDay(userID, base)...)
		events = append(events, legacyDay(userID, base.AddDate(0, 0, 1))...)

		record := ComputeStreaks(events, base.AddDate(0, 0, 1))
		if record.Current != 2 || record.Longest != 2 {
			t.Fatalf("current=%d longest=%d, want 2 and 2", record.Current, record.Longest)
		}
	})

	t.Run("history_marks_trailing_window", func(t *testing.T) {
		today := day(2024, 3, 11)
		events := completeDay(userID, today, 9, 17, 0)
		record := ComputeStreaks(events, today)
		if !record.History[len(record.History)-1] {
			t.Fatal("today should be the last history entry and qualify")
		}
		if record.History[0] {
			t.Fatal("oldest history entry should not qualify")
		}
	})
}

func TestBuildTodaySummary(t *testing.T) {
	userID := uuid.New()
	d := day(2024, 3, 11)

	t.Run("not_started", func(t *testing.T) {
		summary := BuildTodaySummary(nil, d.Add(8*time.Hour), d)
		if summary.State != types.DayNotStarted {
			t.Fatalf("state=%s, want %s", summary.State, types.DayNotStarted)
		}
		if summary.DurationMinutes != nil {
			t.Fatal("duration should be undefined, not zero")
		}
	})

	t.Run("completed_day", func(t *testing.T) {
		events := completeDay(userID, d, 9, 17, 30)
		summary := BuildTodaySummary(events, d.Add(20*time.Hour), d)
		if summary.State != types.DayCompleted {
			t.Fatalf("state=%s, want %s", summary.State, types.DayCompleted)
		}
		if summary.Checkin == nil || summary.Checkout == nil {
			t.Fatal("expected checkin and checkout instants")
		}
		if summary.DurationMinutes == nil || *summary.DurationMinutes != 510 {
			t.Fatalf("duration=%v, want 510", summary.DurationMinutes)
		}
		if summary.InProgress {
			t.Fatal("completed day must not be in progress")
		}
		if summary.LastEventAt == nil || !summary.LastEventAt.Equal(*summary.Checkout) {
			t.Fatal("last event should be the checkout")
		}
	})

	t.Run("checked_in_is_provisional", func(t *testing.T) {
		events := partialDay(userID, d, 9)
		summary := BuildTodaySummary(events, d.Add(11*time.Hour), d)
		if summary.State != types.DayCheckedIn {
			t.Fatalf("state=%s, want %s", summary.State, types.DayCheckedIn)
		}
		if !summary.InProgress {
			t.Fatal("partial day should be flagged in progress")
		}
		if summary.DurationMinutes == nil || *summary.DurationMinutes != 120 {
			t.Fatalf("duration=%v, want 120", summary.DurationMinutes)
		}
	})
}
