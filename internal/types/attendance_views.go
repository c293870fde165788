package types

import "time"

// DaySessionState is the derived per-(user, day) session state. It is never
// persisted, so it cannot drift from the ledger.
type DaySessionState string

const (
	DayNotStarted   DaySessionState = "not_started"
	DayCheckedIn    DaySessionState = "checked_in"
	DayCompleted    DaySessionState = "completed"
	DayLegacyMarked DaySessionState = "legacy_marked"
)

// DayStatus classifies one day's event group for reporting.
type DayStatus string

const (
	StatusComplete      DayStatus = "complete"
	StatusPartial       DayStatus = "partial"
	StatusLegacyPresent DayStatus = "legacy_present"
	StatusUnknown       DayStatus = "unknown"
	StatusAbsent        DayStatus = "absent"
)

// PeriodStats aggregates an inclusive [start, end] day range.
// TotalWorkingMinutes sums complete days only; partial days are excluded so a
// day is not double counted once it completes.
type PeriodStats struct {
	TotalDays           int `json:"total_days"`
	PresentDays         int `json:"present_days"`
	CompleteDays        int `json:"complete_days"`
	PartialDays         int `json:"partial_days"`
	LegacyDays          int `json:"legacy_days"`
	UnknownDays         int `json:"unknown_days"`
	AttendanceRate      int `json:"attendance_rate"`
	TotalWorkingMinutes int `json:"total_working_minutes"`
}

// StreakRecord reports consecutive qualifying days. History is a trailing
// window of per-day qualification flags, oldest first, today last.
type StreakRecord struct {
	Current int    `json:"current"`
	Longest int    `json:"longest"`
	History []bool `json:"history"`
}

// TodaySummary is the convenience view for "where am I today".
// DurationMinutes is floor-truncated to the minute; when InProgress it is a
// provisional value measured against the current instant and is never
// written back to the ledger.
type TodaySummary struct {
	Day             time.Time       `json:"day"`
	State           DaySessionState `json:"state"`
	Checkin         *time.Time      `json:"checkin,omitempty"`
	Checkout        *time.Time      `json:"checkout,omitempty"`
	DurationMinutes *int            `json:"duration_minutes,omitempty"`
	InProgress      bool            `json:"in_progress"`
	LastEventAt     *time.Time      `json:"last_event_at,omitempty"`
}

// PeriodSummary is the GetSummary response: period statistics plus streaks.
type PeriodSummary struct {
	Start  time.Time    `json:"start"`
	End    time.Time    `json:"end"`
	Stats  PeriodStats  `json:"stats"`
	Streak StreakRecord `json:"streak"`
}
