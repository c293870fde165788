package types

import "time"

// DayOf truncates t to its calendar day in loc, normalized to midnight UTC so
// day values compare and query consistently regardless of driver. The write
// path and every read path must use the same loc or a checkout near midnight
// gets attributed to the wrong day.
func DayOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayKey formats a normalized day as YYYY-MM-DD.
func DayKey(day time.Time) string {
	return day.Format("2006-01-02")
}
