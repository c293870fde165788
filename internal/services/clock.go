package services

import "time"

// Clock supplies "now" and the operating timezone. Injected everywhere the
// engine needs the current instant or today's date, so day-boundary behavior
// is deterministic under test. Server time is authoritative; client-submitted
// timestamps are audit metadata only.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

type systemClock struct {
	loc *time.Location
}

// NewSystemClock builds a Clock in the named IANA timezone ("" means UTC).
func NewSystemClock(tzName string) (Clock, error) {
	if tzName == "" {
		return systemClock{loc: time.UTC}, nil
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, err
	}
	return systemClock{loc: loc}, nil
}

func (c systemClock) Now() time.Time           { return time.Now().In(c.loc) }
func (c systemClock) Location() *time.Location { return c.loc }

// fixedClock is the test double: a frozen instant in a fixed location.
type fixedClock struct {
	now time.Time
	loc *time.Location
}

func NewFixedClock(now time.Time, loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return fixedClock{now: now.In(loc), loc: loc}
}

func (c fixedClock) Now() time.Time           { return c.now }
func (c fixedClock) Location() *time.Location { return c.loc }
