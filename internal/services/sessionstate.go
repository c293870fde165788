package services

import (
	"fmt"

	"github.com/yungbote/attendly-backend/internal/pkg/apierr"
	"github.com/yungbote/attendly-backend/internal/types"
)

// The day session state machine is linear: not_started -> checked_in ->
// completed, with legacy_marked as a parallel terminal state reachable only
// through legacy import. Pure functions over one day's event group; no I/O.

// DeriveDayState computes the session state for a single (user, day) event
// group. It tolerates malformed groups (e.g. a stray checkout) by reporting
// the closest sane state rather than failing.
func DeriveDayState(events []*types.AttendanceEvent) types.DaySessionState {
	var hasCheckin, hasCheckout, hasLegacy bool
	for _, ev := range events {
		switch ev.Action {
		case types.ActionCheckin:
			hasCheckin = true
		case types.ActionCheckout:
			hasCheckout = true
		case types.ActionLegacyPresent:
			hasLegacy = true
		}
	}

	switch {
	case hasLegacy && !hasCheckin && !hasCheckout:
		return types.DayLegacyMarked
	case hasCheckin && hasCheckout:
		return types.DayCompleted
	case hasCheckin:
		return types.DayCheckedIn
	default:
		return types.DayNotStarted
	}
}

// ValidateTransition checks whether the requested action is legal against the
// day's existing events and returns the state that would result. The only
// legal transitions are not_started -> checked_in (action checkin) and
// checked_in -> completed (action checkout).
func ValidateTransition(events []*types.AttendanceEvent, action string) (types.DaySessionState, *apierr.Error) {
	current := DeriveDayState(events)

	switch action {
	case types.ActionCheckin:
		if current == types.DayNotStarted {
			return types.DayCheckedIn, nil
		}
		return current, apierr.InvalidTransition(
			fmt.Errorf("cannot check in: day is %s", current))
	case types.ActionCheckout:
		if current == types.DayCheckedIn {
			return types.DayCompleted, nil
		}
		return current, apierr.InvalidTransition(
			fmt.Errorf("cannot check out: day is %s", current))
	default:
		return current, apierr.Validation(
			fmt.Errorf("unknown attendance action %q", action))
	}
}
