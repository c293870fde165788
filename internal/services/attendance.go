package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/attendly-backend/internal/pkg/apierr"
	"github.com/yungbote/attendly-backend/internal/pkg/logger"
	"github.com/yungbote/attendly-backend/internal/repos"
	"github.com/yungbote/attendly-backend/internal/types"
)

// SubmitInput carries one check-in or check-out attempt. Latitude/longitude
// and device info are advisory audit metadata; neither influences
// authorization.
type SubmitInput struct {
	Action     string
	ClientIP   string
	Latitude   *float64
	Longitude  *float64
	DeviceInfo map[string]interface{}
}

// AttendanceService is the facade the HTTP layer (and migration tooling)
// calls. Reads are never gated on network authorization; only SubmitEvent is.
type AttendanceService interface {
	SubmitEvent(ctx context.Context, userID uuid.UUID, in SubmitInput) (*types.AttendanceEvent, error)
	GetTodayStatus(ctx context.Context, userID uuid.UUID) (*types.TodaySummary, error)
	GetSummary(ctx context.Context, userID uuid.UUID, startDay, endDay time.Time) (*types.PeriodSummary, error)
	ImportLegacyMark(ctx context.Context, userID uuid.UUID, day time.Time) (*types.AttendanceEvent, error)
}

type attendanceService struct {
	db      *gorm.DB
	log     *logger.Logger
	clock   Clock
	netauth NetworkAuthorizer
	events  repos.AttendanceEventRepo
	locks   PartitionLocker
	sf      singleflight.Group
}

func NewAttendanceService(db *gorm.DB, baseLog *logger.Logger, clock Clock, netauth NetworkAuthorizer, events repos.AttendanceEventRepo, locks PartitionLocker) AttendanceService {
	serviceLog := baseLog.With("service", "AttendanceService")
	return &attendanceService{
		db:      db,
		log:     serviceLog,
		clock:   clock,
		netauth: netauth,
		events:  events,
		locks:   locks,
	}
}

// SubmitEvent gates on the network authorizer first (fail closed: an
// unauthorized attempt never reaches the ledger), then validates the
// transition under the partition lock, then appends.
func (s *attendanceService) SubmitEvent(ctx context.Context, userID uuid.UUID, in SubmitInput) (*types.AttendanceEvent, error) {
	if userID == uuid.Nil {
		return nil, apierr.Validation(fmt.Errorf("missing user id"))
	}
	if in.Action != types.ActionCheckin && in.Action != types.ActionCheckout {
		return nil, apierr.Validation(fmt.Errorf("unsupported attendance action %q", in.Action))
	}

	authorized, err := s.netauth.IsAuthorized(in.ClientIP)
	if err != nil {
		return nil, err
	}
	if !authorized {
		s.log.Info("Submit rejected from unauthorized network", "user_id", userID, "client_ip", in.ClientIP)
		return nil, apierr.UnauthorizedNetwork(fmt.Errorf("network %q is not authorized for attendance", in.ClientIP))
	}

	now := s.clock.Now()
	day := types.DayOf(now, s.clock.Location())

	release, err := s.locks.Acquire(ctx, partitionKey(userID, day))
	if err != nil {
		return nil, apierr.StorageUnavailable(fmt.Errorf("acquire partition lock: %w", err))
	}
	defer release()

	event := &types.AttendanceEvent{
		ID:         uuid.New(),
		UserID:     userID,
		Action:     in.Action,
		OccurredAt: now,
		Day:        day,
		ClientIP:   in.ClientIP,
		Latitude:   in.Latitude,
		Longitude:  in.Longitude,
	}
	if len(in.DeviceInfo) > 0 {
		raw, merr := json.Marshal(in.DeviceInfo)
		if merr != nil {
			return nil, apierr.Validation(fmt.Errorf("device info not serializable: %w", merr))
		}
		event.DeviceInfo = datatypes.JSON(raw)
	}

	var stored *types.AttendanceEvent
	txErr := transact(ctx, s.db, func(tx *gorm.DB) error {
		dayEvents, err := s.events.QueryDay(ctx, tx, userID, day)
		if err != nil {
			return apierr.StorageUnavailable(fmt.Errorf("query today's events: %w", err))
		}
		if _, terr := ValidateTransition(dayEvents, in.Action); terr != nil {
			s.log.Debug("Submit rejected by state machine", "user_id", userID, "action", in.Action, "error", terr)
			return terr
		}

		stored, err = s.events.Append(ctx, tx, event)
		if err != nil {
			if err == repos.ErrDuplicateEvent {
				// The transition check passed but a concurrent submit won
				// the index race. Same caller outcome as InvalidTransition,
				// logged apart so races stay diagnosable.
				s.log.Warn("Duplicate submit lost the append race", "user_id", userID, "action", in.Action, "day", types.DayKey(day))
				return apierr.DuplicateAction(fmt.Errorf("attendance %s already recorded today", in.Action))
			}
			return apierr.StorageUnavailable(fmt.Errorf("append attendance event: %w", err))
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.log.Info("Attendance event recorded", "user_id", userID, "action", stored.Action, "day", types.DayKey(stored.Day))
	return stored, nil
}

func (s *attendanceService) GetTodayStatus(ctx context.Context, userID uuid.UUID) (*types.TodaySummary, error) {
	if userID == uuid.Nil {
		return nil, apierr.Validation(fmt.Errorf("missing user id"))
	}

	now := s.clock.Now()
	day := types.DayOf(now, s.clock.Location())

	dayEvents, err := s.events.QueryDay(ctx, nil, userID, day)
	if err != nil {
		return nil, apierr.StorageUnavailable(fmt.Errorf("query today's events: %w", err))
	}
	return BuildTodaySummary(dayEvents, now, day), nil
}

// ledgerEpoch bounds the "entire available history" scan for streaks.
var ledgerEpoch = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

func (s *attendanceService) GetSummary(ctx context.Context, userID uuid.UUID, startDay, endDay time.Time) (*types.PeriodSummary, error) {
	if userID == uuid.Nil {
		return nil, apierr.Validation(fmt.Errorf("missing user id"))
	}
	if startDay.IsZero() || endDay.IsZero() {
		return nil, apierr.Validation(fmt.Errorf("summary range requires both start and end days"))
	}
	if endDay.Before(startDay) {
		return nil, apierr.Validation(fmt.Errorf("summary range end precedes start"))
	}

	// Reads are pure over the ledger, so concurrent identical queries can
	// share one computation.
	key := fmt.Sprintf("summary:%s:%s:%s", userID, types.DayKey(startDay), types.DayKey(endDay))
	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		today := types.DayOf(s.clock.Now(), s.clock.Location())

		// Streaks scan the full history: longest needs every qualifying
		// run, and the current streak walks back from today regardless of
		// the requested range.
		history, err := s.events.QueryRange(ctx, nil, userID, ledgerEpoch, maxDay(endDay, today))
		if err != nil {
			return nil, apierr.StorageUnavailable(fmt.Errorf("query attendance history: %w", err))
		}

		var inRange []*types.AttendanceEvent
		for _, ev := range history {
			if !ev.Day.Before(startDay) && !ev.Day.After(endDay) {
				inRange = append(inRange, ev)
			}
		}

		return &types.PeriodSummary{
			Start:  startDay,
			End:    endDay,
			Stats:  ComputePeriodStats(inRange, startDay, endDay),
			Streak: ComputeStreaks(history, today),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*types.PeriodSummary), nil
}

// ImportLegacyMark records a pre-migration "present" day. It bypasses the
// network gate (the mark predates the two-action model) but still takes the
// partition lock and refuses to mix with checkin/checkout rows on the same
// day.
func (s *attendanceService) ImportLegacyMark(ctx context.Context, userID uuid.UUID, day time.Time) (*types.AttendanceEvent, error) {
	if userID == uuid.Nil {
		return nil, apierr.Validation(fmt.Errorf("missing user id"))
	}
	if day.IsZero() {
		return nil, apierr.Validation(fmt.Errorf("missing day"))
	}
	day = types.DayOf(day, s.clock.Location())

	release, err := s.locks.Acquire(ctx, partitionKey(userID, day))
	if err != nil {
		return nil, apierr.StorageUnavailable(fmt.Errorf("acquire partition lock: %w", err))
	}
	defer release()

	var stored *types.AttendanceEvent
	txErr := transact(ctx, s.db, func(tx *gorm.DB) error {
		dayEvents, err := s.events.QueryDay(ctx, tx, userID, day)
		if err != nil {
			return apierr.StorageUnavailable(fmt.Errorf("query day's events: %w", err))
		}
		if len(dayEvents) > 0 {
			return apierr.InvalidTransition(fmt.Errorf("day %s already has attendance events", types.DayKey(day)))
		}

		stored, err = s.events.ImportLegacyMark(ctx, tx, userID, day)
		if err != nil {
			if err == repos.ErrDuplicateEvent {
				return apierr.DuplicateAction(fmt.Errorf("legacy mark already recorded for %s", types.DayKey(day)))
			}
			return apierr.StorageUnavailable(fmt.Errorf("import legacy mark: %w", err))
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return stored, nil
}

// transact runs fn inside a DB transaction when a DB is wired; tests that
// inject an in-memory repo run without one.
func transact(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

func partitionKey(userID uuid.UUID, day time.Time) string {
	return userID.String() + ":" + types.DayKey(day)
}

func maxDay(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
