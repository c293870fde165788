package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/yungbote/attendly-backend/internal/pkg/logger"
	"github.com/yungbote/attendly-backend/internal/types"
)

// ErrDuplicateEvent reports that an event for the same (user, day, action)
// already exists. The unique index is the final arbiter under concurrency.
var ErrDuplicateEvent = errors.New("attendance event already recorded for this day")

// AttendanceEventRepo is the append-only attendance ledger. There are no
// update or delete methods; derived state is always recomputed from rows.
type AttendanceEventRepo interface {
	Append(ctx context.Context, tx *gorm.DB, event *types.AttendanceEvent) (*types.AttendanceEvent, error)
	QueryRange(ctx context.Context, tx *gorm.DB, userID uuid.UUID, startDay, endDay time.Time) ([]*types.AttendanceEvent, error)
	QueryDay(ctx context.Context, tx *gorm.DB, userID uuid.UUID, day time.Time) ([]*types.AttendanceEvent, error)
	ImportLegacyMark(ctx context.Context, tx *gorm.DB, userID uuid.UUID, day time.Time) (*types.AttendanceEvent, error)
}

type attendanceEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAttendanceEventRepo(db *gorm.DB, baseLog *logger.Logger) AttendanceEventRepo {
	repoLog := baseLog.With("repo", "AttendanceEventRepo")
	return &attendanceEventRepo{db: db, log: repoLog}
}

func (r *attendanceEventRepo) Append(ctx context.Context, tx *gorm.DB, event *types.AttendanceEvent) (*types.AttendanceEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if event == nil {
		return nil, errors.New("nil event")
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if event.Day.IsZero() {
		event.Day = types.DayOf(event.OccurredAt, event.OccurredAt.Location())
	}

	if err := transaction.WithContext(ctx).Create(event).Error; err != nil {
		if isDuplicateKey(err) {
			r.log.Warn("Duplicate attendance event rejected by unique index",
				"user_id", event.UserID, "day", types.DayKey(event.Day), "action", event.Action)
			return nil, ErrDuplicateEvent
		}
		return nil, err
	}
	return event, nil
}

func (r *attendanceEventRepo) QueryRange(ctx context.Context, tx *gorm.DB, userID uuid.UUID, startDay, endDay time.Time) ([]*types.AttendanceEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.AttendanceEvent
	if userID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND day >= ? AND day <= ?", userID, startDay, endDay).
		Order("occurred_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *attendanceEventRepo) QueryDay(ctx context.Context, tx *gorm.DB, userID uuid.UUID, day time.Time) ([]*types.AttendanceEvent, error) {
	return r.QueryRange(ctx, tx, userID, day, day)
}

// ImportLegacyMark records a pre-migration "present" mark for a day. This is
// the only way a legacy_present row enters the ledger; the submit path never
// accepts the action.
func (r *attendanceEventRepo) ImportLegacyMark(ctx context.Context, tx *gorm.DB, userID uuid.UUID, day time.Time) (*types.AttendanceEvent, error) {
	event := &types.AttendanceEvent{
		ID:         uuid.New(),
		UserID:     userID,
		Action:     types.ActionLegacyPresent,
		OccurredAt: day,
		Day:        day,
	}
	return r.Append(ctx, tx, event)
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}
