package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Attendance event actions. legacy_present marks a pre-migration "was
// present" record with no paired checkout; it is never accepted on the
// submit path.
const (
	ActionCheckin       = "checkin"
	ActionCheckout      = "checkout"
	ActionLegacyPresent = "legacy_present"
)

// AttendanceEvent is one append-only ledger row. Rows are never updated or
// deleted; every derived view is recomputed from them per query.
//
// The composite unique index allows at most one row per (user, day, action),
// which is what makes a concurrent duplicate submit lose at the store even if
// it slips past the state machine.
type AttendanceEvent struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:idx_attendance_events_user_day_action" json:"user_id"`
	Action     string         `gorm:"type:varchar(16);not null;uniqueIndex:idx_attendance_events_user_day_action" json:"action"`
	OccurredAt time.Time      `gorm:"type:timestamptz;not null;index" json:"occurred_at"`
	Day        time.Time      `gorm:"type:date;not null;uniqueIndex:idx_attendance_events_user_day_action" json:"day"`
	ClientIP   string         `gorm:"type:varchar(64)" json:"client_ip,omitempty"`
	Latitude   *float64       `json:"latitude,omitempty"`
	Longitude  *float64       `json:"longitude,omitempty"`
	DeviceInfo datatypes.JSON `json:"device_info,omitempty"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (AttendanceEvent) TableName() string { return "attendance_events" }
