package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/attendly-backend/internal/pkg/logger"
	"github.com/yungbote/attendly-backend/internal/requestdata"
	"github.com/yungbote/attendly-backend/internal/services"
	"github.com/yungbote/attendly-backend/internal/types"
)

type AttendanceHandler struct {
	log        *logger.Logger
	attendance services.AttendanceService
}

func NewAttendanceHandler(log *logger.Logger, attendance services.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{
		log:        log.With("handler", "AttendanceHandler"),
		attendance: attendance,
	}
}

type submitEventRequest struct {
	Action     string                 `json:"action" binding:"required,oneof=checkin checkout"`
	Latitude   *float64               `json:"latitude"`
	Longitude  *float64               `json:"longitude"`
	DeviceInfo map[string]interface{} `json:"device_info"`
}

// SubmitEvent handles POST /api/attendance/events. The client network
// identifier comes from the connection, not the body; the body only carries
// the action plus advisory metadata.
func (h *AttendanceHandler) SubmitEvent(c *gin.Context) {
	userID := currentUserID(c)
	if userID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHENTICATED", fmt.Errorf("no resolved user"))
		return
	}

	var req submitEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err)
		return
	}

	deviceInfo := req.DeviceInfo
	if ua := c.Request.UserAgent(); ua != "" {
		if deviceInfo == nil {
			deviceInfo = map[string]interface{}{}
		}
		if _, ok := deviceInfo["user_agent"]; !ok {
			deviceInfo["user_agent"] = ua
		}
	}

	event, err := h.attendance.SubmitEvent(c.Request.Context(), userID, services.SubmitInput{
		Action:     req.Action,
		ClientIP:   c.ClientIP(),
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		DeviceInfo: deviceInfo,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	RespondCreated(c, gin.H{
		"id":          event.ID,
		"action":      event.Action,
		"occurred_at": event.OccurredAt,
		"day":         types.DayKey(event.Day),
	})
}

// Today handles GET /api/attendance/today. No network gate: viewing one's
// own status is always allowed.
func (h *AttendanceHandler) Today(c *gin.Context) {
	userID := currentUserID(c)
	if userID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHENTICATED", fmt.Errorf("no resolved user"))
		return
	}

	summary, err := h.attendance.GetTodayStatus(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, summary)
}

// Summary handles GET /api/attendance/summary. Accepts an explicit
// start/end pair, or month=YYYY-MM, or week=YYYY-MM-DD (any day in the week).
func (h *AttendanceHandler) Summary(c *gin.Context) {
	userID := currentUserID(c)
	if userID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHENTICATED", fmt.Errorf("no resolved user"))
		return
	}

	start, end, err := parseSummaryRange(c.Query("start"), c.Query("end"), c.Query("month"), c.Query("week"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err)
		return
	}

	summary, err := h.attendance.GetSummary(c.Request.Context(), userID, start, end)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, summary)
}

func currentUserID(c *gin.Context) uuid.UUID {
	if rd := requestdata.GetRequestData(c.Request.Context()); rd != nil {
		return rd.UserID
	}
	return uuid.Nil
}

// parseSummaryRange expands the three accepted range shapes into an
// inclusive [start, end] day pair, normalized to midnight UTC.
func parseSummaryRange(start, end, month, week string) (time.Time, time.Time, error) {
	switch {
	case month != "":
		first, err := time.Parse("2006-01", month)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid month %q, want YYYY-MM", month)
		}
		last := first.AddDate(0, 1, -1)
		return first, last, nil
	case week != "":
		day, err := time.Parse("2006-01-02", week)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid week day %q, want YYYY-MM-DD", week)
		}
		// Monday-based week containing the given day.
		offset := (int(day.Weekday()) + 6) % 7
		monday := day.AddDate(0, 0, -offset)
		return monday, monday.AddDate(0, 0, 6), nil
	case start != "" && end != "":
		s, err := time.Parse("2006-01-02", start)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start day %q, want YYYY-MM-DD", start)
		}
		e, err := time.Parse("2006-01-02", end)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end day %q, want YYYY-MM-DD", end)
		}
		return s, e, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("summary requires start+end, month, or week")
	}
}
