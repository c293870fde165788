package app

import (
	"github.com/yungbote/attendly-backend/internal/handlers"
	"github.com/yungbote/attendly-backend/internal/pkg/logger"
)

type Handlers struct {
	Attendance *handlers.AttendanceHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Attendance: handlers.NewAttendanceHandler(log, services.Attendance),
	}
}
