package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/attendly-backend/internal/pkg/logger"
	"github.com/yungbote/attendly-backend/internal/repos"
)

type Repos struct {
	AttendanceEvent repos.AttendanceEventRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		AttendanceEvent: repos.NewAttendanceEventRepo(db, log),
	}
}
