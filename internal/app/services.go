package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/attendly-backend/internal/pkg/logger"
	"github.com/yungbote/attendly-backend/internal/services"
)

type Services struct {
	Clock      services.Clock
	NetAuth    services.NetworkAuthorizer
	Locks      services.PartitionLocker
	Attendance services.AttendanceService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos) (Services, error) {
	log.Info("Wiring services...")

	clock, err := services.NewSystemClock(cfg.Timezone)
	if err != nil {
		return Services{}, fmt.Errorf("init clock: %w", err)
	}

	allowlist, err := services.LoadAuthorizedNetworks(log)
	if err != nil {
		return Services{}, fmt.Errorf("load authorized networks: %w", err)
	}
	netauth, err := services.NewNetworkAuthorizer(log, allowlist)
	if err != nil {
		return Services{}, fmt.Errorf("init network authorizer: %w", err)
	}

	var locks services.PartitionLocker
	if cfg.RedisAddr != "" {
		locks, err = services.NewRedisLocker(log, cfg.RedisAddr, cfg.LockTTL)
		if err != nil {
			return Services{}, fmt.Errorf("init redis locker: %w", err)
		}
		log.Info("Using redis partition locks", "addr", cfg.RedisAddr)
	} else {
		locks = services.NewKeyedMutexLocker()
		log.Info("Using in-process partition locks")
	}

	attendance := services.NewAttendanceService(db, log, clock, netauth, reposet.AttendanceEvent, locks)

	return Services{
		Clock:      clock,
		NetAuth:    netauth,
		Locks:      locks,
		Attendance: attendance,
	}, nil
}
