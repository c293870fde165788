package app

import (
	"strings"
	"time"

	"github.com/yungbote/attendly-backend/internal/pkg/logger"
	"github.com/yungbote/attendly-backend/internal/utils"
)

type Config struct {
	Environment  string
	Port         string
	JWTSecretKey string
	Timezone     string
	CORSOrigins  []string
	RedisAddr    string
	LockTTL      time.Duration
}

func LoadConfig(log *logger.Logger) Config {
	origins := strings.Split(utils.GetEnv("CORS_ORIGINS", "http://localhost:3000", log), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	lockTTLSeconds := utils.GetEnvAsInt("PARTITION_LOCK_TTL", 10, log)
	return Config{
		Environment:  utils.GetEnv("ENVIRONMENT", "development", log),
		Port:         utils.GetEnv("PORT", "8080", log),
		JWTSecretKey: utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log),
		Timezone:     utils.GetEnv("ATTENDANCE_TIMEZONE", "UTC", log),
		CORSOrigins:  origins,
		RedisAddr:    utils.GetEnv("REDIS_ADDR", "", log),
		LockTTL:      time.Duration(lockTTLSeconds) * time.Second,
	}
}
