package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/attendly-backend/internal/server"
)

func wireRouter(cfg Config, handlers Handlers, middleware Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AttendanceHandler: handlers.Attendance,
		AuthMiddleware:    middleware.Auth,
		CORSOrigins:       cfg.CORSOrigins,
		ServiceName:       "attendly-backend",
	})
}
