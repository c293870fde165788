package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/attendly-backend/internal/handlers"
	"github.com/yungbote/attendly-backend/internal/middleware"
)

type RouterConfig struct {
	AttendanceHandler *handlers.AttendanceHandler
	AuthMiddleware    *middleware.AuthMiddleware
	CORSOrigins       []string
	ServiceName       string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	{
		api.POST("/attendance/events", cfg.AttendanceHandler.SubmitEvent)
		api.GET("/attendance/today", cfg.AttendanceHandler.Today)
		api.GET("/attendance/summary", cfg.AttendanceHandler.Summary)
	}

	return router
}
