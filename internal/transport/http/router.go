package httptransport

import (
	"log/slog"

	"github.com/aibekov/webcron/internal/transport/http/handler"
	"github.com/aibekov/webcron/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"

	sloggin "github.com/samber/slog-gin"
)

func NewRouter(
	logger *slog.Logger,
	authHandler *handler.AuthHandler,
	targetHandler *handler.TargetHandler,
	scheduleHandler *handler.ScheduleHandler,
	runHandler *handler.RunHandler,
	jwtKey []byte,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	// Token exchange is the only unauthenticated route.
	r.POST("/auth/token", authHandler.IssueToken)

	authMW := middleware.Auth(jwtKey)

	targets := r.Group("/targets", authMW)
	targets.POST("", targetHandler.Create)
	targets.GET("", targetHandler.List)
	targets.GET("/:id", targetHandler.GetByID)
	targets.DELETE("/:id", targetHandler.Delete)

	schedules := r.Group("/schedules", authMW)
	schedules.POST("", scheduleHandler.Create)
	schedules.GET("", scheduleHandler.List)
	schedules.GET("/:id", scheduleHandler.GetByID)
	schedules.POST("/:id/pause", scheduleHandler.Pause)
	schedules.POST("/:id/resume", scheduleHandler.Resume)
	schedules.POST("/:id/run", scheduleHandler.RunNow)
	schedules.GET("/:id/next_run", scheduleHandler.NextRun)
	schedules.GET("/:id/runs", scheduleHandler.ListRuns)
	schedules.DELETE("/:id", scheduleHandler.Delete)

	runs := r.Group("/runs", authMW)
	runs.GET("", runHandler.List)
	runs.GET("/:id", runHandler.GetByID)

	r.GET("/stats", authMW, runHandler.Stats)

	return r
}
