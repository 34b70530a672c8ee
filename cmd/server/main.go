package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aibekov/webcron/config"
	"github.com/aibekov/webcron/internal/health"
	"github.com/aibekov/webcron/internal/infrastructure/postgres"
	ctxlog "github.com/aibekov/webcron/internal/log"
	"github.com/aibekov/webcron/internal/metrics"
	"github.com/aibekov/webcron/internal/scheduler"
	httptransport "github.com/aibekov/webcron/internal/transport/http"
	"github.com/aibekov/webcron/internal/transport/http/handler"
	"github.com/aibekov/webcron/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	targetRepo := postgres.NewTargetRepository(pool)
	scheduleRepo := postgres.NewScheduleRepository(pool, logger)
	runRepo := postgres.NewRunRepository(pool)

	// The API shares the dispatcher's executor and resolver for the
	// run-now and next-run preview endpoints.
	executor := scheduler.NewExecutor(logger)
	resolver := scheduler.NewResolver(runRepo)

	targetUsecase := usecase.NewTargetUsecase(targetRepo)
	scheduleUsecase := usecase.NewScheduleUsecase(scheduleRepo, runRepo, executor, resolver)
	runUsecase := usecase.NewRunUsecase(runRepo)
	authUsecase := usecase.NewAuthUsecase([]byte(cfg.APIKey), []byte(cfg.JWTSecret))

	authHandler := handler.NewAuthHandler(authUsecase, logger)
	targetHandler := handler.NewTargetHandler(targetUsecase, logger)
	scheduleHandler := handler.NewScheduleHandler(scheduleUsecase, runUsecase, logger)
	runHandler := handler.NewRunHandler(runUsecase, logger)

	metrics.Register()
	checker := health.NewChecker(pool, logger, prometheus.DefaultRegisterer)

	srv := http.Server{
		Addr: ":" + cfg.Port,
		Handler: httptransport.NewRouter(
			logger,
			authHandler,
			targetHandler,
			scheduleHandler,
			runHandler,
			[]byte(cfg.JWTSecret),
		),
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
