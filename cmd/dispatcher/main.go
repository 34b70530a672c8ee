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
	"github.com/aibekov/webcron/internal/alert"
	"github.com/aibekov/webcron/internal/domain"
	"github.com/aibekov/webcron/internal/health"
	"github.com/aibekov/webcron/internal/infrastructure/postgres"
	ctxlog "github.com/aibekov/webcron/internal/log"
	"github.com/aibekov/webcron/internal/metrics"
	"github.com/aibekov/webcron/internal/scheduler"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	logger.Info("db connected")

	metrics.Register()
	checker := health.NewChecker(pool, logger, prometheus.DefaultRegisterer)

	scheduleRepo := postgres.NewScheduleRepository(pool, logger)
	runRepo := postgres.NewRunRepository(pool)

	executor := scheduler.NewExecutor(logger)
	executor.AddListener(func(_ context.Context, run *domain.Run) {
		kind := ""
		if run.ErrorKind != nil {
			kind = string(*run.ErrorKind)
		}
		metrics.ObserveRun(string(run.Status), kind, float64(run.LatencyMS)/1000)
	})

	if cfg.AlertEmail != "" {
		sender := alert.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger)
		notifier := alert.NewNotifier(sender, cfg.AlertEmail, logger)
		executor.AddListener(notifier.OnRunComplete)
		logger.Info("failure alerts enabled", "to", cfg.AlertEmail)
	}

	resolver := scheduler.NewResolver(runRepo)
	loop := scheduler.NewLoop(
		scheduleRepo,
		executor,
		resolver,
		scheduler.SystemClock(),
		logger,
		time.Duration(cfg.PollIntervalSec)*time.Second,
	)
	go loop.Start(ctx)

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)
	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}

	logger.Info("dispatcher shut down")
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
