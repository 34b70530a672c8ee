package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/aibekov/webcron/internal/domain"
	"github.com/aibekov/webcron/internal/metrics"
	"github.com/aibekov/webcron/internal/repository"
)

// Loop polls for due schedules at a fixed cadence and processes them
// strictly sequentially. It is the sole writer of next_run_at and of the
// ACTIVE→COMPLETED transition; exactly one instance may run against a
// store at a time. Sequential processing means a slow target delays the
// rest of the batch by at most its own timeout, and a schedule is never
// dispatched twice concurrently.
type Loop struct {
	schedules    repository.ScheduleRepository
	executor     *Executor
	resolver     *Resolver
	clock        Clock
	logger       *slog.Logger
	pollInterval time.Duration
}

func NewLoop(
	schedules repository.ScheduleRepository,
	executor *Executor,
	resolver *Resolver,
	clock Clock,
	logger *slog.Logger,
	pollInterval time.Duration,
) *Loop {
	return &Loop{
		schedules:    schedules,
		executor:     executor,
		resolver:     resolver,
		clock:        clock,
		logger:       logger.With("component", "dispatch_loop"),
		pollInterval: pollInterval,
	}
}

// Start blocks until ctx is cancelled. Every tick is wrapped in its own
// catch-all: no processing error ever exits the loop.
func (l *Loop) Start(ctx context.Context) {
	metrics.DispatcherStartTime.SetToCurrentTime()

	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	l.logger.Info("dispatch loop started", "poll_interval", l.pollInterval)

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("dispatch loop shut down")
			return
		case <-ticker.C:
			l.tick(ctx)
		}
	}
}

// tick runs one dispatch iteration. The reference time is snapshotted
// once and reused for the due query and every next-run calculation in
// the batch.
func (l *Loop) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("dispatch tick panicked", "panic", r)
		}
	}()

	metrics.DispatchTicksTotal.Inc()
	now := l.clock.Now().UTC()

	due, err := l.schedules.ListDue(ctx, now)
	if err != nil {
		l.logger.Error("list due schedules", "error", err)
		return
	}
	metrics.DueSchedules.Set(float64(len(due)))
	if len(due) == 0 {
		return
	}

	l.logger.Info("dispatching due schedules", "count", len(due))
	for _, s := range due {
		l.process(ctx, s, now)
	}
}

func (l *Loop) process(ctx context.Context, s *domain.Schedule, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("schedule processing panicked", "schedule_id", s.ID, "panic", r)
		}
	}()

	run := l.executor.Execute(ctx, s)

	next, again, err := l.resolver.NextRun(ctx, s, now)
	if err != nil {
		// Transient store failure while deciding the next fire. Record the
		// run but leave next_run_at where it is: the schedule stays due and
		// is retried on a later tick.
		l.logger.Error("compute next run", "schedule_id", s.ID, "error", err)
		keep := s.NextRunAt
		if recErr := l.schedules.RecordTick(ctx, run, &keep); recErr != nil {
			l.logger.Error("record run", "schedule_id", s.ID, "error", recErr)
		}
		return
	}

	var nextPtr *time.Time
	if again {
		nextPtr = &next
	}
	if err := l.schedules.RecordTick(ctx, run, nextPtr); err != nil {
		l.logger.Error("record run", "schedule_id", s.ID, "error", err)
		return
	}

	if !again {
		metrics.SchedulesCompletedTotal.Inc()
		l.logger.Info("schedule completed", "schedule_id", s.ID, "type", s.Type)
		return
	}
	l.logger.Info("schedule dispatched",
		"schedule_id", s.ID,
		"outcome", run.Status,
		"status_code", run.StatusCode,
		"latency_ms", run.LatencyMS,
		"next_run_at", next,
	)
}
