package scheduler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aibekov/webcron/internal/domain"
	"github.com/aibekov/webcron/internal/scheduler"
)

type fakeRunCounter struct {
	count func(ctx context.Context, scheduleID string) (int, error)
}

func (f *fakeRunCounter) CountBySchedule(ctx context.Context, scheduleID string) (int, error) {
	return f.count(ctx, scheduleID)
}

func staticCount(n int) *fakeRunCounter {
	return &fakeRunCounter{count: func(context.Context, string) (int, error) { return n, nil }}
}

var refTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func intervalSchedule(cfg domain.ScheduleConfig) *domain.Schedule {
	return &domain.Schedule{ID: "sched-1", Type: domain.ScheduleInterval, Config: cfg}
}

func windowSchedule(cfg domain.ScheduleConfig) *domain.Schedule {
	return &domain.Schedule{ID: "sched-1", Type: domain.ScheduleWindow, Config: cfg}
}

func TestNextRun_IntervalDefault(t *testing.T) {
	r := scheduler.NewResolver(staticCount(0))

	next, again, err := r.NextRun(context.Background(), intervalSchedule(domain.ScheduleConfig{}), refTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !again {
		t.Fatal("interval schedule must never terminate")
	}
	if want := refTime.Add(60 * time.Second); !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
}

func TestNextRun_IntervalCustomSeconds(t *testing.T) {
	r := scheduler.NewResolver(staticCount(0))
	// float64 mirrors a JSON round trip through the store.
	s := intervalSchedule(domain.ScheduleConfig{"interval_seconds": float64(300)})

	next, again, _ := r.NextRun(context.Background(), s, refTime)
	if !again {
		t.Fatal("interval schedule must never terminate")
	}
	if want := refTime.Add(5 * time.Minute); !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
}

func TestNextRun_IntervalIgnoresRunHistory(t *testing.T) {
	counter := &fakeRunCounter{count: func(context.Context, string) (int, error) {
		t.Fatal("interval calculator must not consult the run count")
		return 0, nil
	}}
	r := scheduler.NewResolver(counter)

	if _, again, _ := r.NextRun(context.Background(), intervalSchedule(domain.ScheduleConfig{}), refTime); !again {
		t.Fatal("interval schedule must never terminate")
	}
}

func TestNextRun_WindowWithinBounds(t *testing.T) {
	r := scheduler.NewResolver(staticCount(1))
	s := windowSchedule(domain.ScheduleConfig{
		"end_time":         refTime.Add(time.Hour).Format(time.RFC3339),
		"interval_seconds": float64(60),
		"max_runs":         float64(10),
	})

	next, again, err := r.NextRun(context.Background(), s, refTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !again {
		t.Fatal("expected another run")
	}
	if want := refTime.Add(time.Minute); !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
}

func TestNextRun_WindowMaxRunsReached(t *testing.T) {
	// Terminates on the run cap even though the candidate would still
	// fall inside the window.
	r := scheduler.NewResolver(staticCount(3))
	s := windowSchedule(domain.ScheduleConfig{
		"end_time": refTime.Add(time.Hour).Format(time.RFC3339),
		"max_runs": float64(3),
	})

	_, again, err := r.NextRun(context.Background(), s, refTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again {
		t.Fatal("expected termination at max_runs")
	}
}

func TestNextRun_WindowPastEnd(t *testing.T) {
	// end_time = ref+30s with a 60s interval: the candidate overshoots
	// the window even though max_runs is far from reached.
	r := scheduler.NewResolver(staticCount(0))
	s := windowSchedule(domain.ScheduleConfig{
		"end_time":         refTime.Add(30 * time.Second).Format(time.RFC3339),
		"interval_seconds": float64(60),
		"max_runs":         float64(100),
	})

	_, again, err := r.NextRun(context.Background(), s, refTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again {
		t.Fatal("expected termination past end_time")
	}
}

func TestNextRun_WindowEndTimeInOtherZone(t *testing.T) {
	// end_time carrying a +05:00 offset still compares correctly after
	// normalization.
	zone := time.FixedZone("UTC+5", 5*3600)
	r := scheduler.NewResolver(staticCount(0))
	s := windowSchedule(domain.ScheduleConfig{
		"end_time":         refTime.Add(time.Hour).In(zone).Format(time.RFC3339),
		"interval_seconds": float64(60),
	})

	next, again, _ := r.NextRun(context.Background(), s, refTime)
	if !again {
		t.Fatal("expected another run")
	}
	if want := refTime.Add(time.Minute); !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
}

func TestNextRun_WindowCountError(t *testing.T) {
	storeErr := errors.New("store unavailable")
	counter := &fakeRunCounter{count: func(context.Context, string) (int, error) { return 0, storeErr }}
	r := scheduler.NewResolver(counter)
	s := windowSchedule(domain.ScheduleConfig{
		"end_time": refTime.Add(time.Hour).Format(time.RFC3339),
		"max_runs": float64(3),
	})

	_, _, err := r.NextRun(context.Background(), s, refTime)
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error to surface, got %v", err)
	}
}

func TestNextRun_WindowMissingEndTimeTerminates(t *testing.T) {
	r := scheduler.NewResolver(staticCount(0))
	s := windowSchedule(domain.ScheduleConfig{"interval_seconds": float64(60)})

	_, again, err := r.NextRun(context.Background(), s, refTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again {
		t.Fatal("window without end_time must stop firing")
	}
}

func TestNextRun_Cron(t *testing.T) {
	r := scheduler.NewResolver(staticCount(0))
	s := &domain.Schedule{
		ID:     "sched-1",
		Type:   domain.ScheduleCron,
		Config: domain.ScheduleConfig{"cron_expr": "*/15 * * * *"},
	}

	next, again, err := r.NextRun(context.Background(), s, refTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !again {
		t.Fatal("cron schedule must never terminate")
	}
	if want := refTime.Add(15 * time.Minute); !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
}

func TestNextRun_CronInvalidExprTerminates(t *testing.T) {
	r := scheduler.NewResolver(staticCount(0))
	s := &domain.Schedule{
		ID:     "sched-1",
		Type:   domain.ScheduleCron,
		Config: domain.ScheduleConfig{"cron_expr": "not a cron"},
	}

	_, again, err := r.NextRun(context.Background(), s, refTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again {
		t.Fatal("invalid cron expression must stop firing")
	}
}

func TestNextRun_UnknownTypeTerminates(t *testing.T) {
	r := scheduler.NewResolver(staticCount(0))
	s := &domain.Schedule{ID: "sched-1", Type: "MOON_PHASE", Config: domain.ScheduleConfig{}}

	_, again, err := r.NextRun(context.Background(), s, refTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again {
		t.Fatal("unknown schedule types must fail closed")
	}
}

func TestNextRun_Idempotent(t *testing.T) {
	r := scheduler.NewResolver(staticCount(2))
	s := windowSchedule(domain.ScheduleConfig{
		"end_time":         refTime.Add(time.Hour).Format(time.RFC3339),
		"interval_seconds": float64(120),
		"max_runs":         float64(5),
	})

	first, againA, _ := r.NextRun(context.Background(), s, refTime)
	second, againB, _ := r.NextRun(context.Background(), s, refTime)
	if againA != againB || !first.Equal(second) {
		t.Fatalf("calculator is not idempotent: (%v,%v) vs (%v,%v)", first, againA, second, againB)
	}
}
