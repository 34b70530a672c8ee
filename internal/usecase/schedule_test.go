package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aibekov/webcron/internal/domain"
	"github.com/aibekov/webcron/internal/repository"
	"github.com/aibekov/webcron/internal/usecase"
)

// ---- fakes ----

type fakeScheduleRepo struct {
	create    func(ctx context.Context, s *domain.Schedule) (*domain.Schedule, error)
	getByID   func(ctx context.Context, id string) (*domain.Schedule, error)
	setStatus func(ctx context.Context, id string, from, to domain.ScheduleStatus) error
}

func (f *fakeScheduleRepo) Create(ctx context.Context, s *domain.Schedule) (*domain.Schedule, error) {
	return f.create(ctx, s)
}

func (f *fakeScheduleRepo) GetByID(ctx context.Context, id string) (*domain.Schedule, error) {
	return f.getByID(ctx, id)
}

func (f *fakeScheduleRepo) List(context.Context, repository.ListSchedulesInput) ([]*domain.Schedule, error) {
	return nil, nil
}

func (f *fakeScheduleRepo) SetStatus(ctx context.Context, id string, from, to domain.ScheduleStatus) error {
	return f.setStatus(ctx, id, from, to)
}

func (f *fakeScheduleRepo) Delete(context.Context, string) error { return nil }

func (f *fakeScheduleRepo) ListDue(context.Context, time.Time) ([]*domain.Schedule, error) {
	return nil, nil
}

func (f *fakeScheduleRepo) RecordTick(context.Context, *domain.Run, *time.Time) error { return nil }

type fakeRunRepo struct {
	create func(ctx context.Context, r *domain.Run) (*domain.Run, error)
}

func (f *fakeRunRepo) Create(ctx context.Context, r *domain.Run) (*domain.Run, error) {
	return f.create(ctx, r)
}

func (f *fakeRunRepo) GetByID(context.Context, string) (*domain.Run, error) { return nil, nil }

func (f *fakeRunRepo) List(context.Context, repository.ListRunsInput) ([]*domain.Run, error) {
	return nil, nil
}

func (f *fakeRunRepo) CountBySchedule(context.Context, string) (int, error) { return 0, nil }

func (f *fakeRunRepo) Stats(context.Context) (*domain.RunStats, error) { return nil, nil }

type fakeRunner struct {
	execute func(ctx context.Context, s *domain.Schedule) *domain.Run
}

func (f *fakeRunner) Execute(ctx context.Context, s *domain.Schedule) *domain.Run {
	return f.execute(ctx, s)
}

type fakeResolver struct {
	nextRun func(ctx context.Context, s *domain.Schedule, ref time.Time) (time.Time, bool, error)
}

func (f *fakeResolver) NextRun(ctx context.Context, s *domain.Schedule, ref time.Time) (time.Time, bool, error) {
	return f.nextRun(ctx, s, ref)
}

// ---- helpers ----

func passthroughRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{
		create: func(_ context.Context, s *domain.Schedule) (*domain.Schedule, error) {
			s.ID = "sched-1"
			return s, nil
		},
	}
}

func newScheduleUsecase(repo *fakeScheduleRepo) *usecase.ScheduleUsecase {
	return usecase.NewScheduleUsecase(repo, &fakeRunRepo{}, &fakeRunner{}, &fakeResolver{})
}

// ---- CreateSchedule ----

func TestCreateSchedule_IntervalDefaults(t *testing.T) {
	u := newScheduleUsecase(passthroughRepo())

	s, err := u.CreateSchedule(context.Background(), usecase.CreateScheduleInput{
		TargetID: "target-1",
		Type:     domain.ScheduleInterval,
		Config:   domain.ScheduleConfig{},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Status != domain.ScheduleActive {
		t.Fatalf("status = %s, want ACTIVE", s.Status)
	}
	if s.NextRunAt.IsZero() {
		t.Fatal("next_run_at must be set for an immediate first fire")
	}
	if got := s.Config.IntervalSeconds(); got != domain.DefaultIntervalSeconds {
		t.Fatalf("interval default = %d, want %d", got, domain.DefaultIntervalSeconds)
	}
}

func TestCreateSchedule_UnknownType(t *testing.T) {
	u := newScheduleUsecase(passthroughRepo())

	_, err := u.CreateSchedule(context.Background(), usecase.CreateScheduleInput{
		TargetID: "target-1",
		Type:     "MOON_PHASE",
		Config:   domain.ScheduleConfig{},
	})
	if !errors.Is(err, domain.ErrInvalidScheduleType) {
		t.Fatalf("expected ErrInvalidScheduleType, got %v", err)
	}
}

func TestCreateSchedule_WindowRequiresEndTime(t *testing.T) {
	u := newScheduleUsecase(passthroughRepo())

	_, err := u.CreateSchedule(context.Background(), usecase.CreateScheduleInput{
		TargetID: "target-1",
		Type:     domain.ScheduleWindow,
		Config:   domain.ScheduleConfig{"interval_seconds": float64(60)},
	})
	if !errors.Is(err, domain.ErrInvalidScheduleConfig) {
		t.Fatalf("expected ErrInvalidScheduleConfig, got %v", err)
	}
}

func TestCreateSchedule_WindowRejectsPastEndTime(t *testing.T) {
	u := newScheduleUsecase(passthroughRepo())

	_, err := u.CreateSchedule(context.Background(), usecase.CreateScheduleInput{
		TargetID: "target-1",
		Type:     domain.ScheduleWindow,
		Config: domain.ScheduleConfig{
			"end_time": time.Now().UTC().Add(-time.Hour).Format(time.RFC3339),
		},
	})
	if !errors.Is(err, domain.ErrInvalidScheduleConfig) {
		t.Fatalf("expected ErrInvalidScheduleConfig, got %v", err)
	}
}

func TestCreateSchedule_WindowNormalizesEndTimeToUTC(t *testing.T) {
	u := newScheduleUsecase(passthroughRepo())

	zone := time.FixedZone("UTC+5", 5*3600)
	end := time.Now().In(zone).Add(time.Hour)

	s, err := u.CreateSchedule(context.Background(), usecase.CreateScheduleInput{
		TargetID: "target-1",
		Type:     domain.ScheduleWindow,
		Config:   domain.ScheduleConfig{"end_time": end.Format(time.RFC3339)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, ok := s.Config["end_time"].(string)
	if !ok {
		t.Fatal("end_time missing after create")
	}
	parsed, err := time.Parse(time.RFC3339, stored)
	if err != nil {
		t.Fatalf("stored end_time not RFC3339: %v", err)
	}
	if parsed.Location() != time.UTC {
		t.Fatalf("stored end_time zone = %v, want UTC", parsed.Location())
	}
	if !parsed.Equal(end.Truncate(time.Second)) {
		t.Fatalf("stored end_time = %v, want instant %v", parsed, end)
	}
}

func TestCreateSchedule_WindowRejectsZeroMaxRuns(t *testing.T) {
	u := newScheduleUsecase(passthroughRepo())

	_, err := u.CreateSchedule(context.Background(), usecase.CreateScheduleInput{
		TargetID: "target-1",
		Type:     domain.ScheduleWindow,
		Config: domain.ScheduleConfig{
			"end_time": time.Now().UTC().Add(time.Hour).Format(time.RFC3339),
			"max_runs": float64(0),
		},
	})
	if !errors.Is(err, domain.ErrInvalidScheduleConfig) {
		t.Fatalf("expected ErrInvalidScheduleConfig, got %v", err)
	}
}

func TestCreateSchedule_CronRejectsBadExpr(t *testing.T) {
	u := newScheduleUsecase(passthroughRepo())

	_, err := u.CreateSchedule(context.Background(), usecase.CreateScheduleInput{
		TargetID: "target-1",
		Type:     domain.ScheduleCron,
		Config:   domain.ScheduleConfig{"cron_expr": "every full moon"},
	})
	if !errors.Is(err, domain.ErrInvalidScheduleConfig) {
		t.Fatalf("expected ErrInvalidScheduleConfig, got %v", err)
	}
}

func TestCreateSchedule_RejectsOutOfRangeTimeout(t *testing.T) {
	u := newScheduleUsecase(passthroughRepo())

	_, err := u.CreateSchedule(context.Background(), usecase.CreateScheduleInput{
		TargetID: "target-1",
		Type:     domain.ScheduleInterval,
		Config:   domain.ScheduleConfig{"timeout_seconds": float64(0)},
	})
	if !errors.Is(err, domain.ErrInvalidScheduleConfig) {
		t.Fatalf("expected ErrInvalidScheduleConfig, got %v", err)
	}
}

// ---- Pause / Resume ----

func TestPauseSchedule_CompletedIsTerminal(t *testing.T) {
	repo := &fakeScheduleRepo{
		setStatus: func(_ context.Context, _ string, from, to domain.ScheduleStatus) error {
			if from != domain.ScheduleActive || to != domain.SchedulePaused {
				t.Fatalf("unexpected transition %s -> %s", from, to)
			}
			return domain.ErrScheduleCompleted
		},
	}
	u := newScheduleUsecase(repo)

	err := u.PauseSchedule(context.Background(), "sched-1")
	if !errors.Is(err, domain.ErrScheduleCompleted) {
		t.Fatalf("expected ErrScheduleCompleted, got %v", err)
	}
}

func TestResumeSchedule_UsesOptimisticTransition(t *testing.T) {
	var gotFrom, gotTo domain.ScheduleStatus
	repo := &fakeScheduleRepo{
		setStatus: func(_ context.Context, _ string, from, to domain.ScheduleStatus) error {
			gotFrom, gotTo = from, to
			return nil
		},
	}
	u := newScheduleUsecase(repo)

	if err := u.ResumeSchedule(context.Background(), "sched-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotFrom != domain.SchedulePaused || gotTo != domain.ScheduleActive {
		t.Fatalf("transition = %s -> %s, want PAUSED -> ACTIVE", gotFrom, gotTo)
	}
}

// ---- RunNow ----

func TestRunNow_ExecutesAndRecords(t *testing.T) {
	sched := &domain.Schedule{
		ID:     "sched-1",
		Type:   domain.ScheduleInterval,
		Config: domain.ScheduleConfig{},
		Status: domain.ScheduleActive,
		Target: &domain.Target{ID: "target-1", URL: "http://example.com", Method: "GET"},
	}
	repo := &fakeScheduleRepo{
		getByID: func(context.Context, string) (*domain.Schedule, error) { return sched, nil },
	}

	executed := false
	runner := &fakeRunner{execute: func(_ context.Context, s *domain.Schedule) *domain.Run {
		executed = true
		return &domain.Run{ScheduleID: s.ID, Status: domain.RunSuccess, StatusCode: 200}
	}}

	var persisted *domain.Run
	runs := &fakeRunRepo{create: func(_ context.Context, r *domain.Run) (*domain.Run, error) {
		persisted = r
		r.ID = "run-1"
		return r, nil
	}}

	u := usecase.NewScheduleUsecase(repo, runs, runner, &fakeResolver{})

	run, err := u.RunNow(context.Background(), "sched-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !executed {
		t.Fatal("runner was never invoked")
	}
	if persisted == nil || persisted.ScheduleID != "sched-1" {
		t.Fatalf("persisted run = %+v", persisted)
	}
	if run.ID != "run-1" {
		t.Fatalf("run id = %s", run.ID)
	}
}

// ---- PreviewNextRun ----

func TestPreviewNextRun_TerminatingScheduleReturnsNil(t *testing.T) {
	repo := &fakeScheduleRepo{
		getByID: func(context.Context, string) (*domain.Schedule, error) {
			return &domain.Schedule{ID: "sched-1", Type: domain.ScheduleWindow}, nil
		},
	}
	resolver := &fakeResolver{nextRun: func(context.Context, *domain.Schedule, time.Time) (time.Time, bool, error) {
		return time.Time{}, false, nil
	}}
	u := usecase.NewScheduleUsecase(repo, &fakeRunRepo{}, &fakeRunner{}, resolver)

	next, err := u.PreviewNextRun(context.Background(), "sched-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != nil {
		t.Fatalf("next = %v, want nil for terminating schedule", next)
	}
}
