package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/aibekov/webcron/internal/domain"
	"github.com/aibekov/webcron/internal/repository"
	"github.com/robfig/cron/v3"
)

// Runner performs one dispatch for a schedule; satisfied by *scheduler.Executor.
type Runner interface {
	Execute(ctx context.Context, s *domain.Schedule) *domain.Run
}

// NextRunResolver previews a schedule's next fire time; satisfied by *scheduler.Resolver.
type NextRunResolver interface {
	NextRun(ctx context.Context, s *domain.Schedule, ref time.Time) (time.Time, bool, error)
}

type ScheduleUsecase struct {
	repo     repository.ScheduleRepository
	runs     repository.RunRepository
	runner   Runner
	resolver NextRunResolver
}

func NewScheduleUsecase(
	repo repository.ScheduleRepository,
	runs repository.RunRepository,
	runner Runner,
	resolver NextRunResolver,
) *ScheduleUsecase {
	return &ScheduleUsecase{repo: repo, runs: runs, runner: runner, resolver: resolver}
}

type CreateScheduleInput struct {
	TargetID string
	Type     domain.ScheduleType
	Config   domain.ScheduleConfig
}

// CreateSchedule validates the type-specific config, normalizes window
// end times to UTC, and stores the schedule ACTIVE with an immediate
// first fire. The dispatch loop never sees unvalidated config.
func (u *ScheduleUsecase) CreateSchedule(ctx context.Context, input CreateScheduleInput) (*domain.Schedule, error) {
	if input.Config == nil {
		input.Config = domain.ScheduleConfig{}
	}

	now := time.Now().UTC()
	if err := validateConfig(input.Type, input.Config, now); err != nil {
		return nil, err
	}

	s := &domain.Schedule{
		TargetID:  input.TargetID,
		Type:      input.Type,
		Config:    input.Config,
		Status:    domain.ScheduleActive,
		NextRunAt: now,
	}

	created, err := u.repo.Create(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("create schedule: %w", err)
	}
	return created, nil
}

func validateConfig(typ domain.ScheduleType, cfg domain.ScheduleConfig, now time.Time) error {
	if err := validatePositiveInt(cfg, "interval_seconds", 86400); err != nil {
		return err
	}
	if err := validatePositiveInt(cfg, "timeout_seconds", 3600); err != nil {
		return err
	}

	switch typ {
	case domain.ScheduleInterval:
		return nil
	case domain.ScheduleWindow:
		end, err := cfg.EndTime()
		if err != nil {
			return fmt.Errorf("%w: window schedule requires a valid end_time", domain.ErrInvalidScheduleConfig)
		}
		if !end.After(now) {
			return fmt.Errorf("%w: end_time is in the past", domain.ErrInvalidScheduleConfig)
		}
		if raw, present := cfg["max_runs"]; present {
			if _, ok := cfg.MaxRuns(); !ok {
				return fmt.Errorf("%w: max_runs %v must be a positive integer", domain.ErrInvalidScheduleConfig, raw)
			}
		}
		// Store the normalized UTC form so every later comparison happens
		// in one zone.
		cfg["end_time"] = end.Format(time.RFC3339)
		return nil
	case domain.ScheduleCron:
		if _, err := cron.ParseStandard(cfg.CronExpr()); err != nil {
			return fmt.Errorf("%w: bad cron_expr: %v", domain.ErrInvalidScheduleConfig, err)
		}
		return nil
	default:
		return domain.ErrInvalidScheduleType
	}
}

func validatePositiveInt(cfg domain.ScheduleConfig, key string, upper int) error {
	raw, present := cfg[key]
	if !present {
		return nil
	}
	n, ok := intFromAny(raw)
	if !ok || n < 1 || n > upper {
		return fmt.Errorf("%w: %s must be between 1 and %d", domain.ErrInvalidScheduleConfig, key, upper)
	}
	return nil
}

func intFromAny(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func (u *ScheduleUsecase) GetSchedule(ctx context.Context, id string) (*domain.Schedule, error) {
	s, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return s, nil
}

type ListSchedulesInput struct {
	Status domain.ScheduleStatus
	Cursor string
	Limit  int
}

type ListSchedulesResult struct {
	Schedules  []*domain.Schedule
	NextCursor *string
}

func (u *ScheduleUsecase) ListSchedules(ctx context.Context, input ListSchedulesInput) (ListSchedulesResult, error) {
	limit := clampLimit(input.Limit)

	repoInput := repository.ListSchedulesInput{
		Status: input.Status,
		Limit:  limit + 1,
	}
	if input.Cursor != "" {
		cursorTime, cursorID, err := decodeCursor(input.Cursor)
		if err != nil {
			return ListSchedulesResult{}, ErrBadCursor
		}
		repoInput.CursorTime = cursorTime
		repoInput.CursorID = cursorID
	}

	schedules, err := u.repo.List(ctx, repoInput)
	if err != nil {
		return ListSchedulesResult{}, fmt.Errorf("list schedules: %w", err)
	}

	var nextCursor *string
	if len(schedules) == limit+1 {
		last := schedules[limit]
		c := encodeCursor(last.CreatedAt, last.ID)
		nextCursor = &c
		schedules = schedules[:limit]
	}
	return ListSchedulesResult{Schedules: schedules, NextCursor: nextCursor}, nil
}

// PauseSchedule suspends dispatching. Completed schedules are terminal
// and reject the transition.
func (u *ScheduleUsecase) PauseSchedule(ctx context.Context, id string) error {
	if err := u.repo.SetStatus(ctx, id, domain.ScheduleActive, domain.SchedulePaused); err != nil {
		return fmt.Errorf("pause schedule: %w", err)
	}
	return nil
}

func (u *ScheduleUsecase) ResumeSchedule(ctx context.Context, id string) error {
	if err := u.repo.SetStatus(ctx, id, domain.SchedulePaused, domain.ScheduleActive); err != nil {
		return fmt.Errorf("resume schedule: %w", err)
	}
	return nil
}

func (u *ScheduleUsecase) DeleteSchedule(ctx context.Context, id string) error {
	if err := u.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}

// RunNow dispatches the schedule once, immediately, and records the run.
// next_run_at is untouched: the regular cadence continues as if the
// manual trigger had not happened.
func (u *ScheduleUsecase) RunNow(ctx context.Context, id string) (*domain.Run, error) {
	s, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}

	run := u.runner.Execute(ctx, s)

	created, err := u.runs.Create(ctx, run)
	if err != nil {
		return nil, fmt.Errorf("record run: %w", err)
	}
	return created, nil
}

// PreviewNextRun reports when the schedule would fire next, nil when it
// would terminate instead.
func (u *ScheduleUsecase) PreviewNextRun(ctx context.Context, id string) (*time.Time, error) {
	s, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}

	next, again, err := u.resolver.NextRun(ctx, s, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("compute next run: %w", err)
	}
	if !again {
		return nil, nil
	}
	return &next, nil
}
