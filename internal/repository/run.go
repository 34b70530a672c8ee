package repository

import (
	"context"
	"time"

	"github.com/aibekov/webcron/internal/domain"
)

type ListRunsInput struct {
	ScheduleID string     // empty = runs of all schedules
	CursorTime *time.Time // cursor on (executed_at DESC, id DESC)
	CursorID   string
	Limit      int
}

type RunRepository interface {
	// Create persists a run outside the dispatch loop (manual run-now).
	// Loop-driven runs go through ScheduleRepository.RecordTick instead.
	Create(ctx context.Context, r *domain.Run) (*domain.Run, error)
	GetByID(ctx context.Context, id string) (*domain.Run, error)
	List(ctx context.Context, input ListRunsInput) ([]*domain.Run, error)
	// CountBySchedule counts committed runs only; the window calculator
	// relies on this to enforce max_runs without off-by-one drift.
	CountBySchedule(ctx context.Context, scheduleID string) (int, error)
	Stats(ctx context.Context) (*domain.RunStats, error)
}
