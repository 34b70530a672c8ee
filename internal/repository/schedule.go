package repository

import (
	"context"
	"time"

	"github.com/aibekov/webcron/internal/domain"
)

type ListSchedulesInput struct {
	Status     domain.ScheduleStatus // empty = all statuses
	CursorTime *time.Time            // cursor on (created_at DESC, id DESC)
	CursorID   string
	Limit      int
}

type ScheduleRepository interface {
	Create(ctx context.Context, s *domain.Schedule) (*domain.Schedule, error)
	// GetByID loads the schedule together with its target.
	GetByID(ctx context.Context, id string) (*domain.Schedule, error)
	List(ctx context.Context, input ListSchedulesInput) ([]*domain.Schedule, error)
	// SetStatus transitions from → to only when the row is still in the
	// from state, so a manual pause never clobbers a concurrent
	// completion (and vice versa).
	SetStatus(ctx context.Context, id string, from, to domain.ScheduleStatus) error
	// Delete fails with domain.ErrScheduleHasRuns while runs reference the schedule.
	Delete(ctx context.Context, id string) error

	// ListDue returns ACTIVE schedules with next_run_at <= asOf, targets
	// included, ordered by next_run_at. Only the dispatch loop calls it.
	ListDue(ctx context.Context, asOf time.Time) ([]*domain.Schedule, error)
	// RecordTick persists a run and the schedule-state advance for one
	// dispatch attempt in a single transaction: next != nil sets
	// next_run_at, next == nil completes the schedule. The state update
	// applies only while the schedule is still ACTIVE.
	RecordTick(ctx context.Context, run *domain.Run, next *time.Time) error
}
