package scheduler

import (
	"context"
	"time"

	"github.com/aibekov/webcron/internal/domain"
	"github.com/robfig/cron/v3"
)

// RunCounter is the slice of the run store the window calculator needs.
// The count must cover committed runs only; in-flight attempts would
// throttle one run too early.
type RunCounter interface {
	CountBySchedule(ctx context.Context, scheduleID string) (int, error)
}

// Resolver computes a schedule's next fire time from its declared type.
//
// NextRun returns (next, true, nil) when the schedule fires again,
// (_, false, nil) when it terminates, and a non-nil error only on a
// transient store failure; the caller then leaves the schedule state
// untouched and retries on a later tick. Unknown schedule types
// terminate rather than fire with undefined semantics.
type Resolver struct {
	runs RunCounter
}

func NewResolver(runs RunCounter) *Resolver {
	return &Resolver{runs: runs}
}

func (r *Resolver) NextRun(ctx context.Context, s *domain.Schedule, ref time.Time) (time.Time, bool, error) {
	ref = ref.UTC()

	switch s.Type {
	case domain.ScheduleInterval:
		return nextInterval(s.Config, ref), true, nil
	case domain.ScheduleWindow:
		return r.nextWindow(ctx, s, ref)
	case domain.ScheduleCron:
		return nextCron(s.Config, ref)
	default:
		return time.Time{}, false, nil
	}
}

func nextInterval(cfg domain.ScheduleConfig, ref time.Time) time.Time {
	return ref.Add(time.Duration(cfg.IntervalSeconds()) * time.Second)
}

func (r *Resolver) nextWindow(ctx context.Context, s *domain.Schedule, ref time.Time) (time.Time, bool, error) {
	endTime, err := s.Config.EndTime()
	if err != nil {
		// Config was validated on create; a row that lost its end_time
		// stops firing instead of firing forever.
		return time.Time{}, false, nil
	}

	if maxRuns, ok := s.Config.MaxRuns(); ok {
		count, err := r.runs.CountBySchedule(ctx, s.ID)
		if err != nil {
			return time.Time{}, false, err
		}
		if count >= maxRuns {
			return time.Time{}, false, nil
		}
	}

	candidate := nextInterval(s.Config, ref)
	if candidate.After(endTime) {
		return time.Time{}, false, nil
	}
	return candidate, true, nil
}

func nextCron(cfg domain.ScheduleConfig, ref time.Time) (time.Time, bool, error) {
	sched, err := cron.ParseStandard(cfg.CronExpr())
	if err != nil {
		// Same fail-closed policy as unknown types.
		return time.Time{}, false, nil
	}
	return sched.Next(ref), true, nil
}
