package domain

import (
	"errors"
	"time"
)

var (
	ErrScheduleNotFound      = errors.New("schedule not found")
	ErrScheduleCompleted     = errors.New("schedule is completed")
	ErrScheduleAlreadyPaused = errors.New("schedule is already paused")
	ErrScheduleNotPaused     = errors.New("schedule is not paused")
	ErrScheduleHasRuns       = errors.New("schedule has recorded runs")
	ErrInvalidScheduleType   = errors.New("invalid schedule type")
	ErrInvalidScheduleConfig = errors.New("invalid schedule config")
)

type ScheduleType string

const (
	ScheduleInterval ScheduleType = "INTERVAL"
	ScheduleWindow   ScheduleType = "WINDOW"
	ScheduleCron     ScheduleType = "CRON"
)

type ScheduleStatus string

const (
	ScheduleActive    ScheduleStatus = "ACTIVE"
	SchedulePaused    ScheduleStatus = "PAUSED"
	ScheduleCompleted ScheduleStatus = "COMPLETED"
)

const (
	DefaultIntervalSeconds = 60
	DefaultTimeoutSeconds  = 10
)

// ScheduleConfig is the type-specific configuration of a schedule, stored
// as an opaque JSON object. Which keys are required depends on the
// schedule type; the typed accessors below apply the documented defaults.
// Numeric values may arrive as float64 after a JSON round trip.
type ScheduleConfig map[string]any

// IntervalSeconds returns the firing interval, defaulting to 60.
func (c ScheduleConfig) IntervalSeconds() int {
	if n, ok := intValue(c["interval_seconds"]); ok && n > 0 {
		return n
	}
	return DefaultIntervalSeconds
}

// TimeoutSeconds returns the per-dispatch timeout, defaulting to 10.
func (c ScheduleConfig) TimeoutSeconds() int {
	if n, ok := intValue(c["timeout_seconds"]); ok && n > 0 {
		return n
	}
	return DefaultTimeoutSeconds
}

// MaxRuns returns the optional run cap of a window schedule.
func (c ScheduleConfig) MaxRuns() (int, bool) {
	n, ok := intValue(c["max_runs"])
	if !ok || n <= 0 {
		return 0, false
	}
	return n, true
}

// EndTime parses the window end, normalized to UTC.
func (c ScheduleConfig) EndTime() (time.Time, error) {
	raw, ok := c["end_time"].(string)
	if !ok || raw == "" {
		return time.Time{}, ErrInvalidScheduleConfig
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, ErrInvalidScheduleConfig
	}
	return t.UTC(), nil
}

// CronExpr returns the cron expression of a CRON schedule, "" if absent.
func (c ScheduleConfig) CronExpr() string {
	expr, _ := c["cron_expr"].(string)
	return expr
}

func intValue(v any) (int, bool) {
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

// Schedule is a recurring dispatch rule bound to a target.
//
// NextRunAt is meaningful only while Status is ACTIVE. The dispatch loop
// is the sole writer of NextRunAt and of the ACTIVE→COMPLETED transition;
// pause/resume go through the API layer. COMPLETED is terminal.
type Schedule struct {
	ID        string
	TargetID  string
	Type      ScheduleType
	Config    ScheduleConfig
	Status    ScheduleStatus
	NextRunAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time

	// Target is populated on reads that feed dispatching (due queries,
	// manual run-now); nil on plain listings.
	Target *Target
}
