package handler

const (
	errInternalServer    = "Internal server error"
	errTargetNotFound    = "Target not found"
	errTargetInUse       = "Target is referenced by schedules"
	errScheduleNotFound  = "Schedule not found"
	errScheduleCompleted = "Schedule is completed"
	errAlreadyPaused     = "Schedule is already paused"
	errNotPaused         = "Schedule is not paused"
	errScheduleHasRuns   = "Schedule has recorded runs"
	errRunNotFound       = "Run not found"
	errBadCursor         = "Invalid pagination cursor"
	errInvalidAPIKey     = "Invalid API key"
)
