package domain

import (
	"errors"
	"time"
)

var (
	ErrTargetNotFound = errors.New("target not found")
	ErrTargetInUse    = errors.New("target is referenced by schedules")
)

// Target is a reusable definition of one outbound HTTP call.
// It is immutable once a schedule references it; the API layer only
// ever creates and deletes targets.
type Target struct {
	ID        string
	URL       string
	Method    string
	Headers   map[string]string
	Body      *string // nil means no request body
	CreatedAt time.Time
	UpdatedAt time.Time
}
