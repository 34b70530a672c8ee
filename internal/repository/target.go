package repository

import (
	"context"
	"time"

	"github.com/aibekov/webcron/internal/domain"
)

type ListTargetsInput struct {
	CursorTime *time.Time // cursor on (created_at DESC, id DESC); nil = first page
	CursorID   string
	Limit      int
}

// Usecases depend on these interfaces, not on the pgx implementations,
// so the store can be swapped and tests can pass handwritten fakes.
type TargetRepository interface {
	Create(ctx context.Context, t *domain.Target) (*domain.Target, error)
	GetByID(ctx context.Context, id string) (*domain.Target, error)
	List(ctx context.Context, input ListTargetsInput) ([]*domain.Target, error)
	// Delete fails with domain.ErrTargetInUse while any schedule references the target.
	Delete(ctx context.Context, id string) error
}
