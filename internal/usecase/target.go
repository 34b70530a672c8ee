package usecase

import (
	"context"
	"fmt"

	"github.com/aibekov/webcron/internal/domain"
	"github.com/aibekov/webcron/internal/repository"
)

type TargetUsecase struct {
	repo repository.TargetRepository
}

func NewTargetUsecase(repo repository.TargetRepository) *TargetUsecase {
	return &TargetUsecase{repo: repo}
}

type CreateTargetInput struct {
	URL     string
	Method  string
	Headers map[string]string
	Body    *string
}

func (u *TargetUsecase) CreateTarget(ctx context.Context, input CreateTargetInput) (*domain.Target, error) {
	if input.Method == "" {
		input.Method = "GET"
	}
	if input.Headers == nil {
		input.Headers = make(map[string]string)
	}

	t := &domain.Target{
		URL:     input.URL,
		Method:  input.Method,
		Headers: input.Headers,
		Body:    input.Body,
	}

	created, err := u.repo.Create(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("create target: %w", err)
	}
	return created, nil
}

func (u *TargetUsecase) GetTarget(ctx context.Context, id string) (*domain.Target, error) {
	t, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get target: %w", err)
	}
	return t, nil
}

type ListTargetsInput struct {
	Cursor string
	Limit  int
}

type ListTargetsResult struct {
	Targets    []*domain.Target
	NextCursor *string
}

func (u *TargetUsecase) ListTargets(ctx context.Context, input ListTargetsInput) (ListTargetsResult, error) {
	limit := clampLimit(input.Limit)

	repoInput := repository.ListTargetsInput{Limit: limit + 1}
	if input.Cursor != "" {
		cursorTime, cursorID, err := decodeCursor(input.Cursor)
		if err != nil {
			return ListTargetsResult{}, ErrBadCursor
		}
		repoInput.CursorTime = cursorTime
		repoInput.CursorID = cursorID
	}

	targets, err := u.repo.List(ctx, repoInput)
	if err != nil {
		return ListTargetsResult{}, fmt.Errorf("list targets: %w", err)
	}

	var nextCursor *string
	if len(targets) == limit+1 {
		last := targets[limit]
		c := encodeCursor(last.CreatedAt, last.ID)
		nextCursor = &c
		targets = targets[:limit]
	}
	return ListTargetsResult{Targets: targets, NextCursor: nextCursor}, nil
}

func (u *TargetUsecase) DeleteTarget(ctx context.Context, id string) error {
	if err := u.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete target: %w", err)
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}
