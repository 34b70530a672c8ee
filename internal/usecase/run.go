package usecase

import (
	"context"
	"fmt"

	"github.com/aibekov/webcron/internal/domain"
	"github.com/aibekov/webcron/internal/repository"
)

type RunUsecase struct {
	repo repository.RunRepository
}

func NewRunUsecase(repo repository.RunRepository) *RunUsecase {
	return &RunUsecase{repo: repo}
}

func (u *RunUsecase) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	r, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

type ListRunsInput struct {
	ScheduleID string
	Cursor     string
	Limit      int
}

type ListRunsResult struct {
	Runs       []*domain.Run
	NextCursor *string
}

func (u *RunUsecase) ListRuns(ctx context.Context, input ListRunsInput) (ListRunsResult, error) {
	limit := clampLimit(input.Limit)

	repoInput := repository.ListRunsInput{
		ScheduleID: input.ScheduleID,
		Limit:      limit + 1,
	}
	if input.Cursor != "" {
		cursorTime, cursorID, err := decodeCursor(input.Cursor)
		if err != nil {
			return ListRunsResult{}, ErrBadCursor
		}
		repoInput.CursorTime = cursorTime
		repoInput.CursorID = cursorID
	}

	runs, err := u.repo.List(ctx, repoInput)
	if err != nil {
		return ListRunsResult{}, fmt.Errorf("list runs: %w", err)
	}

	var nextCursor *string
	if len(runs) == limit+1 {
		last := runs[limit]
		c := encodeCursor(last.ExecutedAt, last.ID)
		nextCursor = &c
		runs = runs[:limit]
	}
	return ListRunsResult{Runs: runs, NextCursor: nextCursor}, nil
}

func (u *RunUsecase) Stats(ctx context.Context) (*domain.RunStats, error) {
	stats, err := u.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("run stats: %w", err)
	}
	return stats, nil
}
