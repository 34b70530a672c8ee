package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aibekov/webcron/internal/domain"
	"github.com/aibekov/webcron/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RunRepository struct {
	pool *pgxpool.Pool
}

func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

func (r *RunRepository) Create(ctx context.Context, run *domain.Run) (*domain.Run, error) {
	query := `
		INSERT INTO runs (
			schedule_id, executed_at, status, status_code,
			latency_ms, size_bytes, error_kind, response_body, request_headers
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, schedule_id, executed_at, status, status_code,
		          latency_ms, size_bytes, error_kind, response_body, request_headers`

	row := r.pool.QueryRow(ctx, query,
		run.ScheduleID, run.ExecutedAt, run.Status, run.StatusCode,
		run.LatencyMS, run.SizeBytes, run.ErrorKind, run.ResponseBody, run.RequestHeaders,
	)
	return scanRun(row)
}

func (r *RunRepository) GetByID(ctx context.Context, id string) (*domain.Run, error) {
	query := `
		SELECT id, schedule_id, executed_at, status, status_code,
		       latency_ms, size_bytes, error_kind, response_body, request_headers
		FROM runs
		WHERE id = $1`

	row := r.pool.QueryRow(ctx, query, id)
	return scanRun(row)
}

func (r *RunRepository) List(ctx context.Context, input repository.ListRunsInput) ([]*domain.Run, error) {
	args := []any{}
	where := []string{"TRUE"}

	if input.ScheduleID != "" {
		args = append(args, input.ScheduleID)
		where = append(where, fmt.Sprintf("schedule_id = $%d", len(args)))
	}
	if input.CursorTime != nil {
		args = append(args, *input.CursorTime, input.CursorID)
		where = append(where, fmt.Sprintf("(executed_at, id) < ($%d, $%d)", len(args)-1, len(args)))
	}
	args = append(args, input.Limit)

	query := fmt.Sprintf(`
		SELECT id, schedule_id, executed_at, status, status_code,
		       latency_ms, size_bytes, error_kind, response_body, request_headers
		FROM runs
		WHERE %s
		ORDER BY executed_at DESC, id DESC
		LIMIT $%d`,
		strings.Join(where, " AND "), len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func (r *RunRepository) CountBySchedule(ctx context.Context, scheduleID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM runs WHERE schedule_id = $1`, scheduleID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return count, nil
}

func (r *RunRepository) Stats(ctx context.Context) (*domain.RunStats, error) {
	var stats domain.RunStats
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = $1),
		       COUNT(*) FILTER (WHERE status = $2),
		       COALESCE(AVG(latency_ms), 0)
		FROM runs`,
		domain.RunSuccess, domain.RunFailure,
	).Scan(&stats.TotalRuns, &stats.SuccessRuns, &stats.FailedRuns, &stats.AvgLatencyMS)
	if err != nil {
		return nil, fmt.Errorf("run stats: %w", err)
	}
	return &stats, nil
}

func scanRun(row rowScanner) (*domain.Run, error) {
	var run domain.Run
	err := row.Scan(
		&run.ID, &run.ScheduleID, &run.ExecutedAt, &run.Status, &run.StatusCode,
		&run.LatencyMS, &run.SizeBytes, &run.ErrorKind, &run.ResponseBody, &run.RequestHeaders,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	return &run, nil
}
