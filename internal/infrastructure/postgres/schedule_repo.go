package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aibekov/webcron/internal/domain"
	"github.com/aibekov/webcron/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ScheduleRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewScheduleRepository(pool *pgxpool.Pool, logger *slog.Logger) *ScheduleRepository {
	return &ScheduleRepository{pool: pool, logger: logger.With("component", "schedule_repo")}
}

const scheduleColumns = `s.id, s.target_id, s.schedule_type, s.schedule_config,
	       s.status, s.next_run_at, s.created_at, s.updated_at`

const targetColumns = `t.id, t.url, t.method, t.headers, t.body, t.created_at, t.updated_at`

func (r *ScheduleRepository) Create(ctx context.Context, s *domain.Schedule) (*domain.Schedule, error) {
	query := `
		INSERT INTO schedules (target_id, schedule_type, schedule_config, status, next_run_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, target_id, schedule_type, schedule_config,
		          status, next_run_at, created_at, updated_at`

	row := r.pool.QueryRow(ctx, query, s.TargetID, s.Type, s.Config, s.Status, s.NextRunAt)

	created, err := scanSchedule(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, domain.ErrTargetNotFound
		}
		return nil, err
	}
	return created, nil
}

func (r *ScheduleRepository) GetByID(ctx context.Context, id string) (*domain.Schedule, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s
		FROM schedules s
		JOIN targets t ON t.id = s.target_id
		WHERE s.id = $1`, scheduleColumns, targetColumns)

	row := r.pool.QueryRow(ctx, query, id)
	return scanScheduleWithTarget(row)
}

func (r *ScheduleRepository) List(ctx context.Context, input repository.ListSchedulesInput) ([]*domain.Schedule, error) {
	args := []any{}
	where := []string{"TRUE"}

	if input.Status != "" {
		args = append(args, input.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if input.CursorTime != nil {
		args = append(args, *input.CursorTime, input.CursorID)
		where = append(where, fmt.Sprintf("(created_at, id) < ($%d, $%d)", len(args)-1, len(args)))
	}
	args = append(args, input.Limit)

	query := fmt.Sprintf(`
		SELECT id, target_id, schedule_type, schedule_config,
		       status, next_run_at, created_at, updated_at
		FROM schedules
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d`,
		strings.Join(where, " AND "), len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []*domain.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}
	return schedules, nil
}

// SetStatus applies the transition only when the row is still in the
// expected from state. The optimistic guard keeps a manual pause from
// racing the loop's completion of the same schedule.
func (r *ScheduleRepository) SetStatus(ctx context.Context, id string, from, to domain.ScheduleStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE schedules SET status = $3, updated_at = NOW()
		 WHERE id = $1 AND status = $2`,
		id, from, to)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish not-found vs wrong current state.
		cur, err := r.GetByID(ctx, id)
		if err != nil {
			return err // ErrScheduleNotFound
		}
		switch cur.Status {
		case domain.ScheduleCompleted:
			return domain.ErrScheduleCompleted
		case domain.SchedulePaused:
			return domain.ErrScheduleAlreadyPaused
		default:
			return domain.ErrScheduleNotPaused
		}
	}
	return nil
}

func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return domain.ErrScheduleHasRuns
		}
		return fmt.Errorf("delete schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrScheduleNotFound
	}
	return nil
}

// ListDue fetches ACTIVE schedules whose next_run_at has passed, target
// included so the executor needs no second query. No row locking: only
// one dispatch loop instance runs against a store.
func (r *ScheduleRepository) ListDue(ctx context.Context, asOf time.Time) ([]*domain.Schedule, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s
		FROM schedules s
		JOIN targets t ON t.id = s.target_id
		WHERE s.status = $1 AND s.next_run_at <= $2
		ORDER BY s.next_run_at ASC`, scheduleColumns, targetColumns)

	rows, err := r.pool.Query(ctx, query, domain.ScheduleActive, asOf)
	if err != nil {
		return nil, fmt.Errorf("list due schedules: %w", err)
	}
	defer rows.Close()

	var schedules []*domain.Schedule
	for rows.Next() {
		s, err := scanScheduleWithTarget(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}
	return schedules, nil
}

// RecordTick inserts the run and advances the schedule in one
// transaction, so a reader can never observe one without the other.
func (r *ScheduleRepository) RecordTick(ctx context.Context, run *domain.Run, next *time.Time) (err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	_, err = tx.Exec(ctx, `
		INSERT INTO runs (
			schedule_id, executed_at, status, status_code,
			latency_ms, size_bytes, error_kind, response_body, request_headers
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		run.ScheduleID, run.ExecutedAt, run.Status, run.StatusCode,
		run.LatencyMS, run.SizeBytes, run.ErrorKind, run.ResponseBody, run.RequestHeaders,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	var tag pgconn.CommandTag
	if next != nil {
		tag, err = tx.Exec(ctx,
			`UPDATE schedules SET next_run_at = $2, updated_at = NOW()
			 WHERE id = $1 AND status = $3`,
			run.ScheduleID, *next, domain.ScheduleActive)
	} else {
		tag, err = tx.Exec(ctx,
			`UPDATE schedules SET status = $2, updated_at = NOW()
			 WHERE id = $1 AND status = $3`,
			run.ScheduleID, domain.ScheduleCompleted, domain.ScheduleActive)
	}
	if err != nil {
		return fmt.Errorf("advance schedule %s: %w", run.ScheduleID, err)
	}
	if tag.RowsAffected() == 0 {
		// Paused (or deleted) manually while the dispatch was in flight.
		// The run is still recorded; the manual state wins.
		r.logger.Warn("schedule state changed mid-dispatch, keeping manual state",
			"schedule_id", run.ScheduleID)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func scanSchedule(row rowScanner) (*domain.Schedule, error) {
	var s domain.Schedule
	err := row.Scan(
		&s.ID, &s.TargetID, &s.Type, &s.Config,
		&s.Status, &s.NextRunAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrScheduleNotFound
		}
		return nil, fmt.Errorf("scan schedule: %w", err)
	}
	return &s, nil
}

func scanScheduleWithTarget(row rowScanner) (*domain.Schedule, error) {
	var s domain.Schedule
	var t domain.Target
	err := row.Scan(
		&s.ID, &s.TargetID, &s.Type, &s.Config,
		&s.Status, &s.NextRunAt, &s.CreatedAt, &s.UpdatedAt,
		&t.ID, &t.URL, &t.Method, &t.Headers, &t.Body, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrScheduleNotFound
		}
		return nil, fmt.Errorf("scan schedule: %w", err)
	}
	s.Target = &t
	return &s, nil
}
