package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aibekov/webcron/internal/domain"
	"github.com/aibekov/webcron/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

type TargetRepository struct {
	pool *pgxpool.Pool
}

func NewTargetRepository(pool *pgxpool.Pool) *TargetRepository {
	return &TargetRepository{pool: pool}
}

func (r *TargetRepository) Create(ctx context.Context, t *domain.Target) (*domain.Target, error) {
	query := `
		INSERT INTO targets (url, method, headers, body)
		VALUES ($1, $2, $3, $4)
		RETURNING id, url, method, headers, body, created_at, updated_at`

	row := r.pool.QueryRow(ctx, query, t.URL, t.Method, t.Headers, t.Body)
	return scanTarget(row)
}

func (r *TargetRepository) GetByID(ctx context.Context, id string) (*domain.Target, error) {
	query := `
		SELECT id, url, method, headers, body, created_at, updated_at
		FROM targets
		WHERE id = $1`

	row := r.pool.QueryRow(ctx, query, id)
	return scanTarget(row)
}

func (r *TargetRepository) List(ctx context.Context, input repository.ListTargetsInput) ([]*domain.Target, error) {
	args := []any{}
	where := []string{"TRUE"}

	if input.CursorTime != nil {
		args = append(args, *input.CursorTime, input.CursorID)
		where = append(where, fmt.Sprintf("(created_at, id) < ($%d, $%d)", len(args)-1, len(args)))
	}
	args = append(args, input.Limit)

	query := fmt.Sprintf(`
		SELECT id, url, method, headers, body, created_at, updated_at
		FROM targets
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d`,
		strings.Join(where, " AND "), len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	defer rows.Close()

	var targets []*domain.Target
	for rows.Next() {
		t, err := scanTarget(rows)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}

func (r *TargetRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM targets WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return domain.ErrTargetInUse
		}
		return fmt.Errorf("delete target: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTargetNotFound
	}
	return nil
}

func scanTarget(row rowScanner) (*domain.Target, error) {
	var t domain.Target
	err := row.Scan(&t.ID, &t.URL, &t.Method, &t.Headers, &t.Body, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTargetNotFound
		}
		return nil, fmt.Errorf("scan target: %w", err)
	}
	return &t, nil
}
