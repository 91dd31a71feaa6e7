package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hireflow/hireflow-api/internal/types"
)

type PGXPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ JobRepo = (*PostgresJobRepo)(nil)

type JobRepo interface {
	Create(ctx context.Context, req CreateJobRequest) (*types.Job, error)
	GetByID(ctx context.Context, jobID uuid.UUID) (*types.Job, error)
	// List returns jobs newest-first; status narrows the result when non-empty.
	List(ctx context.Context, status string, limit, offset int) ([]types.Job, int64, error)
	Update(ctx context.Context, jobID uuid.UUID, params UpdateJobParams) (*types.Job, error)
	Delete(ctx context.Context, jobID uuid.UUID) error
}

const jobColumns = `id, title, department, location, employment_type, status, description, created_at, updated_at`

type PostgresJobRepo struct {
	logger *slog.Logger
	pgpool PGXPool
}

func NewPostgresJobRepo(pgpool PGXPool, logger *slog.Logger) *PostgresJobRepo {
	return &PostgresJobRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func scanJob(row pgx.Row) (*types.Job, error) {
	var j types.Job
	err := row.Scan(
		&j.ID, &j.Title, &j.Department, &j.Location, &j.EmploymentType,
		&j.Status, &j.Description, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("scan job: %w", err)
	}
	return &j, nil
}

func (r *PostgresJobRepo) Create(ctx context.Context, req CreateJobRequest) (*types.Job, error) {
	return scanJob(r.pgpool.QueryRow(ctx,
		`INSERT INTO jobs (title, department, location, employment_type, description)
         VALUES ($1, $2, $3, $4, $5)
         RETURNING `+jobColumns,
		req.Title, req.Department, req.Location, req.EmploymentType, req.Description))
}

func (r *PostgresJobRepo) GetByID(ctx context.Context, jobID uuid.UUID) (*types.Job, error) {
	return scanJob(r.pgpool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1`, jobID))
}

func (r *PostgresJobRepo) List(ctx context.Context, status string, limit, offset int) ([]types.Job, int64, error) {
	where := ""
	countArgs := []interface{}{}
	listArgs := []interface{}{limit, offset}
	if status != "" {
		where = " WHERE status = $1"
		countArgs = append(countArgs, status)
		listArgs = []interface{}{status, limit, offset}
	}

	var total int64
	if err := r.pgpool.QueryRow(ctx, `SELECT count(*) FROM jobs`+where, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}

	listQuery := `SELECT ` + jobColumns + ` FROM jobs ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	if status != "" {
		listQuery = `SELECT ` + jobColumns + ` FROM jobs WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	}

	rows, err := r.pgpool.Query(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]types.Job, 0, limit)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list jobs: rows: %w", err)
	}
	return jobs, total, nil
}

func (r *PostgresJobRepo) Update(ctx context.Context, jobID uuid.UUID, params UpdateJobParams) (*types.Job, error) {
	var setClauses []string
	var args []interface{}
	argID := 1

	if params.Title != nil {
		setClauses = append(setClauses, fmt.Sprintf("title = $%d", argID))
		args = append(args, *params.Title)
		argID++
	}
	if params.Department != nil {
		setClauses = append(setClauses, fmt.Sprintf("department = $%d", argID))
		args = append(args, *params.Department)
		argID++
	}
	if params.Location != nil {
		setClauses = append(setClauses, fmt.Sprintf("location = $%d", argID))
		args = append(args, *params.Location)
		argID++
	}
	if params.EmploymentType != nil {
		setClauses = append(setClauses, fmt.Sprintf("employment_type = $%d", argID))
		args = append(args, *params.EmploymentType)
		argID++
	}
	if params.Status != nil {
		setClauses = append(setClauses, fmt.Sprintf("status = $%d", argID))
		args = append(args, *params.Status)
		argID++
	}
	if params.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", argID))
		args = append(args, *params.Description)
		argID++
	}

	if len(setClauses) == 0 {
		return r.GetByID(ctx, jobID)
	}

	setClauses = append(setClauses, "updated_at = now()")
	args = append(args, jobID)
	query := fmt.Sprintf(`UPDATE jobs SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), argID, jobColumns)

	return scanJob(r.pgpool.QueryRow(ctx, query, args...))
}

func (r *PostgresJobRepo) Delete(ctx context.Context, jobID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, jobID)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}
