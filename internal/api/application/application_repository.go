package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hireflow/hireflow-api/internal/types"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type PGXPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ ApplicationRepo = (*PostgresApplicationRepo)(nil)

type ApplicationRepo interface {
	Create(ctx context.Context, req CreateApplicationRequest) (*types.Application, error)
	GetByID(ctx context.Context, applicationID uuid.UUID) (*types.Application, error)
	// List filters by jobID and/or candidateID when non-nil.
	List(ctx context.Context, jobID, candidateID *uuid.UUID, limit, offset int) ([]types.Application, int64, error)
	UpdateStatus(ctx context.Context, applicationID uuid.UUID, status string, notes *string) (*types.Application, error)
	Delete(ctx context.Context, applicationID uuid.UUID) error
}

const applicationColumns = `id, candidate_id, job_id, status, notes, applied_at, updated_at`

type PostgresApplicationRepo struct {
	logger *slog.Logger
	pgpool PGXPool
}

func NewPostgresApplicationRepo(pgpool PGXPool, logger *slog.Logger) *PostgresApplicationRepo {
	return &PostgresApplicationRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func scanApplication(row pgx.Row) (*types.Application, error) {
	var a types.Application
	err := row.Scan(&a.ID, &a.CandidateID, &a.JobID, &a.Status, &a.Notes, &a.AppliedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("scan application: %w", err)
	}
	return &a, nil
}

func (r *PostgresApplicationRepo) Create(ctx context.Context, req CreateApplicationRequest) (*types.Application, error) {
	a, err := scanApplication(r.pgpool.QueryRow(ctx,
		`INSERT INTO applications (candidate_id, job_id, notes)
         VALUES ($1, $2, $3)
         RETURNING `+applicationColumns,
		req.CandidateID, req.JobID, req.Notes))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolation:
				return nil, fmt.Errorf("candidate already applied to this job: %w", types.ErrConflict)
			case pgForeignKeyViolation:
				return nil, fmt.Errorf("candidate or job does not exist: %w", types.ErrNotFound)
			}
		}
		return nil, fmt.Errorf("create application: %w", err)
	}
	return a, nil
}

func (r *PostgresApplicationRepo) GetByID(ctx context.Context, applicationID uuid.UUID) (*types.Application, error) {
	return scanApplication(r.pgpool.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`, applicationID))
}

func (r *PostgresApplicationRepo) List(ctx context.Context, jobID, candidateID *uuid.UUID, limit, offset int) ([]types.Application, int64, error) {
	where := ""
	filterArgs := []interface{}{}
	argID := 1
	if jobID != nil {
		where = fmt.Sprintf(" WHERE job_id = $%d", argID)
		filterArgs = append(filterArgs, *jobID)
		argID++
	}
	if candidateID != nil {
		if where == "" {
			where = fmt.Sprintf(" WHERE candidate_id = $%d", argID)
		} else {
			where += fmt.Sprintf(" AND candidate_id = $%d", argID)
		}
		filterArgs = append(filterArgs, *candidateID)
		argID++
	}

	var total int64
	if err := r.pgpool.QueryRow(ctx, `SELECT count(*) FROM applications`+where, filterArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count applications: %w", err)
	}

	listQuery := fmt.Sprintf(`SELECT %s FROM applications%s ORDER BY applied_at DESC LIMIT $%d OFFSET $%d`,
		applicationColumns, where, argID, argID+1)
	listArgs := append(filterArgs, limit, offset)

	rows, err := r.pgpool.Query(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	applications := make([]types.Application, 0, limit)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, 0, err
		}
		applications = append(applications, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list applications: rows: %w", err)
	}
	return applications, total, nil
}

func (r *PostgresApplicationRepo) UpdateStatus(ctx context.Context, applicationID uuid.UUID, status string, notes *string) (*types.Application, error) {
	if notes != nil {
		return scanApplication(r.pgpool.QueryRow(ctx,
			`UPDATE applications SET status = $1, notes = $2, updated_at = now()
             WHERE id = $3 RETURNING `+applicationColumns,
			status, *notes, applicationID))
	}
	return scanApplication(r.pgpool.QueryRow(ctx,
		`UPDATE applications SET status = $1, updated_at = now()
         WHERE id = $2 RETURNING `+applicationColumns,
		status, applicationID))
}

func (r *PostgresApplicationRepo) Delete(ctx context.Context, applicationID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx, `DELETE FROM applications WHERE id = $1`, applicationID)
	if err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}
