package candidate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/hireflow/hireflow-api/internal/types"
)

const pgUniqueViolation = "23505"

type PGXPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ CandidateRepo = (*PostgresCandidateRepo)(nil)

// CandidateRepo defines the contract for candidate persistence.
type CandidateRepo interface {
	Create(ctx context.Context, req CreateCandidateRequest) (*types.Candidate, error)
	GetByID(ctx context.Context, candidateID uuid.UUID) (*types.Candidate, error)
	List(ctx context.Context, limit, offset int) ([]types.Candidate, int64, error)
	Update(ctx context.Context, candidateID uuid.UUID, params UpdateCandidateParams) (*types.Candidate, error)
	Delete(ctx context.Context, candidateID uuid.UUID) error
}

const candidateColumns = `id, name, email, phone, location, skills, years_experience, summary, created_at, updated_at`

type PostgresCandidateRepo struct {
	logger *slog.Logger
	pgpool PGXPool
}

func NewPostgresCandidateRepo(pgpool PGXPool, logger *slog.Logger) *PostgresCandidateRepo {
	return &PostgresCandidateRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func scanCandidate(row pgx.Row) (*types.Candidate, error) {
	var c types.Candidate
	err := row.Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.Location, &c.Skills,
		&c.YearsExperience, &c.Summary, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("scan candidate: %w", err)
	}
	return &c, nil
}

func (r *PostgresCandidateRepo) Create(ctx context.Context, req CreateCandidateRequest) (*types.Candidate, error) {
	ctx, span := otel.Tracer("CandidateRepo").Start(ctx, "Create", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "candidates"),
	))
	defer span.End()

	skills := req.Skills
	if skills == nil {
		skills = []string{}
	}

	c, err := scanCandidate(r.pgpool.QueryRow(ctx,
		`INSERT INTO candidates (name, email, phone, location, skills, years_experience, summary)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
         RETURNING `+candidateColumns,
		req.Name, req.Email, req.Phone, req.Location, skills, req.YearsExperience, req.Summary))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, fmt.Errorf("candidate email already exists: %w", types.ErrConflict)
		}
		return nil, fmt.Errorf("create candidate: %w", err)
	}
	return c, nil
}

func (r *PostgresCandidateRepo) GetByID(ctx context.Context, candidateID uuid.UUID) (*types.Candidate, error) {
	return scanCandidate(r.pgpool.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = $1`, candidateID))
}

func (r *PostgresCandidateRepo) List(ctx context.Context, limit, offset int) ([]types.Candidate, int64, error) {
	var total int64
	if err := r.pgpool.QueryRow(ctx, `SELECT count(*) FROM candidates`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count candidates: %w", err)
	}

	rows, err := r.pgpool.Query(ctx,
		`SELECT `+candidateColumns+` FROM candidates ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	candidates := make([]types.Candidate, 0, limit)
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, 0, err
		}
		candidates = append(candidates, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list candidates: rows: %w", err)
	}
	return candidates, total, nil
}

func (r *PostgresCandidateRepo) Update(ctx context.Context, candidateID uuid.UUID, params UpdateCandidateParams) (*types.Candidate, error) {
	var setClauses []string
	var args []interface{}
	argID := 1

	if params.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argID))
		args = append(args, *params.Name)
		argID++
	}
	if params.Email != nil {
		setClauses = append(setClauses, fmt.Sprintf("email = $%d", argID))
		args = append(args, *params.Email)
		argID++
	}
	if params.Phone != nil {
		setClauses = append(setClauses, fmt.Sprintf("phone = $%d", argID))
		args = append(args, *params.Phone)
		argID++
	}
	if params.Location != nil {
		setClauses = append(setClauses, fmt.Sprintf("location = $%d", argID))
		args = append(args, *params.Location)
		argID++
	}
	if params.Skills != nil {
		setClauses = append(setClauses, fmt.Sprintf("skills = $%d", argID))
		args = append(args, params.Skills)
		argID++
	}
	if params.YearsExperience != nil {
		setClauses = append(setClauses, fmt.Sprintf("years_experience = $%d", argID))
		args = append(args, *params.YearsExperience)
		argID++
	}
	if params.Summary != nil {
		setClauses = append(setClauses, fmt.Sprintf("summary = $%d", argID))
		args = append(args, *params.Summary)
		argID++
	}

	if len(setClauses) == 0 {
		return r.GetByID(ctx, candidateID)
	}

	setClauses = append(setClauses, "updated_at = now()")
	args = append(args, candidateID)
	query := fmt.Sprintf(`UPDATE candidates SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), argID, candidateColumns)

	c, err := scanCandidate(r.pgpool.QueryRow(ctx, query, args...))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, fmt.Errorf("candidate email already exists: %w", types.ErrConflict)
		}
		return nil, err
	}
	return c, nil
}

func (r *PostgresCandidateRepo) Delete(ctx context.Context, candidateID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx, `DELETE FROM candidates WHERE id = $1`, candidateID)
	if err != nil {
		return fmt.Errorf("delete candidate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}
