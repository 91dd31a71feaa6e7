package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/hireflow/hireflow-api/app/observability/metrics"
	"github.com/hireflow/hireflow-api/internal/types"
)

const pgUniqueViolation = "23505"

// PGXPool is the subset of pgxpool.Pool the repository uses. Satisfied by both
// *pgxpool.Pool and pgxmock's pool.
type PGXPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

var _ AuthRepo = (*PostgresAuthRepo)(nil)

// AuthRepo defines the contract for credential and session persistence.
type AuthRepo interface {
	// CreateUserWithProvider inserts the user plus its email AuthProvider row
	// in one transaction. Returns types.ErrConflict if the email is taken.
	CreateUserWithProvider(ctx context.Context, email, passwordHash string, firstname, lastname *string) (*types.User, error)

	// GetUserByEmail returns types.ErrNotFound when no user matches.
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)

	// GetUserByID returns types.ErrNotFound when no user matches.
	GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error)

	// UpdateLastLogin stamps last_login_at.
	UpdateLastLogin(ctx context.Context, userID uuid.UUID) error

	// UpdatePassword replaces the stored hash.
	UpdatePassword(ctx context.Context, userID uuid.UUID, newHashedPassword string) error

	// UpdateProfile applies only the non-nil fields and returns the updated user.
	UpdateProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) (*types.User, error)

	// StoreRefreshToken persists a freshly issued refresh token.
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error

	// ConsumeRefreshToken atomically revokes a live token and returns its
	// owner. Unknown, revoked or expired tokens yield types.ErrUnauthenticated;
	// of N concurrent calls with the same token exactly one succeeds.
	ConsumeRefreshToken(ctx context.Context, token string) (uuid.UUID, error)

	// RevokeRefreshToken revokes a token if it exists and is not already
	// revoked. Idempotent: unknown or already-revoked tokens are a no-op.
	RevokeRefreshToken(ctx context.Context, token string) error

	// RevokeAllUserRefreshTokens revokes every live token owned by the user.
	RevokeAllUserRefreshTokens(ctx context.Context, userID uuid.UUID) error

	// DeleteExpiredRefreshTokens removes rows whose expiry has passed,
	// regardless of revoked status. Returns the number of rows deleted.
	DeleteExpiredRefreshTokens(ctx context.Context) (int64, error)
}

const userColumns = `id, email, password_hash, firstname, lastname, phone, avatar_url,
       email_verified, email_verified_at, is_active, last_login_at, role, created_at, updated_at`

type PostgresAuthRepo struct {
	logger *slog.Logger
	pgpool PGXPool
}

func NewPostgresAuthRepo(pgpool PGXPool, logger *slog.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func scanUser(row pgx.Row) (*types.User, error) {
	var u types.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Firstname, &u.Lastname, &u.Phone, &u.AvatarURL,
		&u.EmailVerified, &u.EmailVerifiedAt, &u.IsActive, &u.LastLoginAt, &u.Role, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// recordDBQuery updates the query duration histogram and error counter for
// one repository call.
func recordDBQuery(ctx context.Context, operation string, start time.Time, err error) {
	m := metrics.Get()
	attrs := metric.WithAttributes(attribute.String("operation", operation))
	m.DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil {
		m.DbQueryErrorsTotal.Add(ctx, 1, attrs)
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func (r *PostgresAuthRepo) CreateUserWithProvider(ctx context.Context, email, passwordHash string, firstname, lastname *string) (user *types.User, err error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "CreateUserWithProvider", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	start := time.Now()
	defer func() { recordDBQuery(ctx, "create_user", start, err) }()

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("create user: begin tx failed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	user, err = scanUser(tx.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, firstname, lastname)
         VALUES ($1, $2, $3, $4)
         RETURNING `+userColumns,
		email, passwordHash, firstname, lastname))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("email already registered: %w", types.ErrConflict)
		}
		return nil, fmt.Errorf("create user: insert failed: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO auth_providers (user_id, provider) VALUES ($1, $2)`,
		user.ID, types.ProviderEmail)
	if err != nil {
		return nil, fmt.Errorf("create user: provider insert failed: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("create user: commit failed: %w", err)
	}
	return user, nil
}

func (r *PostgresAuthRepo) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	user, err := scanUser(r.pgpool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

func (r *PostgresAuthRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	user, err := scanUser(r.pgpool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

func (r *PostgresAuthRepo) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pgpool.Exec(ctx,
		`UPDATE users SET last_login_at = now() WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("update last login: db update failed: %w", err)
	}
	return nil
}

func (r *PostgresAuthRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, newHashedPassword string) error {
	tag, err := r.pgpool.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`,
		newHashedPassword, userID)
	if err != nil {
		return fmt.Errorf("update password: db update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *PostgresAuthRepo) UpdateProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) (*types.User, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "UpdateProfile", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "users"),
		attribute.String("db.user.id", userID.String()),
	))
	defer span.End()

	var setClauses []string
	var args []interface{}
	argID := 1

	if params.Firstname != nil {
		setClauses = append(setClauses, fmt.Sprintf("firstname = $%d", argID))
		args = append(args, *params.Firstname)
		argID++
	}
	if params.Lastname != nil {
		setClauses = append(setClauses, fmt.Sprintf("lastname = $%d", argID))
		args = append(args, *params.Lastname)
		argID++
	}
	if params.Phone != nil {
		setClauses = append(setClauses, fmt.Sprintf("phone = $%d", argID))
		args = append(args, *params.Phone)
		argID++
	}
	if params.AvatarURL != nil {
		setClauses = append(setClauses, fmt.Sprintf("avatar_url = $%d", argID))
		args = append(args, *params.AvatarURL)
		argID++
	}

	// Nothing to update: return the current row.
	if len(setClauses) == 0 {
		return r.GetUserByID(ctx, userID)
	}

	setClauses = append(setClauses, "updated_at = now()")
	args = append(args, userID)
	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), argID, userColumns)

	user, err := scanUser(r.pgpool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

func (r *PostgresAuthRepo) StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	_, err := r.pgpool.Exec(ctx,
		`INSERT INTO refresh_tokens (user_id, token, expires_at)
         VALUES ($1, $2, $3)`,
		userID, token, expiresAt)
	if err != nil {
		return fmt.Errorf("store refresh token: db insert failed: %w", err)
	}
	return nil
}

// ConsumeRefreshToken is the rotation primitive. The conditional UPDATE is the
// compare-and-swap: concurrent calls with the same token race on the revoked
// flag and only one sees a row.
func (r *PostgresAuthRepo) ConsumeRefreshToken(ctx context.Context, token string) (userID uuid.UUID, err error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "ConsumeRefreshToken", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "refresh_tokens"),
	))
	defer span.End()

	start := time.Now()
	defer func() { recordDBQuery(ctx, "consume_refresh_token", start, err) }()

	err = r.pgpool.QueryRow(ctx,
		`UPDATE refresh_tokens SET revoked = TRUE, revoked_at = now()
         WHERE token = $1 AND revoked = FALSE AND expires_at > now()
         RETURNING user_id`, token).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Unknown, already revoked or expired: one error kind for all three.
			return uuid.Nil, types.ErrUnauthenticated
		}
		return uuid.Nil, fmt.Errorf("consume refresh token: query failed: %w", err)
	}
	return userID, nil
}

func (r *PostgresAuthRepo) RevokeRefreshToken(ctx context.Context, token string) error {
	tag, err := r.pgpool.Exec(ctx,
		`UPDATE refresh_tokens SET revoked = TRUE, revoked_at = now()
         WHERE token = $1 AND revoked = FALSE`, token)
	if err != nil {
		return fmt.Errorf("revoke refresh token: db update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Unknown or already revoked; logout stays idempotent.
		r.logger.DebugContext(ctx, "Refresh token already revoked or unknown")
	}
	return nil
}

func (r *PostgresAuthRepo) RevokeAllUserRefreshTokens(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pgpool.Exec(ctx,
		`UPDATE refresh_tokens SET revoked = TRUE, revoked_at = now()
         WHERE user_id = $1 AND revoked = FALSE`, userID)
	if err != nil {
		return fmt.Errorf("revoke all tokens: db update failed: %w", err)
	}
	return nil
}

func (r *PostgresAuthRepo) DeleteExpiredRefreshTokens(ctx context.Context) (int64, error) {
	tag, err := r.pgpool.Exec(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at < now()`)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: db delete failed: %w", err)
	}
	return tag.RowsAffected(), nil
}
