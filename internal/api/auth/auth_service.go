package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hireflow/hireflow-api/config"
	"github.com/hireflow/hireflow-api/internal/types"
)

// Default token lifetimes, used when the configured specifier does not parse.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// loginFailedMsg is the single message for unknown email, wrong password and
// inactive account, so callers cannot enumerate accounts.
const loginFailedMsg = "invalid email or password"

var _ AuthService = (*AuthServiceImpl)(nil)

// AuthService is the credential and session authority: the one place where
// token issuance and validation policy lives.
type AuthService interface {
	// Register creates a user with an email auth provider and returns the
	// sanitized user plus a fresh token pair.
	Register(ctx context.Context, email, password string, firstname, lastname *string) (*types.User, string, string, error)

	// Login verifies credentials, stamps last login and issues a token pair.
	Login(ctx context.Context, email, password string) (*types.User, string, string, error)

	// RefreshAccessToken exchanges a live refresh token for a new pair.
	// Rotation is mandatory: the presented token is revoked in the same step.
	RefreshAccessToken(ctx context.Context, refreshToken string) (string, string, error)

	// Logout revokes the refresh token; unknown or already-revoked tokens are
	// a silent no-op so repeated calls are safe.
	Logout(ctx context.Context, refreshToken string) error

	// ChangePassword replaces the stored hash and revokes every outstanding
	// refresh token owned by the user.
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword, confirmPassword string) error

	// GetUserByID resolves a user or returns types.ErrNotFound.
	GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error)

	// UpdateProfile applies a partial update; omitted fields are untouched.
	UpdateProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) (*types.User, error)

	// CleanupExpiredTokens deletes refresh-token rows whose expiry has passed.
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

type AuthServiceImpl struct {
	logger *slog.Logger
	repo   AuthRepo
	cfg    *config.Config
}

func NewAuthService(repo AuthRepo, cfg *config.Config, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger: logger,
		repo:   repo,
		cfg:    cfg,
	}
}

// parseLifetime parses a token lifetime specifier of the form <integer><unit>
// with unit in {d,h,m}. An unparseable specifier falls back to the given
// default rather than failing: a bad config value must never lock everyone
// out.
func parseLifetime(spec string, fallback time.Duration) time.Duration {
	if len(spec) < 2 {
		return fallback
	}
	n, err := strconv.Atoi(spec[:len(spec)-1])
	if err != nil || n <= 0 {
		return fallback
	}
	switch spec[len(spec)-1] {
	case 'd':
		return time.Duration(n) * 24 * time.Hour
	case 'h':
		return time.Duration(n) * time.Hour
	case 'm':
		return time.Duration(n) * time.Minute
	default:
		return fallback
	}
}

func (s *AuthServiceImpl) accessTokenTTL() time.Duration {
	return parseLifetime(s.cfg.JWT.AccessExpiry, DefaultAccessTokenTTL)
}

func (s *AuthServiceImpl) refreshTokenTTL() time.Duration {
	return parseLifetime(s.cfg.JWT.RefreshExpiry, DefaultRefreshTokenTTL)
}

// generateAccessToken issues the short-lived, stateless access token. It is
// never persisted, so it cannot be individually revoked before expiry.
func (s *AuthServiceImpl) generateAccessToken(user *types.User) (string, error) {
	now := time.Now()
	claims := &types.Claims{
		UserID: user.ID.String(),
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    s.cfg.JWT.Issuer,
			Audience:  jwt.ClaimStrings{s.cfg.JWT.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTokenTTL())),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWT.SecretKey))
}

// generateRefreshToken issues the long-lived refresh token. The signed string
// is persisted verbatim as the lookup key; persistence is what makes it
// revocable.
func (s *AuthServiceImpl) generateRefreshToken(user *types.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.refreshTokenTTL())
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   user.ID.String(),
		Issuer:    s.cfg.JWT.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// issueTokenPair generates and persists a fresh access/refresh pair.
func (s *AuthServiceImpl) issueTokenPair(ctx context.Context, user *types.User) (string, string, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, expiresAt, err := s.generateRefreshToken(user)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	if err = s.repo.StoreRefreshToken(ctx, user.ID, refreshToken, expiresAt); err != nil {
		return "", "", fmt.Errorf("failed to store refresh token: %w", err)
	}
	return accessToken, refreshToken, nil
}

func (s *AuthServiceImpl) Register(ctx context.Context, email, password string, firstname, lastname *string) (*types.User, string, string, error) {
	l := s.logger.With(slog.String("method", "Register"), slog.String("email", email))

	if !MeetsPasswordPolicy(password) {
		return nil, "", "", fmt.Errorf("password does not meet strength policy: %w", types.ErrBadRequest)
	}

	hashed, err := HashPassword(password, s.cfg.JWT.BcryptCost)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.repo.CreateUserWithProvider(ctx, email, hashed, firstname, lastname)
	if err != nil {
		return nil, "", "", err
	}

	accessToken, refreshToken, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, "", "", err
	}

	l.InfoContext(ctx, "User registered", slog.String("userID", user.ID.String()))
	return user, accessToken, refreshToken, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*types.User, string, string, error) {
	l := s.logger.With(slog.String("method", "Login"), slog.String("email", email))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			l.WarnContext(ctx, "Login failed: unknown email")
			return nil, "", "", fmt.Errorf("%s: %w", loginFailedMsg, types.ErrUnauthenticated)
		}
		return nil, "", "", fmt.Errorf("login lookup failed: %w", err)
	}

	if !CheckPassword(password, user.PasswordHash) {
		l.WarnContext(ctx, "Login failed: bad password", slog.String("userID", user.ID.String()))
		return nil, "", "", fmt.Errorf("%s: %w", loginFailedMsg, types.ErrUnauthenticated)
	}

	if !user.IsActive {
		// Same message as bad credentials; the distinction lives only in logs.
		l.WarnContext(ctx, "Login failed: account inactive", slog.String("userID", user.ID.String()))
		return nil, "", "", fmt.Errorf("%s: %w", loginFailedMsg, types.ErrUnauthenticated)
	}

	if err = s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		l.WarnContext(ctx, "Failed to stamp last login", slog.Any("error", err))
	} else {
		now := time.Now()
		user.LastLoginAt = &now
	}

	accessToken, refreshToken, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, "", "", err
	}

	l.InfoContext(ctx, "User logged in", slog.String("userID", user.ID.String()))
	return user, accessToken, refreshToken, nil
}

func (s *AuthServiceImpl) RefreshAccessToken(ctx context.Context, refreshToken string) (string, string, error) {
	l := s.logger.With(slog.String("method", "RefreshAccessToken"))

	// Revoke-then-issue: the conditional revoke is the single point where
	// concurrent refreshes with the same token are serialized.
	userID, err := s.repo.ConsumeRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, types.ErrUnauthenticated) {
			l.WarnContext(ctx, "Refresh rejected: token unknown, revoked or expired")
			return "", "", fmt.Errorf("invalid refresh token: %w", types.ErrUnauthenticated)
		}
		return "", "", err
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return "", "", fmt.Errorf("refresh user lookup failed: %w", types.ErrUnauthenticated)
	}
	if !user.IsActive {
		l.WarnContext(ctx, "Refresh rejected: account inactive", slog.String("userID", userID.String()))
		return "", "", fmt.Errorf("account disabled: %w", types.ErrUnauthenticated)
	}

	return s.issueTokenPair(ctx, user)
}

func (s *AuthServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	if err := s.repo.RevokeRefreshToken(ctx, refreshToken); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	return nil
}

func (s *AuthServiceImpl) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword, confirmPassword string) error {
	l := s.logger.With(slog.String("method", "ChangePassword"), slog.String("userID", userID.String()))

	if newPassword != confirmPassword {
		return fmt.Errorf("password confirmation does not match: %w", types.ErrBadRequest)
	}
	if !MeetsPasswordPolicy(newPassword) {
		return fmt.Errorf("password does not meet strength policy: %w", types.ErrBadRequest)
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if !CheckPassword(currentPassword, user.PasswordHash) {
		l.WarnContext(ctx, "Change password rejected: current password mismatch")
		return fmt.Errorf("current password is incorrect: %w", types.ErrUnauthenticated)
	}

	hashed, err := HashPassword(newPassword, s.cfg.JWT.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	if err = s.repo.UpdatePassword(ctx, userID, hashed); err != nil {
		return err
	}

	// Force re-login on every other session and device.
	if err = s.repo.RevokeAllUserRefreshTokens(ctx, userID); err != nil {
		return err
	}

	l.InfoContext(ctx, "Password changed, all refresh tokens revoked")
	return nil
}

func (s *AuthServiceImpl) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

func (s *AuthServiceImpl) UpdateProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) (*types.User, error) {
	return s.repo.UpdateProfile(ctx, userID, params)
}

func (s *AuthServiceImpl) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	deleted, err := s.repo.DeleteExpiredRefreshTokens(ctx)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.InfoContext(ctx, "Expired refresh tokens swept", slog.Int64("deleted", deleted))
	}
	return deleted, nil
}
