package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"github.com/hireflow/hireflow-api/config"
	"github.com/hireflow/hireflow-api/internal/types"
)

// MockAuthRepo is a mock implementation of the AuthRepo interface.
type MockAuthRepo struct {
	mock.Mock
}

func (m *MockAuthRepo) CreateUserWithProvider(ctx context.Context, email, passwordHash string, firstname, lastname *string) (*types.User, error) {
	args := m.Called(ctx, email, passwordHash, firstname, lastname)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockAuthRepo) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockAuthRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockAuthRepo) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockAuthRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, newHashedPassword string) error {
	args := m.Called(ctx, userID, newHashedPassword)
	return args.Error(0)
}

func (m *MockAuthRepo) UpdateProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) (*types.User, error) {
	args := m.Called(ctx, userID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockAuthRepo) StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, token, expiresAt)
	return args.Error(0)
}

func (m *MockAuthRepo) ConsumeRefreshToken(ctx context.Context, token string) (uuid.UUID, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockAuthRepo) RevokeRefreshToken(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockAuthRepo) RevokeAllUserRefreshTokens(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockAuthRepo) DeleteExpiredRefreshTokens(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

const testPassword = "Sup3r!secret"

func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT = config.JWTConfig{
		SecretKey:     "test-secret-key-for-unit-tests",
		Issuer:        "hireflow-api",
		Audience:      "hireflow-clients",
		AccessExpiry:  "15m",
		RefreshExpiry: "7d",
		BcryptCost:    bcrypt.MinCost,
	}
	return cfg
}

func newTestUser(t *testing.T) *types.User {
	t.Helper()
	hash, err := HashPassword(testPassword, bcrypt.MinCost)
	assert.NoError(t, err)
	return &types.User{
		ID:           uuid.New(),
		Email:        "jordan@example.com",
		PasswordHash: hash,
		IsActive:     true,
		Role:         types.RoleUser,
	}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()
	cfg := newTestConfig()

	t.Run("success issues token pair", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		user := newTestUser(t)
		mockRepo.On("CreateUserWithProvider", ctx, user.Email, mock.AnythingOfType("string"), (*string)(nil), (*string)(nil)).
			Return(user, nil)
		mockRepo.On("StoreRefreshToken", ctx, user.ID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
			Return(nil)

		svc := NewAuthService(mockRepo, cfg, logger)
		got, accessToken, refreshToken, err := svc.Register(ctx, user.Email, testPassword, nil, nil)

		assert.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.NotEmpty(t, accessToken)
		assert.NotEmpty(t, refreshToken)
		assert.NotEqual(t, accessToken, refreshToken)
		mockRepo.AssertExpectations(t)
	})

	t.Run("weak password rejected before touching the repo", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		svc := NewAuthService(mockRepo, cfg, logger)

		_, _, _, err := svc.Register(ctx, "jordan@example.com", "weak", nil, nil)

		assert.ErrorIs(t, err, types.ErrBadRequest)
		mockRepo.AssertNotCalled(t, "CreateUserWithProvider", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("duplicate email surfaces conflict", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		mockRepo.On("CreateUserWithProvider", ctx, "taken@example.com", mock.AnythingOfType("string"), (*string)(nil), (*string)(nil)).
			Return(nil, types.ErrConflict)

		svc := NewAuthService(mockRepo, cfg, logger)
		_, _, _, err := svc.Register(ctx, "taken@example.com", testPassword, nil, nil)

		assert.ErrorIs(t, err, types.ErrConflict)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()
	cfg := newTestConfig()

	t.Run("success stamps last login and issues tokens", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		user := newTestUser(t)
		mockRepo.On("GetUserByEmail", ctx, user.Email).Return(user, nil)
		mockRepo.On("UpdateLastLogin", ctx, user.ID).Return(nil)
		mockRepo.On("StoreRefreshToken", ctx, user.ID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
			Return(nil)

		svc := NewAuthService(mockRepo, cfg, logger)
		got, accessToken, refreshToken, err := svc.Login(ctx, user.Email, testPassword)

		assert.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.NotEmpty(t, refreshToken)

		// The access token must verify against the configured secret and
		// carry the configured issuer.
		claims := &types.Claims{}
		parsed, err := jwt.ParseWithClaims(accessToken, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(cfg.JWT.SecretKey), nil
		})
		assert.NoError(t, err)
		assert.True(t, parsed.Valid)
		assert.Equal(t, cfg.JWT.Issuer, claims.Issuer)
		assert.Equal(t, user.ID.String(), claims.UserID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("failures are indistinguishable", func(t *testing.T) {
		user := newTestUser(t)
		inactive := newTestUser(t)
		inactive.IsActive = false

		cases := []struct {
			name  string
			setup func(m *MockAuthRepo)
			pass  string
		}{
			{
				name: "unknown email",
				setup: func(m *MockAuthRepo) {
					m.On("GetUserByEmail", ctx, mock.AnythingOfType("string")).Return(nil, types.ErrNotFound)
				},
				pass: testPassword,
			},
			{
				name: "wrong password",
				setup: func(m *MockAuthRepo) {
					m.On("GetUserByEmail", ctx, mock.AnythingOfType("string")).Return(user, nil)
				},
				pass: "Wr0ng!password",
			},
			{
				name: "inactive account",
				setup: func(m *MockAuthRepo) {
					m.On("GetUserByEmail", ctx, mock.AnythingOfType("string")).Return(inactive, nil)
				},
				pass: testPassword,
			},
		}

		var messages []string
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				mockRepo := new(MockAuthRepo)
				tc.setup(mockRepo)

				svc := NewAuthService(mockRepo, cfg, logger)
				_, _, _, err := svc.Login(ctx, "jordan@example.com", tc.pass)

				assert.ErrorIs(t, err, types.ErrUnauthenticated)
				messages = append(messages, err.Error())
			})
		}

		// Same message for every failure mode, so callers cannot probe which
		// emails exist.
		for _, msg := range messages[1:] {
			assert.Equal(t, messages[0], msg)
		}
	})

	t.Run("last login stamp failure does not block login", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		user := newTestUser(t)
		mockRepo.On("GetUserByEmail", ctx, user.Email).Return(user, nil)
		mockRepo.On("UpdateLastLogin", ctx, user.ID).Return(errors.New("db hiccup"))
		mockRepo.On("StoreRefreshToken", ctx, user.ID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
			Return(nil)

		svc := NewAuthService(mockRepo, cfg, logger)
		_, accessToken, _, err := svc.Login(ctx, user.Email, testPassword)

		assert.NoError(t, err)
		assert.NotEmpty(t, accessToken)
	})
}

func TestRefreshAccessToken(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()
	cfg := newTestConfig()

	t.Run("rotation issues a new pair", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		user := newTestUser(t)
		mockRepo.On("ConsumeRefreshToken", ctx, "old-token").Return(user.ID, nil)
		mockRepo.On("GetUserByID", ctx, user.ID).Return(user, nil)
		mockRepo.On("StoreRefreshToken", ctx, user.ID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
			Return(nil)

		svc := NewAuthService(mockRepo, cfg, logger)
		accessToken, refreshToken, err := svc.RefreshAccessToken(ctx, "old-token")

		assert.NoError(t, err)
		assert.NotEmpty(t, accessToken)
		assert.NotEmpty(t, refreshToken)
		assert.NotEqual(t, "old-token", refreshToken)
		mockRepo.AssertExpectations(t)
	})

	t.Run("consumed token is rejected", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		mockRepo.On("ConsumeRefreshToken", ctx, "spent-token").Return(uuid.Nil, types.ErrUnauthenticated)

		svc := NewAuthService(mockRepo, cfg, logger)
		_, _, err := svc.RefreshAccessToken(ctx, "spent-token")

		assert.ErrorIs(t, err, types.ErrUnauthenticated)
		mockRepo.AssertNotCalled(t, "StoreRefreshToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("inactive user cannot refresh", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		user := newTestUser(t)
		user.IsActive = false
		mockRepo.On("ConsumeRefreshToken", ctx, "live-token").Return(user.ID, nil)
		mockRepo.On("GetUserByID", ctx, user.ID).Return(user, nil)

		svc := NewAuthService(mockRepo, cfg, logger)
		_, _, err := svc.RefreshAccessToken(ctx, "live-token")

		assert.ErrorIs(t, err, types.ErrUnauthenticated)
	})
}

// casAuthRepo overrides the rotation path with an in-memory compare-and-swap
// so concurrent refreshes race the way the conditional UPDATE makes them race
// in Postgres.
type casAuthRepo struct {
	MockAuthRepo

	mu       sync.Mutex
	consumed bool
	user     *types.User
}

func (r *casAuthRepo) ConsumeRefreshToken(ctx context.Context, token string) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.consumed {
		return uuid.Nil, types.ErrUnauthenticated
	}
	r.consumed = true
	return r.user.ID, nil
}

func (r *casAuthRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	return r.user, nil
}

func (r *casAuthRepo) StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	return nil
}

func TestRefreshAccessTokenConcurrent(t *testing.T) {
	ctx := context.Background()
	repo := &casAuthRepo{user: newTestUser(t)}
	svc := NewAuthService(repo, newTestConfig(), slog.Default())

	const goroutines = 8
	results := make(chan error, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.RefreshAccessToken(ctx, "shared-token")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var winners, losers int
	for err := range results {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, types.ErrUnauthenticated)
			losers++
		}
	}
	assert.Equal(t, 1, winners, "exactly one concurrent refresh may succeed")
	assert.Equal(t, goroutines-1, losers)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockAuthRepo)
	mockRepo.On("RevokeRefreshToken", ctx, "some-token").Return(nil).Twice()

	svc := NewAuthService(mockRepo, newTestConfig(), slog.Default())

	// Repeated logout with the same token is a silent no-op.
	assert.NoError(t, svc.Logout(ctx, "some-token"))
	assert.NoError(t, svc.Logout(ctx, "some-token"))
	mockRepo.AssertExpectations(t)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()
	cfg := newTestConfig()
	newPassword := "N3w!password"

	t.Run("confirmation mismatch", func(t *testing.T) {
		svc := NewAuthService(new(MockAuthRepo), cfg, logger)
		err := svc.ChangePassword(ctx, uuid.New(), testPassword, newPassword, "different")
		assert.ErrorIs(t, err, types.ErrBadRequest)
	})

	t.Run("weak new password", func(t *testing.T) {
		svc := NewAuthService(new(MockAuthRepo), cfg, logger)
		err := svc.ChangePassword(ctx, uuid.New(), testPassword, "weak", "weak")
		assert.ErrorIs(t, err, types.ErrBadRequest)
	})

	t.Run("wrong current password", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		user := newTestUser(t)
		mockRepo.On("GetUserByID", ctx, user.ID).Return(user, nil)

		svc := NewAuthService(mockRepo, cfg, logger)
		err := svc.ChangePassword(ctx, user.ID, "Wr0ng!password", newPassword, newPassword)

		assert.ErrorIs(t, err, types.ErrUnauthenticated)
		mockRepo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("success revokes every refresh token", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		user := newTestUser(t)
		mockRepo.On("GetUserByID", ctx, user.ID).Return(user, nil)
		mockRepo.On("UpdatePassword", ctx, user.ID, mock.AnythingOfType("string")).Return(nil)
		mockRepo.On("RevokeAllUserRefreshTokens", ctx, user.ID).Return(nil)

		svc := NewAuthService(mockRepo, cfg, logger)
		err := svc.ChangePassword(ctx, user.ID, testPassword, newPassword, newPassword)

		assert.NoError(t, err)
		mockRepo.AssertCalled(t, "RevokeAllUserRefreshTokens", ctx, user.ID)
	})
}

func TestCleanupExpiredTokens(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockAuthRepo)
	mockRepo.On("DeleteExpiredRefreshTokens", ctx).Return(int64(3), nil)

	svc := NewAuthService(mockRepo, newTestConfig(), slog.Default())
	deleted, err := svc.CleanupExpiredTokens(ctx)

	assert.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
}

func TestParseLifetime(t *testing.T) {
	tests := []struct {
		spec     string
		fallback time.Duration
		want     time.Duration
	}{
		{"7d", DefaultRefreshTokenTTL, 7 * 24 * time.Hour},
		{"15m", DefaultAccessTokenTTL, 15 * time.Minute},
		{"12h", DefaultAccessTokenTTL, 12 * time.Hour},
		{"1d", DefaultRefreshTokenTTL, 24 * time.Hour},
		{"", DefaultAccessTokenTTL, DefaultAccessTokenTTL},
		{"m", DefaultAccessTokenTTL, DefaultAccessTokenTTL},
		{"0m", DefaultAccessTokenTTL, DefaultAccessTokenTTL},
		{"-5h", DefaultAccessTokenTTL, DefaultAccessTokenTTL},
		{"5x", DefaultAccessTokenTTL, DefaultAccessTokenTTL},
		{"abc", DefaultRefreshTokenTTL, DefaultRefreshTokenTTL},
		{"d7", DefaultRefreshTokenTTL, DefaultRefreshTokenTTL},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLifetime(tt.spec, tt.fallback))
		})
	}
}
