package router

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireflow/hireflow-api/app/observability/metrics"
	"github.com/hireflow/hireflow-api/config"
	"github.com/hireflow/hireflow-api/internal/api/application"
	"github.com/hireflow/hireflow-api/internal/api/auth"
	"github.com/hireflow/hireflow-api/internal/api/candidate"
	"github.com/hireflow/hireflow-api/internal/api/job"
	"github.com/hireflow/hireflow-api/internal/types"
)

// memoryAuthRepo is an in-memory AuthRepo so the register → login → me flow
// runs through the real service, middleware and router wiring.
type memoryAuthRepo struct {
	users  map[string]*types.User
	tokens map[string]uuid.UUID
}

func newMemoryAuthRepo() *memoryAuthRepo {
	return &memoryAuthRepo{
		users:  make(map[string]*types.User),
		tokens: make(map[string]uuid.UUID),
	}
}

func (r *memoryAuthRepo) CreateUserWithProvider(ctx context.Context, email, passwordHash string, firstname, lastname *string) (*types.User, error) {
	if _, exists := r.users[email]; exists {
		return nil, types.ErrConflict
	}
	u := &types.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		Firstname:    firstname,
		Lastname:     lastname,
		IsActive:     true,
		Role:         types.RoleUser,
	}
	r.users[email] = u
	return u, nil
}

func (r *memoryAuthRepo) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	u, ok := r.users[email]
	if !ok {
		return nil, types.ErrNotFound
	}
	return u, nil
}

func (r *memoryAuthRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	for _, u := range r.users {
		if u.ID == userID {
			return u, nil
		}
	}
	return nil, types.ErrNotFound
}

func (r *memoryAuthRepo) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error { return nil }

func (r *memoryAuthRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, newHashedPassword string) error {
	u, err := r.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	u.PasswordHash = newHashedPassword
	return nil
}

func (r *memoryAuthRepo) UpdateProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) (*types.User, error) {
	u, err := r.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if params.Firstname != nil {
		u.Firstname = params.Firstname
	}
	if params.Lastname != nil {
		u.Lastname = params.Lastname
	}
	return u, nil
}

func (r *memoryAuthRepo) StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	r.tokens[token] = userID
	return nil
}

func (r *memoryAuthRepo) ConsumeRefreshToken(ctx context.Context, token string) (uuid.UUID, error) {
	userID, ok := r.tokens[token]
	if !ok {
		return uuid.Nil, types.ErrUnauthenticated
	}
	delete(r.tokens, token)
	return userID, nil
}

func (r *memoryAuthRepo) RevokeRefreshToken(ctx context.Context, token string) error {
	delete(r.tokens, token)
	return nil
}

func (r *memoryAuthRepo) RevokeAllUserRefreshTokens(ctx context.Context, userID uuid.UUID) error {
	for token, owner := range r.tokens {
		if owner == userID {
			delete(r.tokens, token)
		}
	}
	return nil
}

func (r *memoryAuthRepo) DeleteExpiredRefreshTokens(ctx context.Context) (int64, error) {
	return 0, nil
}

// stub ATS services; the auth flow never reaches them but the router needs
// non-nil handlers.
type stubCandidateService struct{}

func (stubCandidateService) Create(ctx context.Context, req candidate.CreateCandidateRequest) (*types.Candidate, error) {
	return nil, types.ErrNotFound
}
func (stubCandidateService) GetByID(ctx context.Context, candidateID uuid.UUID) (*types.Candidate, error) {
	return nil, types.ErrNotFound
}
func (stubCandidateService) List(ctx context.Context, limit, offset int) (*types.Page[types.Candidate], error) {
	return &types.Page[types.Candidate]{Items: []types.Candidate{}, Limit: limit, Offset: offset}, nil
}
func (stubCandidateService) Update(ctx context.Context, candidateID uuid.UUID, params candidate.UpdateCandidateParams) (*types.Candidate, error) {
	return nil, types.ErrNotFound
}
func (stubCandidateService) Delete(ctx context.Context, candidateID uuid.UUID) error {
	return types.ErrNotFound
}

type stubJobService struct{}

func (stubJobService) Create(ctx context.Context, req job.CreateJobRequest) (*types.Job, error) {
	return nil, types.ErrNotFound
}
func (stubJobService) GetByID(ctx context.Context, jobID uuid.UUID) (*types.Job, error) {
	return nil, types.ErrNotFound
}
func (stubJobService) List(ctx context.Context, status string, limit, offset int) (*types.Page[types.Job], error) {
	return &types.Page[types.Job]{Items: []types.Job{}, Limit: limit, Offset: offset}, nil
}
func (stubJobService) Update(ctx context.Context, jobID uuid.UUID, params job.UpdateJobParams) (*types.Job, error) {
	return nil, types.ErrNotFound
}
func (stubJobService) Delete(ctx context.Context, jobID uuid.UUID) error { return types.ErrNotFound }

type stubApplicationService struct{}

func (stubApplicationService) Create(ctx context.Context, req application.CreateApplicationRequest) (*types.Application, error) {
	return nil, types.ErrNotFound
}
func (stubApplicationService) GetByID(ctx context.Context, applicationID uuid.UUID) (*types.Application, error) {
	return nil, types.ErrNotFound
}
func (stubApplicationService) List(ctx context.Context, jobID, candidateID *uuid.UUID, limit, offset int) (*types.Page[types.Application], error) {
	return &types.Page[types.Application]{Items: []types.Application{}, Limit: limit, Offset: offset}, nil
}
func (stubApplicationService) UpdateStatus(ctx context.Context, applicationID uuid.UUID, req application.UpdateStatusRequest) (*types.Application, error) {
	return nil, types.ErrNotFound
}
func (stubApplicationService) Delete(ctx context.Context, applicationID uuid.UUID) error {
	return types.ErrNotFound
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	metrics.InitAppMetrics()
	logger := slog.Default()

	cfg := &config.Config{}
	cfg.JWT = config.JWTConfig{
		SecretKey:     "router-test-secret",
		Issuer:        "hireflow-api",
		Audience:      "hireflow-clients",
		AccessExpiry:  "15m",
		RefreshExpiry: "7d",
		BcryptCost:    4,
	}

	authService := auth.NewAuthService(newMemoryAuthRepo(), cfg, logger)
	return SetupRouter(&Config{
		AuthHandler:            auth.NewAuthHandlerImpl(authService, logger),
		CandidateHandler:       candidate.NewCandidateHandlerImpl(stubCandidateService{}, logger),
		JobHandler:             job.NewJobHandlerImpl(stubJobService{}, logger),
		ApplicationHandler:     application.NewApplicationHandlerImpl(stubApplicationService{}, logger),
		AuthenticateMiddleware: auth.Authenticate(logger, cfg.JWT, authService),
	})
}

func doJSON(t *testing.T, handler http.Handler, method, path, body, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestPing(t *testing.T) {
	rr := doJSON(t, newTestRouter(t), http.MethodGet, "/ping", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "pong", rr.Body.String())
}

func TestRegisterLoginMeFlow(t *testing.T) {
	handler := newTestRouter(t)

	// Register.
	rr := doJSON(t, handler, http.MethodPost, "/api/v1/auth/register",
		`{"email":"jordan@example.com","password":"Sup3r!secret"}`, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	// Login with the same credentials.
	rr = doJSON(t, handler, http.MethodPost, "/api/v1/auth/login",
		`{"email":"jordan@example.com","password":"Sup3r!secret"}`, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var loginBody struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &loginBody))
	require.NotEmpty(t, loginBody.AccessToken)

	// The issued access token opens the guarded surface.
	rr = doJSON(t, handler, http.MethodGet, "/api/v1/auth/me", "", loginBody.AccessToken)
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), "jordan@example.com")
	assert.NotContains(t, rr.Body.String(), "password_hash")

	// Refresh rotates: the old refresh token works once.
	rr = doJSON(t, handler, http.MethodPost, "/api/v1/auth/refresh",
		`{"refreshToken":"`+loginBody.RefreshToken+`"}`, "")
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = doJSON(t, handler, http.MethodPost, "/api/v1/auth/refresh",
		`{"refreshToken":"`+loginBody.RefreshToken+`"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGuardedSurfaceRejectsAnonymous(t *testing.T) {
	handler := newTestRouter(t)

	for _, path := range []string{"/api/v1/auth/me", "/api/v1/candidates", "/api/v1/jobs", "/api/v1/applications"} {
		rr := doJSON(t, handler, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
	}
}
