package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/hireflow/hireflow-api/app/observability/metrics"
	"github.com/hireflow/hireflow-api/internal/api"
	"github.com/hireflow/hireflow-api/internal/types"
)

type AuthHandlerImpl struct {
	authService AuthService
	logger      *slog.Logger
}

func NewAuthHandlerImpl(authService AuthService, logger *slog.Logger) *AuthHandlerImpl {
	return &AuthHandlerImpl{
		logger:      logger,
		authService: authService,
	}
}

// recordAuthOp updates the auth counters and duration histogram for one
// operation outcome.
func recordAuthOp(r *http.Request, op string, start time.Time, err error) {
	m := metrics.Get()
	attrs := metric.WithAttributes(attribute.String("operation", op))
	m.AuthRequestsTotal.Add(r.Context(), 1, attrs)
	if err != nil {
		m.AuthFailuresTotal.Add(r.Context(), 1, attrs)
	}
	m.AuthDurationSeconds.Record(r.Context(), time.Since(start).Seconds(), attrs)
}

func (h *AuthHandlerImpl) Register(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	l := h.logger.With(slog.String("handler", "Register"))

	var req RegisterRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "email and password are required")
		return
	}

	user, accessToken, refreshToken, err := h.authService.Register(r.Context(), req.Email, req.Password, req.Firstname, req.Lastname)
	recordAuthOp(r, "register", start, err)
	if err != nil {
		l.WarnContext(r.Context(), "Registration failed", slog.Any("error", err))
		api.DomainErrorResponse(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusCreated, AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

func (h *AuthHandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	l := h.logger.With(slog.String("handler", "Login"))

	var req LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "email and password are required")
		return
	}

	user, accessToken, refreshToken, err := h.authService.Login(r.Context(), req.Email, req.Password)
	recordAuthOp(r, "login", start, err)
	if err != nil {
		l.WarnContext(r.Context(), "Login failed", slog.Any("error", err))
		api.DomainErrorResponse(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

func (h *AuthHandlerImpl) RefreshSession(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	l := h.logger.With(slog.String("handler", "RefreshSession"))

	var req RefreshTokenRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "refreshToken is required")
		return
	}

	accessToken, refreshToken, err := h.authService.RefreshAccessToken(r.Context(), req.RefreshToken)
	metrics.Get().TokenRefreshTotal.Add(r.Context(), 1)
	recordAuthOp(r, "refresh", start, err)
	if err != nil {
		l.WarnContext(r.Context(), "Token refresh failed", slog.Any("error", err))
		api.DomainErrorResponse(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

func (h *AuthHandlerImpl) Logout(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	l := h.logger.With(slog.String("handler", "Logout"))

	var req LogoutRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "refreshToken is required")
		return
	}

	err := h.authService.Logout(r.Context(), req.RefreshToken)
	recordAuthOp(r, "logout", start, err)
	if err != nil {
		l.ErrorContext(r.Context(), "Logout failed", slog.Any("error", err))
		api.DomainErrorResponse(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, MessageResponse{Message: "logged out"})
}

func (h *AuthHandlerImpl) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), userID)
	if err != nil {
		api.DomainErrorResponse(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, user)
}

func (h *AuthHandlerImpl) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	var params types.UpdateProfileParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.authService.UpdateProfile(r.Context(), userID, params)
	if err != nil {
		api.DomainErrorResponse(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, user)
}

func (h *AuthHandlerImpl) ChangePassword(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	l := h.logger.With(slog.String("handler", "ChangePassword"))

	userID, ok := userIDFromRequest(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	var req ChangePasswordRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "currentPassword, newPassword and confirmPassword are required")
		return
	}

	err := h.authService.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
	recordAuthOp(r, "change_password", start, err)
	if err != nil {
		l.WarnContext(r.Context(), "Change password failed", slog.Any("error", err))
		api.DomainErrorResponse(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, MessageResponse{Message: "password updated"})
}

// userIDFromRequest resolves the authenticated user id placed in the request
// context by the Authenticate middleware.
func userIDFromRequest(r *http.Request) (uuid.UUID, bool) {
	raw, ok := GetUserIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}
