package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hireflow/hireflow-api/config"
	"github.com/hireflow/hireflow-api/internal/api"
	"github.com/hireflow/hireflow-api/internal/types"
)

// Define typed context keys
type contextKey string

const UserIDKey contextKey = "userID"
const UserRoleKey contextKey = "userRole"

// Authenticate is middleware to validate JWT access tokens. It verifies
// signature, expiry, issuer and audience, then resolves the subject to a live
// user so a deactivated account loses access immediately, not at token expiry.
func Authenticate(logger *slog.Logger, jwtCfg config.JWTConfig, svc AuthService) func(next http.Handler) http.Handler {
	secretKey := []byte(jwtCfg.SecretKey)
	if len(secretKey) == 0 {
		logger.Error("FATAL: JWT Secret Key is not configured!")
		panic("JWT Secret Key cannot be empty")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := logger.With(slog.String("middleware", "Authenticate"))

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				l.WarnContext(ctx, "Missing Authorization header")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Authorization header required")
				return
			}

			headerParts := strings.Split(authHeader, " ")
			if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
				l.WarnContext(ctx, "Invalid Authorization header format")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
				return
			}
			tokenString := headerParts[1]

			claims := &types.Claims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return secretKey, nil
			})

			if err != nil {
				l.WarnContext(ctx, "Token parsing/validation failed", slog.Any("error", err))
				errMsg := "Invalid or expired token"
				if errors.Is(err, jwt.ErrTokenExpired) {
					errMsg = "Token has expired"
				} else if errors.Is(err, jwt.ErrTokenMalformed) {
					errMsg = "Malformed token"
				} else if errors.Is(err, jwt.ErrSignatureInvalid) {
					errMsg = "Invalid token signature"
				}
				api.ErrorResponse(w, r, http.StatusUnauthorized, errMsg)
				return
			}

			if !token.Valid {
				l.WarnContext(ctx, "Token marked as invalid or claims are nil")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid token")
				return
			}

			if claims.Issuer != jwtCfg.Issuer {
				l.WarnContext(ctx, "Token issuer mismatch", slog.String("expected", jwtCfg.Issuer), slog.String("actual", claims.Issuer))
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid token issuer")
				return
			}

			if jwtCfg.Audience != "" && !api.VerifyAudience(claims.Audience, jwtCfg.Audience) {
				l.WarnContext(ctx, "Token audience mismatch", slog.String("expected", jwtCfg.Audience), slog.Any("actual", claims.Audience))
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid token audience")
				return
			}

			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				l.WarnContext(ctx, "Token subject is not a valid user id", slog.String("user_id", claims.UserID))
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid token")
				return
			}

			// A valid signature is not enough: the subject must still resolve
			// to an active account.
			user, err := svc.GetUserByID(ctx, userID)
			if err != nil || !user.IsActive {
				l.WarnContext(ctx, "Token subject no longer resolves to an active user", slog.String("userID", claims.UserID))
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, UserRoleKey, user.Role)
			l.DebugContext(ctx, "Authentication successful, claims added to context", slog.String("userID", claims.UserID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Helper functions to get claims from context
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

func GetUserRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(UserRoleKey).(string)
	return role, ok
}

// RequireRole guards a route group behind a role. Runs AFTER Authenticate.
func RequireRole(logger *slog.Logger, allowedRoles ...string) func(next http.Handler) http.Handler {
	roleMap := make(map[string]struct{}, len(allowedRoles))
	for _, role := range allowedRoles {
		roleMap[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetUserRoleFromContext(r.Context())
			if !ok {
				logger.ErrorContext(r.Context(), "Role missing from context; Authenticate must run first")
				api.ErrorResponse(w, r, http.StatusForbidden, "access denied")
				return
			}
			if _, allowed := roleMap[role]; !allowed {
				logger.WarnContext(r.Context(), "Role check failed", slog.String("role", role))
				api.ErrorResponse(w, r, http.StatusForbidden, "access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
