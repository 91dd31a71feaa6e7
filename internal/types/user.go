package types

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// User roles. Stored as text; the column default is RoleUser.
const (
	RoleUser      = "user"
	RoleAdmin     = "admin"
	RoleRecruiter = "recruiter"
)

// Auth provider kinds. One row per (user, provider) pair.
const (
	ProviderEmail    = "email"
	ProviderGoogle   = "google"
	ProviderGithub   = "github"
	ProviderFacebook = "facebook"
	ProviderLinkedin = "linkedin"
)

// User is the identity record. PasswordHash is excluded from every JSON
// response; the struct as marshalled IS the sanitized user.
type User struct {
	ID              uuid.UUID  `json:"id"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	Firstname       *string    `json:"firstname,omitempty"`
	Lastname        *string    `json:"lastname,omitempty"`
	Phone           *string    `json:"phone,omitempty"`
	AvatarURL       *string    `json:"avatar_url,omitempty"`
	EmailVerified   bool       `json:"email_verified"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	IsActive        bool       `json:"is_active"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
	Role            string     `json:"role"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// AuthProvider links a User to one authentication method. The email row is
// created at registration; federated rows are created when a federated login
// is linked. Deleted with the owning user.
type AuthProvider struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	Provider       string     `json:"provider"`
	ProviderUserID *string    `json:"provider_user_id,omitempty"`
	AccessToken    *string    `json:"-"`
	RefreshToken   *string    `json:"-"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// RefreshToken is the persisted, revocable credential. Expired is a derived
// state (ExpiresAt vs now), revoked is stored.
type RefreshToken struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	Revoked   bool       `json:"revoked"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// UpdateProfileParams carries the mutable profile fields. Pointers distinguish
// "not provided" from zero values so omitted fields stay untouched.
type UpdateProfileParams struct {
	Firstname *string `json:"firstname,omitempty"`
	Lastname  *string `json:"lastname,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// Claims is the access-token payload.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
