package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Principal identifies the authenticated caller of a scoped operation.
// Role and ProfileID drive row-level visibility: ProfileID is the
// teachers.id or students.id matching the user, zero when the user has
// no profile row. It is passed explicitly into services; the core never
// reads ambient session state.
type Principal struct {
	UserID    int64    `json:"user_id"`
	Role      UserRole `json:"role"`
	ProfileID int64    `json:"profile_id"`
}

// IsAdmin reports whether the principal has unrestricted scope.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// HasProfile reports whether a role-specific profile row was resolved.
// Teacher/Student principals without one must be refused by scoped
// operations rather than silently widened.
func (p Principal) HasProfile() bool {
	return p.Role == RoleAdmin || p.ProfileID != 0
}

// Claims is the JWT payload carried by access tokens.
type Claims struct {
	UserID    int64    `json:"uid"`
	Role      UserRole `json:"role"`
	ProfileID int64    `json:"pid"`
	FullName  string   `json:"full_name"`
	jwt.RegisteredClaims
}

// Principal converts token claims into a caller principal.
func (c *Claims) Principal() Principal {
	return Principal{UserID: c.UserID, Role: c.Role, ProfileID: c.ProfileID}
}

// LoginRequest is the credential payload for authentication.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UserInfo is the public account projection returned after login.
type UserInfo struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	Role     UserRole `json:"role"`
}

// LoginResponse carries issued tokens and the resolved identity.
type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	IssuedAt     time.Time `json:"issued_at"`
	User         UserInfo  `json:"user"`
	Principal    Principal `json:"principal"`
}

// RefreshTokenRequest exchanges a refresh token for a new pair.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse carries the renewed access token.
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// ChangePasswordRequest carries a password rotation for the caller.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// RefreshToken is a persisted opaque refresh token.
type RefreshToken struct {
	ID        string     `db:"id" json:"id"`
	UserID    int64      `db:"user_id" json:"user_id"`
	Token     string     `db:"token" json:"-"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	Revoked   bool       `db:"revoked" json:"revoked"`
	RevokedAt *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
}
