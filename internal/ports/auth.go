// Package ports defines interfaces (hexagonal ports) for session-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.
package ports

import (
	"context"
	"time"

	domainauth "github.com/holygrail/holygrail-web/internal/domain/auth"
)

// Clock supplies wall-clock time. Tests substitute a fixed clock.
type Clock interface {
	Now() time.Time
}

// CredentialStore persists the two halves of a session.
// Implementations treat both halves as opaque strings.
type CredentialStore interface {
	// Load returns whatever halves are currently stored. Missing halves are empty strings.
	Load(ctx context.Context) (domainauth.Credentials, error)

	// Save writes both halves with the same absolute expiry. Either both land or neither does.
	Save(ctx context.Context, creds domainauth.Credentials, expiresAt time.Time) error

	// Clear removes both halves. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// TokenInspector decodes the expiry claim of a bearer token without contacting the server.
type TokenInspector interface {
	// IsExpired reports whether the token must be treated as expired.
	// Absent or undecodable tokens are expired.
	IsExpired(token string) bool

	// ExpiresAt returns the token's expiry claim when it can be decoded.
	ExpiresAt(token string) (time.Time, bool)
}

// SessionEraser clears local session state. It is the narrow dependency
// the API client needs for its cleanup interceptors.
type SessionEraser interface {
	Erase(ctx context.Context) error
}

// TokenSource yields the current access token ("" when absent).
type TokenSource interface {
	AccessToken(ctx context.Context) string
}

// LoginInput carries credentials for POST /auth/login.
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterInput carries the fields for POST /auth/create.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyInput carries the verification code for POST /auth/verify.
type VerifyInput struct {
	Code string `json:"code"`
}

// ResetPasswordInput carries the fields for POST /auth/reset_password.
// An empty Token requests a reset email; a non-empty one completes the reset.
type ResetPasswordInput struct {
	Email       string `json:"email,omitempty"`
	Token       string `json:"token,omitempty"`
	NewPassword string `json:"new_password,omitempty"`
}

// UserUpdate is a partial user update for PUT /admin/user/{id}.
type UserUpdate struct {
	Username *string          `json:"username,omitempty"`
	Email    *string          `json:"email,omitempty"`
	Role     *domainauth.Role `json:"role,omitempty"`
	Verified *bool            `json:"verified,omitempty"`
}

// AuthResult is the backend's answer to a successful credential exchange.
// Backends report expiry either as an absolute timestamp or as seconds from now.
type AuthResult struct {
	User        domainauth.User `json:"user"`
	AccessToken string          `json:"access_token"`
	ExpiresAt   *time.Time      `json:"expires_at,omitempty"`
	ExpiresIn   int64           `json:"expires_in,omitempty"`
}

// AuthBackend performs credential exchanges and profile operations against the REST API.
type AuthBackend interface {
	Register(ctx context.Context, in RegisterInput) (AuthResult, error)
	Login(ctx context.Context, in LoginInput) (AuthResult, error)
	Verify(ctx context.Context, in VerifyInput) (AuthResult, error)
	CurrentUser(ctx context.Context) (domainauth.User, error)
	ResetPassword(ctx context.Context, in ResetPasswordInput) error
	UpdateUser(ctx context.Context, id int64, in UserUpdate) (domainauth.User, error)
}
