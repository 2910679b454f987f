// Package auth contains domain-level types for client-side sessions.
// It is pure and free of framework/adapter concerns.
package auth

import (
	"fmt"
	"strings"
	"time"
)

// Role represents an application's authorization role.
// Roles are ordinal: a higher value grants everything a lower one does.
type Role int

const (
	RoleGuest     Role = 0
	RoleUser      Role = 1
	RoleAdmin     Role = 2
	RoleDeveloper Role = 3
)

// AtLeast reports whether r satisfies required (r >= required).
// Roles outside the known scale never satisfy anything.
func (r Role) AtLeast(required Role) bool {
	if !r.Valid() || !required.Valid() {
		return false
	}
	return r >= required
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool { return r >= RoleGuest && r <= RoleDeveloper }

func (r Role) String() string {
	switch r {
	case RoleGuest:
		return "guest"
	case RoleUser:
		return "user"
	case RoleAdmin:
		return "admin"
	case RoleDeveloper:
		return "developer"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// ParseRole maps a role name back to its ordinal.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "guest":
		return RoleGuest, nil
	case "user":
		return RoleUser, nil
	case "admin":
		return RoleAdmin, nil
	case "developer", "dev":
		return RoleDeveloper, nil
	default:
		return RoleGuest, fmt.Errorf("unknown role %q", s)
	}
}

// User is the profile half of a session as returned by the backend.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     Role   `json:"role"`
	Verified bool   `json:"verified"`
}

// IsZero reports whether u carries no identity, as a stored "null" or "{}" decodes.
func (u User) IsZero() bool { return u.ID == 0 && u.Username == "" }

// Session pairs a user profile with the bearer token that authenticates it.
// The two halves are always persisted and cleared together.
type Session struct {
	User        User      `json:"user"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// IsGuest returns true if the session role is guest.
func (s Session) IsGuest() bool { return s.User.Role == RoleGuest }

// HasRole reports whether the session user holds at least the required role.
func (s Session) HasRole(required Role) bool { return s.User.Role.AtLeast(required) }

// Credentials is the raw, store-level form of a session: the encoded user
// payload and the opaque token. Stores never interpret either half.
type Credentials struct {
	User        string
	AccessToken string
}

// Complete reports whether both halves are present.
// A lone token or a lone user record reads as no session.
func (c Credentials) Complete() bool {
	return c.User != "" && c.AccessToken != ""
}

// Empty reports whether neither half is present.
func (c Credentials) Empty() bool {
	return c.User == "" && c.AccessToken == ""
}
