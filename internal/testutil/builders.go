// Package testutil provides testing utilities and helpers for the session layer.
package testutil

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	domainauth "github.com/holygrail/holygrail-web/internal/domain/auth"
)

const testSigningKey = "holygrail-test-key"

// TokenBuilder mints HS256 bearer tokens. Nothing in the session layer checks
// signatures, so any key works.
type TokenBuilder struct {
	claims gojwt.RegisteredClaims
}

// NewToken creates a TokenBuilder for subject "alice" with no expiry.
func NewToken() *TokenBuilder {
	return &TokenBuilder{claims: gojwt.RegisteredClaims{Subject: "alice"}}
}

// WithSubject sets the sub claim.
func (b *TokenBuilder) WithSubject(sub string) *TokenBuilder {
	b.claims.Subject = sub
	return b
}

// ExpiringAt sets the exp claim.
func (b *TokenBuilder) ExpiringAt(exp time.Time) *TokenBuilder {
	b.claims.ExpiresAt = gojwt.NewNumericDate(exp)
	return b
}

// IssuedAt sets the iat claim.
func (b *TokenBuilder) IssuedAt(iat time.Time) *TokenBuilder {
	b.claims.IssuedAt = gojwt.NewNumericDate(iat)
	return b
}

// Build signs the token.
func (b *TokenBuilder) Build(t testing.TB) string {
	t.Helper()
	tok, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, b.claims).SignedString([]byte(testSigningKey))
	if err != nil {
		t.Fatalf("sign test token: %v", err)
	}
	return tok
}

// UserBuilder provides a fluent interface for building domain users.
type UserBuilder struct {
	user domainauth.User
}

// NewUser creates a verified regular user named alice.
func NewUser() *UserBuilder {
	return &UserBuilder{user: domainauth.User{
		ID:       1,
		Username: "alice",
		Email:    "alice@example.com",
		Role:     domainauth.RoleUser,
		Verified: true,
	}}
}

// WithID sets the user ID.
func (b *UserBuilder) WithID(id int64) *UserBuilder {
	b.user.ID = id
	return b
}

// WithUsername sets the username.
func (b *UserBuilder) WithUsername(name string) *UserBuilder {
	b.user.Username = name
	return b
}

// WithRole sets the role.
func (b *UserBuilder) WithRole(role domainauth.Role) *UserBuilder {
	b.user.Role = role
	return b
}

// Unverified clears the verified flag.
func (b *UserBuilder) Unverified() *UserBuilder {
	b.user.Verified = false
	return b
}

// Build returns the user.
func (b *UserBuilder) Build() domainauth.User {
	return b.user
}
