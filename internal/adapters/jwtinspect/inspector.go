// Package jwtinspect reads the expiry claim of bearer tokens locally.
//
// Tokens are decoded without signature verification: the backend remains the
// authority on validity, this package only decides whether presenting the
// token is still worthwhile.
package jwtinspect

import (
	"strings"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/holygrail/holygrail-web/internal/ports"
	"github.com/holygrail/holygrail-web/internal/util"
)

var _ ports.TokenInspector = (*Inspector)(nil)

// Inspector implements ports.TokenInspector over JWT "exp" claims.
type Inspector struct {
	clock  ports.Clock
	parser *gojwt.Parser
}

// New returns an Inspector reading time from clock (system time when nil).
func New(clock ports.Clock) *Inspector {
	if clock == nil {
		clock = util.RealClock{}
	}
	return &Inspector{clock: clock, parser: gojwt.NewParser()}
}

// ExpiresAt returns the token's exp claim. ok is false when the token is
// absent, malformed, or carries no exp.
func (i *Inspector) ExpiresAt(token string) (time.Time, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return time.Time{}, false
	}

	claims := &gojwt.RegisteredClaims{}
	if _, _, err := i.parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// IsExpired reports whether exp lies strictly before the current time.
// Anything that cannot be decoded is expired.
func (i *Inspector) IsExpired(token string) bool {
	exp, ok := i.ExpiresAt(token)
	if !ok {
		return true
	}
	return exp.Before(i.clock.Now())
}
