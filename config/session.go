package config

import (
	"fmt"
	"strings"
	"time"
)

// SessionStoreKind selects where the server keeps session credentials.
type SessionStoreKind string

const (
	// SessionStoreCookie keeps both halves in host-only HttpOnly cookies.
	SessionStoreCookie SessionStoreKind = "cookie"
	// SessionStoreRedis keeps both halves in Redis keyed by a device cookie.
	SessionStoreRedis SessionStoreKind = "redis"
	// SessionStoreMemory keeps a single process-wide session (development only).
	SessionStoreMemory SessionStoreKind = "memory"
)

// UnmarshalText implements encoding.TextUnmarshaler for SessionStoreKind.
func (k *SessionStoreKind) UnmarshalText(text []byte) error {
	v := SessionStoreKind(strings.ToLower(strings.TrimSpace(string(text))))
	switch v {
	case SessionStoreCookie, SessionStoreRedis, SessionStoreMemory:
		*k = v
		return nil
	default:
		return fmt.Errorf("invalid SessionStoreKind: %q (valid options: cookie, redis, memory)", string(text))
	}
}

const (
	defaultUserKey     = "user"
	defaultTokenKey    = "access_token"
	defaultSessionTTL  = 24 * time.Hour
	defaultLandingPath = "/"
	defaultLoginPath   = "/login"
)

// SessionConfig controls session persistence.
type SessionConfig struct {
	Store SessionStoreKind `env:"SESSION_STORE" envDefault:"cookie"`

	// UserKey and TokenKey name the two halves (cookie names or storage keys).
	UserKey  string `env:"SESSION_USER_KEY"  envDefault:"user"`
	TokenKey string `env:"SESSION_TOKEN_KEY" envDefault:"access_token"`

	// DefaultTTL applies only when neither the backend nor the token states an expiry.
	DefaultTTL time.Duration `env:"SESSION_DEFAULT_TTL" envDefault:"24h"`

	// LandingPath is where logout sends the browser.
	LandingPath string `env:"SESSION_LANDING_PATH" envDefault:"/"`

	// LoginPath is where protected pages send anonymous browsers.
	LoginPath string `env:"SESSION_LOGIN_PATH" envDefault:"/login"`
}

// Sanitize fills blanks and clamps the TTL.
func (c *SessionConfig) Sanitize() {
	if c.Store == "" {
		c.Store = SessionStoreCookie
	}
	if c.UserKey = strings.TrimSpace(c.UserKey); c.UserKey == "" {
		c.UserKey = defaultUserKey
	}
	if c.TokenKey = strings.TrimSpace(c.TokenKey); c.TokenKey == "" {
		c.TokenKey = defaultTokenKey
	}
	if c.UserKey == c.TokenKey {
		c.TokenKey = defaultTokenKey
		if c.UserKey == defaultTokenKey {
			c.UserKey = defaultUserKey
		}
	}
	if c.DefaultTTL <= 0 {
		c.DefaultTTL = defaultSessionTTL
	}
	c.LandingPath = sanitizePath(c.LandingPath, defaultLandingPath)
	c.LoginPath = sanitizePath(c.LoginPath, defaultLoginPath)
}

// sanitizePath keeps only local absolute paths so redirects never leave the site.
func sanitizePath(p, fallback string) string {
	p = strings.TrimSpace(p)
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") {
		return fallback
	}
	return p
}
