// Package cookie provides a request-scoped credential store backed by HTTP cookies.
//
// The store keeps the session in two host-only cookies: one holding the
// URL-encoded user JSON, one holding the raw bearer token. Both share a single
// expiry. A store instance is shared across requests; the cookies it reads and
// writes come from the per-request jar attached with Bind.
package cookie

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	domainauth "github.com/holygrail/holygrail-web/internal/domain/auth"
	"github.com/holygrail/holygrail-web/internal/ports"
	"github.com/holygrail/holygrail-web/internal/util"
)

// ErrNoRequestContext is returned when Save is attempted outside a bound request.
var ErrNoRequestContext = errors.New("cookie store: no request context bound")

const (
	DefaultUserCookie  = "user"
	DefaultTokenCookie = "access_token"
)

var _ ports.CredentialStore = (*Store)(nil)

// Options configures cookie names and transport attributes.
type Options struct {
	UserCookie  string
	TokenCookie string
	// Secure forces the Secure attribute (production). Requests arriving over
	// TLS get it regardless.
	Secure bool
	Clock  ports.Clock
}

// Store implements ports.CredentialStore over the cookies of the bound request.
type Store struct {
	userName  string
	tokenName string
	secure    bool
	clock     ports.Clock
}

// NewStore creates a cookie store, defaulting unset names to "user" and "access_token".
func NewStore(opts Options) *Store {
	s := &Store{
		userName:  strings.TrimSpace(opts.UserCookie),
		tokenName: strings.TrimSpace(opts.TokenCookie),
		secure:    opts.Secure,
		clock:     opts.Clock,
	}
	if s.userName == "" {
		s.userName = DefaultUserCookie
	}
	if s.tokenName == "" {
		s.tokenName = DefaultTokenCookie
	}
	if s.clock == nil {
		s.clock = util.RealClock{}
	}
	return s
}

// jarKey is an unexported context key type to avoid collisions across packages.
type jarKey struct{}

// jar carries the request/response pair plus writes made during the request,
// so reads later in the same request observe them.
type jar struct {
	mu        sync.Mutex
	w         http.ResponseWriter
	r         *http.Request
	overrides map[string]*string // nil value marks a deleted cookie
}

// Bind attaches a cookie jar for w and r to ctx.
func Bind(ctx context.Context, w http.ResponseWriter, r *http.Request) context.Context {
	return context.WithValue(ctx, jarKey{}, &jar{w: w, r: r, overrides: make(map[string]*string)})
}

// Bound reports whether ctx carries a cookie jar.
func Bound(ctx context.Context) bool {
	_, ok := jarFrom(ctx)
	return ok
}

func jarFrom(ctx context.Context) (*jar, bool) {
	j, ok := ctx.Value(jarKey{}).(*jar)
	return j, ok && j != nil
}

func (j *jar) get(name string) string {
	if v, ok := j.overrides[name]; ok {
		if v == nil {
			return ""
		}
		return *v
	}
	c, err := j.r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// Load returns the halves present on the bound request. Without a bound
// request there is nothing to read, which is reported as empty credentials.
func (s *Store) Load(ctx context.Context) (domainauth.Credentials, error) {
	j, ok := jarFrom(ctx)
	if !ok {
		return domainauth.Credentials{}, nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	raw := j.get(s.userName)
	user, err := url.QueryUnescape(raw)
	if err != nil {
		// Leave undecodable values to the reader's JSON check.
		user = raw
	}
	return domainauth.Credentials{User: user, AccessToken: j.get(s.tokenName)}, nil
}

// Save sets both cookies with the same expiry on the bound response.
func (s *Store) Save(ctx context.Context, creds domainauth.Credentials, expiresAt time.Time) error {
	j, ok := jarFrom(ctx)
	if !ok {
		return ErrNoRequestContext
	}
	if !creds.Complete() {
		return errors.New("cookie store: both user and token are required")
	}
	maxAge := int(expiresAt.Sub(s.clock.Now()).Seconds())
	if maxAge <= 0 {
		return fmt.Errorf("cookie store: expiry %s is not in the future", expiresAt.UTC().Format(time.RFC3339))
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	userValue := url.QueryEscape(creds.User)
	http.SetCookie(j.w, s.cookie(j.r, s.userName, userValue, expiresAt, maxAge))
	http.SetCookie(j.w, s.cookie(j.r, s.tokenName, creds.AccessToken, expiresAt, maxAge))

	user, token := creds.User, creds.AccessToken
	j.overrides[s.userName] = &user
	j.overrides[s.tokenName] = &token
	return nil
}

// Clear expires both cookies. It always emits both deletions. Outside a bound
// request there is no cookie to expire, so it does nothing.
func (s *Store) Clear(ctx context.Context) error {
	j, ok := jarFrom(ctx)
	if !ok {
		return nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	expired := time.Unix(0, 0).UTC()
	http.SetCookie(j.w, s.cookie(j.r, s.userName, "", expired, -1))
	http.SetCookie(j.w, s.cookie(j.r, s.tokenName, "", expired, -1))

	j.overrides[s.userName] = nil
	j.overrides[s.tokenName] = nil
	return nil
}

// cookie builds a host-only (no Domain) cookie that page scripts cannot read.
func (s *Store) cookie(r *http.Request, name, value string, expires time.Time, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secure || isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	}
}

func isSecureRequest(r *http.Request) bool {
	if r == nil {
		return false
	}
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
