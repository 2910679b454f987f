package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	domainauth "github.com/holygrail/holygrail-web/internal/domain/auth"
)

// SessionReader resolves the session of the current request. Unusable
// remnants (a lone half, an expired token) are pruned while reading.
type SessionReader interface {
	ReadOrPrune(ctx context.Context) *domainauth.Session
}

// RequireSession returns a middleware that requires a live session.
// Browsers are sent to loginPath with a redirect_uri; API callers get 401 JSON.
func RequireSession(sessions SessionReader, loginPath string) Middleware {
	return RequireRole(sessions, domainauth.RoleGuest, loginPath)
}

// RequireRole returns a middleware that requires a session whose role is at
// least required. A missing session is handled as in RequireSession; an
// insufficient role answers 403.
func RequireRole(sessions SessionReader, required domainauth.Role, loginPath string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := sessions.ReadOrPrune(r.Context())
			if session == nil {
				if IsBrowserRequest(r) {
					redirectToLogin(w, r, loginPath)
					return
				}
				WriteError(w, ErrorParams{
					Code:    http.StatusUnauthorized,
					ErrCode: "authentication_required",
					Err:     errors.New("authentication required"),
				})
				return
			}

			if !session.HasRole(required) {
				if IsBrowserRequest(r) {
					http.Error(w, "Access Denied: you don't have permission to access this resource", http.StatusForbidden)
					return
				}
				WriteError(w, ErrorParams{
					Code:    http.StatusForbidden,
					ErrCode: "insufficient_permissions",
					Err:     errors.New("insufficient permissions"),
				})
				return
			}

			next.ServeHTTP(w, r.WithContext(SetSessionInContext(r.Context(), session)))
		})
	}
}

// OptionalSession adds the session to the request context when there is one.
func OptionalSession(sessions SessionReader) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if session := sessions.ReadOrPrune(r.Context()); session != nil {
				r = r.WithContext(SetSessionInContext(r.Context(), session))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// browserRequestKey is an unexported context key type for browser request detection.
type browserRequestKey struct{}

// BrowserDetection records whether the request came from a browser so
// downstream handlers can choose between redirects and JSON.
func BrowserDetection() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), browserRequestKey{}, isBrowserRequest(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IsBrowserRequest returns true if the current request is from a browser.
func IsBrowserRequest(r *http.Request) bool {
	if isBrowser, ok := r.Context().Value(browserRequestKey{}).(bool); ok {
		return isBrowser
	}
	return isBrowserRequest(r)
}

// isBrowserRequest treats /api/ paths and AJAX calls as API traffic, htmx
// as browser traffic, and otherwise goes by the Accept header.
func isBrowserRequest(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") || isAJAX(r) {
		return false
	}
	if IsHTMX(r) {
		return true
	}
	accept := r.Header.Get("Accept")
	return accept == "" || strings.Contains(accept, "text/html")
}

// redirectToLogin sends the browser to loginPath, remembering where it was headed.
func redirectToLogin(w http.ResponseWriter, r *http.Request, loginPath string) {
	back := redirectPathForRequest(r)
	if back == "" {
		back = "/"
	}
	target := safeRedirectPath(loginPath)
	if target == "" {
		target = "/login"
	}
	target += "?redirect_uri=" + url.QueryEscape(back)

	if IsHTMX(r) {
		SetHXRedirect(w, target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func redirectPathForRequest(r *http.Request) string {
	if IsHTMX(r) {
		if current := safeRedirectFromURL(r.Header.Get("Hx-Current-Url")); current != "" {
			return current
		}
	}
	return safeRedirectPath(r.URL.RequestURI())
}
