package httpx

import (
	"log/slog"
	"net/http"

	"github.com/holygrail/holygrail-web/config"
	domainauth "github.com/holygrail/holygrail-web/internal/domain/auth"
	"github.com/holygrail/holygrail-web/internal/ports"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth      AuthFlows
	Sessions  SessionReader
	Resources ports.ResourceBackend

	Session       config.SessionConfig
	// SecureCookies forces the Secure attribute on device and CSRF cookies.
	SecureCookies bool
	// CSRF enables double-submit protection for cookie-bound sessions.
	CSRF          bool
	// DeviceCookie overrides DefaultDeviceCookie in redis mode.
	DeviceCookie  string

	Logger *slog.Logger
}

// NewRouter creates the router and wraps it with browser detection,
// optional CSRF protection and per-request session binding.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()
	loginPath := services.Session.LoginPath

	authHandlers := &AuthHandlers{
		Svc:         services.Auth,
		LandingPath: services.Session.LandingPath,
		LoginPath:   loginPath,
		Logger:      services.Logger,
	}
	accountHandlers := &AccountHandlers{Svc: services.Auth, Logger: services.Logger}

	health := healthHandler(string(services.Session.Store))
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)

	registerAuthRoutes(mux, authHandlers, services.Sessions)
	registerAccountRoutes(mux, accountHandlers, services.Sessions, loginPath)
	if services.Resources != nil {
		registerResourceRoutes(mux, &ResourceHandlers{Backend: services.Resources, Logger: services.Logger},
			services.Sessions, loginPath)
	}

	var csrf Middleware
	if services.CSRF {
		csrf = CSRFProtection(CSRFConfig{Secure: services.SecureCookies})
	}
	return Chain(mux,
		BrowserDetection(),
		csrf,
		sessionBinding(services),
	)
}

// sessionBinding picks the per-request binding the configured store needs.
func sessionBinding(services RouterServices) Middleware {
	switch services.Session.Store {
	case config.SessionStoreRedis:
		return DeviceBinding(services.DeviceCookie, services.SecureCookies)
	case config.SessionStoreMemory:
		return nil
	default:
		return BindCookies()
	}
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, sessions SessionReader) {
	mux.HandleFunc("POST /auth/login", h.Login)
	mux.HandleFunc("POST /auth/register", h.Register)
	mux.HandleFunc("POST /auth/verify", h.Verify)
	mux.HandleFunc("POST /auth/reset_password", h.ResetPassword)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.Handle("GET /auth/status", OptionalSession(sessions)(http.HandlerFunc(h.Status)))
}

func registerAccountRoutes(mux *http.ServeMux, h *AccountHandlers, sessions SessionReader, loginPath string) {
	mux.Handle("GET /api/me", RequireSession(sessions, loginPath)(http.HandlerFunc(h.Me)))
	mux.Handle("POST /api/me/refresh", RequireSession(sessions, loginPath)(http.HandlerFunc(h.Refresh)))
	mux.Handle("PUT /api/admin/users/{id}",
		RequireRole(sessions, domainauth.RoleAdmin, loginPath)(http.HandlerFunc(h.UpdateUser)))
}

func registerResourceRoutes(mux *http.ServeMux, h *ResourceHandlers, sessions SessionReader, loginPath string) {
	mux.Handle("POST /api/resources", RequireSession(sessions, loginPath)(http.HandlerFunc(h.Upload)))
	mux.HandleFunc("GET /api/leaderboard", h.Leaderboard)
}
