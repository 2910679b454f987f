package httpx

import (
	"context"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"time"

	domainauth "github.com/holygrail/holygrail-web/internal/domain/auth"
	apperrors "github.com/holygrail/holygrail-web/internal/errors"
	"github.com/holygrail/holygrail-web/internal/ports"
)

// AuthFlows is the slice of the auth service the HTTP layer drives.
type AuthFlows interface {
	Current(ctx context.Context) *domainauth.Session
	Login(ctx context.Context, in ports.LoginInput) (*domainauth.Session, error)
	Register(ctx context.Context, in ports.RegisterInput) (*domainauth.Session, error)
	Verify(ctx context.Context, in ports.VerifyInput) (*domainauth.Session, error)
	ResetPassword(ctx context.Context, in ports.ResetPasswordInput) error
	RefreshProfile(ctx context.Context) (*domainauth.Session, error)
	UpdateUser(ctx context.Context, id int64, in ports.UserUpdate) (domainauth.User, error)
	Logout(ctx context.Context) error
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc         AuthFlows
	LandingPath string
	LoginPath   string
	Logger      *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// sessionView is what the frontend reveals about a session. The token
// stays in its HttpOnly cookie.
type sessionView struct {
	Authenticated bool             `json:"authenticated"`
	User          *domainauth.User `json:"user,omitempty"`
	Role          string           `json:"role,omitempty"`
	ExpiresAt     *time.Time       `json:"expires_at,omitempty"`
}

func viewOf(s *domainauth.Session) sessionView {
	if s == nil {
		return sessionView{}
	}
	user := s.User
	v := sessionView{Authenticated: true, User: &user, Role: user.Role.String()}
	if !s.ExpiresAt.IsZero() {
		exp := s.ExpiresAt
		v.ExpiresAt = &exp
	}
	return v
}

// Login exchanges credentials for a session.
// POST /auth/login (JSON or form: username, password, redirect_uri).
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var in ports.LoginInput
	if !h.decode(w, r, &in, func(f url.Values) {
		in = ports.LoginInput{Username: f.Get("username"), Password: f.Get("password")}
	}) {
		return
	}
	sess, err := h.Svc.Login(r.Context(), in)
	h.finishSession(w, r, sess, err, http.StatusOK)
}

// Register creates an account and signs it in.
// POST /auth/register (JSON or form: username, email, password).
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var in ports.RegisterInput
	if !h.decode(w, r, &in, func(f url.Values) {
		in = ports.RegisterInput{
			Username: f.Get("username"),
			Email:    f.Get("email"),
			Password: f.Get("password"),
		}
	}) {
		return
	}
	sess, err := h.Svc.Register(r.Context(), in)
	h.finishSession(w, r, sess, err, http.StatusCreated)
}

// Verify submits an account verification code.
// POST /auth/verify (JSON or form: code).
func (h *AuthHandlers) Verify(w http.ResponseWriter, r *http.Request) {
	var in ports.VerifyInput
	if !h.decode(w, r, &in, func(f url.Values) { in = ports.VerifyInput{Code: f.Get("code")} }) {
		return
	}
	sess, err := h.Svc.Verify(r.Context(), in)
	h.finishSession(w, r, sess, err, http.StatusOK)
}

// ResetPassword requests a reset email or completes a reset.
// POST /auth/reset_password.
func (h *AuthHandlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var in ports.ResetPasswordInput
	if !h.decode(w, r, &in, func(f url.Values) {
		in = ports.ResetPasswordInput{
			Email:       f.Get("email"),
			Token:       f.Get("token"),
			NewPassword: f.Get("new_password"),
		}
	}) {
		return
	}
	if err := h.Svc.ResetPassword(r.Context(), in); err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// Logout erases the session and sends the browser to the landing page.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Logout(r.Context()); err != nil {
		h.logger().ErrorContext(r.Context(), "logout failed", slog.Any("error", err))
		WriteAppError(w, apperrors.Wrap(err, apperrors.ErrCodeInternal, "logout failed"))
		return
	}

	target := redirectTarget("", h.LandingPath)
	switch {
	case IsHTMX(r):
		SetHXRedirect(w, target)
		w.WriteHeader(http.StatusOK)
	case isAJAX(r):
		WriteJSON(w, http.StatusOK, map[string]string{"status": "success", "redirect_to": target})
	default:
		http.Redirect(w, r, target, http.StatusSeeOther)
	}
}

// Status reports whether the caller has a live session.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		sess = h.Svc.Current(r.Context())
	}
	WriteJSON(w, http.StatusOK, viewOf(sess))
}

// decode reads the body as JSON, or as a form when the browser posted one.
func (h *AuthHandlers) decode(w http.ResponseWriter, r *http.Request, dst any, fromForm func(url.Values)) bool {
	if isFormPost(r) {
		if err := r.ParseForm(); err != nil {
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_form", Err: err})
			return false
		}
		fromForm(r.PostForm)
		return true
	}
	return DecodeJSON(w, r, dst)
}

// finishSession answers a credential exchange: JSON for API callers, a
// redirect for browsers that posted a form.
func (h *AuthHandlers) finishSession(w http.ResponseWriter, r *http.Request, sess *domainauth.Session, err error, status int) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !isFormPost(r) {
		WriteJSON(w, status, viewOf(sess))
		return
	}
	target := redirectTarget(r.FormValue("redirect_uri"), h.LandingPath)
	if IsHTMX(r) {
		SetHXRedirect(w, target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *AuthHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.GetCode(err)
	if code == "" || code == apperrors.ErrCodeInternal || code == apperrors.ErrCodeUnavailable {
		h.logger().ErrorContext(r.Context(), "auth flow failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	if isFormPost(r) && !IsHTMX(r) && (code == apperrors.ErrCodeValidation || code == apperrors.ErrCodeUnauthorized) {
		q := url.Values{"error": {string(code)}}
		if back := safeRedirectPath(r.FormValue("redirect_uri")); back != "" {
			q.Set("redirect_uri", back)
		}
		http.Redirect(w, r, redirectTarget("", h.LoginPath)+"?"+q.Encode(), http.StatusSeeOther)
		return
	}
	WriteAppError(w, err)
}

func isFormPost(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/x-www-form-urlencoded"
}
