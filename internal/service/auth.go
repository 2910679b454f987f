package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	domainauth "github.com/holygrail/holygrail-web/internal/domain/auth"
	apperrors "github.com/holygrail/holygrail-web/internal/errors"
	"github.com/holygrail/holygrail-web/internal/ports"
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Backend  ports.AuthBackend // Required: REST credential exchanges
	Sessions *SessionService   // Required: local session persistence
	Logger   *slog.Logger      // Optional: structured logger
}

// AuthService orchestrates credential flows by coordinating the backend and
// the local session. A session is only written once the backend call has
// fully succeeded, so an abandoned or failed flow leaves no trace.
type AuthService struct {
	backend  ports.AuthBackend
	sessions *SessionService
	logger   *slog.Logger
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) (*AuthService, error) {
	if opts.Backend == nil {
		return nil, errors.New("AuthBackend is required")
	}
	if opts.Sessions == nil {
		return nil, errors.New("SessionService is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		backend:  opts.Backend,
		sessions: opts.Sessions,
		logger:   logger.With("component", "auth_service"),
	}, nil
}

// Sessions exposes the underlying session service.
func (s *AuthService) Sessions() *SessionService { return s.sessions }

// Current returns the active session or nil.
func (s *AuthService) Current(ctx context.Context) *domainauth.Session {
	return s.sessions.Read(ctx)
}

// Login exchanges a username and password for a session.
func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (*domainauth.Session, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		return nil, apperrors.ValidationField("username", "username is required")
	}
	if in.Password == "" {
		return nil, apperrors.ValidationField("password", "password is required")
	}

	res, err := s.backend.Login(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return s.establish(ctx, "login", res)
}

// Register creates an account and signs it in.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domainauth.Session, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	switch {
	case in.Username == "":
		return nil, apperrors.ValidationField("username", "username is required")
	case in.Email == "" || !strings.Contains(in.Email, "@"):
		return nil, apperrors.ValidationField("email", "a valid email is required")
	case in.Password == "":
		return nil, apperrors.ValidationField("password", "password is required")
	}

	res, err := s.backend.Register(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return s.establish(ctx, "register", res)
}

// Verify submits an email verification code. When the backend issues a new
// token the session is rewritten; otherwise only the profile is refreshed.
func (s *AuthService) Verify(ctx context.Context, in ports.VerifyInput) (*domainauth.Session, error) {
	in.Code = strings.TrimSpace(in.Code)
	if in.Code == "" {
		return nil, apperrors.ValidationField("code", "verification code is required")
	}
	if s.sessions.Read(ctx) == nil {
		return nil, apperrors.Unauthorized("sign in before verifying your account")
	}

	res, err := s.backend.Verify(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	if strings.TrimSpace(res.AccessToken) != "" {
		return s.establish(ctx, "verify", res)
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeCanceled, "verify abandoned")
	}
	return s.sessions.UpdateProfile(ctx, res.User)
}

// RefreshProfile reloads the current user from the backend and stores it.
func (s *AuthService) RefreshProfile(ctx context.Context) (*domainauth.Session, error) {
	if s.sessions.Read(ctx) == nil {
		return nil, apperrors.Unauthorized("no active session")
	}
	user, err := s.backend.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh profile: %w", err)
	}
	return s.sessions.UpdateProfile(ctx, user)
}

// ResetPassword requests a reset email (Email only) or completes a reset
// (Token and NewPassword). The local session is not touched.
func (s *AuthService) ResetPassword(ctx context.Context, in ports.ResetPasswordInput) error {
	in.Email = strings.TrimSpace(in.Email)
	in.Token = strings.TrimSpace(in.Token)
	switch {
	case in.Token == "" && in.Email == "":
		return apperrors.ValidationField("email", "email is required")
	case in.Token != "" && in.NewPassword == "":
		return apperrors.ValidationField("new_password", "new password is required")
	}
	if err := s.backend.ResetPassword(ctx, in); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

// UpdateUser edits another account. The caller must hold at least Admin.
// Editing one's own account refreshes the local profile.
func (s *AuthService) UpdateUser(ctx context.Context, id int64, in ports.UserUpdate) (domainauth.User, error) {
	current := s.sessions.Read(ctx)
	if current == nil {
		return domainauth.User{}, apperrors.Unauthorized("no active session")
	}
	if !current.HasRole(domainauth.RoleAdmin) {
		return domainauth.User{}, apperrors.Forbidden("admin role required")
	}
	if id <= 0 {
		return domainauth.User{}, apperrors.ValidationField("id", "user id must be positive")
	}
	if in.Role != nil && !in.Role.Valid() {
		return domainauth.User{}, apperrors.ValidationField("role", "unknown role")
	}

	updated, err := s.backend.UpdateUser(ctx, id, in)
	if err != nil {
		return domainauth.User{}, fmt.Errorf("update user %d: %w", id, err)
	}

	if updated.ID == current.User.ID {
		if _, err := s.sessions.UpdateProfile(ctx, updated); err != nil {
			s.logger.WarnContext(ctx, "updated own account but failed to refresh session",
				slog.Int64("user_id", id),
				slog.Any("error", err))
		}
	}
	return updated, nil
}

// Logout erases the local session.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.sessions.Erase(ctx)
}

func (s *AuthService) establish(ctx context.Context, flow string, res ports.AuthResult) (*domainauth.Session, error) {
	if strings.TrimSpace(res.AccessToken) == "" {
		return nil, apperrors.Internal("backend returned no access token")
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeCanceled, flow+" abandoned")
	}

	sess, err := s.sessions.WriteResult(ctx, res)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "session established",
		slog.String("flow", flow),
		slog.String("username", sess.User.Username),
		slog.String("role", sess.User.Role.String()))
	return sess, nil
}
