package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domainauth "github.com/holygrail/holygrail-web/internal/domain/auth"
	apperrors "github.com/holygrail/holygrail-web/internal/errors"
	"github.com/holygrail/holygrail-web/internal/observability/metrics"
	"github.com/holygrail/holygrail-web/internal/observability/statsd"
	"github.com/holygrail/holygrail-web/internal/ports"
	"github.com/holygrail/holygrail-web/internal/util"
)

// DefaultSessionTTL applies when neither the backend nor the token states an expiry.
const DefaultSessionTTL = 24 * time.Hour

var (
	_ ports.SessionEraser = (*SessionService)(nil)
	_ ports.TokenSource   = (*SessionService)(nil)
)

// SessionServiceOptions groups dependencies for SessionService.
type SessionServiceOptions struct {
	Store     ports.CredentialStore // Required: where both halves live
	Inspector ports.TokenInspector  // Required: expiry decoding
	Clock     ports.Clock           // Optional: defaults to wall clock
	// DefaultTTL is the fallback lifetime for ExpiryFrom. Defaults to DefaultSessionTTL.
	DefaultTTL time.Duration
	// StoreName tags metrics ("cookie", "redis", "file", ...).
	StoreName string
	Metrics   statsd.Sink  // Optional
	Logger    *slog.Logger // Optional: structured logger
}

// SessionService reads, writes and erases the client-side session.
//
// The session is the pair (user profile, access token). Both halves are
// written together with one expiry and erased together; a read that finds
// only one half, an expired token or an undecodable profile reports no session.
type SessionService struct {
	store      ports.CredentialStore
	inspector  ports.TokenInspector
	clock      ports.Clock
	defaultTTL time.Duration
	storeName  string
	metrics    statsd.Sink
	logger     *slog.Logger
}

// NewSessionService constructs a new SessionService.
func NewSessionService(opts SessionServiceOptions) (*SessionService, error) {
	if opts.Store == nil {
		return nil, errors.New("CredentialStore is required")
	}
	if opts.Inspector == nil {
		return nil, errors.New("TokenInspector is required")
	}

	clock := opts.Clock
	if clock == nil {
		clock = util.RealClock{}
	}
	ttl := opts.DefaultTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SessionService{
		store:      opts.Store,
		inspector:  opts.Inspector,
		clock:      clock,
		defaultTTL: ttl,
		storeName:  opts.StoreName,
		metrics:    opts.Metrics,
		logger:     logger.With("component", "session_service"),
	}, nil
}

// MustNewSessionService constructs a new SessionService and panics on error.
func MustNewSessionService(opts SessionServiceOptions) *SessionService {
	svc, err := NewSessionService(opts)
	if err != nil {
		panic(err) //nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
	}
	return svc
}

// Read returns the current session, or nil when there is none. It never
// fails: store errors, partial state, expired tokens and corrupt profiles
// all read as "no session". Read does not modify the store.
func (s *SessionService) Read(ctx context.Context) *domainauth.Session {
	creds, err := s.store.Load(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load session", slog.Any("error", err))
		s.emit(metrics.OpRead, metrics.ReadStoreError, err)
		return nil
	}

	switch {
	case creds.Empty():
		s.emit(metrics.OpRead, metrics.ReadAbsent, nil)
		return nil
	case !creds.Complete():
		s.emit(metrics.OpRead, metrics.ReadPartial, nil)
		return nil
	case s.inspector.IsExpired(creds.AccessToken):
		s.emit(metrics.OpRead, metrics.ReadExpired, nil)
		return nil
	}

	var user domainauth.User
	if err := json.Unmarshal([]byte(creds.User), &user); err != nil {
		s.logger.WarnContext(ctx, "stored user payload is not valid JSON", slog.Any("error", err))
		s.emit(metrics.OpRead, metrics.ReadDecodeError, err)
		return nil
	}
	if user.IsZero() {
		s.logger.WarnContext(ctx, "stored user payload carries no identity")
		s.emit(metrics.OpRead, metrics.ReadDecodeError, nil)
		return nil
	}

	exp, _ := s.inspector.ExpiresAt(creds.AccessToken)
	s.emit(metrics.OpRead, metrics.ReadValid, nil)
	return &domainauth.Session{
		User:        user,
		AccessToken: creds.AccessToken,
		ExpiresAt:   exp,
	}
}

// ReadOrPrune is Read followed by removal of whatever unusable halves are
// still stored, so a half-written or expired session does not linger.
func (s *SessionService) ReadOrPrune(ctx context.Context) *domainauth.Session {
	if sess := s.Read(ctx); sess != nil {
		return sess
	}
	creds, err := s.store.Load(ctx)
	if err != nil || creds.Empty() {
		return nil
	}
	if err := s.Erase(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to prune stale session", slog.Any("error", err))
	}
	return nil
}

// Write persists user and token together with one absolute expiry. It
// returns the written session, or nil and the cause when the store refused
// the write; nothing is partially written in that case.
func (s *SessionService) Write(
	ctx context.Context,
	user domainauth.User,
	token string,
	expiresAt time.Time,
) (*domainauth.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperrors.ValidationField("access_token", "access token is required")
	}
	if user.IsZero() {
		return nil, apperrors.ValidationField("user", "user profile is required")
	}
	if !expiresAt.After(s.clock.Now()) {
		return nil, apperrors.ValidationField("expires_at", "session expiry must be in the future")
	}

	payload, err := json.Marshal(user)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode user payload")
	}

	creds := domainauth.Credentials{User: string(payload), AccessToken: token}
	if err := s.store.Save(ctx, creds, expiresAt); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist session",
			slog.String("username", user.Username),
			slog.Any("error", err))
		s.emit(metrics.OpWrite, metrics.ResultError, err)
		return nil, fmt.Errorf("persist session: %w", err)
	}

	s.emit(metrics.OpWrite, metrics.ResultSuccess, nil)
	metrics.EmitSessionTTL(s.metrics, s.storeName, expiresAt.Sub(s.clock.Now()))
	return &domainauth.Session{User: user, AccessToken: token, ExpiresAt: expiresAt}, nil
}

// WriteFor is Write with an expiry relative to now.
func (s *SessionService) WriteFor(
	ctx context.Context,
	user domainauth.User,
	token string,
	ttl time.Duration,
) (*domainauth.Session, error) {
	if ttl <= 0 {
		return nil, apperrors.ValidationField("expires_in", "session lifetime must be positive")
	}
	return s.Write(ctx, user, token, s.clock.Now().Add(ttl))
}

// WriteResult persists the outcome of a credential exchange.
func (s *SessionService) WriteResult(ctx context.Context, res ports.AuthResult) (*domainauth.Session, error) {
	return s.Write(ctx, res.User, res.AccessToken, s.ExpiryFrom(res))
}

// ExpiryFrom resolves the absolute expiry of a backend answer. An explicit
// expires_at wins, then expires_in seconds, then the token's exp claim, then
// the default TTL.
func (s *SessionService) ExpiryFrom(res ports.AuthResult) time.Time {
	now := s.clock.Now()
	switch {
	case res.ExpiresAt != nil && !res.ExpiresAt.IsZero():
		return *res.ExpiresAt
	case res.ExpiresIn > 0:
		return now.Add(time.Duration(res.ExpiresIn) * time.Second)
	}
	if exp, ok := s.inspector.ExpiresAt(res.AccessToken); ok {
		return exp
	}
	return now.Add(s.defaultTTL)
}

// Erase removes both halves. Erasing an empty session is not an error;
// only store failures are returned.
func (s *SessionService) Erase(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		s.emit(metrics.OpErase, metrics.ResultError, err)
		return fmt.Errorf("clear session: %w", err)
	}
	s.emit(metrics.OpErase, metrics.ResultSuccess, nil)
	return nil
}

// UpdateProfile replaces the stored user while keeping the token. The
// rewritten session expires with the token.
func (s *SessionService) UpdateProfile(ctx context.Context, user domainauth.User) (*domainauth.Session, error) {
	current := s.Read(ctx)
	if current == nil {
		return nil, apperrors.Unauthorized("no active session")
	}
	return s.Write(ctx, user, current.AccessToken, current.ExpiresAt)
}

// AccessToken returns the stored token, or "" when none is stored or the
// store cannot be read. Expiry is left to the backend to judge.
func (s *SessionService) AccessToken(ctx context.Context) string {
	creds, err := s.store.Load(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load access token", slog.Any("error", err))
		return ""
	}
	return creds.AccessToken
}

func (s *SessionService) emit(op, outcome string, err error) {
	metrics.EmitSessionEvent(s.metrics, metrics.SessionMetric{
		Op:      op,
		Outcome: outcome,
		Store:   s.storeName,
		Err:     err,
	})
}
