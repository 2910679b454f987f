// Package auth contains simple hand-written test doubles for session ports.
// These are lightweight and suitable for unit tests without codegen.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	domainauth "github.com/holygrail/holygrail-web/internal/domain/auth"
	"github.com/holygrail/holygrail-web/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.CredentialStore = (*FlakyStore)(nil)
	_ ports.SessionEraser   = (*RecordingEraser)(nil)
	_ ports.TokenSource     = StaticToken("")
	_ ports.AuthBackend     = (*StubBackend)(nil)
)

// ErrInjected is the default failure returned by FlakyStore.
var ErrInjected = errors.New("injected store failure")

// FlakyStore is an in-memory credential store whose operations can be made to fail.
type FlakyStore struct {
	mu sync.Mutex

	Creds     domainauth.Credentials
	ExpiresAt time.Time

	LoadErr  error
	SaveErr  error
	ClearErr error

	Loads, Saves, Clears int
}

func (s *FlakyStore) Load(_ context.Context) (domainauth.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Loads++
	if s.LoadErr != nil {
		return domainauth.Credentials{}, s.LoadErr
	}
	return s.Creds, nil
}

func (s *FlakyStore) Save(_ context.Context, creds domainauth.Credentials, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Saves++
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.Creds = creds
	s.ExpiresAt = expiresAt
	return nil
}

func (s *FlakyStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Clears++
	if s.ClearErr != nil {
		return s.ClearErr
	}
	s.Creds = domainauth.Credentials{}
	s.ExpiresAt = time.Time{}
	return nil
}

// Snapshot returns the stored credentials.
func (s *FlakyStore) Snapshot() domainauth.Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Creds
}

// RecordingEraser counts Erase calls and optionally fails them.
type RecordingEraser struct {
	mu    sync.Mutex
	calls int
	Err   error
}

func (e *RecordingEraser) Erase(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	return e.Err
}

// Calls returns how many times Erase ran.
func (e *RecordingEraser) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// StaticToken is a TokenSource that always yields the same token.
type StaticToken string

func (s StaticToken) AccessToken(context.Context) string { return string(s) }

// StubBackend is an AuthBackend driven by optional func fields.
// Unset operations return zero values and no error.
type StubBackend struct {
	RegisterFunc      func(ctx context.Context, in ports.RegisterInput) (ports.AuthResult, error)
	LoginFunc         func(ctx context.Context, in ports.LoginInput) (ports.AuthResult, error)
	VerifyFunc        func(ctx context.Context, in ports.VerifyInput) (ports.AuthResult, error)
	CurrentUserFunc   func(ctx context.Context) (domainauth.User, error)
	ResetPasswordFunc func(ctx context.Context, in ports.ResetPasswordInput) error
	UpdateUserFunc    func(ctx context.Context, id int64, in ports.UserUpdate) (domainauth.User, error)
}

func (b *StubBackend) Register(ctx context.Context, in ports.RegisterInput) (ports.AuthResult, error) {
	if b.RegisterFunc != nil {
		return b.RegisterFunc(ctx, in)
	}
	return ports.AuthResult{}, nil
}

func (b *StubBackend) Login(ctx context.Context, in ports.LoginInput) (ports.AuthResult, error) {
	if b.LoginFunc != nil {
		return b.LoginFunc(ctx, in)
	}
	return ports.AuthResult{}, nil
}

func (b *StubBackend) Verify(ctx context.Context, in ports.VerifyInput) (ports.AuthResult, error) {
	if b.VerifyFunc != nil {
		return b.VerifyFunc(ctx, in)
	}
	return ports.AuthResult{}, nil
}

func (b *StubBackend) CurrentUser(ctx context.Context) (domainauth.User, error) {
	if b.CurrentUserFunc != nil {
		return b.CurrentUserFunc(ctx)
	}
	return domainauth.User{}, nil
}

func (b *StubBackend) ResetPassword(ctx context.Context, in ports.ResetPasswordInput) error {
	if b.ResetPasswordFunc != nil {
		return b.ResetPasswordFunc(ctx, in)
	}
	return nil
}

func (b *StubBackend) UpdateUser(ctx context.Context, id int64, in ports.UserUpdate) (domainauth.User, error) {
	if b.UpdateUserFunc != nil {
		return b.UpdateUserFunc(ctx, id, in)
	}
	return domainauth.User{}, nil
}
