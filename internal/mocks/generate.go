// Package mocks provides mock implementations of the session ports for testing.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the port interfaces.
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	store := mocks.NewMockCredentialStore(ctrl)
//	store.EXPECT().Clear(gomock.Any()).Return(nil)
package mocks

// CredentialStore: Load, Save, Clear
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=credential_store_mock.go github.com/holygrail/holygrail-web/internal/ports CredentialStore

// TokenInspector: IsExpired, ExpiresAt
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=token_inspector_mock.go github.com/holygrail/holygrail-web/internal/ports TokenInspector

// AuthBackend: Register, Login, Verify, CurrentUser, ResetPassword, UpdateUser
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=auth_backend_mock.go github.com/holygrail/holygrail-web/internal/ports AuthBackend

// ResourceBackend: UploadResource, Leaderboard
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=resource_backend_mock.go github.com/holygrail/holygrail-web/internal/ports ResourceBackend
