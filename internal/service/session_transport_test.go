package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holygrail/holygrail-web/internal/adapters/localstorage"
	"github.com/holygrail/holygrail-web/internal/apiclient"
	"github.com/holygrail/holygrail-web/internal/testutil"
)

// newSessionClient wires an API client whose interceptors are driven by the fixture's session.
func newSessionClient(t *testing.T, f *sessionFixture, h http.HandlerFunc) *apiclient.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	reqs, resps := apiclient.Standard(f.svc, f.svc, testutil.DiscardLogger())
	c, err := apiclient.New(apiclient.Options{
		BaseURL:              srv.URL,
		Logger:               testutil.DiscardLogger(),
		RequestInterceptors:  reqs,
		ResponseInterceptors: resps,
	})
	require.NoError(t, err)
	return c
}

func TestSessionTransport_NoTokenSendsNoAuthorizationAndClearsStrayUser(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	f.store.SetItem(localstorage.KeyUser, `{"id":1,"username":"alice","role":1}`)

	var gotAuth []string
	c := newSessionClient(t, f, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Values("Authorization")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[]`))
	})

	var out []any
	require.NoError(t, c.Get(ctx, "/leaderboard", nil, &out))
	assert.Empty(t, gotAuth)

	_, ok := f.store.Item(localstorage.KeyUser)
	assert.False(t, ok, "stray user record is removed")
}

func TestSessionTransport_AttachesBearerFromSession(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	token := f.token(t, time.Hour)
	_, err := f.svc.WriteFor(ctx, testutil.NewUser().Build(), token, time.Hour)
	require.NoError(t, err)

	c := newSessionClient(t, f, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+token, r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.Get(ctx, "/auth/get", nil, nil))
	assert.NotNil(t, f.svc.Read(ctx), "successful calls leave the session alone")
}

func TestSessionTransport_UnauthorizedEmptiesStore(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	_, err := f.svc.WriteFor(ctx, testutil.NewUser().Build(), f.token(t, time.Hour), time.Hour)
	require.NoError(t, err)

	c := newSessionClient(t, f, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"token revoked"}`))
	})

	err = c.Get(ctx, "/auth/get", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apiclient.ErrUnauthorized))

	creds, err := f.store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, creds.Empty())
	assert.Nil(t, f.svc.Read(ctx))
}

func TestSessionTransport_ForbiddenKeepsSession(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	_, err := f.svc.WriteFor(ctx, testutil.NewUser().Build(), f.token(t, time.Hour), time.Hour)
	require.NoError(t, err)

	c := newSessionClient(t, f, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	require.Error(t, c.Get(ctx, "/admin/user/2", nil, nil))
	assert.NotNil(t, f.svc.Read(ctx))
}
