package httpx

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/holygrail/holygrail-web/config"
	"github.com/holygrail/holygrail-web/internal/adapters/cookie"
	"github.com/holygrail/holygrail-web/internal/adapters/jwtinspect"
	redisstore "github.com/holygrail/holygrail-web/internal/adapters/redis"
	domainauth "github.com/holygrail/holygrail-web/internal/domain/auth"
	mockauth "github.com/holygrail/holygrail-web/internal/mocks/auth"
	"github.com/holygrail/holygrail-web/internal/ports"
	"github.com/holygrail/holygrail-web/internal/service"
	"github.com/holygrail/holygrail-web/internal/testutil"
	"github.com/holygrail/holygrail-web/internal/util"
)

// webFixture runs the full router against real session and auth services
// with a stubbed backend.
type webFixture struct {
	server  *httptest.Server
	client  *http.Client
	backend *mockauth.StubBackend
}

type fixtureOptions struct {
	store     config.SessionStoreKind
	csrf      bool
	resources ports.ResourceBackend
}

func newWebFixture(t *testing.T, opts fixtureOptions) *webFixture {
	t.Helper()
	if opts.store == "" {
		opts.store = config.SessionStoreCookie
	}

	clock := util.RealClock{}
	var store ports.CredentialStore
	switch opts.store {
	case config.SessionStoreRedis:
		rdb, _ := testutil.SetupTestRedis(t)
		store = redisstore.NewCredentialStore(rdb, redisstore.Options{Prefix: "test:session:"})
	default:
		store = cookie.NewStore(cookie.Options{Clock: clock})
	}

	sessions, err := service.NewSessionService(service.SessionServiceOptions{
		Store:     store,
		Inspector: jwtinspect.New(clock),
		StoreName: string(opts.store),
		Logger:    testutil.DiscardLogger(),
	})
	require.NoError(t, err)

	backend := &mockauth.StubBackend{}
	auth, err := service.NewAuthService(service.AuthServiceOptions{
		Backend:  backend,
		Sessions: sessions,
		Logger:   testutil.DiscardLogger(),
	})
	require.NoError(t, err)

	sessCfg := config.SessionConfig{Store: opts.store}
	sessCfg.Sanitize()

	handler := NewRouter(RouterServices{
		Auth:      auth,
		Sessions:  sessions,
		Resources: opts.resources,
		Session:   sessCfg,
		CSRF:      opts.csrf,
		Logger:    testutil.DiscardLogger(),
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar:     jar,
		Timeout: 5 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &webFixture{server: srv, client: client, backend: backend}
}

// grantLogin makes the stub backend accept any credentials for user.
func (f *webFixture) grantLogin(t *testing.T, user domainauth.User) string {
	t.Helper()
	token := testutil.NewToken().WithSubject(user.Username).ExpiringAt(time.Now().Add(time.Hour)).Build(t)
	f.backend.LoginFunc = func(_ context.Context, in ports.LoginInput) (ports.AuthResult, error) {
		return ports.AuthResult{User: user, AccessToken: token}, nil
	}
	return token
}

func (f *webFixture) cookie(t *testing.T, name string) string {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, f.server.URL, nil)
	require.NoError(t, err)
	for _, c := range f.client.Jar.Cookies(req.URL) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// fakeSessions is a SessionReader returning a fixed session.
type fakeSessions struct {
	session *domainauth.Session
	reads   int
}

func (f *fakeSessions) ReadOrPrune(context.Context) *domainauth.Session {
	f.reads++
	return f.session
}

func sessionFor(role domainauth.Role) *domainauth.Session {
	return &domainauth.Session{
		User:        testutil.NewUser().WithRole(role).Build(),
		AccessToken: "token",
		ExpiresAt:   testutil.TestTime().Add(time.Hour),
	}
}

// stubFlows implements AuthFlows; unset methods panic through the nil embed.
type stubFlows struct {
	AuthFlows
	updateUser func(ctx context.Context, id int64, in ports.UserUpdate) (domainauth.User, error)
	refresh    func(ctx context.Context) (*domainauth.Session, error)
}

func (s *stubFlows) UpdateUser(ctx context.Context, id int64, in ports.UserUpdate) (domainauth.User, error) {
	return s.updateUser(ctx, id, in)
}

func (s *stubFlows) RefreshProfile(ctx context.Context) (*domainauth.Session, error) {
	return s.refresh(ctx)
}
