package cookie

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/holygrail/holygrail-web/internal/domain/auth"
	"github.com/holygrail/holygrail-web/internal/util"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(secure bool) *Store {
	return NewStore(Options{Secure: secure, Clock: util.NewFixedClock(testNow)})
}

func cookiesByName(resp *http.Response) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, c := range resp.Cookies() {
		out[c.Name] = c
	}
	return out
}

func TestStore_SaveSetsBothCookies(t *testing.T) {
	store := newTestStore(true)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	ctx := Bind(context.Background(), w, r)

	creds := domainauth.Credentials{User: `{"id":1,"username":"alice"}`, AccessToken: "tok.en.value"}
	expires := testNow.Add(time.Hour)
	require.NoError(t, store.Save(ctx, creds, expires))

	resp := w.Result()
	defer resp.Body.Close()
	cookies := cookiesByName(resp)
	require.Len(t, cookies, 2)

	user := cookies[DefaultUserCookie]
	token := cookies[DefaultTokenCookie]
	require.NotNil(t, user)
	require.NotNil(t, token)

	decoded, err := url.QueryUnescape(user.Value)
	require.NoError(t, err)
	assert.Equal(t, creds.User, decoded)
	assert.Equal(t, creds.AccessToken, token.Value)

	for _, c := range []*http.Cookie{user, token} {
		assert.True(t, c.HttpOnly, c.Name)
		assert.True(t, c.Secure, c.Name)
		assert.Empty(t, c.Domain, "cookie %s must be host-only", c.Name)
		assert.Equal(t, "/", c.Path)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
		assert.Equal(t, 3600, c.MaxAge)
		assert.WithinDuration(t, expires, c.Expires, time.Second)
	}
}

func TestStore_SecureFollowsRequestInDev(t *testing.T) {
	store := newTestStore(false)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	ctx := Bind(context.Background(), w, r)
	require.NoError(t, store.Save(ctx, domainauth.Credentials{User: "{}", AccessToken: "t"}, testNow.Add(time.Minute)))
	for _, c := range w.Result().Cookies() {
		assert.False(t, c.Secure)
	}

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPost, "/", nil)
	r.TLS = &tls.ConnectionState{}
	ctx = Bind(context.Background(), w, r)
	require.NoError(t, store.Save(ctx, domainauth.Credentials{User: "{}", AccessToken: "t"}, testNow.Add(time.Minute)))
	for _, c := range w.Result().Cookies() {
		assert.True(t, c.Secure)
	}
}

func TestStore_LoadFromRequest(t *testing.T) {
	store := newTestStore(false)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: DefaultUserCookie, Value: url.QueryEscape(`{"id":7}`)})
	r.AddCookie(&http.Cookie{Name: DefaultTokenCookie, Value: "abc"})
	ctx := Bind(context.Background(), httptest.NewRecorder(), r)

	creds, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"id":7}`, creds.User)
	assert.Equal(t, "abc", creds.AccessToken)
}

func TestStore_WritesVisibleWithinRequest(t *testing.T) {
	store := newTestStore(false)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: DefaultTokenCookie, Value: "stale"})
	ctx := Bind(context.Background(), httptest.NewRecorder(), r)

	require.NoError(t, store.Save(ctx, domainauth.Credentials{User: `{"id":1}`, AccessToken: "fresh"}, testNow.Add(time.Hour)))
	creds, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fresh", creds.AccessToken)

	require.NoError(t, store.Clear(ctx))
	creds, err = store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, creds.Empty())
}

func TestStore_ClearIsIdempotent(t *testing.T) {
	store := newTestStore(false)
	w := httptest.NewRecorder()
	ctx := Bind(context.Background(), w, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))

	for _, c := range w.Result().Cookies() {
		assert.Equal(t, "", c.Value)
		assert.Less(t, c.MaxAge, 0)
	}
}

func TestStore_NoRequestContext(t *testing.T) {
	store := newTestStore(false)
	ctx := context.Background()

	creds, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, creds.Empty())

	err = store.Save(ctx, domainauth.Credentials{User: "{}", AccessToken: "t"}, testNow.Add(time.Hour))
	require.ErrorIs(t, err, ErrNoRequestContext)
	require.NoError(t, store.Clear(ctx), "clearing with nothing bound is a no-op")
	assert.False(t, Bound(ctx))
}

func TestStore_SaveRejectsPartialOrPastExpiry(t *testing.T) {
	store := newTestStore(false)
	w := httptest.NewRecorder()
	ctx := Bind(context.Background(), w, httptest.NewRequest(http.MethodPost, "/", nil))

	require.Error(t, store.Save(ctx, domainauth.Credentials{AccessToken: "t"}, testNow.Add(time.Hour)))
	require.Error(t, store.Save(ctx, domainauth.Credentials{User: "{}", AccessToken: "t"}, testNow.Add(-time.Second)))
	assert.Empty(t, w.Result().Cookies(), "rejected writes must not emit any cookie")
}
