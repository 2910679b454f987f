package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/holygrail/holygrail-web/internal/domain/auth"
	apperrors "github.com/holygrail/holygrail-web/internal/errors"
	"github.com/holygrail/holygrail-web/internal/ports"
	"github.com/holygrail/holygrail-web/internal/testutil"
)

func TestAccountHandlers_UpdateUser(t *testing.T) {
	var gotID int64
	var gotRole *domainauth.Role
	flows := &stubFlows{updateUser: func(_ context.Context, id int64, in ports.UserUpdate) (domainauth.User, error) {
		gotID, gotRole = id, in.Role
		return testutil.NewUser().WithID(id).WithUsername("bob").WithRole(*in.Role).Build(), nil
	}}
	h := &AccountHandlers{Svc: flows, Logger: testutil.DiscardLogger()}

	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/admin/users/{id}", h.UpdateUser)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/api/admin/users/42", strings.NewReader(`{"role":2}`)))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(42), gotID)
	require.NotNil(t, gotRole)
	assert.Equal(t, domainauth.RoleAdmin, *gotRole)
	assert.Contains(t, rr.Body.String(), `"username":"bob"`)
}

func TestAccountHandlers_UpdateUserRejectsBadID(t *testing.T) {
	h := &AccountHandlers{Svc: &stubFlows{}}
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/admin/users/{id}", h.UpdateUser)

	for _, id := range []string{"abc", "0", "-3"} {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/api/admin/users/"+id, strings.NewReader(`{}`)))
		assert.Equal(t, http.StatusBadRequest, rr.Code, id)
		assert.Contains(t, rr.Body.String(), `"field":"id"`, id)
	}
}

func TestAccountHandlers_Refresh(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		sess := sessionFor(domainauth.RoleUser)
		h := &AccountHandlers{Svc: &stubFlows{refresh: func(context.Context) (*domainauth.Session, error) {
			return sess, nil
		}}}
		rr := httptest.NewRecorder()
		h.Refresh(rr, httptest.NewRequest(http.MethodPost, "/api/me/refresh", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"authenticated":true`)
	})

	t.Run("backend rejects token", func(t *testing.T) {
		h := &AccountHandlers{
			Svc: &stubFlows{refresh: func(context.Context) (*domainauth.Session, error) {
				return nil, apperrors.Unauthorized("no active session")
			}},
			Logger: testutil.DiscardLogger(),
		}
		rr := httptest.NewRecorder()
		h.Refresh(rr, httptest.NewRequest(http.MethodPost, "/api/me/refresh", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestAccountHandlers_MeWithoutSession(t *testing.T) {
	h := &AccountHandlers{}
	rr := httptest.NewRecorder()
	h.Me(rr, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRouter_AdminRouteRequiresAdmin(t *testing.T) {
	f := newWebFixture(t, fixtureOptions{})
	f.grantLogin(t, testutil.NewUser().Build())
	f.postJSON(t, "/auth/login", `{"username":"alice","password":"pw"}`)

	resp := f.do(t, http.MethodPut, "/api/admin/users/2", "application/json", `{"verified":true}`,
		http.Header{"Accept": {"application/json"}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
