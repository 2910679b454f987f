// Package holygrail implements the backend ports over the Holy Grail REST API.
package holygrail

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/holygrail/holygrail-web/internal/apiclient"
	domainauth "github.com/holygrail/holygrail-web/internal/domain/auth"
	"github.com/holygrail/holygrail-web/internal/domain/model"
	apperrors "github.com/holygrail/holygrail-web/internal/errors"
	"github.com/holygrail/holygrail-web/internal/ports"
)

// Endpoint paths relative to the API base URL.
const (
	PathRegister      = "/auth/create"
	PathLogin         = "/auth/login"
	PathCurrentUser   = "/auth/get"
	PathVerify        = "/auth/verify"
	PathResetPassword = "/auth/reset_password"
	PathAdminUser     = "/admin/user"
	PathResources     = "/resources"
	PathLeaderboard   = "/leaderboard"
)

const maxLeaderboardLimit = 100

var (
	_ ports.AuthBackend     = (*Backend)(nil)
	_ ports.ResourceBackend = (*Backend)(nil)
)

// Backend issues typed calls through an apiclient.Client. Authentication
// headers and 401 cleanup come from the client's interceptors.
type Backend struct {
	client *apiclient.Client
}

// New returns a Backend bound to client.
func New(client *apiclient.Client) *Backend {
	return &Backend{client: client}
}

// userEnvelope accepts both a bare user object and {"user": {...}}.
type userEnvelope struct {
	domainauth.User
	Nested *domainauth.User `json:"user,omitempty"`
}

func (e userEnvelope) get() domainauth.User {
	if e.Nested != nil {
		return *e.Nested
	}
	return e.User
}

func (b *Backend) Register(ctx context.Context, in ports.RegisterInput) (ports.AuthResult, error) {
	return b.exchange(ctx, PathRegister, in)
}

func (b *Backend) Login(ctx context.Context, in ports.LoginInput) (ports.AuthResult, error) {
	return b.exchange(ctx, PathLogin, in)
}

func (b *Backend) Verify(ctx context.Context, in ports.VerifyInput) (ports.AuthResult, error) {
	var res ports.AuthResult
	if err := b.client.Post(ctx, PathVerify, in, &res); err != nil {
		return ports.AuthResult{}, err
	}
	return res, nil
}

func (b *Backend) CurrentUser(ctx context.Context) (domainauth.User, error) {
	var env userEnvelope
	if err := b.client.Get(ctx, PathCurrentUser, nil, &env); err != nil {
		return domainauth.User{}, err
	}
	user := env.get()
	if user.ID == 0 && user.Username == "" {
		return domainauth.User{}, apperrors.Internal("backend returned an empty user")
	}
	return user, nil
}

func (b *Backend) ResetPassword(ctx context.Context, in ports.ResetPasswordInput) error {
	return b.client.Post(ctx, PathResetPassword, in, nil)
}

func (b *Backend) UpdateUser(ctx context.Context, id int64, in ports.UserUpdate) (domainauth.User, error) {
	var env userEnvelope
	p := path.Join(PathAdminUser, strconv.FormatInt(id, 10))
	if err := b.client.Put(ctx, p, in, &env); err != nil {
		return domainauth.User{}, err
	}
	return env.get(), nil
}

// UploadResource streams the file as multipart form data.
func (b *Backend) UploadResource(ctx context.Context, in model.UploadInput) (model.Resource, error) {
	if err := in.Validate(); err != nil {
		return model.Resource{}, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid upload")
	}

	form := (&apiclient.Form{}).AddField("title", strings.TrimSpace(in.Title))
	if s := strings.TrimSpace(in.Subject); s != "" {
		form.AddField("subject", s)
	}
	form.AddFile(apiclient.FormFile{
		Field:       "file",
		Filename:    in.Filename,
		ContentType: in.ContentType,
		Content:     in.Content,
	})

	var res model.Resource
	if err := b.client.Post(ctx, PathResources, form, &res); err != nil {
		return model.Resource{}, err
	}
	return res, nil
}

// Leaderboard returns the top contributors. limit <= 0 uses the backend default.
func (b *Backend) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	var q url.Values
	if limit > 0 {
		if limit > maxLeaderboardLimit {
			limit = maxLeaderboardLimit
		}
		q = url.Values{"limit": {strconv.Itoa(limit)}}
	}
	var out []model.LeaderboardEntry
	if err := b.client.Get(ctx, PathLeaderboard, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Backend) exchange(ctx context.Context, p string, in any) (ports.AuthResult, error) {
	var res ports.AuthResult
	if err := b.client.Post(ctx, p, in, &res); err != nil {
		return ports.AuthResult{}, err
	}
	if strings.TrimSpace(res.AccessToken) == "" {
		return ports.AuthResult{}, apperrors.Internal(fmt.Sprintf("%s: backend returned no access token", p))
	}
	return res, nil
}
