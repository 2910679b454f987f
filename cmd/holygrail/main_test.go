package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holygrail/holygrail-web/internal/testutil"
)

type fakeAPI struct {
	server  *httptest.Server
	token   string
	revoked atomic.Bool
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{token: testutil.NewToken().WithSubject("1").ExpiringAt(time.Now().Add(time.Hour)).Build(t)}

	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	authorized := func(r *http.Request) bool {
		return !f.revoked.Load() && r.Header.Get("Authorization") == "Bearer "+f.token
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var in struct{ Username, Password string }
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.Password != "hunter2" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"user":         map[string]any{"id": 1, "username": in.Username, "role": 1, "verified": true},
			"access_token": f.token,
		})
	})
	mux.HandleFunc("GET /auth/get", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "token revoked"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"user": map[string]any{"id": 1, "username": "alice", "role": 2, "verified": true},
		})
	})
	mux.HandleFunc("GET /leaderboard", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{
			{"rank": 1, "username": "bob", "uploads": 9, "downloads": 120},
			{"rank": 3, "username": "alice", "uploads": 4, "downloads": 17},
		})
	})
	mux.HandleFunc("POST /resources", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "login required"})
			return
		}
		file, hdr, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		defer file.Close()
		body, _ := io.ReadAll(file)
		writeJSON(w, http.StatusCreated, map[string]any{
			"id": 12, "title": r.FormValue("title"), "filename": hdr.Filename,
			"status": "pending", "subject": r.FormValue("subject"), "size": len(body),
		})
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

type cli struct {
	api         string
	sessionFile string
}

func newCLI(t *testing.T, api *fakeAPI) *cli {
	return &cli{api: api.server.URL, sessionFile: filepath.Join(t.TempDir(), "session.json")}
}

func (c *cli) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--api", c.api, "--session-file", c.sessionFile}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestCLI_LoginWhoamiLogout(t *testing.T) {
	c := newCLI(t, newFakeAPI(t))

	out, _, err := c.run(t, "hunter2\n", "login", "-u", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as alice (user)")
	assert.FileExists(t, c.sessionFile)

	out, _, err = c.run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "alice (user)")

	out, _, err = c.run(t, "", "whoami", "--refresh")
	require.NoError(t, err)
	assert.Contains(t, out, "alice (admin)")
	assert.Contains(t, out, "Leaderboard rank: #3")

	out, _, err = c.run(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")
	assert.NoFileExists(t, c.sessionFile)

	_, _, err = c.run(t, "", "whoami")
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestCLI_LoginRejected(t *testing.T) {
	c := newCLI(t, newFakeAPI(t))

	_, _, err := c.run(t, "wrong\n", "login", "-u", "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid credentials")
	assert.NoFileExists(t, c.sessionFile)

	_, _, err = c.run(t, "", "login", "-u", "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password is required")
}

func TestCLI_RevokedTokenClearsSession(t *testing.T) {
	api := newFakeAPI(t)
	c := newCLI(t, api)

	_, _, err := c.run(t, "hunter2\n", "login", "-u", "alice")
	require.NoError(t, err)

	api.revoked.Store(true)
	_, _, err = c.run(t, "", "whoami", "--refresh")
	require.Error(t, err)
	assert.NoFileExists(t, c.sessionFile)
}

func TestCLI_Upload(t *testing.T) {
	c := newCLI(t, newFakeAPI(t))
	path := filepath.Join(t.TempDir(), "notes.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o600))

	_, _, err := c.run(t, "", "upload", path)
	require.ErrorIs(t, err, errNotLoggedIn)

	_, _, err = c.run(t, "hunter2\n", "login", "-u", "alice")
	require.NoError(t, err)

	out, _, err := c.run(t, "", "upload", path, "--title", "Calculus notes", "--subject", "math")
	require.NoError(t, err)
	assert.Contains(t, out, `Uploaded "Calculus notes" as resource 12 (pending)`)
}

func TestCLI_Leaderboard(t *testing.T) {
	c := newCLI(t, newFakeAPI(t))

	out, _, err := c.run(t, "", "leaderboard", "-n", "5")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"RANK", "USER", "UPLOADS", "DOWNLOADS"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"1", "bob", "9", "120"}, strings.Fields(lines[1]))
}

func TestCLI_Metrics(t *testing.T) {
	c := newCLI(t, newFakeAPI(t))

	_, stderr, err := c.run(t, "hunter2\n", "--metrics", "login", "-u", "alice")
	require.NoError(t, err)
	assert.Contains(t, stderr, "session.write{outcome=success} 1")
	assert.Contains(t, stderr, "api.call{POST auth/login 200} n=1 avg=")
}

func TestCLI_RequiresAPIURL(t *testing.T) {
	t.Setenv("HOLYGRAIL_API_URL", "")
	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"leaderboard"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API URL is required")
}
