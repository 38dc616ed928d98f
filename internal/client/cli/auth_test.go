package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/plantfolk/plantkeeper/internal/client/remote"
	"github.com/plantfolk/plantkeeper/internal/client/store"
	"github.com/plantfolk/plantkeeper/internal/common"
	"github.com/plantfolk/plantkeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapPersistence struct {
	mu   sync.Mutex
	data map[string]string
}

func (p *mapPersistence) Get(_ context.Context, key string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.data[key]
	if !ok {
		return "", common.ErrNotFound
	}
	return v, nil
}

func (p *mapPersistence) Set(_ context.Context, key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data[key] = value
	return nil
}

func stubInputs(t *testing.T, username string, password []byte) func() {
	t.Helper()
	origST, origGP := getSimpleText, getPassword
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) { return username, nil }
	getPassword = func(_ io.Writer) ([]byte, error) { return append([]byte(nil), password...), nil }
	return func() {
		getSimpleText = origST
		getPassword = origGP
	}
}

func newAuthApp(t *testing.T, handler http.Handler) (*App, *mapPersistence) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p := &mapPersistence{data: map[string]string{}}
	st := store.New(p, logging.Discard())
	t.Cleanup(st.Close)

	rc := remote.NewClient(srv.URL, logging.Discard(), remote.CallOptions{
		Timeout:        2 * time.Second,
		MaxRetries:     1,
		ThrowOnTimeout: true,
	})

	return &App{
		logger: logging.Discard(),
		store:  st,
		remote: rc,
		Mode:   ModeOffline,
	}, p
}

func TestRegister_SendsCredentials(t *testing.T) {
	defer stubInputs(t, "alice", []byte("hunter2"))()

	var gotUser, gotPass string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/register", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotUser, gotPass = req.Username, req.Password
		w.WriteHeader(http.StatusCreated)
	})

	app, _ := newAuthApp(t, mux)
	require.NoError(t, app.Register(context.Background()))
	assert.Equal(t, "alice", gotUser)
	assert.Equal(t, "hunter2", gotPass)
}

func TestLogin_PersistsSessionAndGoesOnline(t *testing.T) {
	defer stubInputs(t, "alice", []byte("hunter2"))()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"accessToken":  "acc",
			"refreshToken": "ref",
			"userId":       "u1",
		})
	})

	app, p := newAuthApp(t, mux)
	require.NoError(t, app.Login(context.Background()))

	assert.True(t, app.isLoggedIn())
	assert.Equal(t, ModeOnline, app.Mode)

	raw, err := p.Get(context.Background(), common.KeySession)
	require.NoError(t, err)
	var s savedSession
	require.NoError(t, json.Unmarshal([]byte(raw), &s))
	assert.Equal(t, "acc", s.AccessToken)
	assert.Equal(t, "ref", s.RefreshToken)
	assert.Equal(t, "u1", s.UserID)
	assert.Equal(t, "alice", s.UserName)
}

func TestLogin_BadCredentials(t *testing.T) {
	defer stubInputs(t, "alice", []byte("wrong"))()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	})

	app, _ := newAuthApp(t, mux)
	err := app.Login(context.Background())
	require.Error(t, err)
	assert.False(t, app.isLoggedIn())
	assert.Equal(t, ModeOffline, app.Mode)
}

func TestLogout_DropsSession(t *testing.T) {
	defer stubInputs(t, "alice", []byte("hunter2"))()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"accessToken":  "acc",
			"refreshToken": "ref",
			"userId":       "u1",
		})
	})

	app, p := newAuthApp(t, mux)
	require.NoError(t, app.Login(context.Background()))
	require.True(t, app.isLoggedIn())

	require.NoError(t, app.Logout(context.Background()))
	assert.False(t, app.isLoggedIn())

	raw, err := p.Get(context.Background(), common.KeySession)
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestRestoreSession(t *testing.T) {
	raw, err := json.Marshal(savedSession{
		AccessToken:  "acc",
		RefreshToken: "ref",
		UserID:       "u1",
		UserName:     "alice",
	})
	require.NoError(t, err)

	app, p := newAuthApp(t, http.NewServeMux())
	require.NoError(t, p.Set(context.Background(), common.KeySession, string(raw)))

	app.restoreSession(context.Background())

	assert.True(t, app.isLoggedIn())
	assert.Equal(t, "alice", app.userName)
	assert.Equal(t, "u1", app.remote.UserID())
}
