package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/plantfolk/plantkeeper/internal/common"
	"github.com/plantfolk/plantkeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOpts() CallOptions {
	return CallOptions{Timeout: 2 * time.Second, MaxRetries: 1, ThrowOnTimeout: true}
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, logging.Discard(), testOpts())
}

func writeTokens(w http.ResponseWriter, access, refresh string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"accessToken": access, "refreshToken": refresh, "userId": "u1",
	})
}

func TestLogin_InstallsTokens(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "alice", in["username"])
		writeTokens(w, "access-1", "refresh-1")
	})
	c := newTestClient(t, mux)

	require.NoError(t, c.Login(context.Background(), "alice", "pw"))

	access, refresh := c.Tokens()
	assert.Equal(t, "access-1", access)
	assert.Equal(t, "refresh-1", refresh)
	assert.Equal(t, "u1", c.UserID())
	assert.True(t, c.IsAuthenticated())
}

func TestGetDocument_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/docs/{kind}/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	c := newTestClient(t, mux)
	c.SetTokens("a", "r")

	_, err := c.GetDocument(context.Background(), "plants", "p1")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetDocument_RequiresSession(t *testing.T) {
	c := newTestClient(t, http.NewServeMux())

	_, err := c.GetDocument(context.Background(), "plants", "p1")
	assert.ErrorIs(t, err, common.ErrNotAuthenticated)
}

func TestServerErrors_RetriedThenSurfaced(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/ping", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	c := newTestClient(t, mux)

	err := c.Ping(context.Background())
	assert.ErrorIs(t, err, common.ErrRemoteUnavailable)
	assert.Equal(t, int32(2), calls.Load(), "one attempt plus one retry")
}

func TestServerErrors_TransientRecovers(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/ping", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	})
	c := newTestClient(t, mux)

	assert.NoError(t, c.Ping(context.Background()))
	assert.Equal(t, int32(2), calls.Load())
}

func TestBestEffortCall_DegradesToNoop(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	opts := testOpts()
	opts.ThrowOnTimeout = false
	c := NewClient(srv.URL, logging.Discard(), opts)

	assert.NoError(t, c.Ping(context.Background()))
}

func TestAuthErrors_NotRetried(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/docs/{kind}/{id}", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
	})
	c := newTestClient(t, mux)
	c.SetTokens("bad", "also-bad")

	err := c.SetDocument(context.Background(), "plants", "p1", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	assert.Equal(t, int32(1), calls.Load())
}

func TestExpiredToken_RefreshedOnceAndRetried(t *testing.T) {
	var docCalls, refreshCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "refresh-old", in["refreshToken"])
		writeTokens(w, "access-new", "refresh-new")
	})
	mux.HandleFunc("GET /api/docs/{kind}/{id}", func(w http.ResponseWriter, r *http.Request) {
		docCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer access-new" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"token expired"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(Document{Kind: "plants", ID: "p1", Body: json.RawMessage(`{"id":"p1"}`)})
	})

	c := newTestClient(t, mux)
	c.SetTokens("access-old", "refresh-old")

	doc, err := c.GetDocument(context.Background(), "plants", "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", doc.ID)
	assert.Equal(t, int32(1), refreshCalls.Load())
	assert.Equal(t, int32(2), docCalls.Load())

	access, refresh := c.Tokens()
	assert.Equal(t, "access-new", access)
	assert.Equal(t, "refresh-new", refresh)
}

func TestRefreshCredential_WithoutToken(t *testing.T) {
	c := newTestClient(t, http.NewServeMux())
	assert.ErrorIs(t, c.RefreshCredential(context.Background()), common.ErrNotAuthenticated)
}

func TestRefreshCredential_Rejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"refresh token expired"}`))
	})
	c := newTestClient(t, mux)
	c.SetTokens("a", "stale")

	assert.ErrorIs(t, c.RefreshCredential(context.Background()), common.ErrNotAuthenticated)
}

func TestBatchCommit_ChunksBelowCeiling(t *testing.T) {
	var batches [][]WriteOp
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/docs:batch", func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Ops []WriteOp `json:"ops"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		batches = append(batches, in.Ops)
		w.WriteHeader(http.StatusNoContent)
	})
	c := newTestClient(t, mux)
	c.SetTokens("a", "r")

	total := common.MaxBatchOps + 37
	ops := make([]WriteOp, 0, total)
	for i := 0; i < total; i++ {
		ops = append(ops, WriteOp{Op: OpSet, Kind: "plants", ID: fmt.Sprintf("p%d", i), Body: json.RawMessage(`{}`)})
	}

	require.NoError(t, c.BatchCommit(context.Background(), ops))

	require.Len(t, batches, 2)
	assert.Len(t, batches[0], common.MaxBatchOps)
	assert.Len(t, batches[1], 37)
	assert.Equal(t, "p0", batches[0][0].ID)
	assert.Equal(t, fmt.Sprintf("p%d", common.MaxBatchOps), batches[1][0].ID)
}

func TestBatchCommit_MidSequenceFailureNamesProgress(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/docs:batch", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	opts := testOpts()
	opts.MaxRetries = 0
	c := NewClient(srv.URL, logging.Discard(), opts)
	c.SetTokens("a", "r")

	ops := make([]WriteOp, common.MaxBatchOps+1)
	for i := range ops {
		ops[i] = WriteOp{Op: OpSet, Kind: "plants", ID: fmt.Sprintf("p%d", i), Body: json.RawMessage(`{}`)}
	}

	err := c.BatchCommit(context.Background(), ops)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrRemoteUnavailable)
	assert.Contains(t, err.Error(), "earlier chunks applied")
}

func TestQueryByField(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/docs/{kind}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "user_id", r.URL.Query().Get("field"))
		assert.Equal(t, "u1", r.URL.Query().Get("value"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"documents": []Document{{Kind: "plants", ID: "p1", Body: json.RawMessage(`{}`)}},
		})
	})
	c := newTestClient(t, mux)
	c.SetTokens("a", "r")

	docs, err := c.QueryByField(context.Background(), "plants", "user_id", "u1")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "p1", docs[0].ID)
}
