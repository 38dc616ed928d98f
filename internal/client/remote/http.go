package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/plantfolk/plantkeeper/internal/common"
	"github.com/plantfolk/plantkeeper/internal/logging"
)

// Client is the HTTP implementation of Store plus the session endpoints.
// It injects the access token on every request and transparently refreshes
// it once when the server reports an expired token.
type Client struct {
	baseURL string
	http    *http.Client
	log     logging.Logger
	opts    CallOptions

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	userID       string
}

func NewClient(baseURL string, log logging.Logger, opts CallOptions) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		log:     log,
		opts:    opts.normalized(),
	}
}

// SetTokens installs a previously persisted session.
func (c *Client) SetTokens(access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = access
	c.refreshToken = refresh
}

// Tokens returns the current session tokens for persistence.
func (c *Client) Tokens() (string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, c.refreshToken
}

// IsAuthenticated reports whether a session is installed.
func (c *Client) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken != ""
}

type tokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	UserID       string `json:"userId"`
}

type apiError struct {
	Error string `json:"error"`
}

// Register creates a remote account.
func (c *Client) Register(ctx context.Context, username, password string) error {
	in := map[string]string{"username": username, "password": password}
	return withTimeoutAndRetry(ctx, c.log, c.opts, "register", func(ctx context.Context) error {
		return c.doJSON(ctx, http.MethodPost, "/api/register", in, nil, false)
	})
}

// Login exchanges credentials for a token pair and installs it.
func (c *Client) Login(ctx context.Context, username, password string) error {
	in := map[string]string{"username": username, "password": password}
	var out tokenPair
	err := withTimeoutAndRetry(ctx, c.log, c.opts, "login", func(ctx context.Context) error {
		return c.doJSON(ctx, http.MethodPost, "/api/login", in, &out, false)
	})
	if err != nil {
		return err
	}
	c.SetTokens(out.AccessToken, out.RefreshToken)
	c.mu.Lock()
	c.userID = out.UserID
	c.mu.Unlock()
	return nil
}

// UserID returns the signed-in user's id ("" when signed out).
func (c *Client) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// SetUserID restores a persisted user id alongside SetTokens.
func (c *Client) SetUserID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = id
}

// RefreshCredential rotates the session, returning ErrNotAuthenticated when
// no refresh token is held or the server rejects it. The orchestrator calls
// this before any remote sync to guarantee a fresh credential.
func (c *Client) RefreshCredential(ctx context.Context) error {
	c.mu.Lock()
	refresh := c.refreshToken
	c.mu.Unlock()
	if refresh == "" {
		return common.ErrNotAuthenticated
	}

	in := map[string]string{"refreshToken": refresh}
	var out tokenPair
	err := withTimeoutAndRetry(ctx, c.log, c.opts, "refresh", func(ctx context.Context) error {
		return c.doJSON(ctx, http.MethodPost, "/api/refresh", in, &out, false)
	})
	if err != nil {
		if isRetryable(err) {
			return err
		}
		return fmt.Errorf("%w: %v", common.ErrNotAuthenticated, err)
	}
	c.SetTokens(out.AccessToken, out.RefreshToken)
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	return withTimeoutAndRetry(ctx, c.log, c.opts, "ping", func(ctx context.Context) error {
		return c.doJSON(ctx, http.MethodGet, "/api/ping", nil, nil, false)
	})
}

func (c *Client) GetDocument(ctx context.Context, kind, id string) (*Document, error) {
	var doc Document
	p := "/api/docs/" + url.PathEscape(kind) + "/" + url.PathEscape(id)
	err := withTimeoutAndRetry(ctx, c.log, c.opts, "get document", func(ctx context.Context) error {
		return c.doJSON(ctx, http.MethodGet, p, nil, &doc, true)
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) SetDocument(ctx context.Context, kind, id string, body json.RawMessage) error {
	p := "/api/docs/" + url.PathEscape(kind) + "/" + url.PathEscape(id)
	in := Document{Kind: kind, ID: id, Body: body}
	return withTimeoutAndRetry(ctx, c.log, c.opts, "set document", func(ctx context.Context) error {
		return c.doJSON(ctx, http.MethodPut, p, in, nil, true)
	})
}

// BatchCommit chunks ops so no single commit exceeds common.MaxBatchOps.
// Chunks are committed sequentially; there is no cross-chunk atomicity, so a
// failure part-way leaves earlier chunks applied. The returned error names
// how far the sequence got.
func (c *Client) BatchCommit(ctx context.Context, ops []WriteOp) error {
	for start := 0; start < len(ops); start += common.MaxBatchOps {
		end := min(start+common.MaxBatchOps, len(ops))
		chunk := ops[start:end]

		in := map[string][]WriteOp{"ops": chunk}
		err := withTimeoutAndRetry(ctx, c.log, c.opts, "batch commit", func(ctx context.Context) error {
			return c.doJSON(ctx, http.MethodPost, "/api/docs:batch", in, nil, true)
		})
		if err != nil {
			return fmt.Errorf("batch commit failed at op %d of %d (earlier chunks applied): %w",
				start, len(ops), err)
		}
		c.log.Debug(ctx, "batch chunk committed", "ops", len(chunk), "progress", end, "total", len(ops))
	}
	return nil
}

func (c *Client) QueryByField(ctx context.Context, kind, field, value string) ([]Document, error) {
	var out struct {
		Documents []Document `json:"documents"`
	}
	p := "/api/docs/" + url.PathEscape(kind) + "?field=" + url.QueryEscape(field) + "&value=" + url.QueryEscape(value)
	err := withTimeoutAndRetry(ctx, c.log, c.opts, "query documents", func(ctx context.Context) error {
		return c.doJSON(ctx, http.MethodGet, p, nil, &out, true)
	})
	if err != nil {
		return nil, err
	}
	return out.Documents, nil
}

// doJSON performs one round trip. When authed is true the access token is
// attached, and an expired-token response triggers a single refresh-and-redo.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any, authed bool) error {
	err := c.roundTrip(ctx, method, path, in, out, authed)
	if err == nil || !authed {
		return err
	}

	var expired *expiredTokenError
	if !errors.As(err, &expired) {
		return err
	}
	if refreshErr := c.RefreshCredential(ctx); refreshErr != nil {
		return fmt.Errorf("%w: %v", common.ErrNotAuthenticated, refreshErr)
	}
	return c.roundTrip(ctx, method, path, in, out, authed)
}

type expiredTokenError struct{}

func (e *expiredTokenError) Error() string { return common.ErrTokenExpired.Error() }

func (c *Client) roundTrip(ctx context.Context, method, path string, in, out any, authed bool) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if authed {
		c.mu.Lock()
		token := c.accessToken
		c.mu.Unlock()
		if token == "" {
			return common.ErrNotAuthenticated
		}
		req.Header.Set(common.AuthHeaderName, "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", common.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil {
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(out)

	case resp.StatusCode == http.StatusNotFound:
		return common.ErrNotFound

	case resp.StatusCode == http.StatusUnauthorized:
		var ae apiError
		_ = json.NewDecoder(resp.Body).Decode(&ae)
		if ae.Error == common.ErrTokenExpired.Error() {
			return &expiredTokenError{}
		}
		return common.ErrUnauthorized

	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: server status %s", common.ErrRemoteUnavailable, resp.Status)

	default:
		var ae apiError
		_ = json.NewDecoder(resp.Body).Decode(&ae)
		if ae.Error != "" {
			return fmt.Errorf("remote error: %s", ae.Error)
		}
		return fmt.Errorf("remote error: %s", resp.Status)
	}
}
