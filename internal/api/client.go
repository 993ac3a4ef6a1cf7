// Package api provides the authenticated request client for the
// platform REST API. Every call attaches the stored bearer token,
// applies a hard timeout, and performs at most one token refresh and
// one retry after a 401. Failures are normalized into typed errors;
// nothing panics past this boundary.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atelierhq/client-platform/internal/model"
	"github.com/atelierhq/client-platform/internal/store"
	"github.com/atelierhq/client-platform/pkg/logger"
	"github.com/atelierhq/client-platform/pkg/metrics"
)

// SessionHandler is notified when the session becomes unusable and the
// user must log in again. Injected at construction so the request layer
// stays decoupled from navigation.
type SessionHandler interface {
	OnSessionExpired()
}

// SessionHandlerFunc adapts a function to the SessionHandler interface.
type SessionHandlerFunc func()

// OnSessionExpired calls f.
func (f SessionHandlerFunc) OnSessionExpired() { f() }

// Config holds request client configuration.
type Config struct {
	BaseURL     string
	HTTPClient  *http.Client
	Timeout     time.Duration // default 15s
	AuthTimeout time.Duration // shorter deadline for refresh/logout
}

// Client is the authenticated request client.
type Client struct {
	baseURL     string
	http        *http.Client
	timeout     time.Duration
	authTimeout time.Duration

	tokens   *store.TokenStore
	sessions SessionHandler
	logger   *logger.Logger

	// refreshMu serializes refresh attempts so concurrent 401s trigger
	// a single PUT /auth.
	refreshMu sync.Mutex
}

// New creates a request client.
func New(cfg Config, tokens *store.TokenStore, sessions SessionHandler, log *logger.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.AuthTimeout == 0 {
		cfg.AuthTimeout = 8 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		http:        cfg.HTTPClient,
		timeout:     cfg.Timeout,
		authTimeout: cfg.AuthTimeout,
		tokens:      tokens,
		sessions:    sessions,
		logger:      log,
	}
}

// envelope is satisfied by every response type embedding model.APIResponse.
type envelope interface {
	OK() bool
	ErrorMessage() string
}

// roundTrip performs a single HTTP exchange under a hard deadline and
// classifies transport failures. It never retries.
func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body any, token string, timeout time.Duration) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			metrics.RecordRequest(method, path, "timeout", duration.Seconds())
			return 0, nil, fmt.Errorf("%w after %s: %s %s", ErrTimeout, timeout, method, path)
		}
		metrics.RecordRequest(method, path, "error", duration.Seconds())
		return 0, nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	metrics.RecordRequest(method, path, strconv.Itoa(resp.StatusCode), duration.Seconds())
	return resp.StatusCode, raw, nil
}

// do performs an authenticated exchange: bearer token, single refresh
// and retry on 401, terminal session expiry when the refresh fails.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (int, []byte, error) {
	token := c.tokens.AccessToken()
	if token == "" {
		c.expireSession()
		return 0, nil, ErrSessionExpired
	}

	status, raw, err := c.roundTrip(ctx, method, path, query, body, token, c.timeout)
	if err != nil {
		return 0, nil, err
	}
	if status != http.StatusUnauthorized {
		return status, raw, nil
	}

	newToken, err := c.refresh(ctx)
	if err != nil {
		return 0, nil, err
	}

	// One retry with the refreshed token; its outcome is final.
	status, raw, err = c.roundTrip(ctx, method, path, query, body, newToken, c.timeout)
	if err != nil {
		return 0, nil, err
	}
	if status == http.StatusUnauthorized {
		c.logger.Warn("retried request rejected after refresh", zap.String("path", path))
		c.clearAndExpire()
		return 0, nil, ErrSessionExpired
	}
	return status, raw, nil
}

// refresh exchanges the stored refresh token for a new access token.
// At most one refresh runs at a time; a failure clears the session.
func (c *Client) refresh(ctx context.Context) (string, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	refreshToken := c.tokens.RefreshToken()
	if refreshToken == "" {
		c.expireSession()
		return "", ErrSessionExpired
	}

	status, raw, err := c.roundTrip(ctx, http.MethodPut, "/auth", nil, nil, refreshToken, c.authTimeout)
	if err != nil {
		metrics.TokenRefreshesTotal.WithLabelValues("error").Inc()
		c.clearAndExpire()
		return "", ErrSessionExpired
	}

	var resp model.RefreshResponse
	if status < 200 || status >= 300 || json.Unmarshal(raw, &resp) != nil || !resp.Success || resp.AccessToken == "" {
		metrics.TokenRefreshesTotal.WithLabelValues("rejected").Inc()
		c.clearAndExpire()
		return "", ErrSessionExpired
	}

	if err := c.tokens.SetAccessToken(resp.AccessToken); err != nil {
		c.logger.Warn("failed to persist refreshed token", zap.Error(err))
	}
	metrics.TokenRefreshesTotal.WithLabelValues("success").Inc()
	c.logger.Debug("access token refreshed")
	return resp.AccessToken, nil
}

func (c *Client) clearAndExpire() {
	if err := c.tokens.Clear(); err != nil {
		c.logger.Warn("failed to clear tokens", zap.Error(err))
	}
	c.expireSession()
}

func (c *Client) expireSession() {
	metrics.SessionsExpiredTotal.Inc()
	if c.sessions != nil {
		c.sessions.OnSessionExpired()
	}
}

// decode unmarshals raw into dest and converts a non-2xx status or a
// success=false envelope into a *ServerError.
func decode(status int, raw []byte, dest envelope) error {
	if err := json.Unmarshal(raw, dest); err != nil {
		if status < 200 || status >= 300 {
			return &ServerError{Status: status}
		}
		return fmt.Errorf("decode response: %w", err)
	}
	if status < 200 || status >= 300 || !dest.OK() {
		return &ServerError{Status: status, Message: dest.ErrorMessage()}
	}
	return nil
}
