package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/kolapsis/deskbridge/internal/store"
)

const (
	defaultRefreshInterval = 50 * time.Minute
	defaultRequestTimeout  = 30 * time.Second
	refreshPath            = "auth/token/refresh/"
)

// Client performs HTTP calls against the remote ticketing API with automatic
// bearer-token attachment, silent refresh, and a single retry on 401.
//
// Refresh attempts are serialized: the background ticker and the reactive
// 401 path share one in-flight refresh, so a refresh token is never posted
// twice concurrently.
type Client struct {
	baseURL         *url.URL
	http            *http.Client
	userAgent       string
	creds           store.Store // nil means tokens live in memory only
	refreshInterval time.Duration

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	generation   uint64 // bumped on every credential clear
	refreshing   *refreshCall
	stopRefresh  context.CancelFunc
}

type refreshCall struct {
	done chan struct{}
	err  error
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (tests, custom transports).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithCredentialStore persists tokens in st under versioned keys so a session
// survives restarts.
func WithCredentialStore(st store.Store) Option {
	return func(c *Client) { c.creds = st }
}

// WithRefreshInterval sets the background refresh period.
func WithRefreshInterval(d time.Duration) Option {
	return func(c *Client) { c.refreshInterval = d }
}

// WithUserAgent sets the User-Agent header on outgoing requests.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a Client for the given base URL. Any persisted access token is
// validated structurally; a malformed token discards both tokens before the
// first request goes out.
func New(baseURL string, opts ...Option) (*Client, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL:         u,
		http:            &http.Client{Timeout: defaultRequestTimeout},
		refreshInterval: defaultRefreshInterval,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.loadCredentials()
	return c, nil
}

func (c *Client) loadCredentials() {
	if c.creds == nil {
		return
	}

	if data, ok, err := c.creds.Get(store.KeyAccessToken); err != nil {
		slog.Warn("reading persisted access token failed", "error", err)
	} else if ok {
		c.accessToken = string(data)
	}
	if data, ok, err := c.creds.Get(store.KeyRefreshToken); err != nil {
		slog.Warn("reading persisted refresh token failed", "error", err)
	} else if ok {
		c.refreshToken = string(data)
	}

	if c.accessToken != "" && !validTokenShape(c.accessToken) {
		slog.Warn("persisted access token is malformed, discarding session")
		c.clearTokens()
	}
}

// SetAccessToken updates the in-memory and persisted access token.
// An empty token removes it.
func (c *Client) SetAccessToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = token
	c.persistLocked(store.KeyAccessToken, token)
}

// SetRefreshToken updates the in-memory and persisted refresh token.
func (c *Client) SetRefreshToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshToken = token
	c.persistLocked(store.KeyRefreshToken, token)
}

// HasSession reports whether any credential is held.
func (c *Client) HasSession() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken != "" || c.refreshToken != ""
}

// persistLocked writes or removes one credential. Persistence failures are
// warnings; the in-memory token stays authoritative. Callers hold c.mu.
func (c *Client) persistLocked(key, value string) {
	if c.creds == nil {
		return
	}
	var err error
	if value == "" {
		err = c.creds.Delete(key)
	} else {
		err = c.creds.Set(key, []byte(value))
	}
	if err != nil {
		slog.Warn("persisting credential failed", "key", key, "error", err)
	}
}

// ClearSession clears both tokens, removes persisted credentials, and stops
// the background refresh. Safe to call when already logged out.
func (c *Client) ClearSession() {
	c.clearTokens()

	c.mu.Lock()
	stop := c.stopRefresh
	c.stopRefresh = nil
	c.mu.Unlock()
	if stop != nil {
		stop()
	}
}

func (c *Client) clearTokens() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.accessToken = ""
	c.refreshToken = ""
	c.persistLocked(store.KeyAccessToken, "")
	c.persistLocked(store.KeyRefreshToken, "")
}

// StartAutoRefresh launches the recurring background refresh. Each tick
// refreshes when a refresh token is present; a failed tick clears both
// tokens, forcing re-login, and never panics. Stopped by ctx or ClearSession.
func (c *Client) StartAutoRefresh(ctx context.Context) {
	c.mu.Lock()
	if c.stopRefresh != nil {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	c.stopRefresh = cancel
	interval := c.refreshInterval
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.mu.Lock()
				has := c.refreshToken != ""
				c.mu.Unlock()
				if !has {
					continue
				}
				if err := c.RefreshAccessToken(ctx); err != nil {
					slog.Warn("background token refresh failed, clearing session", "error", err)
					c.clearTokens()
				}
			}
		}
	}()
}

// RefreshAccessToken exchanges the refresh token for a new access token,
// adopting a rotated refresh token when the server returns one. Concurrent
// callers share a single in-flight refresh.
func (c *Client) RefreshAccessToken(ctx context.Context) error {
	c.mu.Lock()
	if call := c.refreshing; call != nil {
		c.mu.Unlock()
		select {
		case <-call.done:
			return call.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	refresh := c.refreshToken
	gen := c.generation
	if refresh == "" {
		c.mu.Unlock()
		return &AuthRefreshError{Err: errors.New("no refresh token held")}
	}
	call := &refreshCall{done: make(chan struct{})}
	c.refreshing = call
	c.mu.Unlock()

	access, rotated, err := c.doRefresh(ctx, refresh)

	c.mu.Lock()
	c.refreshing = nil
	// A refresh that completes after ClearSession is discarded, not applied.
	if err == nil && c.generation == gen {
		c.accessToken = access
		c.persistLocked(store.KeyAccessToken, access)
		if rotated != "" {
			c.refreshToken = rotated
			c.persistLocked(store.KeyRefreshToken, rotated)
		}
	}
	c.mu.Unlock()

	call.err = err
	close(call.done)
	return err
}

func (c *Client) doRefresh(ctx context.Context, refresh string) (access, rotated string, err error) {
	payload, _ := json.Marshal(map[string]string{"refresh": refresh})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL.String()+refreshPath, bytes.NewReader(payload))
	if err != nil {
		return "", "", &AuthRefreshError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", "", &AuthRefreshError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", "", &AuthRefreshError{Status: resp.StatusCode}
	}

	var body struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", "", &AuthRefreshError{Err: fmt.Errorf("decoding refresh response: %w", err)}
	}
	if body.Access == "" {
		return "", "", &AuthRefreshError{Err: errors.New("refresh response carried no access token")}
	}
	return body.Access, body.Refresh, nil
}

// Request issues one API call. On 401 with a refresh token held, it performs
// exactly one refresh and one retry; a second 401, or a failed refresh,
// clears the session and returns *AuthenticationRequiredError. Any other
// non-2xx returns *APIError carrying the server message when parseable.
// A 2xx JSON response returns the raw body; other 2xx responses return an
// empty object.
func (c *Client) Request(ctx context.Context, method, path string, body any, query url.Values) (json.RawMessage, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
	}

	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()

	status, contentType, respBody, err := c.do(ctx, method, path, payload, query)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized {
		c.mu.Lock()
		refresh := c.refreshToken
		c.mu.Unlock()

		if refresh == "" {
			c.clearTokens()
			return nil, &AuthenticationRequiredError{}
		}
		if err := c.RefreshAccessToken(ctx); err != nil {
			c.clearTokens()
			return nil, &AuthenticationRequiredError{Err: err}
		}

		status, contentType, respBody, err = c.do(ctx, method, path, payload, query)
		if err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized {
			c.clearTokens()
			return nil, &AuthenticationRequiredError{}
		}
	}

	if status < 200 || status > 299 {
		return nil, &APIError{Status: status, Message: serverMessage(respBody)}
	}

	// A response landing after logout is discarded, not applied.
	c.mu.Lock()
	cleared := c.generation != gen
	c.mu.Unlock()
	if cleared {
		return nil, &AuthenticationRequiredError{Err: errors.New("session cleared while request was in flight")}
	}

	if strings.Contains(contentType, "application/json") && len(respBody) > 0 {
		return respBody, nil
	}
	return json.RawMessage("{}"), nil
}

// do performs a single HTTP attempt and reads the full response.
func (c *Client) do(ctx context.Context, method, path string, payload []byte, query url.Values) (int, string, []byte, error) {
	target, err := c.buildURL(path, query)
	if err != nil {
		return 0, "", nil, err
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, "", nil, fmt.Errorf("building request: %w", err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	c.mu.Lock()
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}
	c.mu.Unlock()

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, "", nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", nil, fmt.Errorf("reading response body: %w", err)
	}

	return resp.StatusCode, resp.Header.Get("Content-Type"), respBody, nil
}

// buildURL joins base and path (leading slash on path stripped) and appends
// query params, omitting params with empty values.
func (c *Client) buildURL(path string, query url.Values) (string, error) {
	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return "", fmt.Errorf("parsing path %q: %w", path, err)
	}
	target := c.baseURL.ResolveReference(ref)

	if len(query) > 0 {
		q := target.Query()
		for key, values := range query {
			for _, v := range values {
				if v == "" {
					continue
				}
				q.Add(key, v)
			}
		}
		target.RawQuery = q.Encode()
	}
	return target.String(), nil
}

// serverMessage extracts the `error` or `detail` field from a JSON error body.
func serverMessage(body []byte) string {
	var parsed struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	if parsed.Error != "" {
		return parsed.Error
	}
	return parsed.Detail
}
