// Package client implements the authenticated MentApp API client.
//
// All HTTP calls to the backend go through Client.Do, which attaches the
// bearer access token from the session store and, on a 401, transparently
// refreshes it and replays the failed request exactly once. Callers only
// see the replay's outcome; a refresh that cannot succeed destroys the
// session so no stale half-authenticated state survives.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mentapp/mentapp-go/internal/pkg/metrics"
	"github.com/mentapp/mentapp-go/internal/session"
)

// Config configures a Client.
type Config struct {
	// BaseURL is the backend origin, e.g. "https://api.mentapp.la".
	// Required; New fails fast without it rather than failing per-request.
	BaseURL string

	// Timeout applies to every request unless the caller's context expires
	// first. Zero means no client-side timeout (the transport's defaults
	// apply), matching the historical behavior of the web client.
	Timeout time.Duration

	// Transport overrides the HTTP transport, e.g. to install the metrics
	// round tripper or a test stub. Nil means http.DefaultTransport.
	Transport http.RoundTripper

	// OnSessionExpired is invoked after an unrecoverable auth failure has
	// destroyed the session. The web client navigates to /login here; the
	// CLI prints a re-login hint. Optional.
	OnSessionExpired func()
}

// Client performs requests against a single configured backend.
// Safe for concurrent use; concurrent 401s each run their own refresh,
// the session store serializes the token cell updates.
type Client struct {
	baseURL          string
	httpClient       *http.Client
	session          *session.Store
	onSessionExpired func()
}

// New creates a client bound to a session store.
func New(cfg Config, sess *session.Store) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("api base URL is not configured")
	}
	if sess == nil {
		return nil, errors.New("session store is required")
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		session:          sess,
		onSessionExpired: cfg.OnSessionExpired,
	}, nil
}

// Session returns the session store the client mutates.
func (c *Client) Session() *session.Store {
	return c.session
}

// Request describes one outbound call.
type Request struct {
	// Method is GET, POST, or DELETE. Empty means GET.
	Method string

	// Path is the URL path, optionally with a query string, e.g.
	// "/add/bookmark?mentId=3".
	Path string

	// Body is JSON-encoded when non-nil.
	Body any

	// Headers are merged over the default Content-Type: application/json.
	Headers map[string]string

	// SkipAuth suppresses the Authorization header entirely. Requests with
	// SkipAuth set never enter the refresh flow.
	SkipAuth bool

	// NoRefresh declares that a 401 from this call must surface to the
	// caller instead of triggering a token refresh. Set on the refresh
	// call itself, on login/register, and on the anonymous ment list.
	// An explicit per-call flag, not URL matching: a path that happens to
	// contain "login" must not opt out by accident.
	NoRefresh bool

	// BaseOverride replaces the configured base URL for this one call.
	BaseOverride string
}

// Do executes req and, on success, decodes the JSON response body into out
// (out may be nil when the caller ignores the body).
//
// On a qualifying 401 it refreshes the access token and replays the request
// once; see refreshAndReplay for the exact protocol.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	return c.do(ctx, req, out, false)
}

func (c *Client) do(ctx context.Context, req Request, out any, replayed bool) error {
	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return &Error{Code: CodeRequestFailed, Message: err.Error()}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Cancellation is the caller's doing; surface it as-is and never
		// retry.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &Error{Code: CodeRequestFailed, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Code: CodeRequestFailed, Message: err.Error()}
	}

	if resp.StatusCode == http.StatusUnauthorized && !req.SkipAuth && !req.NoRefresh && !replayed {
		return c.refreshAndReplay(ctx, req, out)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse(resp.StatusCode, body)
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return &Error{Code: CodeRequestFailed, Message: err.Error(), Status: resp.StatusCode}
		}
	}
	return nil
}

func (c *Client) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	base := c.baseURL
	if req.BaseOverride != "" {
		base = strings.TrimRight(req.BaseOverride, "/")
	}

	var bodyReader io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, base+req.Path, bodyReader)
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	if !req.SkipAuth {
		// A missing token is not an error here: some endpoints tolerate
		// anonymous calls and simply get no Authorization header.
		if token := c.session.AccessToken(); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	return httpReq, nil
}

// refreshAndReplay handles a qualifying 401: obtain a fresh access token
// with the durable refresh token, then replay the original request once.
//
// Any unrecoverable step destroys the whole session and notifies the
// OnSessionExpired callback; a stale partial session is worse than a full
// logout.
func (c *Client) refreshAndReplay(ctx context.Context, req Request, out any) error {
	refreshToken := c.session.RefreshToken()
	if refreshToken == "" {
		slog.Info("access token rejected and no refresh token held, logging out")
		metrics.TokenRefreshes.WithLabelValues("no_refresh_token").Inc()
		c.expireSession()
		return codeError(CodeSessionExpired, http.StatusUnauthorized)
	}

	slog.Debug("access token rejected, attempting refresh", "path", req.Path)

	resp, err := c.refreshAccessToken(ctx, refreshToken)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Error("token refresh failed", "error", err)
		metrics.TokenRefreshes.WithLabelValues("failed").Inc()
		c.expireSession()
		return codeError(CodeTokenRefreshFailed, http.StatusUnauthorized)
	}

	accessToken := resp.BearerToken()
	if accessToken == "" {
		slog.Error("token refresh returned no usable access token")
		metrics.TokenRefreshes.WithLabelValues("failed").Inc()
		c.expireSession()
		return codeError(CodeTokenRefreshFailed, http.StatusUnauthorized)
	}

	if err := c.session.UpdateTokens(accessToken, resp.AnyRefreshToken()); err != nil {
		return &Error{Code: CodeTokenRefreshFailed, Message: err.Error()}
	}
	metrics.TokenRefreshes.WithLabelValues("success").Inc()
	slog.Debug("token refresh successful, replaying request", "path", req.Path)

	// The replay gets exactly one shot. A second 401 propagates to the
	// caller like any other failure.
	return c.do(ctx, req, out, true)
}

func (c *Client) expireSession() {
	if err := c.session.ClearAuthed(); err != nil {
		slog.Warn("failed to clear session", "error", err)
	}
	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}
}

// errorFromResponse normalizes a non-2xx response into an Error, preferring
// the backend's message field when the body is a JSON object carrying one.
func errorFromResponse(status int, body []byte) *Error {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return &Error{Message: payload.Message, Status: status}
	}

	return &Error{
		Code:    CodeRequestFailed,
		Message: fmt.Sprintf("request failed with status %d", status),
		Status:  status,
	}
}
