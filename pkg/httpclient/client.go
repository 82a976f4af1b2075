// Package httpclient is the shared JSON client for the remote API.
//
// It injects the session bearer token, forces navigation to the login route on
// 401 and normalizes every failure into *APIError, *NetworkError or
// *CanceledError.
package httpclient

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
	"time"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 30 * time.Second

// DefaultLoginRoute is the route a 401 redirects to.
const DefaultLoginRoute = "login"

// TokenSource provides the current bearer token.
type TokenSource interface {
	Token() (string, bool)
}

// Navigator performs a forced navigation, bypassing any route guard.
type Navigator interface {
	Redirect(route string) error
}

// Client wraps net/http with the API conventions.
type Client struct {
	baseURL    string
	http       *http.Client
	tokens     TokenSource
	nav        Navigator
	loginRoute string
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Its timeout is kept.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithTokenSource sets where bearer tokens come from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithNavigator sets the navigator used on 401.
func WithNavigator(n Navigator) Option {
	return func(c *Client) {
		c.nav = n
	}
}

// WithLoginRoute overrides DefaultLoginRoute.
func WithLoginRoute(route string) Option {
	return func(c *Client) {
		if route != "" {
			c.loginRoute = route
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       &http.Client{Timeout: DefaultTimeout},
		loginRoute: DefaultLoginRoute,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request describes one API call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any // JSON encoded when non-nil
	Header http.Header
}

// Do performs req and decodes a successful JSON response into out (if non-nil).
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	target := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		target = AppendQuery(target, req.Query)
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	c.authorize(httpReq)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return c.transportError(ctx, req, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.transportError(ctx, req, err)
	}

	c.logger.Debug("api request", "method", req.Method, "path", req.Path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode == http.StatusUnauthorized {
		c.redirectToLogin()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, resp.Status, data)
	}

	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// authorize injects the bearer token unless the caller set Authorization.
func (c *Client) authorize(r *http.Request) {
	if c.tokens == nil || r.Header.Get("Authorization") != "" {
		return
	}
	if token, ok := c.tokens.Token(); ok && token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

func (c *Client) redirectToLogin() {
	if c.nav == nil {
		return
	}
	if err := c.nav.Redirect(c.loginRoute); err != nil {
		c.logger.Error("failed to redirect after 401", "route", c.loginRoute, "error", err)
	}
}

func (c *Client) transportError(ctx context.Context, req Request, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) || errors.Is(err, context.Canceled) {
		c.logger.Info("request aborted", "method", req.Method, "path", req.Path)
		return &CanceledError{Err: err}
	}
	return &NetworkError{Err: err}
}

// Get performs a GET with optional query parameters.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// Post performs a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

// Put performs a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

// Delete performs a DELETE.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path}, out)
}

// AppendQuery adds the encoded query to rawURL, joining with '?' or '&'
// depending on whether rawURL already carries a query.
func AppendQuery(rawURL string, query url.Values) string {
	if len(query) == 0 {
		return rawURL
	}
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + query.Encode()
}
