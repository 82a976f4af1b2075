// Package session holds the authentication state of the running profile:
// the bearer token (persisted as a cookie) and the user profile (persisted in
// local storage), with the login and logout transitions.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	"github.com/golang-jwt/jwt/v5"

	"github.com/aretw0/nebulaboard/pkg/auth"
)

// DefaultAppName prefixes the persisted keys.
const DefaultAppName = "nebulaboard"

// DefaultTokenTTL is the cookie lifetime used when the server gives no expiry.
const DefaultTokenTTL = 24 * time.Hour

// Status is the position in the auth lifecycle.
type Status int

const (
	Anonymous Status = iota
	Authenticating
	Authenticated
)

func (s Status) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Authenticator performs the remote auth calls.
type Authenticator interface {
	Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error)
	Register(ctx context.Context, req auth.RegisterRequest) (*auth.RegisterResponse, error)
	Logout(ctx context.Context) (*auth.LogoutResponse, error)
}

// CookieStore persists cookies with an expiry.
type CookieStore interface {
	Get(name string) (string, bool)
	Set(name, value string, expires time.Time) error
	Expires(name string) (time.Time, bool)
	Remove(name string) error
}

// KeyValueStore persists plain strings.
type KeyValueStore interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
}

// Session is the process-wide auth state. It is safe for concurrent use.
type Session struct {
	app      string
	auth     Authenticator
	cookies  CookieStore
	storage  KeyValueStore
	logger   *slog.Logger
	now      func() time.Time
	tokenTTL time.Duration

	mu      sync.RWMutex
	status  Status
	token   string
	user    *auth.User
	expires time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithAppName overrides DefaultAppName.
func WithAppName(name string) Option {
	return func(s *Session) {
		if name != "" {
			s.app = name
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces the clock used for cookie expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithTokenTTL overrides DefaultTokenTTL.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Session) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

// New creates the session and hydrates it from the persisted stores.
func New(a Authenticator, cookies CookieStore, storage KeyValueStore, opts ...Option) *Session {
	s := &Session{
		app:      DefaultAppName,
		auth:     a,
		cookies:  cookies,
		storage:  storage,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
		tokenTTL: DefaultTokenTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hydrate()
	return s
}

// TokenCookie is the cookie holding the bearer token.
func (s *Session) TokenCookie() string {
	return s.app + "-token"
}

// UserKey is the local storage key holding the user profile.
func (s *Session) UserKey() string {
	return s.app + "-user"
}

func (s *Session) hydrate() {
	token, hasToken := s.cookies.Get(s.TokenCookie())

	var user *auth.User
	if raw, ok := s.storage.Get(s.UserKey()); ok {
		var u auth.User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			s.logger.Warn("ignoring malformed stored user", "key", s.UserKey(), "error", err)
		} else if u.ID != "" {
			user = &u
		}
	}

	if !hasToken || token == "" {
		if user != nil {
			s.logger.Info("dropping stored user without a token", "user", user.ID)
			if err := s.storage.Remove(s.UserKey()); err != nil {
				s.logger.Warn("failed to remove stored user", "error", err)
			}
		}
		s.status = Anonymous
		return
	}

	s.token = token
	s.user = user
	if exp, ok := s.cookies.Expires(s.TokenCookie()); ok {
		s.expires = exp
	}
	s.status = Authenticated
	s.logger.Debug("session restored", "has_user", user != nil, "expires", s.expires)
}

// Token returns the bearer token. It satisfies httpclient.TokenSource.
func (s *Session) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// User returns the authenticated user profile.
func (s *Session) User() (auth.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return auth.User{}, false
	}
	return *s.user, true
}

// Status returns the lifecycle position.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// IsAuthenticated reports whether a token is held.
func (s *Session) IsAuthenticated() bool {
	_, ok := s.Token()
	return ok
}

// ErrInProgress is returned when a login or register is already running.
var ErrInProgress = errors.New("authentication already in progress")

// begin moves to Authenticating and returns the status to restore on failure.
func (s *Session) begin() (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == Authenticating {
		return s.status, ErrInProgress
	}
	prev := s.status
	s.status = Authenticating
	return prev, nil
}

func (s *Session) abort(prev Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = prev
}

// Login authenticates and, on success, stores the token and the user together.
// On failure the session is left as it was and the error is returned.
func (s *Session) Login(ctx context.Context, creds auth.LoginRequest) error {
	prev, err := s.begin()
	if err != nil {
		return err
	}

	resp, err := s.auth.Login(ctx, creds)
	if err != nil {
		s.abort(prev)
		s.logger.Error("login failed", "error", err)
		return fmt.Errorf("login failed: %w", err)
	}

	if err := s.establish(resp); err != nil {
		s.abort(prev)
		s.logger.Error("login failed", "error", err)
		return fmt.Errorf("login failed: %w", err)
	}
	return nil
}

// Register creates an account and establishes its session like Login.
func (s *Session) Register(ctx context.Context, req auth.RegisterRequest) error {
	prev, err := s.begin()
	if err != nil {
		return err
	}

	resp, err := s.auth.Register(ctx, req)
	if err != nil {
		s.abort(prev)
		s.logger.Error("register failed", "error", err)
		return fmt.Errorf("register failed: %w", err)
	}

	if err := s.establish(resp); err != nil {
		s.abort(prev)
		s.logger.Error("register failed", "error", err)
		return fmt.Errorf("register failed: %w", err)
	}
	return nil
}

// establish persists the token and user, then swaps them in.
func (s *Session) establish(resp *auth.LoginResponse) error {
	token := resp.Tokens.Access.Token
	expires := s.expiry(resp.Tokens.Access)

	userJSON, err := json.Marshal(resp.User)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	if err := s.cookies.Set(s.TokenCookie(), token, expires); err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}
	if err := s.storage.Set(s.UserKey(), string(userJSON)); err != nil {
		_ = s.cookies.Remove(s.TokenCookie())
		return fmt.Errorf("failed to persist user: %w", err)
	}

	user := resp.User

	s.mu.Lock()
	s.token = token
	s.user = &user
	s.expires = expires
	s.status = Authenticated
	s.mu.Unlock()

	s.logger.Info("session established", "user", user.ID, "expires", expires)
	return nil
}

// expiry picks the cookie expiry: the server's RFC 3339 value, then the
// token's own exp claim, then DefaultTokenTTL from now.
func (s *Session) expiry(t auth.Token) time.Time {
	if t.Expires != "" {
		if at, err := time.Parse(time.RFC3339, t.Expires); err == nil {
			return at
		}
		s.logger.Warn("unparseable token expiry", "expires", t.Expires)
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(t.Token, claims); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}

	return s.now().Add(s.tokenTTL)
}

// Logout clears the token and user in memory and in the persisted stores.
// It makes no remote call.
func (s *Session) Logout() error {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.expires = time.Time{}
	s.status = Anonymous
	s.mu.Unlock()

	errCookie := s.cookies.Remove(s.TokenCookie())
	errUser := s.storage.Remove(s.UserKey())
	if err := errors.Join(errCookie, errUser); err != nil {
		return fmt.Errorf("failed to clear persisted session: %w", err)
	}

	s.logger.Info("logged out")
	return nil
}

// RemoteLogout notifies the server, then logs out locally whatever the outcome.
func (s *Session) RemoteLogout(ctx context.Context) error {
	_, remoteErr := s.auth.Logout(ctx)
	if remoteErr != nil {
		s.logger.Warn("remote logout failed", "error", remoteErr)
	}
	localErr := s.Logout()
	if remoteErr != nil {
		remoteErr = fmt.Errorf("remote logout failed: %w", remoteErr)
	}
	return errors.Join(remoteErr, localErr)
}

// SessionState exposes the session for observability. The token is never included.
type SessionState struct {
	Status  string     `json:"status"`
	UserID  string     `json:"user_id,omitempty"`
	Expires *time.Time `json:"expires,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Session) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := SessionState{Status: s.status.String()}
	if s.user != nil {
		st.UserID = s.user.ID
	}
	if !s.expires.IsZero() {
		exp := s.expires
		st.Expires = &exp
	}
	return st
}

// ComponentType implements introspection.Component.
func (s *Session) ComponentType() string {
	return "session"
}

var _ introspection.Introspectable = (*Session)(nil)
var _ introspection.Component = (*Session)(nil)
