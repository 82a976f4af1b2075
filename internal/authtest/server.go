// Package authtest provides an in-process implementation of the remote auth
// API, for tests and local development.
package authtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/aretw0/nebulaboard/pkg/auth"
)

// API is a fake auth API. Passwords are stored as bcrypt hashes and access
// tokens are HS256 JWTs.
type API struct {
	router chi.Router
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	omitExpiry atomic.Bool
	requests   atomic.Int64

	mu       sync.Mutex
	accounts map[string]account // email -> account
	revoked  map[string]bool    // token -> revoked
}

type account struct {
	user auth.User
	hash []byte
}

// Option configures an API.
type Option func(*API)

// WithSecret sets the JWT signing key.
func WithSecret(secret []byte) Option {
	return func(a *API) {
		a.secret = secret
	}
}

// WithTokenTTL sets the access token lifetime.
func WithTokenTTL(ttl time.Duration) Option {
	return func(a *API) {
		a.ttl = ttl
	}
}

// WithClock replaces the clock used for token timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *API) {
		a.now = now
	}
}

// NewAPI creates the fake API. Mount it with Handler.
func NewAPI(opts ...Option) *API {
	a := &API{
		secret:   []byte("nebulaboard-dev-secret"),
		ttl:      time.Hour,
		now:      time.Now,
		accounts: make(map[string]account),
		revoked:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(a)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer, a.count)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", a.handleLogin)
		r.Post("/register", a.handleRegister)
		r.With(a.requireToken).Post("/logout", a.handleLogout)
	})
	r.With(a.requireToken).Get("/me", a.handleMe)
	a.router = r
	return a
}

// Handler returns the HTTP handler.
func (a *API) Handler() http.Handler {
	return a.router
}

// Requests returns the number of requests received so far.
func (a *API) Requests() int64 {
	return a.requests.Load()
}

// OmitExpiry makes login and register leave tokens.access.expires empty.
func (a *API) OmitExpiry(omit bool) {
	a.omitExpiry.Store(omit)
}

// AddUser registers an account directly.
func (a *API) AddUser(name, email, password string) (auth.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return auth.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.accounts[email]; exists {
		return auth.User{}, fmt.Errorf("email %s already registered", email)
	}

	stamp := a.now().UTC().Format(time.RFC3339)
	u := auth.User{ID: uuid.NewString(), Name: name, Email: email, CreatedAt: stamp, UpdatedAt: stamp}
	a.accounts[email] = account{user: u, hash: hash}
	return u, nil
}

// Revoke invalidates a token, so any later call with it gets 401.
func (a *API) Revoke(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.revoked[token] = true
}

// Server is an API bound to an httptest server.
type Server struct {
	*API
	URL string
}

// NewServer starts the API on a local port and stops it when the test ends.
func NewServer(t testing.TB, opts ...Option) *Server {
	t.Helper()
	api := NewAPI(opts...)
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)
	return &Server{API: api, URL: srv.URL}
}

func (a *API) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.requests.Add(1)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "malformed body")
		return
	}

	a.mu.Lock()
	acc, ok := a.accounts[req.Email]
	a.mu.Unlock()

	if !ok || bcrypt.CompareHashAndPassword(acc.hash, []byte(req.Password)) != nil {
		writeMessage(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}

	a.respondWithTokens(w, http.StatusOK, acc.user)
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "malformed body")
		return
	}
	if err := req.Validate().Err(); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := a.AddUser(req.Name, req.Email, req.Password)
	if err != nil {
		writeMessage(w, http.StatusConflict, "Email already taken")
		return
	}

	a.respondWithTokens(w, http.StatusCreated, u)
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	a.Revoke(bearer(r))
	writeMessage(w, http.StatusOK, "Logout successful")
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	sub := r.Context().Value(subjectKey{}).(string)

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, acc := range a.accounts {
		if acc.user.ID == sub {
			writeJSON(w, http.StatusOK, acc.user)
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "user not found")
}

func (a *API) respondWithTokens(w http.ResponseWriter, status int, u auth.User) {
	now := a.now()
	access, accessExp, err := a.sign(u.ID, now, a.ttl)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "failed to sign token")
		return
	}
	refresh, refreshExp, err := a.sign(u.ID, now, 30*24*time.Hour)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "failed to sign token")
		return
	}

	resp := auth.LoginResponse{
		User: u,
		Tokens: auth.Tokens{
			Access:  auth.Token{Token: access, Expires: accessExp.UTC().Format(time.RFC3339)},
			Refresh: auth.Token{Token: refresh, Expires: refreshExp.UTC().Format(time.RFC3339)},
		},
	}
	if a.omitExpiry.Load() {
		resp.Tokens.Access.Expires = ""
	}
	writeJSON(w, status, resp)
}

func (a *API) sign(subject string, now time.Time, ttl time.Duration) (string, time.Time, error) {
	exp := now.Add(ttl).Truncate(time.Second)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	return token, exp, err
}

type subjectKey struct{}

func bearer(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

// requireToken rejects requests without a valid, unrevoked bearer token.
func (a *API) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearer(r)
		if raw == "" {
			writeMessage(w, http.StatusUnauthorized, "Please authenticate")
			return
		}

		a.mu.Lock()
		revoked := a.revoked[raw]
		a.mu.Unlock()
		if revoked {
			writeMessage(w, http.StatusUnauthorized, "Please authenticate")
			return
		}

		claims := &jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return a.secret, nil
		}, jwt.WithTimeFunc(a.now))
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Please authenticate")
			return
		}

		ctx := context.WithValue(r.Context(), subjectKey{}, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
