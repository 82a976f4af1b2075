package auth

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/nebulaboard/pkg/httpclient"
)

// DefaultBasePath is the mount point of the auth endpoints.
const DefaultBasePath = "/auth"

// Service issues the auth API calls. Requests are validated before any
// network traffic and responses are validated before they are returned.
type Service struct {
	client *httpclient.Client
	base   string
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithBasePath overrides DefaultBasePath.
func WithBasePath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.base = "/" + strings.Trim(path, "/")
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates an auth service over client.
func NewService(client *httpclient.Client, opts ...Option) *Service {
	s := &Service{
		client: client,
		base:   DefaultBasePath,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login authenticates with email and password.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if err := req.Validate().Err(); err != nil {
		return nil, err
	}

	var resp LoginResponse
	if err := s.client.Post(ctx, s.base+"/login", req, &resp); err != nil {
		return nil, err
	}
	if err := resp.Validate().Err(); err != nil {
		return nil, fmt.Errorf("invalid login response: %w", err)
	}

	s.logger.Debug("login succeeded", "user", resp.User.ID)
	return &resp, nil
}

// Register creates an account and authenticates it.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	if err := req.Validate().Err(); err != nil {
		return nil, err
	}

	var resp RegisterResponse
	if err := s.client.Post(ctx, s.base+"/register", req, &resp); err != nil {
		return nil, err
	}
	if err := resp.Validate().Err(); err != nil {
		return nil, fmt.Errorf("invalid register response: %w", err)
	}

	s.logger.Debug("register succeeded", "user", resp.User.ID)
	return &resp, nil
}

// Logout invalidates the session on the server.
func (s *Service) Logout(ctx context.Context) (*LogoutResponse, error) {
	var resp LogoutResponse
	if err := s.client.Post(ctx, s.base+"/logout", struct{}{}, &resp); err != nil {
		return nil, err
	}
	if err := resp.Validate().Err(); err != nil {
		return nil, fmt.Errorf("invalid logout response: %w", err)
	}
	return &resp, nil
}
