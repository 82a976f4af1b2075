package nebulaboard

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/nebulaboard/internal/config"
	"github.com/aretw0/nebulaboard/internal/platform"
	"github.com/aretw0/nebulaboard/pkg/adapters/fs"
	"github.com/aretw0/nebulaboard/pkg/core"
	"github.com/aretw0/nebulaboard/pkg/typed"
)

// --- Types ---

// App is the wired dashboard core.
type App = platform.App

// Config holds the file and environment settings.
type Config = config.Config

// Option configures Open.
type Option = platform.Option

// --- Configuration ---

// LoadConfig reads nebulaboard.yaml, .env and NEBULA_* variables.
// An empty path uses nebulaboard.yaml in the working directory if present.
func LoadConfig(path string) (Config, error) {
	return config.Load(config.WithFile(path))
}

// WithConfig applies every setting of cfg.
func WithConfig(cfg Config) Option { return platform.WithConfig(cfg) }

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option { return platform.WithLogger(logger) }

// WithAppName sets the app name used for the profile dir and session keys.
func WithAppName(name string) Option { return platform.WithAppName(name) }

// WithProfileDir sets where cookies and local storage live.
func WithProfileDir(dir string) Option { return platform.WithProfileDir(dir) }

// WithDataDir sets where the collection files live.
func WithDataDir(dir string) Option { return platform.WithDataDir(dir) }

// WithFormat selects "json" or "yaml" collection files.
func WithFormat(format string) Option { return platform.WithFormat(format) }

// WithAPIBaseURL sets the auth API base URL.
func WithAPIBaseURL(url string) Option { return platform.WithAPIBaseURL(url) }

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) Option { return platform.WithTimeout(d) }

// WithTokenTTL sets the cookie lifetime used when the server sends no expiry.
func WithTokenTTL(d time.Duration) Option { return platform.WithTokenTTL(d) }

// WithWatch reloads the collections on writes from other processes while the
// Open context lives.
func WithWatch(enabled bool) Option { return platform.WithWatch(enabled) }

// WithReadOnly opens every collection read-only.
func WithReadOnly(enabled bool) Option { return platform.WithReadOnly(enabled) }

// WithHTTPClient injects the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) Option { return platform.WithHTTPClient(hc) }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return platform.WithClock(now) }

// WithIDGenerator replaces the record id generator.
func WithIDGenerator(gen func() string) Option { return platform.WithIDGenerator(gen) }

// WithForceTemp forces the profile into the system temp directory.
func WithForceTemp(force bool) Option { return platform.WithForceTemp(force) }

// WithDevSafety controls the sandbox applied under `go run` and `go test`.
func WithDevSafety(enabled bool) Option { return platform.WithDevSafety(enabled) }

// WithWatcherErrorHandler receives runtime errors of the collection watcher.
func WithWatcherErrorHandler(fn func(error)) Option { return platform.WithWatcherErrorHandler(fn) }

// --- Factory ---

// Open wires the dashboard core.
func Open(ctx context.Context, opts ...Option) (*App, error) {
	return platform.New(ctx, opts...)
}

// OpenCollection opens a standalone typed collection in dir.
func OpenCollection[T any](ctx context.Context, dir string, schema core.Schema, format string) (*typed.Repository[T], error) {
	repo, err := fs.NewRepository(fs.Config{Dir: dir, Schema: schema, Format: format})
	if err != nil {
		return nil, err
	}
	if err := repo.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", schema.Name, err)
	}
	return typed.NewRepository[T](repo), nil
}

// --- Safety & Utils ---

// IsDevRun reports whether the process runs via `go run` or `go test`.
func IsDevRun() bool { return platform.IsDevRun() }

// ResolveProfileDir applies the profile location and sandbox rules.
func ResolveProfileDir(userPath, app string, forceTemp bool) (string, error) {
	return platform.ResolveProfileDir(userPath, app, forceTemp)
}

// FindConfig looks for nebulaboard.yaml in startDir and its parents.
func FindConfig(startDir string) (string, error) { return platform.FindConfig(startDir) }
