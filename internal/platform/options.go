package platform

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/nebulaboard/internal/config"
)

// options holds the wiring configuration of an App.
type options struct {
	cfg          config.Config
	logger       *slog.Logger
	httpClient   *http.Client
	now          func() time.Time
	newID        func() string
	forceTemp    bool
	devSafety    bool
	errorHandler func(error)
}

// Option configures an App.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		cfg:       config.Default(),
		now:       time.Now,
		devSafety: true,
	}
}

// WithConfig replaces every setting with cfg.
func WithConfig(cfg config.Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithAppName sets the app name used for the profile dir and the session keys.
func WithAppName(name string) Option {
	return func(o *options) {
		o.cfg.AppName = name
	}
}

// WithProfileDir sets where cookies and local storage live.
func WithProfileDir(dir string) Option {
	return func(o *options) {
		o.cfg.ProfileDir = dir
	}
}

// WithDataDir sets where the collection files live. Defaults to <profile>/data.
func WithDataDir(dir string) Option {
	return func(o *options) {
		o.cfg.DataDir = dir
	}
}

// WithFormat selects the collection file format ("json" or "yaml").
func WithFormat(format string) Option {
	return func(o *options) {
		o.cfg.Format = format
	}
}

// WithAPIBaseURL sets the auth API base URL.
func WithAPIBaseURL(url string) Option {
	return func(o *options) {
		o.cfg.APIBaseURL = url
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.cfg.Timeout = d
	}
}

// WithTokenTTL sets the cookie lifetime used when the server gives no expiry.
func WithTokenTTL(d time.Duration) Option {
	return func(o *options) {
		o.cfg.TokenTTL = d
	}
}

// WithReadOnly opens every collection read-only.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.cfg.ReadOnly = enabled
	}
}

// WithWatch keeps the collections in sync with writes from other processes
// for as long as the context given to New lives.
func WithWatch(enabled bool) Option {
	return func(o *options) {
		o.cfg.Watch = enabled
	}
}

// WithHTTPClient injects the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// WithClock replaces time.Now in the services, the profile and the session.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator replaces uuid.NewString for new records.
func WithIDGenerator(gen func() string) Option {
	return func(o *options) {
		o.newID = gen
	}
}

// WithForceTemp re-roots the profile under the system temp dir.
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithDevSafety controls the re-rooting applied under `go run` and `go test`.
// Enabled by default; read-only apps are never re-rooted.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}

// WithWatcherErrorHandler receives runtime errors of the collection watcher.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}
