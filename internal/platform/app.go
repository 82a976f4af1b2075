// Package platform is the composition root: it resolves the profile and data
// directories and wires the store, services, session and navigation into one App.
package platform

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/introspection"
	"github.com/aretw0/lifecycle"

	"github.com/aretw0/nebulaboard/pkg/adapters/fs"
	"github.com/aretw0/nebulaboard/pkg/auth"
	"github.com/aretw0/nebulaboard/pkg/core"
	"github.com/aretw0/nebulaboard/pkg/httpclient"
	"github.com/aretw0/nebulaboard/pkg/nav"
	"github.com/aretw0/nebulaboard/pkg/notes"
	"github.com/aretw0/nebulaboard/pkg/profile"
	"github.com/aretw0/nebulaboard/pkg/session"
	"github.com/aretw0/nebulaboard/pkg/tasks"
)

// App is the fully wired dashboard core.
type App struct {
	Name       string
	ProfileDir string
	DataDir    string

	Profile *profile.Profile
	Notes   *notes.Service
	Tasks   *tasks.Service
	Client  *httpclient.Client
	Auth    *auth.Service
	Session *session.Session
	Router  *nav.Router
	Menu    *nav.Menu

	collections []*fs.Repository
	logger      *slog.Logger
}

// sessionRef breaks the cycle between the HTTP client, which needs the token,
// and the session, which needs the client through the auth service.
type sessionRef struct {
	s *session.Session
}

func (r *sessionRef) Token() (string, bool) {
	if r.s == nil {
		return "", false
	}
	return r.s.Token()
}

func (r *sessionRef) IsAuthenticated() bool {
	return r.s != nil && r.s.IsAuthenticated()
}

// New opens the profile and the collections and wires every component.
// The router starts at "/", which the guard resolves to login or dashboard.
func New(ctx context.Context, opts ...Option) (*App, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	cfg := o.cfg
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	useTemp := o.forceTemp || (IsDevRun() && o.devSafety && !cfg.ReadOnly)
	profileDir, err := ResolveProfileDir(cfg.ProfileDir, cfg.AppName, useTemp)
	if err != nil {
		return nil, err
	}
	dataDir := filepath.Join(profileDir, DataDirName)
	if cfg.DataDir != "" {
		if dataDir, err = ResolveProfileDir(cfg.DataDir, cfg.AppName, useTemp); err != nil {
			return nil, err
		}
	}
	if useTemp {
		logger.Debug("running in dev sandbox", "profile", profileDir, "data", dataDir)
	}

	a := &App{
		Name:       cfg.AppName,
		ProfileDir: profileDir,
		DataDir:    dataDir,
		logger:     logger,
	}

	for _, schema := range []core.Schema{notes.Schema, tasks.Schema, tasks.RichTextSchema} {
		repo, err := fs.NewRepository(fs.Config{
			Dir:          dataDir,
			Schema:       schema,
			Format:       cfg.Format,
			ReadOnly:     cfg.ReadOnly,
			Logger:       logger.With("collection", schema.Name),
			ErrorHandler: o.errorHandler,
		})
		if err != nil {
			return nil, err
		}
		if err := repo.Initialize(ctx); err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", schema.Name, err)
		}
		a.collections = append(a.collections, repo)
	}

	if a.Notes, err = notes.NewService(a.collections[0],
		notes.WithLogger(logger),
		notes.WithClock(o.now),
		notes.WithIDGenerator(o.newID),
	); err != nil {
		return nil, err
	}
	if a.Tasks, err = tasks.NewService(a.collections[1], a.collections[2],
		tasks.WithLogger(logger),
		tasks.WithClock(o.now),
		tasks.WithIDGenerator(o.newID),
	); err != nil {
		return nil, err
	}

	if a.Profile, err = profile.Open(profileDir,
		profile.WithLogger(logger),
		profile.WithClock(o.now),
	); err != nil {
		return nil, err
	}

	ref := &sessionRef{}
	a.Router = nav.NewRouter(ref, nav.WithRouterLogger(logger))

	clientOpts := []httpclient.Option{
		httpclient.WithTimeout(cfg.Timeout),
		httpclient.WithTokenSource(ref),
		httpclient.WithNavigator(a.Router),
		httpclient.WithLoginRoute(nav.RouteLogin),
		httpclient.WithLogger(logger),
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, httpclient.WithHTTPClient(o.httpClient))
	}
	a.Client = httpclient.New(cfg.APIBaseURL, clientOpts...)
	a.Auth = auth.NewService(a.Client, auth.WithLogger(logger))

	a.Session = session.New(a.Auth, a.Profile.Cookies, a.Profile.Local,
		session.WithAppName(cfg.AppName),
		session.WithLogger(logger),
		session.WithClock(o.now),
		session.WithTokenTTL(cfg.TokenTTL),
	)
	ref.s = a.Session

	a.Menu = nav.NewMenu(a.Profile.Local, a.Router, nav.WithMenuLogger(logger))
	a.Router.NavigatePath("/")

	if cfg.Watch {
		if err := a.watchInBackground(ctx); err != nil {
			return nil, err
		}
	}

	logger.Debug("app ready",
		"profile", profileDir,
		"data", dataDir,
		"format", cfg.Format,
		"session", a.Session.Status().String(),
	)
	return a, nil
}

// Collections returns the notes, tasks and richtext repositories.
func (a *App) Collections() []*fs.Repository {
	return append([]*fs.Repository(nil), a.collections...)
}

// Watch reloads the collections when another process rewrites them and
// reports each change. pattern is a glob over collection names.
func (a *App) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	w, err := fs.NewWatcher(a.DataDir, a.logger, a.collections...)
	if err != nil {
		return nil, err
	}
	return w.Watch(ctx, pattern)
}

// watchInBackground reloads on external writes until ctx ends. Events only
// reach the log.
func (a *App) watchInBackground(ctx context.Context) error {
	events, err := a.Watch(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	lifecycle.Go(ctx, func(ctx context.Context) error {
		for e := range events {
			a.logger.Debug("collection reloaded", "collection", e.Collection, "type", e.Type)
		}
		return nil
	})
	return nil
}

// AppState aggregates the state of every component.
type AppState struct {
	Name        string         `json:"name"`
	ProfileDir  string         `json:"profile_dir"`
	DataDir     string         `json:"data_dir"`
	Profile     any            `json:"profile"`
	Session     any            `json:"session"`
	Router      any            `json:"router"`
	Menu        any            `json:"menu"`
	Collections map[string]any `json:"collections"`
}

// State implements introspection.Introspectable.
func (a *App) State() any {
	cols := make(map[string]any, len(a.collections))
	for _, r := range a.collections {
		cols[r.Schema().Name] = r.State()
	}
	return AppState{
		Name:        a.Name,
		ProfileDir:  a.ProfileDir,
		DataDir:     a.DataDir,
		Profile:     a.Profile.State(),
		Session:     a.Session.State(),
		Router:      a.Router.State(),
		Menu:        a.Menu.State(),
		Collections: cols,
	}
}

// ComponentType implements introspection.Component.
func (a *App) ComponentType() string {
	return "app"
}

var _ introspection.Introspectable = (*App)(nil)
var _ introspection.Component = (*App)(nil)
