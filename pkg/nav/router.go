// Package nav models the dashboard navigation: named routes with an auth
// guard, and the side menu whose active item is persisted.
package nav

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/aretw0/introspection"
)

// Route names.
const (
	RouteLogin     = "login"
	RouteRegister  = "register"
	RouteDashboard = "dashboard"
	RouteNotes     = "notes"
	RouteTasks     = "tasks"
	RouteJournal   = "journal"
	RouteMusic     = "music"
	RouteSettings  = "settings"
	RouteNotFound  = "not-found"
)

// Route is a named destination.
type Route struct {
	Name         string
	Path         string
	RequiresAuth bool
}

// DefaultRoutes returns the dashboard routes. Every page is reachable without
// a token; use WithRoutes to protect some.
func DefaultRoutes() []Route {
	return []Route{
		{Name: RouteLogin, Path: "/login"},
		{Name: RouteRegister, Path: "/register"},
		{Name: RouteDashboard, Path: "/dashboard"},
		{Name: RouteNotes, Path: "/notes"},
		{Name: RouteTasks, Path: "/tasks"},
		{Name: RouteJournal, Path: "/journal"},
		{Name: RouteMusic, Path: "/music"},
		{Name: RouteSettings, Path: "/settings"},
	}
}

// AuthChecker reports whether the session holds a token.
type AuthChecker interface {
	IsAuthenticated() bool
}

// Router tracks the current route. It is safe for concurrent use.
type Router struct {
	auth   AuthChecker
	logger *slog.Logger

	mu        sync.Mutex
	routes    map[string]Route
	byPath    map[string]Route
	current   Route
	listeners []func(Route)
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithRoutes replaces DefaultRoutes.
func WithRoutes(routes ...Route) RouterOption {
	return func(r *Router) {
		r.routes = make(map[string]Route, len(routes))
		r.byPath = make(map[string]Route, len(routes))
		for _, rt := range routes {
			r.routes[rt.Name] = rt
			r.byPath[rt.Path] = rt
		}
	}
}

// WithRouterLogger sets the logger.
func WithRouterLogger(logger *slog.Logger) RouterOption {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRouter creates a router guarded by auth.
func NewRouter(auth AuthChecker, opts ...RouterOption) *Router {
	r := &Router{
		auth:   auth,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	WithRoutes(DefaultRoutes()...)(r)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Lookup returns the route registered under name.
func (r *Router) Lookup(name string) (Route, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rt, ok := r.routes[name]
	return rt, ok
}

// OnChange registers fn to be called after every navigation.
func (r *Router) OnChange(fn func(Route)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Current returns the current route; the zero Route before any navigation.
func (r *Router) Current() Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Navigate goes to the named route through the guard and returns where it
// landed. Unknown names land on the not-found route.
//   - login with a token redirects to dashboard;
//   - a route requiring auth without a token redirects to login.
func (r *Router) Navigate(name string) Route {
	r.mu.Lock()
	target, ok := r.routes[name]
	if !ok {
		target = Route{Name: RouteNotFound, Path: "/" + strings.TrimLeft(name, "/")}
	}

	authenticated := r.auth != nil && r.auth.IsAuthenticated()
	switch {
	case target.Name == RouteLogin && authenticated:
		target = r.mustRoute(RouteDashboard)
	case target.RequiresAuth && !authenticated:
		target = r.mustRoute(RouteLogin)
	}
	r.mu.Unlock()

	if target.Name != name {
		r.logger.Debug("navigation redirected", "from", name, "to", target.Name)
	}
	r.land(target)
	return target
}

// NavigatePath resolves a path and navigates to it. "/" goes to login.
func (r *Router) NavigatePath(path string) Route {
	if path == "" || path == "/" {
		return r.Navigate(RouteLogin)
	}

	r.mu.Lock()
	rt, ok := r.byPath[path]
	r.mu.Unlock()

	if !ok {
		target := Route{Name: RouteNotFound, Path: path}
		r.land(target)
		return target
	}
	return r.Navigate(rt.Name)
}

// Redirect jumps to the named route without consulting the guard.
// It satisfies httpclient.Navigator.
func (r *Router) Redirect(name string) error {
	r.mu.Lock()
	target, ok := r.routes[name]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown route %q", name)
	}

	r.logger.Info("forced navigation", "to", name)
	r.land(target)
	return nil
}

// mustRoute returns a registered route or a bare one with that name.
// Callers must hold the lock.
func (r *Router) mustRoute(name string) Route {
	if rt, ok := r.routes[name]; ok {
		return rt
	}
	return Route{Name: name, Path: "/" + name}
}

func (r *Router) land(target Route) {
	r.mu.Lock()
	r.current = target
	listeners := append([]func(Route){}, r.listeners...)
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(target)
	}
}

// RouterState exposes the router for observability.
type RouterState struct {
	Current string `json:"current"`
	Path    string `json:"path"`
}

// State implements introspection.Introspectable.
func (r *Router) State() any {
	cur := r.Current()
	return RouterState{Current: cur.Name, Path: cur.Path}
}

// ComponentType implements introspection.Component.
func (r *Router) ComponentType() string {
	return "router"
}

var _ introspection.Introspectable = (*Router)(nil)
var _ introspection.Component = (*Router)(nil)
