// Package profile persists the per-user client state a browser would keep:
// a cookie jar with expiry and a string key/value local storage.
//
// Each lives in its own JSON file inside the profile directory and every
// mutation rewrites that file atomically.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/introspection"

	"github.com/aretw0/nebulaboard/pkg/adapters/fs"
)

const (
	CookiesFile      = "cookies.json"
	LocalStorageFile = "localstorage.json"
)

// Profile groups the persisted stores of one profile directory.
type Profile struct {
	Dir     string
	Cookies *Cookies
	Local   *LocalStorage
}

type options struct {
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Profile.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock replaces the clock used for cookie expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// Open loads (or creates) the profile stored in dir.
// Unreadable or malformed files are logged and treated as empty.
func Open(dir string, opts ...Option) (*Profile, error) {
	o := &options{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create profile directory: %w", err)
	}

	cookies := &Cookies{
		path:    filepath.Join(dir, CookiesFile),
		now:     o.now,
		logger:  o.logger,
		entries: make(map[string]cookie),
	}
	loadJSON(cookies.path, &cookies.entries, o.logger)

	local := &LocalStorage{
		path:    filepath.Join(dir, LocalStorageFile),
		logger:  o.logger,
		entries: make(map[string]string),
	}
	loadJSON(local.path, &local.entries, o.logger)

	return &Profile{Dir: dir, Cookies: cookies, Local: local}, nil
}

func loadJSON[T any](path string, into *map[string]T, logger *slog.Logger) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	if err != nil {
		logger.Warn("failed to read profile file, starting empty", "path", path, "error", err)
		return
	}

	var parsed map[string]T
	if err := json.Unmarshal(data, &parsed); err != nil {
		logger.Warn("malformed profile file, starting empty", "path", path, "error", err)
		return
	}
	if parsed != nil {
		*into = parsed
	}
}

func saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := fs.WriteFileAtomic(path, data, 0600); err != nil {
		return fmt.Errorf("failed to persist %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ProfileState exposes the profile for observability. Values are never included.
type ProfileState struct {
	Dir          string   `json:"dir"`
	Cookies      []string `json:"cookies"`
	StorageItems []string `json:"storage_items"`
}

// State implements introspection.Introspectable.
func (p *Profile) State() any {
	return ProfileState{
		Dir:          p.Dir,
		Cookies:      p.Cookies.Names(),
		StorageItems: p.Local.Keys(),
	}
}

// ComponentType implements introspection.Component.
func (p *Profile) ComponentType() string {
	return "profile"
}

var _ introspection.Introspectable = (*Profile)(nil)
var _ introspection.Component = (*Profile)(nil)
