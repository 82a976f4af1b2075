package fs

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/nebulaboard/pkg/core"
)

// Watcher observes a data directory and reloads the registered repositories
// when their collection files are changed by another process (e.g. a second
// instance sharing the same profile). Writes made by the repositories
// themselves are recognized by checksum and ignored.
type Watcher struct {
	dir          string
	repos        map[string]*Repository // collection file base name -> repository
	logger       *slog.Logger
	errorHandler func(error)
}

// NewWatcher creates a watcher over dir for the given repositories.
// Every repository must live in dir.
func NewWatcher(dir string, logger *slog.Logger, repos ...*Repository) (*Watcher, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	w := &Watcher{
		dir:    dir,
		repos:  make(map[string]*Repository, len(repos)),
		logger: logger,
	}
	for _, r := range repos {
		if filepath.Clean(filepath.Dir(r.Path)) != filepath.Clean(dir) {
			return nil, fmt.Errorf("repository %s is outside %s", r.schema.Name, dir)
		}
		w.repos[filepath.Base(r.Path)] = r
		if r.config.ErrorHandler != nil && w.errorHandler == nil {
			w.errorHandler = r.config.ErrorHandler
		}
	}
	return w, nil
}

// Watch implements core.Watchable for a single repository.
func (r *Repository) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	w, err := NewWatcher(r.config.Dir, r.config.Logger, r)
	if err != nil {
		return nil, err
	}
	return w.Watch(ctx, pattern)
}

// Watch starts observing the directory. pattern is a doublestar glob over
// collection names ("**" or "" matches all). The returned channel is closed
// once ctx is done.
func (w *Watcher) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern == "" {
		pattern = "**"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern %q", pattern)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(w.dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	for _, r := range w.repos {
		r.setWatcherActive(true)
	}

	events := make(chan core.Event, 16)

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(events)
		defer watcher.Close()
		defer func() {
			for _, r := range w.repos {
				r.setWatcherActive(false)
			}
		}()
		return w.run(ctx, watcher, pattern, events)
	}, lifecycle.WithErrorHandler(func(err error) {
		w.handleError(fmt.Errorf("watcher stopped: %w", err))
	}))

	return events, nil
}

func (w *Watcher) handleError(err error) {
	w.logger.Error("watcher error", "error", err)
	if w.errorHandler != nil {
		w.errorHandler(err)
	}
}

// run is the main event loop.
func (w *Watcher) run(ctx context.Context, watcher *fsnotify.Watcher, pattern string, events chan<- core.Event) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			if w.logger.Enabled(ctx, slog.LevelDebug) {
				w.logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			if e, emit := w.process(ctx, event, pattern); emit {
				select {
				case events <- e:
				case <-ctx.Done():
					return nil
				}
			}

		case wErr, ok := <-watcher.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.handleError(wErr)
		}
	}
}

// process maps a filesystem event onto a collection event, reloading the
// affected repository. It reports false for events that must not be emitted.
func (w *Watcher) process(ctx context.Context, event fsnotify.Event, pattern string) (core.Event, bool) {
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, TempFilePrefix) {
		return core.Event{}, false
	}

	repo, ok := w.repos[base]
	if !ok {
		return core.Event{}, false
	}

	if matched, _ := doublestar.Match(pattern, repo.schema.Name); !matched {
		return core.Event{}, false
	}

	w.logger.Debug("event received", "name", event.Name, "op", event.Op.String())

	same, existed, err := repo.matchesDisk()
	if err != nil {
		w.handleError(fmt.Errorf("failed to inspect %s: %w", event.Name, err))
		return core.Event{}, false
	}
	if same {
		return core.Event{}, false
	}

	if err := repo.Reload(ctx); err != nil {
		w.handleError(fmt.Errorf("failed to reload %s: %w", repo.schema.Name, err))
		return core.Event{}, false
	}
	repo.recordReconcile()

	eType := core.EventModify
	switch {
	case !existed:
		eType = core.EventDelete
	case event.Has(fsnotify.Create):
		eType = core.EventCreate
	}

	return core.Event{
		Type:       eType,
		Collection: repo.schema.Name,
		Timestamp:  time.Now().Unix(),
	}, true
}

// matchesDisk reports whether the collection file on disk is the one this
// repository last wrote or loaded, and whether the file exists at all.
// The read lock keeps our own commits from interleaving with the check.
func (r *Repository) matchesDisk() (same bool, exists bool, err error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, err := os.ReadFile(r.Path)
	if errors.Is(err, os.ErrNotExist) {
		return r.checksum == emptyChecksum, false, nil
	}
	if err != nil {
		return false, false, err
	}
	sum := sha256.Sum256(data)
	return sum == r.checksum, true, nil
}

var emptyChecksum = sha256.Sum256(nil)

var _ core.Watchable = (*Repository)(nil)
