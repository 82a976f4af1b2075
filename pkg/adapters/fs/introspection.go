package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Collection    string     `json:"collection"`
	Path          string     `json:"path"`
	Format        string     `json:"format"`
	Records       int        `json:"records"`
	Indexes       []string   `json:"indexes"`
	ReadOnly      bool       `json:"read_only"`
	WatcherActive bool       `json:"watcher_active"`
	LastReconcile *time.Time `json:"last_reconcile,omitempty"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	indexes := make([]string, 0, len(r.schema.Indexes))
	for _, idx := range r.schema.Indexes {
		name := idx.Field
		if idx.Multi {
			name = "*" + name
		}
		indexes = append(indexes, name)
	}

	return RepositoryState{
		Collection:    r.schema.Name,
		Path:          r.Path,
		Format:        r.config.Format,
		Records:       len(r.records),
		Indexes:       indexes,
		ReadOnly:      r.readOnly,
		WatcherActive: r.watcherActive,
		LastReconcile: r.lastReconcile,
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "repository"
}

var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)

func (r *Repository) setWatcherActive(active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watcherActive = active
}

func (r *Repository) recordReconcile() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.lastReconcile = &now
}
