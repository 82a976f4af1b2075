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
	"sync"
	"time"

	"github.com/aretw0/nebulaboard/pkg/core"
)

// Repository implements core.Repository on top of a single collection file.
//
// The whole collection is kept in memory and every mutation rewrites the file
// atomically (temp file + fsync + rename). The in-memory state is swapped only
// after the write succeeded.
type Repository struct {
	Path   string
	config Config
	schema core.Schema
	codec  Serializer

	mu            sync.RWMutex
	records       map[string]core.Record
	indexes       map[string]*index
	checksum      [sha256.Size]byte
	readOnly      bool
	watcherActive bool
	lastReconcile *time.Time
}

// Config holds the configuration for the filesystem repository.
type Config struct {
	Dir          string      // Directory holding the collection files
	Schema       core.Schema // Collection declaration
	Format       string      // "json" (default) or "yaml"
	MustExist    bool        // Fail if Dir is missing instead of creating it
	ReadOnly     bool
	Logger       *slog.Logger
	ErrorHandler func(error) // Receives watcher runtime errors
	Serializers  map[string]Serializer
}

// NewRepository creates a new filesystem-backed repository.
// Initialize must be called before use.
func NewRepository(config Config) (*Repository, error) {
	if config.Schema.Name == "" || config.Schema.PrimaryKey == "" {
		return nil, fmt.Errorf("repository requires a schema with a name and primary key")
	}
	if config.Format == "" {
		config.Format = "json"
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	serializers := config.Serializers
	if serializers == nil {
		serializers = DefaultSerializers()
	}
	codec, ok := serializers[config.Format]
	if !ok {
		return nil, fmt.Errorf("unsupported collection format %q", config.Format)
	}

	r := &Repository{
		Path:     filepath.Join(config.Dir, config.Schema.Name+codec.Ext()),
		config:   config,
		schema:   config.Schema,
		codec:    codec,
		records:  make(map[string]core.Record),
		indexes:  make(map[string]*index),
		readOnly: config.ReadOnly,
	}

	r.indexes[config.Schema.PrimaryKey] = newIndex(core.Index{Field: config.Schema.PrimaryKey}, true)
	for _, def := range config.Schema.Indexes {
		r.indexes[def.Field] = newIndex(def, false)
	}

	return r, nil
}

// Schema returns the collection declaration.
func (r *Repository) Schema() core.Schema {
	return r.schema
}

// Initialize creates the data directory (unless MustExist or ReadOnly) and
// loads the collection file.
func (r *Repository) Initialize(ctx context.Context) error {
	if r.config.MustExist || r.readOnly {
		info, err := os.Stat(r.config.Dir)
		if os.IsNotExist(err) {
			return fmt.Errorf("data directory does not exist: %s", r.config.Dir)
		}
		if err != nil {
			return fmt.Errorf("failed to stat data directory: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("data path is not a directory: %s", r.config.Dir)
		}
	} else if err := os.MkdirAll(r.config.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	return r.Reload(ctx)
}

// Reload re-reads the collection file from disk, replacing the in-memory state.
// A missing file is an empty collection.
func (r *Repository) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := os.ReadFile(r.Path)
	if errors.Is(err, os.ErrNotExist) {
		data = nil
	} else if err != nil {
		return fmt.Errorf("failed to read collection %s: %w", r.schema.Name, err)
	}

	parsed, err := r.codec.Parse(data, r.schema)
	if err != nil {
		return fmt.Errorf("failed to parse collection %s: %w", r.schema.Name, err)
	}

	records := make(map[string]core.Record, len(parsed))
	for _, rec := range parsed {
		if _, dup := records[rec.ID]; dup {
			return fmt.Errorf("collection %s: duplicate id %q", r.schema.Name, rec.ID)
		}
		records[rec.ID] = rec
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = records
	r.checksum = sha256.Sum256(data)
	for _, idx := range r.indexes {
		idx.rebuild(records)
	}

	r.config.Logger.Debug("collection loaded", "collection", r.schema.Name, "records", len(records))
	return nil
}

// commit persists next and swaps it in. Callers must hold the write lock.
// before and after hold the previous and new version of every touched record;
// nil stands for "absent".
func (r *Repository) commit(next map[string]core.Record, before, after map[string]*core.Record) error {
	list := make([]core.Record, 0, len(next))
	for _, rec := range next {
		list = append(list, rec)
	}

	data, err := r.codec.Serialize(list, r.schema)
	if err != nil {
		return fmt.Errorf("failed to serialize collection %s: %w", r.schema.Name, err)
	}

	if err := WriteFileAtomic(r.Path, data, 0644); err != nil {
		return fmt.Errorf("failed to write collection %s: %w", r.schema.Name, err)
	}

	r.records = next
	r.checksum = sha256.Sum256(data)

	for id, old := range before {
		for _, idx := range r.indexes {
			if old != nil {
				idx.remove(*old)
			}
			if rec := after[id]; rec != nil {
				idx.insert(*rec)
			}
		}
	}
	return nil
}

func (r *Repository) copyRecords() map[string]core.Record {
	next := make(map[string]core.Record, len(r.records)+1)
	for k, v := range r.records {
		next[k] = v
	}
	return next
}

func (r *Repository) checkWritable(ctx context.Context) error {
	if r.readOnly {
		return core.ErrReadOnly
	}
	return ctx.Err()
}

// Add inserts a new record.
func (r *Repository) Add(ctx context.Context, rec core.Record) error {
	if err := r.checkWritable(ctx); err != nil {
		return err
	}
	if rec.ID == "" {
		return core.ErrEmptyID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[rec.ID]; exists {
		return fmt.Errorf("%s %s: %w", r.schema.Name, rec.ID, core.ErrDuplicateID)
	}

	fields, err := normalizeFields(rec.Fields)
	if err != nil {
		return fmt.Errorf("%s %s: %w", r.schema.Name, rec.ID, err)
	}
	stored := core.Record{ID: rec.ID}.Merge(fields, r.schema.PrimaryKey)

	next := r.copyRecords()
	next[rec.ID] = stored
	if err := r.commit(next,
		map[string]*core.Record{rec.ID: nil},
		map[string]*core.Record{rec.ID: &stored},
	); err != nil {
		return err
	}

	r.config.Logger.Debug("record added", "collection", r.schema.Name, "id", rec.ID)
	return nil
}

// Get retrieves a record by its ID.
func (r *Repository) Get(ctx context.Context, id string) (core.Record, error) {
	if err := ctx.Err(); err != nil {
		return core.Record{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return core.Record{}, fmt.Errorf("%s %s: %w", r.schema.Name, id, core.ErrNotFound)
	}
	return rec.Clone(), nil
}

// Update merges fields onto an existing record.
func (r *Repository) Update(ctx context.Context, id string, fields core.Fields) error {
	return r.Modify(ctx, id, func(core.Record) (core.Fields, error) {
		return fields, nil
	})
}

// Modify runs fn against the current record and merges the returned fields,
// all under the write lock and with a single durable write.
func (r *Repository) Modify(ctx context.Context, id string, fn func(current core.Record) (core.Fields, error)) error {
	if err := r.checkWritable(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.records[id]
	if !ok {
		return fmt.Errorf("%s %s: %w", r.schema.Name, id, core.ErrNotFound)
	}

	patch, err := fn(current.Clone())
	if err != nil {
		return err
	}
	if patch, err = normalizeFields(patch); err != nil {
		return fmt.Errorf("%s %s: %w", r.schema.Name, id, err)
	}

	updated := current.Merge(patch, r.schema.PrimaryKey)

	next := r.copyRecords()
	next[id] = updated
	if err := r.commit(next,
		map[string]*core.Record{id: &current},
		map[string]*core.Record{id: &updated},
	); err != nil {
		return err
	}

	r.config.Logger.Debug("record updated", "collection", r.schema.Name, "id", id)
	return nil
}

// Delete removes a record by its ID.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := r.checkWritable(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.records[id]
	if !ok {
		return fmt.Errorf("%s %s: %w", r.schema.Name, id, core.ErrNotFound)
	}

	next := r.copyRecords()
	delete(next, id)
	if err := r.commit(next,
		map[string]*core.Record{id: &current},
		map[string]*core.Record{id: nil},
	); err != nil {
		return err
	}

	r.config.Logger.Debug("record deleted", "collection", r.schema.Name, "id", id)
	return nil
}

// All returns every record in no particular order.
func (r *Repository) All(ctx context.Context) ([]core.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]core.Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.Clone())
	}
	return out, nil
}

// Find runs an index query.
func (r *Repository) Find(ctx context.Context, q core.Query) ([]core.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query on %s.%s: %w", r.schema.Name, q.Field, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.indexes[q.Field]
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", r.schema.Name, q.Field, core.ErrNotIndexed)
	}
	return r.resolve(idx.scan(q)), nil
}

// OrderBy returns every record carrying field, in index order.
func (r *Repository) OrderBy(ctx context.Context, field string, desc bool) ([]core.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.indexes[field]
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", r.schema.Name, field, core.ErrNotIndexed)
	}
	return r.resolve(idx.ordered(desc)), nil
}

func (r *Repository) resolve(ids []string) []core.Record {
	out := make([]core.Record, 0, len(ids))
	for _, id := range ids {
		if rec, ok := r.records[id]; ok {
			out = append(out, rec.Clone())
		}
	}
	return out
}

// Count returns the number of records.
func (r *Repository) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records), nil
}

// Clear removes every record with a single write.
func (r *Repository) Clear(ctx context.Context) error {
	if err := r.checkWritable(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	before := make(map[string]*core.Record, len(r.records))
	for id, rec := range r.records {
		before[id] = &rec
	}
	return r.commit(make(map[string]core.Record), before, map[string]*core.Record{})
}

var _ core.Repository = (*Repository)(nil)
var _ core.Reloadable = (*Repository)(nil)
