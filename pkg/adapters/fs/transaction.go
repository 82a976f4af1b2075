package fs

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/nebulaboard/pkg/core"
)

// Transaction stages several mutations and applies them with one durable write.
type Transaction struct {
	repo    *Repository
	staged  map[string]core.Record // ID -> Record
	deleted map[string]bool        // ID -> bool
	mu      sync.Mutex
	closed  bool
}

// Begin starts a new transaction.
func (r *Repository) Begin(ctx context.Context) (core.Transaction, error) {
	if err := r.checkWritable(ctx); err != nil {
		return nil, err
	}
	return &Transaction{
		repo:    r,
		staged:  make(map[string]core.Record),
		deleted: make(map[string]bool),
	}, nil
}

// Put stages a record for saving, replacing any stored version.
func (t *Transaction) Put(ctx context.Context, rec core.Record) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return fmt.Errorf("transaction closed")
	}
	if rec.ID == "" {
		return core.ErrEmptyID
	}

	fields, err := normalizeFields(rec.Fields)
	if err != nil {
		return fmt.Errorf("%s %s: %w", t.repo.schema.Name, rec.ID, err)
	}
	t.staged[rec.ID] = core.Record{ID: rec.ID}.Merge(fields, t.repo.schema.PrimaryKey)
	delete(t.deleted, rec.ID)
	return nil
}

// Get retrieves a record, favoring staged changes.
func (t *Transaction) Get(ctx context.Context, id string) (core.Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return core.Record{}, fmt.Errorf("transaction closed")
	}

	if t.deleted[id] {
		return core.Record{}, fmt.Errorf("%s %s: %w", t.repo.schema.Name, id, core.ErrNotFound)
	}

	if rec, ok := t.staged[id]; ok {
		return rec.Clone(), nil
	}

	return t.repo.Get(ctx, id)
}

// Delete stages a record for deletion.
func (t *Transaction) Delete(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return fmt.Errorf("transaction closed")
	}

	t.deleted[id] = true
	delete(t.staged, id)
	return nil
}

// Commit applies all staged changes atomically.
// Deleting an ID that does not exist at commit time fails with ErrNotFound
// and nothing is written.
func (t *Transaction) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return fmt.Errorf("transaction already closed")
	}
	if err := t.repo.checkWritable(ctx); err != nil {
		return err
	}

	r := t.repo
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.copyRecords()
	before := make(map[string]*core.Record, len(t.staged)+len(t.deleted))
	after := make(map[string]*core.Record, len(t.staged))

	for id := range t.deleted {
		current, ok := r.records[id]
		if !ok {
			return fmt.Errorf("%s %s: %w", r.schema.Name, id, core.ErrNotFound)
		}
		before[id] = &current
		after[id] = nil
		delete(next, id)
	}

	for id, rec := range t.staged {
		if current, ok := r.records[id]; ok {
			before[id] = &current
		} else {
			before[id] = nil
		}
		after[id] = &rec
		next[id] = rec
	}

	if len(before) > 0 {
		if err := r.commit(next, before, after); err != nil {
			return err
		}
	}

	r.config.Logger.Debug("transaction committed",
		"collection", r.schema.Name,
		"saved", len(t.staged),
		"deleted", len(t.deleted),
	)

	t.closed = true
	return nil
}

// Rollback discards all staged changes.
func (t *Transaction) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}

	t.staged = nil
	t.deleted = nil
	t.closed = true
	return nil
}

var _ core.Transaction = (*Transaction)(nil)
var _ core.Transactional = (*Repository)(nil)
