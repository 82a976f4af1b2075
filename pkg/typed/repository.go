// Package typed maps Go structs onto core records.
//
// Entities are converted through their JSON tags: the field tagged with the
// collection's primary key becomes Record.ID and everything else becomes
// Record.Fields.
package typed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/nebulaboard/pkg/core"
)

// Repository wraps a core.Repository to provide type-safe access.
type Repository[T any] struct {
	repo core.Repository
	pk   string
}

// NewRepository creates a new type-safe wrapper around an existing repository.
func NewRepository[T any](repo core.Repository) *Repository[T] {
	return &Repository[T]{repo: repo, pk: repo.Schema().PrimaryKey}
}

// Raw returns the underlying repository.
func (r *Repository[T]) Raw() core.Repository {
	return r.repo
}

// Add persists a new entity.
func (r *Repository[T]) Add(ctx context.Context, v T) error {
	rec, err := ToRecord(v, r.pk)
	if err != nil {
		return err
	}
	return r.repo.Add(ctx, rec)
}

// Get retrieves an entity by ID.
func (r *Repository[T]) Get(ctx context.Context, id string) (T, error) {
	rec, err := r.repo.Get(ctx, id)
	if err != nil {
		var zero T
		return zero, err
	}
	return FromRecord[T](rec, r.pk)
}

// Update merges raw fields onto a stored entity.
func (r *Repository[T]) Update(ctx context.Context, id string, patch core.Fields) error {
	return r.repo.Update(ctx, id, patch)
}

// Modify decodes the stored entity, hands it to fn and merges the returned
// fields, atomically.
func (r *Repository[T]) Modify(ctx context.Context, id string, fn func(current T) (core.Fields, error)) error {
	return r.repo.Modify(ctx, id, func(rec core.Record) (core.Fields, error) {
		current, err := FromRecord[T](rec, r.pk)
		if err != nil {
			return nil, err
		}
		return fn(current)
	})
}

// Delete removes an entity by ID.
func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	return r.repo.Delete(ctx, id)
}

// All returns every entity in no particular order.
func (r *Repository[T]) All(ctx context.Context) ([]T, error) {
	recs, err := r.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	return r.decodeAll(recs)
}

// Find returns the entities selected by q, in index order.
func (r *Repository[T]) Find(ctx context.Context, q core.Query) ([]T, error) {
	recs, err := r.repo.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	return r.decodeAll(recs)
}

// OrderBy returns the entities carrying field, in index order.
func (r *Repository[T]) OrderBy(ctx context.Context, field string, desc bool) ([]T, error) {
	recs, err := r.repo.OrderBy(ctx, field, desc)
	if err != nil {
		return nil, err
	}
	return r.decodeAll(recs)
}

// Count returns the number of stored entities.
func (r *Repository[T]) Count(ctx context.Context) (int, error) {
	return r.repo.Count(ctx)
}

func (r *Repository[T]) decodeAll(recs []core.Record) ([]T, error) {
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		v, err := FromRecord[T](rec, r.pk)
		if err != nil {
			return nil, fmt.Errorf("failed to process record %s: %w", rec.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// WithTransaction runs fn inside a transaction and commits when it returns nil.
// The underlying repository must implement core.Transactional.
func (r *Repository[T]) WithTransaction(ctx context.Context, fn func(tx *Transaction[T]) error) error {
	txr, ok := r.repo.(core.Transactional)
	if !ok {
		return fmt.Errorf("repository %s does not support transactions", r.repo.Schema().Name)
	}

	coreTx, err := txr.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(&Transaction[T]{tx: coreTx, pk: r.pk}); err != nil {
		_ = coreTx.Rollback(ctx)
		return err
	}
	return coreTx.Commit(ctx)
}

// Transaction wraps a core.Transaction for typed operations.
type Transaction[T any] struct {
	tx core.Transaction
	pk string
}

// Put stages an entity, replacing any stored version.
func (t *Transaction[T]) Put(ctx context.Context, v T) error {
	rec, err := ToRecord(v, t.pk)
	if err != nil {
		return err
	}
	return t.tx.Put(ctx, rec)
}

// Get retrieves an entity, favoring staged changes.
func (t *Transaction[T]) Get(ctx context.Context, id string) (T, error) {
	rec, err := t.tx.Get(ctx, id)
	if err != nil {
		var zero T
		return zero, err
	}
	return FromRecord[T](rec, t.pk)
}

// Delete stages an entity for deletion.
func (t *Transaction[T]) Delete(ctx context.Context, id string) error {
	return t.tx.Delete(ctx, id)
}

// ToRecord converts v into a record, taking the ID from the JSON field named pk.
func ToRecord(v any, pk string) (core.Record, error) {
	fields, err := ToFields(v)
	if err != nil {
		return core.Record{}, err
	}

	id, _ := fields[pk].(string)
	delete(fields, pk)
	return core.Record{ID: id, Fields: fields}, nil
}

// ToFields converts v (a struct or map) into the JSON value model.
func ToFields(v any) (core.Fields, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal typed data: %w", err)
	}

	var fields core.Fields
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to convert typed data to fields: %w", err)
	}
	return fields, nil
}

// FromRecord converts a record back into T, restoring the primary key.
func FromRecord[T any](rec core.Record, pk string) (T, error) {
	var out T

	row := make(map[string]any, len(rec.Fields)+1)
	for k, v := range rec.Fields {
		row[k] = v
	}
	row[pk] = rec.ID

	data, err := json.Marshal(row)
	if err != nil {
		return out, fmt.Errorf("fields marshal failed: %w", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("unmarshal to target type failed: %w", err)
	}
	return out, nil
}
