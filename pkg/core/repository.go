package core

import "context"

// Repository defines the contract of a local record collection.
// Adhering to this interface lets the access services stay independent of
// the underlying storage mechanism.
//
// Every mutating call is atomic: it performs a single durable write before
// returning, and concurrent readers never observe a partially applied change.
type Repository interface {
	// Schema returns the collection declaration.
	Schema() Schema

	// Add inserts a new record. It fails with ErrDuplicateID if the ID exists.
	Add(ctx context.Context, r Record) error

	// Get retrieves a record by its ID, or ErrNotFound.
	Get(ctx context.Context, id string) (Record, error)

	// Update merges fields onto an existing record, or fails with ErrNotFound.
	Update(ctx context.Context, id string, fields Fields) error

	// Modify runs fn on the current record and stores the returned fields
	// in the same atomic operation. It fails with ErrNotFound if the ID is absent.
	Modify(ctx context.Context, id string, fn func(current Record) (Fields, error)) error

	// Delete removes a record by its ID, or fails with ErrNotFound.
	Delete(ctx context.Context, id string) error

	// All returns the full, unordered collection.
	All(ctx context.Context) ([]Record, error)

	// Find returns the records selected by an index query, in index order.
	Find(ctx context.Context, q Query) ([]Record, error)

	// OrderBy returns every record carrying field, walking its index.
	OrderBy(ctx context.Context, field string, desc bool) ([]Record, error)

	// Count returns the number of records.
	Count(ctx context.Context) (int, error)

	// Clear removes every record.
	Clear(ctx context.Context) error

	// Initialize ensures the underlying storage is ready (directories, loading).
	Initialize(ctx context.Context) error
}

// Watchable defines an interface for repositories that report external changes.
type Watchable interface {
	// Watch emits an event each time a collection matching pattern is changed
	// by another process. The channel is closed when ctx is done.
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}

// Reloadable defines an interface for repositories that can re-read their
// persisted state.
type Reloadable interface {
	Reload(ctx context.Context) error
}

// Transaction stages several mutations of one collection.
// Nothing is visible outside the transaction until Commit, which applies
// everything with a single durable write.
type Transaction interface {
	Put(ctx context.Context, r Record) error
	Get(ctx context.Context, id string) (Record, error)
	Delete(ctx context.Context, id string) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Transactional defines an interface for repositories supporting transactions.
type Transactional interface {
	Begin(ctx context.Context) (Transaction, error)
}
