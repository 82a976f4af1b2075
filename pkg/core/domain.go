// Package core holds the domain ports of the local record store.
//
// It is agnostic to the storage mechanism: adapters (see pkg/adapters/fs)
// implement Repository, while the access services (notes, tasks) only depend
// on the contracts declared here.
package core

// Fields represents the flexible key-value pairs of a stored record.
// Values follow the JSON value model: string, float64, bool, nil,
// []any and map[string]any.
type Fields map[string]any

// Record is the central entity of the store.
// It is identified by an ID that is unique within its collection.
type Record struct {
	ID     string
	Fields Fields
}

// Clone returns a deep copy of the record so callers cannot mutate stored state.
func (r Record) Clone() Record {
	return Record{ID: r.ID, Fields: cloneFields(r.Fields)}
}

// Merge applies patch on top of the record's fields and returns the result.
// The primary key is never overwritten.
func (r Record) Merge(patch Fields, primaryKey string) Record {
	out := r.Clone()
	if out.Fields == nil {
		out.Fields = make(Fields, len(patch))
	}
	for k, v := range patch {
		if k == primaryKey {
			continue
		}
		out.Fields[k] = cloneValue(v)
	}
	return out
}

func cloneFields(f Fields) Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case map[string]any:
		return map[string]any(cloneFields(t))
	case Fields:
		return cloneFields(t)
	default:
		return v
	}
}

// EventType represents the type of change observed in a collection.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change in a collection made outside this process.
type Event struct {
	Type       EventType
	Collection string
	Timestamp  int64 // Unix timestamp
}

// String implements fmt.Stringer.
func (e Event) String() string {
	return string(e.Type) + " " + e.Collection
}
