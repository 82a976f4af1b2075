package fs

import (
	"sort"
	"strings"

	"github.com/aretw0/nebulaboard/pkg/core"
)

// indexEntry is one (key, record) pair of a secondary index.
type indexEntry struct {
	key any
	id  string
}

// index keeps the entries of one declared field sorted by (key, id).
// It is not safe for concurrent use; the repository lock guards it.
type index struct {
	def        core.Index
	primaryKey bool
	entries    []indexEntry
}

func newIndex(def core.Index, primaryKey bool) *index {
	return &index{def: def, primaryKey: primaryKey}
}

// keysOf extracts the normalized keys a record contributes to the index.
// Missing, null or non-scalar values are not indexed.
func (x *index) keysOf(r core.Record) []any {
	if x.primaryKey {
		return []any{r.ID}
	}

	v, ok := r.Fields[x.def.Field]
	if !ok || v == nil {
		return nil
	}

	if !x.def.Multi {
		if k := core.NormalizeKey(v); k != nil {
			return []any{k}
		}
		return nil
	}

	arr, ok := v.([]any)
	if !ok {
		if k := core.NormalizeKey(v); k != nil {
			return []any{k}
		}
		return nil
	}

	keys := make([]any, 0, len(arr))
	for _, e := range arr {
		k := core.NormalizeKey(e)
		if k == nil {
			continue
		}
		dup := false
		for _, seen := range keys {
			if core.CompareKeys(seen, k) == 0 {
				dup = true
				break
			}
		}
		if !dup {
			keys = append(keys, k)
		}
	}
	return keys
}

func compareEntries(a, b indexEntry) int {
	if c := core.CompareKeys(a.key, b.key); c != 0 {
		return c
	}
	return strings.Compare(a.id, b.id)
}

// lowerBound returns the position of the first entry whose key is >= key.
func (x *index) lowerBound(key any) int {
	return sort.Search(len(x.entries), func(i int) bool {
		return core.CompareKeys(x.entries[i].key, key) >= 0
	})
}

func (x *index) insert(r core.Record) {
	for _, k := range x.keysOf(r) {
		e := indexEntry{key: k, id: r.ID}
		pos := sort.Search(len(x.entries), func(i int) bool {
			return compareEntries(x.entries[i], e) >= 0
		})
		x.entries = append(x.entries, indexEntry{})
		copy(x.entries[pos+1:], x.entries[pos:])
		x.entries[pos] = e
	}
}

func (x *index) remove(r core.Record) {
	for _, k := range x.keysOf(r) {
		e := indexEntry{key: k, id: r.ID}
		pos := sort.Search(len(x.entries), func(i int) bool {
			return compareEntries(x.entries[i], e) >= 0
		})
		if pos < len(x.entries) && compareEntries(x.entries[pos], e) == 0 {
			x.entries = append(x.entries[:pos], x.entries[pos+1:]...)
		}
	}
}

func (x *index) rebuild(records map[string]core.Record) {
	x.entries = x.entries[:0]
	for _, r := range records {
		for _, k := range x.keysOf(r) {
			x.entries = append(x.entries, indexEntry{key: k, id: r.ID})
		}
	}
	sort.Slice(x.entries, func(i, j int) bool {
		return compareEntries(x.entries[i], x.entries[j]) < 0
	})
}

// scan returns the IDs selected by q in index order, without duplicates.
func (x *index) scan(q core.Query) []string {
	var ids []string
	seen := make(map[string]bool)
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	switch q.Op {
	case core.OpEquals, core.OpBetween:
		lower := core.NormalizeKey(q.Values[0])
		if lower == nil {
			return nil
		}
		for i := x.lowerBound(lower); i < len(x.entries); i++ {
			if !q.Matches(x.entries[i].key) {
				break
			}
			add(x.entries[i].id)
		}
	case core.OpStartsWith:
		prefix := q.Values[0].(string)
		for i := x.lowerBound(prefix); i < len(x.entries); i++ {
			if !q.Matches(x.entries[i].key) {
				break
			}
			add(x.entries[i].id)
		}
	default:
		for _, e := range x.entries {
			if q.Matches(e.key) {
				add(e.id)
			}
		}
	}
	return ids
}

// ordered returns every indexed ID, ascending or descending, without duplicates.
func (x *index) ordered(desc bool) []string {
	ids := make([]string, 0, len(x.entries))
	seen := make(map[string]bool, len(x.entries))
	for i := range x.entries {
		e := x.entries[i]
		if desc {
			e = x.entries[len(x.entries)-1-i]
		}
		if !seen[e.id] {
			seen[e.id] = true
			ids = append(ids, e.id)
		}
	}
	return ids
}
