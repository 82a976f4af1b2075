package core

import (
	"fmt"
	"strings"
)

// Index declares a queryable field of a collection.
type Index struct {
	Field string
	// Multi marks a multi-valued index: every element of an array value is
	// indexed on its own.
	Multi bool
}

// Schema describes a collection: its name, primary key and secondary indexes.
type Schema struct {
	Name       string
	PrimaryKey string
	Indexes    []Index
}

// ParseSchema builds a Schema from a compact declaration such as
// "id, title, isPinned, createdDate, updatedDate, *tags".
// The first entry is the primary key; a leading '*' marks a multi-valued index.
func ParseSchema(name, decl string) (Schema, error) {
	if strings.TrimSpace(name) == "" {
		return Schema{}, fmt.Errorf("schema name cannot be empty")
	}

	parts := strings.Split(decl, ",")
	s := Schema{Name: name}
	seen := make(map[string]bool)

	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return Schema{}, fmt.Errorf("schema %s: empty entry at position %d", name, i)
		}

		multi := strings.HasPrefix(p, "*")
		field := strings.TrimPrefix(p, "*")
		if field == "" {
			return Schema{}, fmt.Errorf("schema %s: empty field name at position %d", name, i)
		}
		if seen[field] {
			return Schema{}, fmt.Errorf("schema %s: duplicate field %q", name, field)
		}
		seen[field] = true

		if i == 0 {
			if multi {
				return Schema{}, fmt.Errorf("schema %s: primary key cannot be multi-valued", name)
			}
			s.PrimaryKey = field
			continue
		}
		s.Indexes = append(s.Indexes, Index{Field: field, Multi: multi})
	}

	return s, nil
}

// MustParseSchema is like ParseSchema but panics on error.
// It is intended for package-level schema declarations.
func MustParseSchema(name, decl string) Schema {
	s, err := ParseSchema(name, decl)
	if err != nil {
		panic(err)
	}
	return s
}

// Lookup returns the index declared for field, if any.
// The primary key is reported as a single-valued index.
func (s Schema) Lookup(field string) (Index, bool) {
	if field == s.PrimaryKey {
		return Index{Field: field}, true
	}
	for _, idx := range s.Indexes {
		if idx.Field == field {
			return idx, true
		}
	}
	return Index{}, false
}
