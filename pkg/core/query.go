package core

import (
	"fmt"
	"strings"
)

// Op is a query operator over an indexed field.
type Op string

const (
	OpEquals     Op = "equals"
	OpBetween    Op = "between"
	OpStartsWith Op = "startsWith"
	OpAnyOf      Op = "anyOf"
)

// Query selects records through one indexed field.
type Query struct {
	Field  string
	Op     Op
	Values []any // Equals/StartsWith: one value, Between: lower and upper, AnyOf: any number
}

// Where starts a query on the given field.
func Where(field string) Clause {
	return Clause{field: field}
}

// Clause is a partially built Query.
type Clause struct {
	field string
}

// Equals matches records whose field equals v.
func (c Clause) Equals(v any) Query {
	return Query{Field: c.field, Op: OpEquals, Values: []any{v}}
}

// Between matches records whose field lies within [lower, upper].
func (c Clause) Between(lower, upper any) Query {
	return Query{Field: c.field, Op: OpBetween, Values: []any{lower, upper}}
}

// StartsWith matches string fields beginning with prefix.
func (c Clause) StartsWith(prefix string) Query {
	return Query{Field: c.field, Op: OpStartsWith, Values: []any{prefix}}
}

// AnyOf matches records whose field equals any of values.
func (c Clause) AnyOf(values ...any) Query {
	return Query{Field: c.field, Op: OpAnyOf, Values: values}
}

// Validate checks the operator arity.
func (q Query) Validate() error {
	switch q.Op {
	case OpEquals:
		if len(q.Values) != 1 {
			return fmt.Errorf("equals expects 1 value, got %d", len(q.Values))
		}
	case OpStartsWith:
		if len(q.Values) != 1 {
			return fmt.Errorf("startsWith expects 1 value, got %d", len(q.Values))
		}
		if _, ok := q.Values[0].(string); !ok {
			return fmt.Errorf("startsWith expects a string prefix")
		}
	case OpBetween:
		if len(q.Values) != 2 {
			return fmt.Errorf("between expects 2 values, got %d", len(q.Values))
		}
	case OpAnyOf:
	default:
		return fmt.Errorf("unknown operator %q", q.Op)
	}
	return nil
}

// Matches reports whether an index key satisfies the query.
func (q Query) Matches(key any) bool {
	switch q.Op {
	case OpEquals:
		return CompareKeys(key, NormalizeKey(q.Values[0])) == 0
	case OpBetween:
		return CompareKeys(key, NormalizeKey(q.Values[0])) >= 0 &&
			CompareKeys(key, NormalizeKey(q.Values[1])) <= 0
	case OpStartsWith:
		s, ok := key.(string)
		return ok && strings.HasPrefix(s, q.Values[0].(string))
	case OpAnyOf:
		for _, v := range q.Values {
			if CompareKeys(key, NormalizeKey(v)) == 0 {
				return true
			}
		}
	}
	return false
}

// NormalizeKey maps Go values onto the index key model: bool, float64 or string.
// It returns nil for values that cannot be indexed.
func NormalizeKey(v any) any {
	switch t := v.(type) {
	case bool, string, float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int8:
		return float64(t)
	case int16:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint:
		return float64(t)
	case uint8:
		return float64(t)
	case uint16:
		return float64(t)
	case uint32:
		return float64(t)
	case uint64:
		return float64(t)
	default:
		return nil
	}
}

func keyRank(v any) int {
	switch v.(type) {
	case bool:
		return 0
	case float64:
		return 1
	case string:
		return 2
	default:
		return 3
	}
}

// CompareKeys orders two normalized keys.
// Keys of different kinds sort as bool < number < string.
func CompareKeys(a, b any) int {
	ra, rb := keyRank(a), keyRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}

	switch av := a.(type) {
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case string:
		return strings.Compare(av, b.(string))
	}
	return 0
}
