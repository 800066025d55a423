package textsearch

import (
	"strings"
)

// Field extracts one searchable value from an item. The boolean is false when
// the value is absent; absent values never match, not even as empty strings.
type Field[T any] func(item T) (string, bool)

// StringField adapts an accessor for a required string field.
func StringField[T any](get func(T) string) Field[T] {
	return func(item T) (string, bool) {
		return get(item), true
	}
}

// OptionalField adapts an accessor for a nullable string field.
func OptionalField[T any](get func(T) *string) Field[T] {
	return func(item T) (string, bool) {
		v := get(item)
		if v == nil {
			return "", false
		}
		return *v, true
	}
}

// FilterByFields returns the items where any of the fields contains the query,
// either case-insensitively or after Normalize. A blank query returns items
// unchanged. Order is preserved.
func FilterByFields[T any](items []T, query string, fields ...Field[T]) []T {
	q := strings.TrimSpace(query)
	if q == "" {
		return items
	}

	qLower := strings.ToLower(q)
	qNorm := Normalize(q)

	out := make([]T, 0)
	for _, item := range items {
		if matches(item, qLower, qNorm, fields) {
			out = append(out, item)
		}
	}
	return out
}

// Matches reports whether a single item passes FilterByFields.
func Matches[T any](item T, query string, fields ...Field[T]) bool {
	q := strings.TrimSpace(query)
	if q == "" {
		return true
	}
	return matches(item, strings.ToLower(q), Normalize(q), fields)
}

func matches[T any](item T, qLower, qNorm string, fields []Field[T]) bool {
	for _, field := range fields {
		value, ok := field(item)
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(value), qLower) {
			return true
		}
		if strings.Contains(Normalize(value), qNorm) {
			return true
		}
	}
	return false
}
