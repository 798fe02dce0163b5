// Package merge applies partial server payloads to local state. A field that
// is present in the payload overwrites; an absent field keeps its value.
package merge

// Value copies *src into *dst when src is set and reports whether it did
func Value[T any](dst *T, src *T) bool {
	if src == nil {
		return false
	}
	*dst = *src
	return true
}

// First copies the first set source into *dst
func First[T any](dst *T, srcs ...*T) bool {
	for _, src := range srcs {
		if Value(dst, src) {
			return true
		}
	}
	return false
}

// NonEmpty copies src into *dst unless it is the zero value. It is for
// payloads that carry plain values where zero means "not sent".
func NonEmpty[T comparable](dst *T, src T) bool {
	var zero T
	if src == zero {
		return false
	}
	*dst = src
	return true
}

// Update applies fn to the first element whose key matches and returns a new
// slice, leaving items untouched. found is false when no element matched.
func Update[T any](items []T, key string, keyOf func(T) string, fn func(*T)) (out []T, found bool) {
	for i := range items {
		if keyOf(items[i]) != key {
			continue
		}
		out = make([]T, len(items))
		copy(out, items)
		fn(&out[i])
		return out, true
	}
	return items, false
}

// Remove returns a new slice without the elements whose key matches
func Remove[T any](items []T, key string, keyOf func(T) string) (out []T, removed bool) {
	out = make([]T, 0, len(items))
	for _, it := range items {
		if keyOf(it) == key {
			removed = true
			continue
		}
		out = append(out, it)
	}
	if !removed {
		return items, false
	}
	return out, true
}

// Prepend returns a new slice with item first. An element with the same key
// is dropped so a redelivered event does not duplicate it.
func Prepend[T any](items []T, item T, keyOf func(T) string) []T {
	rest, _ := Remove(items, keyOf(item), keyOf)
	out := make([]T, 0, len(rest)+1)
	out = append(out, item)
	return append(out, rest...)
}
