// Package stale wraps cached derived values so every read path has to decide
// whether to trust the cache or recompute.
package stale

// Value is a cached value that is either trusted or must be recomputed.
type Value[T any] struct {
	value   T
	trusted bool
}

// Cached wraps a value read from storage and trusts it.
func Cached[T any](v T) Value[T] {
	return Value[T]{value: v, trusted: true}
}

// FromPtr wraps a nullable column; nil becomes Missing.
func FromPtr[T any](v *T) Value[T] {
	if v == nil {
		return Missing[T]()
	}
	return Cached(*v)
}

// Missing is an absent cache entry.
func Missing[T any]() Value[T] {
	return Value[T]{}
}

// Get returns the value only when it is trusted.
func (v Value[T]) Get() (T, bool) {
	if !v.trusted {
		var zero T
		return zero, false
	}
	return v.value, true
}
