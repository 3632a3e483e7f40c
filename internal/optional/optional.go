// Package optional models query parameters that may be left unspecified.
package optional

// Value holds either nothing or a T. The zero Value is "not specified".
type Value[T any] struct {
	value T
	set   bool
}

// Some wraps v as a specified value.
func Some[T any](v T) Value[T] {
	return Value[T]{value: v, set: true}
}

// None returns an unspecified value.
func None[T any]() Value[T] {
	return Value[T]{}
}

// FromPtr converts a nil-able pointer.
func FromPtr[T any](p *T) Value[T] {
	if p == nil {
		return None[T]()
	}
	return Some(*p)
}

// Get returns the wrapped value and whether it was specified.
func (v Value[T]) Get() (T, bool) {
	return v.value, v.set
}

// IsSet reports whether a value was specified.
func (v Value[T]) IsSet() bool {
	return v.set
}

// OrElse returns the wrapped value or fallback when unspecified.
func (v Value[T]) OrElse(fallback T) T {
	if !v.set {
		return fallback
	}
	return v.value
}
