package pipeline

import "reflect"

// Filter is a pure predicate deciding whether a value may flow on. A nil
// Filter allows everything.
type Filter[T any] func(T) bool

// Allow reports whether v passes the filter.
func (f Filter[T]) Allow(v T) bool {
	if f == nil {
		return true
	}
	return f(v)
}

// And returns a filter allowing values that pass both f and other.
// Both sides are always evaluated.
func (f Filter[T]) And(other Filter[T]) Filter[T] {
	return func(v T) bool {
		a, b := f.Allow(v), other.Allow(v)
		return a && b
	}
}

// Or returns a filter allowing values that pass f or other.
func (f Filter[T]) Or(other Filter[T]) Filter[T] {
	return func(v T) bool {
		a, b := f.Allow(v), other.Allow(v)
		return a || b
	}
}

// Xor returns a filter allowing values that pass exactly one of f and other.
func (f Filter[T]) Xor(other Filter[T]) Filter[T] {
	return func(v T) bool {
		return f.Allow(v) != other.Allow(v)
	}
}

// Not returns the inverse of f.
func (f Filter[T]) Not() Filter[T] {
	return func(v T) bool {
		return !f.Allow(v)
	}
}

// NonNil rejects nil values: untyped nil, and nil pointers, maps, slices,
// channels, funcs and interfaces.
func NonNil[T any]() Filter[T] {
	return func(v T) bool {
		rv := reflect.ValueOf(any(v))
		if !rv.IsValid() {
			return false
		}
		switch rv.Kind() {
		case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
			return !rv.IsNil()
		}
		return true
	}
}

// NonZero rejects the zero value of T.
func NonZero[T comparable]() Filter[T] {
	var zero T
	return func(v T) bool { return v != zero }
}
