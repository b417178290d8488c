package pipeline

import (
	"fmt"
)

// Kind identifies which variant of a Result is active.
type Kind int

const (
	KindSuccess Kind = iota + 1
	KindFilteredBefore
	KindFilteredAfter
	KindFailed
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindFilteredBefore:
		return "filtered-before"
	case KindFilteredAfter:
		return "filtered-after"
	case KindFailed:
		return "failed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Result is the outcome of running a module, a pipe or a whole system. It is
// exactly one of Success (with a value), FilteredBefore (rejected before any
// work ran), FilteredAfter (rejected after work ran, the output kept as the
// discarded value) or Failed (with an error). A Result optionally carries the
// name of the stage that produced it.
//
// Results are values; Named returns a retagged copy.
type Result[T any] struct {
	kind  Kind
	name  string
	value T
	err   error
}

// Success returns a successful Result holding v.
func Success[T any](v T) Result[T] {
	return Result[T]{kind: KindSuccess, value: v}
}

// FilteredBefore returns a Result for a value rejected before any work ran.
func FilteredBefore[T any]() Result[T] {
	return Result[T]{kind: KindFilteredBefore}
}

// FilteredAfter returns a Result for an output rejected after work ran.
// discarded stays retrievable through Discarded.
func FilteredAfter[T any](discarded T) Result[T] {
	return Result[T]{kind: KindFilteredAfter, value: discarded}
}

// Failed returns a failed Result. A nil err is replaced by ErrUnknownFailure.
func Failed[T any](err error) Result[T] {
	if err == nil {
		err = ErrUnknownFailure
	}
	return Result[T]{kind: KindFailed, err: err}
}

// Kind returns the active variant.
func (r Result[T]) Kind() Kind { return r.kind }

// Name returns the name of the stage that produced r, or "" when untagged.
func (r Result[T]) Name() string { return r.name }

// Named returns a copy of r tagged with name.
func (r Result[T]) Named(name string) Result[T] {
	r.name = name
	return r
}

func (r Result[T]) Succeeded() bool       { return r.kind == KindSuccess }
func (r Result[T]) IsFilteredBefore() bool { return r.kind == KindFilteredBefore }
func (r Result[T]) IsFilteredAfter() bool  { return r.kind == KindFilteredAfter }
func (r Result[T]) IsFailed() bool         { return r.kind == KindFailed }

// IsFiltered reports whether r is either filtered variant.
func (r Result[T]) IsFiltered() bool {
	return r.kind == KindFilteredBefore || r.kind == KindFilteredAfter
}

// MayContinue reports whether the flow may proceed past r. Only Success may.
func (r Result[T]) MayContinue() bool { return r.kind == KindSuccess }

// Value returns the success value. It panics if r is not a Success.
func (r Result[T]) Value() T {
	r.must(KindSuccess)
	return r.value
}

// Discarded returns the output that a post-filter rejected. It panics if r is
// not FilteredAfter.
func (r Result[T]) Discarded() T {
	r.must(KindFilteredAfter)
	return r.value
}

// Err returns the failure cause. It panics if r is not Failed.
func (r Result[T]) Err() error {
	r.must(KindFailed)
	return r.err
}

// Optional returns the success value and true, or the zero value and false
// for every other variant.
func (r Result[T]) Optional() (T, bool) {
	if r.kind != KindSuccess {
		var zero T
		return zero, false
	}
	return r.value, true
}

func (r Result[T]) String() string {
	label := r.kind.String()
	if r.name != "" {
		label += "(" + r.name + ")"
	}
	switch r.kind {
	case KindSuccess:
		return fmt.Sprintf("%s: %v", label, r.value)
	case KindFilteredAfter:
		return fmt.Sprintf("%s: discarded %v", label, r.value)
	case KindFailed:
		return fmt.Sprintf("%s: %v", label, r.err)
	default:
		return label
	}
}

func (r Result[T]) must(want Kind) {
	if r.kind != want {
		panic(fmt.Sprintf("pipeline: result of stage %q is %s, not %s", r.name, r.kind, want))
	}
}

// erase drops the static type of r so it can cross a stage boundary.
func erase[T any](r Result[T]) Result[any] {
	return Result[any]{kind: r.kind, name: r.name, value: r.value, err: r.err}
}

// restore is the inverse of erase. A nil value becomes the zero T.
func restore[T any](r Result[any]) Result[T] {
	v, _ := r.value.(T)
	return Result[T]{kind: r.kind, name: r.name, value: v, err: r.err}
}
