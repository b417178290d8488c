// Package pipeline: standard modules for common pipe patterns.

package pipeline

import (
	"context"

	"github.com/pkg/errors"
)

// Identity returns a module that passes its input through unchanged. Pointers
// and other reference values come out as the very same value.
func Identity[T any]() Module[T, T] {
	return Raw(func(_ context.Context, in T) Result[T] { return Success(in) })
}

// Tap returns a module that calls fn(ctx, input) then passes input through
// unchanged. Use it for side effects such as logging or counting.
func Tap[T any](fn func(context.Context, T)) Module[T, T] {
	return Raw(func(ctx context.Context, in T) Result[T] {
		fn(ctx, in)
		return Success(in)
	})
}

// Validate returns a module that passes input through only if predicate(v) is
// true. Otherwise it fails with errMsg (or "validation failed"). Use
// Filtering instead when a rejection is expected rather than an error.
func Validate[T any](predicate func(T) bool, errMsg string) Module[T, T] {
	if errMsg == "" {
		errMsg = "validation failed"
	}
	return Raw(func(_ context.Context, in T) Result[T] {
		if !predicate(in) {
			return Failed[T](errors.New(errMsg))
		}
		return Success(in)
	})
}

// Constant returns a module that ignores its input and always outputs value.
func Constant[I, O any](value O) Module[I, O] {
	return Raw(func(context.Context, I) Result[O] { return Success(value) })
}

// MapSlice returns a module that converts []T to []U element by element. The
// first conversion error fails the module.
func MapSlice[T, U any](convert ConvertFunc[T, U]) Module[[]T, []U] {
	return Transform(func(ctx context.Context, slice []T) ([]U, error) {
		out := make([]U, 0, len(slice))
		for i, v := range slice {
			u, err := convert(ctx, v)
			if err != nil {
				return nil, errors.Wrapf(err, "mapslice[%d]", i)
			}
			out = append(out, u)
		}
		return out, nil
	})
}

// FilterSlice returns a module that keeps only the elements of []T that keep
// allows.
func FilterSlice[T any](keep Filter[T]) Module[[]T, []T] {
	return Map(func(slice []T) []T {
		out := make([]T, 0, len(slice))
		for _, v := range slice {
			if keep.Allow(v) {
				out = append(out, v)
			}
		}
		return out
	})
}
