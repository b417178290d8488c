package httpmodules

import (
	"context"
	"reflect"

	"github.com/pkg/errors"

	"github.com/dcshock/sewer/pipeline"
)

// Expect returns a module that runs the predicate on its input. If the predicate returns an error,
// the module fails with it. Otherwise the input is passed through unchanged.
// Use after ParseJSON to verify the decoded result (e.g. check status field, required keys).
func Expect[T any](predicate func(T) error) pipeline.Module[T, T] {
	if predicate == nil {
		panic("httpmodules.Expect: predicate must not be nil")
	}
	return pipeline.Transform(func(_ context.Context, in T) (T, error) {
		if err := predicate(in); err != nil {
			var zero T
			return zero, errors.Wrap(err, "expect")
		}
		return in, nil
	})
}

// ExpectEqual returns a module that checks its input equals expected using reflect.DeepEqual.
// Works for primitives, slices, and maps (e.g. parsed JSON).
func ExpectEqual[T any](expected T) pipeline.Module[T, T] {
	return Expect(func(v T) error {
		if !reflect.DeepEqual(v, expected) {
			return errors.Errorf("got %v, want %v", v, expected)
		}
		return nil
	})
}
