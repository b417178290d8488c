package pipeline

import (
	"context"
	"reflect"

	"github.com/pkg/errors"

	"github.com/dcshock/sewer/future"
)

// Module is the smallest executable unit of a pipe: given an input it
// produces a Result, possibly asynchronously.
//
// A Module must not let a panic or error escape uncaught. The constructors in
// this package convert both into a Failed Result (Transform, Map, Raw) or a
// failed Future (Async); a failed Future is turned into Failed by the Pipe
// running the module.
type Module[I, O any] interface {
	Flow(ctx context.Context, in I) *future.Future[Result[O]]
}

// ModuleFunc adapts a function returning a Future to a Module. This is the
// raw asynchronous form; the function is responsible for its own errors.
type ModuleFunc[I, O any] func(ctx context.Context, in I) *future.Future[Result[O]]

// Flow implements Module.
func (f ModuleFunc[I, O]) Flow(ctx context.Context, in I) *future.Future[Result[O]] {
	return f(ctx, in)
}

// ConvertFunc converts a value of type A to type B.
type ConvertFunc[A, B any] func(ctx context.Context, a A) (B, error)

// Transform returns a module that boxes convert's return value as Success and
// its error as Failed. A panic in convert also becomes Failed.
func Transform[A, B any](convert ConvertFunc[A, B]) Module[A, B] {
	return Raw(func(ctx context.Context, a A) Result[B] {
		b, err := convert(ctx, a)
		if err != nil {
			return Failed[B](err)
		}
		return Success(b)
	})
}

// Map is Transform for functions that cannot fail.
func Map[A, B any](fn func(A) B) Module[A, B] {
	return Transform(func(_ context.Context, a A) (B, error) { return fn(a), nil })
}

// Raw returns a module whose function builds the Result itself. It runs
// synchronously; a panic becomes Failed.
func Raw[I, O any](fn func(ctx context.Context, in I) Result[O]) Module[I, O] {
	return ModuleFunc[I, O](func(ctx context.Context, in I) *future.Future[Result[O]] {
		return future.Completed(guard(func() Result[O] { return fn(ctx, in) }))
	})
}

// Async returns a module that runs fn on ex. The module's Future fails when
// fn returns an error or panics. A nil executor runs fn on a new goroutine.
func Async[I, O any](ex future.Executor, fn ConvertFunc[I, O]) Module[I, O] {
	return ModuleFunc[I, O](func(ctx context.Context, in I) *future.Future[Result[O]] {
		return future.Go(ex, func() (Result[O], error) {
			out, err := fn(ctx, in)
			if err != nil {
				return Result[O]{}, err
			}
			return Success(out), nil
		})
	})
}

// Filtering returns an identity module that yields FilteredBefore when filter
// rejects its input.
func Filtering[T any](filter Filter[T]) Module[T, T] {
	return Raw(func(_ context.Context, in T) Result[T] {
		if !filter.Allow(in) {
			return FilteredBefore[T]()
		}
		return Success(in)
	})
}

// guard runs fn and converts a panic into a Failed Result.
func guard[O any](fn func() Result[O]) (r Result[O]) {
	defer func() {
		if rec := recover(); rec != nil {
			r = Failed[O](future.NewPanicError(rec))
		}
	}()
	return fn()
}

// flowFunc is a type-erased module or stage.
type flowFunc func(ctx context.Context, in any) *future.Future[Result[any]]

// eraseModule hides the types of m behind a flowFunc. A Future failing with
// an error resolves to Failed.
func eraseModule[I, O any](m Module[I, O]) flowFunc {
	return func(ctx context.Context, in any) *future.Future[Result[any]] {
		v, _ := in.(I)
		f := m.Flow(ctx, v)
		if f == nil {
			return future.Completed(Failed[any](ErrNilFuture))
		}
		return future.Handle(f, settle[O])
	}
}

// Erase adapts m to untyped values so modules of different types can share a
// registry. A nil input is passed as I's zero value; any other input that is
// not an I fails with ErrInputType.
func Erase[I, O any](m Module[I, O]) Module[any, any] {
	flow := eraseModule(m)
	want := reflect.TypeOf((*I)(nil)).Elem()
	return ModuleFunc[any, any](func(ctx context.Context, in any) *future.Future[Result[any]] {
		if _, ok := in.(I); !ok && in != nil {
			return future.Completed(Failed[any](errors.Wrapf(ErrInputType, "got %T, want %s", in, want)))
		}
		return invoke(ctx, flow, in)
	})
}

func settle[O any](r Result[O], err error) Result[any] {
	if err != nil {
		return Failed[any](err)
	}
	return erase(r)
}

// invoke calls fn and converts a panic raised before a Future was obtained
// into a completed Failed Result.
func invoke(ctx context.Context, fn flowFunc, in any) (f *future.Future[Result[any]]) {
	defer func() {
		if rec := recover(); rec != nil {
			f = future.Completed(Failed[any](future.NewPanicError(rec)))
		}
	}()
	return fn(ctx, in)
}
