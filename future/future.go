package future

import (
	"context"
	"sync"
)

// Future is a single-assignment handle to a value of type T that becomes
// available later. A Future completes exactly once, either with a value or
// with an error. Continuations registered with OnComplete (or the helpers
// Compose, Handle and Map) run when the Future completes and never block the
// goroutine that registers them.
type Future[T any] struct {
	mu        sync.Mutex
	done      chan struct{}
	value     T
	err       error
	completed bool
	callbacks []func(T, error)
}

// New returns an incomplete Future and the function that completes it. Only
// the first call to complete has an effect; later calls report false.
func New[T any]() (*Future[T], func(T, error) bool) {
	f := &Future[T]{done: make(chan struct{})}
	return f, f.complete
}

// Completed returns a Future that already holds v.
func Completed[T any](v T) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	f.complete(v, nil)
	return f
}

// Failed returns a Future that already holds err.
func Failed[T any](err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	var zero T
	f.complete(zero, err)
	return f
}

// Go runs fn on ex and returns a Future for its outcome. A panic in fn fails
// the Future with a *PanicError. A nil executor runs fn on a new goroutine.
func Go[T any](ex Executor, fn func() (T, error)) *Future[T] {
	if ex == nil {
		ex = Goroutine
	}
	f, complete := New[T]()
	ex.Execute(func() {
		v, err := call(fn)
		complete(v, err)
	})
	return f
}

func call[T any](fn func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			v, err = zero, NewPanicError(r)
		}
	}()
	return fn()
}

func (f *Future[T]) complete(v T, err error) bool {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		return false
	}
	f.value, f.err, f.completed = v, err, true
	callbacks := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, cb := range callbacks {
		cb(v, err)
	}
	return true
}

// Done returns a channel that is closed once the Future completes.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// IsDone reports whether the Future has completed.
func (f *Future[T]) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Await blocks until the Future completes or ctx is done. Cancelling ctx only
// stops the wait; the computation behind the Future keeps running.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Get blocks until the Future completes.
func (f *Future[T]) Get() (T, error) {
	<-f.done
	return f.value, f.err
}

// OnComplete registers fn to run with the Future's outcome. If the Future has
// already completed, fn runs immediately on the calling goroutine; otherwise
// it runs on the goroutine that completes the Future.
func (f *Future[T]) OnComplete(fn func(T, error)) {
	f.mu.Lock()
	if !f.completed {
		f.callbacks = append(f.callbacks, fn)
		f.mu.Unlock()
		return
	}
	v, err := f.value, f.err
	f.mu.Unlock()
	fn(v, err)
}

// Compose chains fn after f: when f completes, fn receives its outcome and
// the returned Future follows the Future fn produces. A panic in fn fails the
// returned Future with a *PanicError.
func Compose[T, U any](f *Future[T], fn func(T, error) *Future[U]) *Future[U] {
	return ComposeOn(f, Inline, fn)
}

// ComposeOn is Compose with fn dispatched on ex.
func ComposeOn[T, U any](f *Future[T], ex Executor, fn func(T, error) *Future[U]) *Future[U] {
	if ex == nil {
		ex = Inline
	}
	out, complete := New[U]()
	f.OnComplete(func(v T, err error) {
		ex.Execute(func() {
			next, perr := call(func() (*Future[U], error) { return fn(v, err), nil })
			if perr != nil {
				var zero U
				complete(zero, perr)
				return
			}
			if next == nil {
				var zero U
				complete(zero, nil)
				return
			}
			next.OnComplete(func(u U, uerr error) { complete(u, uerr) })
		})
	})
	return out
}

// Handle maps the outcome of f, value or error, to a new value.
func Handle[T, U any](f *Future[T], fn func(T, error) U) *Future[U] {
	return Compose(f, func(v T, err error) *Future[U] {
		return Completed(fn(v, err))
	})
}

// Map transforms a successful value of f. Errors pass through unchanged.
func Map[T, U any](f *Future[T], fn func(T) (U, error)) *Future[U] {
	return Compose(f, func(v T, err error) *Future[U] {
		if err != nil {
			return Failed[U](err)
		}
		u, err := fn(v)
		if err != nil {
			return Failed[U](err)
		}
		return Completed(u)
	})
}
