package loadable

import (
	"context"
	"sync"

	"github.com/dcshock/sewer/future"
	"github.com/dcshock/sewer/pipeline"
)

// State is the load state of a Loadable. It only ever moves forward.
type State int

const (
	Unloaded State = iota
	Loading
	Loaded
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	default:
		return "unknown"
	}
}

// Loadable runs one pump of a system lazily, on first request, and keeps its
// Result. Concurrent callers before completion share the same in-flight pump.
type Loadable[T any] struct {
	load func(ctx context.Context) *future.Future[pipeline.Result[T]]

	mu       sync.Mutex
	state    State
	inflight *future.Future[pipeline.Result[T]]
	result   pipeline.Result[T]
}

// New returns a Loadable that pumps input through sys when first requested.
func New[I, T any](sys *pipeline.System[I, T], input I) *Loadable[T] {
	return &Loadable[T]{
		load: func(ctx context.Context) *future.Future[pipeline.Result[T]] {
			return sys.Pump(ctx, input)
		},
	}
}

// Chain returns a Loadable that loads from first and pumps its value through
// sys. An empty from yields FilteredBefore; a failed from fails the chain
// with the same error.
func Chain[I, T any](sys *pipeline.System[I, T], from *Loadable[I]) *Loadable[T] {
	return &Loadable[T]{
		load: func(ctx context.Context) *future.Future[pipeline.Result[T]] {
			return future.Compose(from.GetOrLoad(ctx), func(v Optional[I], err error) *future.Future[pipeline.Result[T]] {
				if err != nil {
					return future.Failed[pipeline.Result[T]](err)
				}
				in, ok := v.Get()
				if !ok {
					return future.Completed(pipeline.FilteredBefore[T]())
				}
				return sys.Pump(ctx, in)
			})
		},
	}
}

// State returns the current load state.
func (l *Loadable[T]) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// IsLoaded reports whether the load has completed. It never triggers a load.
func (l *Loadable[T]) IsLoaded() bool { return l.State() == Loaded }

// ResultIfPresent returns the loaded Result, if the load has completed. It
// never triggers a load.
func (l *Loadable[T]) ResultIfPresent() (pipeline.Result[T], bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != Loaded {
		return pipeline.Result[T]{}, false
	}
	return l.result, true
}

// GetIfPresent returns the loaded value if the load completed successfully.
// It never triggers a load.
func (l *Loadable[T]) GetIfPresent() (T, bool) {
	r, ok := l.ResultIfPresent()
	if !ok {
		var zero T
		return zero, false
	}
	return r.Optional()
}

// LoadResult triggers the load if nobody has yet and returns the shared
// Future for its Result. The pump runs detached from ctx's cancellation so one
// caller giving up does not fail the others. When the system has no failure
// handler a failed stage fails the Future with a *pipeline.StageError.
func (l *Loadable[T]) LoadResult(ctx context.Context) *future.Future[pipeline.Result[T]] {
	l.mu.Lock()
	if l.inflight != nil {
		f := l.inflight
		l.mu.Unlock()
		return f
	}
	l.state = Loading
	f, complete := future.New[pipeline.Result[T]]()
	l.inflight = f
	l.mu.Unlock()

	src := l.start(context.WithoutCancel(ctx))
	src.OnComplete(func(r pipeline.Result[T], err error) {
		l.mu.Lock()
		l.result = settle(r, err)
		l.state = Loaded
		l.mu.Unlock()
		complete(r, err)
	})
	return f
}

func (l *Loadable[T]) start(ctx context.Context) (f *future.Future[pipeline.Result[T]]) {
	defer func() {
		if rec := recover(); rec != nil {
			f = future.Failed[pipeline.Result[T]](future.NewPanicError(rec))
		}
	}()
	return l.load(ctx)
}

// settle keeps an unhandled pump failure as a Failed Result for
// ResultIfPresent.
func settle[T any](r pipeline.Result[T], err error) pipeline.Result[T] {
	if err == nil {
		return r
	}
	failed := pipeline.Failed[T](err)
	if se, ok := pipeline.AsStageError(err); ok {
		failed = pipeline.Failed[T](se.Err).Named(se.Stage)
	}
	return failed
}

// GetOrLoad triggers the load if needed and returns a Future for its value.
// A Failed Result fails the Future with a *pipeline.StageError carrying the
// failing stage's name; a Filtered Result yields an empty Optional.
func (l *Loadable[T]) GetOrLoad(ctx context.Context) *future.Future[Optional[T]] {
	return future.Compose(l.LoadResult(ctx), func(r pipeline.Result[T], err error) *future.Future[Optional[T]] {
		if err != nil {
			return future.Failed[Optional[T]](err)
		}
		if r.IsFailed() {
			return future.Failed[Optional[T]](&pipeline.StageError{Stage: r.Name(), Err: r.Err()})
		}
		v, ok := r.Optional()
		return future.Completed(Optional[T]{value: v, present: ok})
	})
}

// Optional is a value that may be absent.
type Optional[T any] struct {
	value   T
	present bool
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] { return Optional[T]{value: v, present: true} }

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) { return o.value, o.present }

// IsPresent reports whether a value is present.
func (o Optional[T]) IsPresent() bool { return o.present }

// OrElse returns the value if present, otherwise def.
func (o Optional[T]) OrElse(def T) T {
	if o.present {
		return o.value
	}
	return def
}
