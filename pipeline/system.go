package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/dcshock/sewer/future"
)

// DefaultSystemName names systems built without SystemBuilder.Name.
const DefaultSystemName = "system"

// FailureHandler receives the Failed Result of a pump whose system registered
// it. It is called for side effects only and does not alter the outcome.
type FailureHandler func(ctx context.Context, failed Result[any])

// PumpOptions is optional and overrides per-pump settings. If RunID is empty a
// new UUID is generated. If Observer is nil the system's observer is used.
type PumpOptions struct {
	RunID    string
	Observer Observer
}

// System pumps a value through an ordered sequence of stages. Stage N+1 starts
// only once stage N's Result is available; a Filtered Result stops the pump
// and becomes the final Result, and a Failed Result goes to the failure
// handler or, without one, fails the pump with a *StageError.
//
// Systems are immutable after Build and may be pumped concurrently.
type System[I, O any] struct {
	name     string
	stages   []systemStage
	handler  FailureHandler
	observer Observer
	executor future.Executor
}

type systemStage struct {
	name string
	flow flowFunc
}

func eraseStage[I, O any](s Stage[I, O]) systemStage {
	return systemStage{
		name: s.Name(),
		flow: func(ctx context.Context, in any) *future.Future[Result[any]] {
			v, _ := in.(I)
			f := s.Flow(ctx, v)
			if f == nil {
				return future.Completed(Failed[any](ErrNilFuture))
			}
			return future.Handle(f, settle[O])
		},
	}
}

// Name returns the system's name.
func (s *System[I, O]) Name() string { return s.name }

// Stages returns the stage names in pump order.
func (s *System[I, O]) Stages() []string {
	names := make([]string, len(s.stages))
	for i, st := range s.stages {
		names[i] = st.name
	}
	return names
}

// Pump drives in through every stage and returns immediately with a Future
// for the final Result, tagged with the name of the stage that produced it.
// The Future fails only when a stage failed and the system has no failure
// handler (*StageError), or when an observer hook failed the pump.
func (s *System[I, O]) Pump(ctx context.Context, in I) *future.Future[Result[O]] {
	return s.PumpWithOptions(ctx, in, nil)
}

// PumpWithOptions is Pump with per-run options.
func (s *System[I, O]) PumpWithOptions(ctx context.Context, in I, opts *PumpOptions) *future.Future[Result[O]] {
	r := &run{id: "", obs: s.observer}
	if opts != nil {
		r.id = opts.RunID
		if opts.Observer != nil {
			r.obs = opts.Observer
		}
	}
	if r.id == "" {
		r.id = uuid.New().String()
	}
	r.info = RunInfo{RunID: r.id, PumpID: uuid.New().String(), System: s.name, StageIndex: -1}
	ctx = withRunInfo(ctx, r.info)
	if r.obs != nil {
		if err := hook(func() error { return r.obs.BeforePump(ctx, r.id, s.name, in) }); err != nil {
			return future.Failed[Result[O]](errors.Wrap(err, "before pump"))
		}
		ctx = decorate(ctx, r.obs)
	}
	final := s.step(ctx, r, 0, in)
	return future.Compose(final, func(res Result[any], err error) *future.Future[Result[O]] {
		if r.obs != nil {
			postErr := hook(func() error { return r.obs.AfterPump(ctx, r.id, res, err) })
			if postErr != nil && err == nil {
				err = errors.Wrap(postErr, "after pump")
			}
		}
		if err != nil {
			return future.Failed[Result[O]](err)
		}
		return future.Completed(restore[O](res))
	})
}

type run struct {
	id   string
	info RunInfo
	obs  Observer
}

// step runs stages[idx] and registers the continuation deciding what follows.
func (s *System[I, O]) step(ctx context.Context, r *run, idx int, in any) *future.Future[Result[any]] {
	st := s.stages[idx]
	info := r.info
	info.Stage, info.StageIndex = st.name, idx
	stageCtx := withRunInfo(ctx, info)

	started := true
	var f *future.Future[Result[any]]
	if r.obs != nil {
		if err := hook(func() error { return r.obs.BeforeStage(stageCtx, r.id, idx, st.name, in) }); err != nil {
			started = false
			f = future.Completed(Failed[any](errors.Wrapf(err, "before stage %d", idx)).Named(st.name))
		} else {
			stageCtx = decorate(stageCtx, r.obs)
		}
	}
	start := time.Now()
	if started {
		f = invoke(stageCtx, st.flow, in)
	}

	return future.ComposeOn(f, s.executor, func(res Result[any], err error) *future.Future[Result[any]] {
		if err != nil {
			res = Failed[any](err)
		}
		if res.name == "" {
			res = res.Named(st.name)
		}
		if started && r.obs != nil {
			postErr := hook(func() error {
				return r.obs.AfterStage(stageCtx, r.id, idx, st.name, in, res, time.Since(start))
			})
			if postErr != nil && res.Succeeded() {
				res = Failed[any](errors.Wrapf(postErr, "after stage %d", idx)).Named(st.name)
			}
		}
		switch {
		case res.IsFailed():
			return s.fail(stageCtx, r, res)
		case !res.MayContinue(), idx == len(s.stages)-1:
			return future.Completed(res)
		default:
			return s.step(ctx, r, idx+1, res.value)
		}
	})
}

func (s *System[I, O]) fail(ctx context.Context, r *run, res Result[any]) *future.Future[Result[any]] {
	if s.handler == nil {
		return future.Failed[Result[any]](&StageError{Stage: res.name, Err: res.err})
	}
	s.notify(ctx, r, res)
	return future.Completed(res)
}

// notify calls the failure handler. A panicking handler does not change the
// pump's outcome; the panic goes to the observer if it is a
// HandlerPanicObserver.
func (s *System[I, O]) notify(ctx context.Context, r *run, res Result[any]) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		if p, ok := r.obs.(HandlerPanicObserver); ok {
			_ = hook(func() error {
				p.HandlerPanicked(ctx, r.id, res, future.NewPanicError(rec))
				return nil
			})
		}
	}()
	s.handler(ctx, res)
}

// SystemBuilder assembles a System. The output type follows the last stage
// added; use the Then function for a stage that changes it and Append for
// one that keeps it.
type SystemBuilder[I, O any] struct {
	name     string
	stages   []systemStage
	handler  FailureHandler
	observer Observer
	executor future.Executor
	err      error
}

// NewSystem starts a system whose first stage is first.
func NewSystem[I, O any](first Stage[I, O]) *SystemBuilder[I, O] {
	b := &SystemBuilder[I, O]{name: DefaultSystemName}
	b.add(first == nil, func() systemStage { return eraseStage(first) })
	return b
}

// Then appends a stage that changes the system's output type from M to O.
func Then[I, M, O any](b *SystemBuilder[I, M], next Stage[M, O]) *SystemBuilder[I, O] {
	nb := &SystemBuilder[I, O]{
		name:     b.name,
		stages:   append([]systemStage(nil), b.stages...),
		handler:  b.handler,
		observer: b.observer,
		executor: b.executor,
		err:      b.err,
	}
	nb.add(next == nil, func() systemStage { return eraseStage(next) })
	return nb
}

// Append appends a stage that keeps the output type.
func (b *SystemBuilder[I, O]) Append(next Stage[O, O]) *SystemBuilder[I, O] {
	b.add(next == nil, func() systemStage { return eraseStage(next) })
	return b
}

func (b *SystemBuilder[I, O]) add(missing bool, stage func() systemStage) {
	if b.err != nil {
		return
	}
	if missing {
		b.err = ErrNoStages
		return
	}
	st := stage()
	if st.name == "" {
		b.err = ErrEmptyName
		return
	}
	b.stages = append(b.stages, st)
}

// Name sets the name reported to observers.
func (b *SystemBuilder[I, O]) Name(name string) *SystemBuilder[I, O] {
	b.name = name
	return b
}

// OnFailure registers the failure handler. With a handler, a failed stage
// resolves the pump to its Failed Result instead of failing the pump.
func (b *SystemBuilder[I, O]) OnFailure(h FailureHandler) *SystemBuilder[I, O] {
	b.handler = h
	return b
}

// Observe attaches an observer to every pump.
func (b *SystemBuilder[I, O]) Observe(o Observer) *SystemBuilder[I, O] {
	b.observer = o
	return b
}

// Executor dispatches the continuation after each stage on ex instead of on
// the goroutine that completed the stage.
func (b *SystemBuilder[I, O]) Executor(ex future.Executor) *SystemBuilder[I, O] {
	b.executor = ex
	return b
}

// Build returns the immutable System.
func (b *SystemBuilder[I, O]) Build() (*System[I, O], error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.stages) == 0 {
		return nil, ErrNoStages
	}
	return &System[I, O]{
		name:     b.name,
		stages:   append([]systemStage(nil), b.stages...),
		handler:  b.handler,
		observer: b.observer,
		executor: b.executor,
	}, nil
}

// MustBuild is Build that panics on error.
func (b *SystemBuilder[I, O]) MustBuild() *System[I, O] {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}
