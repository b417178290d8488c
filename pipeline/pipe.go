package pipeline

import (
	"context"

	"github.com/dcshock/sewer/future"
)

// Stage is a named unit a System runs in sequence: a *Pipe, a nested system
// from Nest, or any other implementation honouring the Module contract.
type Stage[I, O any] interface {
	Name() string
	Flow(ctx context.Context, in I) *future.Future[Result[O]]
}

// Pipe runs one or more modules in order, with an optional pre-filter on its
// input and an optional post-filter on its successful output. Every Result a
// Pipe yields is tagged with the pipe's name. Pipes are immutable and safe
// for concurrent use.
type Pipe[I, O any] struct {
	name    string
	modules []flowFunc
	pre     Filter[I]
	post    Filter[O]
}

// Name returns the pipe's name.
func (p *Pipe[I, O]) Name() string { return p.name }

// Flow runs the pipe against in. The returned Future always resolves to a
// Result; panics and failed module Futures become Failed.
func (p *Pipe[I, O]) Flow(ctx context.Context, in I) (out *future.Future[Result[O]]) {
	defer func() {
		if rec := recover(); rec != nil {
			out = future.Completed(Failed[O](future.NewPanicError(rec)).Named(p.name))
		}
	}()
	if !p.pre.Allow(in) {
		return future.Completed(FilteredBefore[O]().Named(p.name))
	}
	return future.Handle(p.run(ctx, 0, in), func(r Result[any], err error) Result[O] {
		return guard(func() Result[O] {
			if err != nil {
				return Failed[O](err).Named(p.name)
			}
			typed := restore[O](r)
			if typed.Succeeded() && !p.post.Allow(typed.value) {
				return FilteredAfter(typed.value).Named(p.name)
			}
			return typed.Named(p.name)
		}).Named(p.name)
	})
}

// run flows in through modules[idx:], stopping at the first Result that may
// not continue.
func (p *Pipe[I, O]) run(ctx context.Context, idx int, in any) *future.Future[Result[any]] {
	f := invoke(ctx, p.modules[idx], in)
	if idx == len(p.modules)-1 {
		return f
	}
	return future.Compose(f, func(r Result[any], err error) *future.Future[Result[any]] {
		if err != nil {
			return future.Completed(Failed[any](err))
		}
		if !r.MayContinue() {
			return future.Completed(r)
		}
		return p.run(ctx, idx+1, r.value)
	})
}

// PipeBuilder assembles a Pipe. The output type follows the last module
// added; use Via to add a module that changes it and Then for one that keeps
// it.
type PipeBuilder[I, O any] struct {
	name    string
	modules []flowFunc
	pre     Filter[I]
	post    Filter[O]
	err     error
}

// NewPipe starts a pipe named name whose first module is first.
func NewPipe[I, O any](name string, first Module[I, O]) *PipeBuilder[I, O] {
	b := &PipeBuilder[I, O]{name: name}
	if first == nil {
		b.err = ErrNoModules
		return b
	}
	b.modules = []flowFunc{eraseModule(first)}
	return b
}

// Via appends a module that changes the pipe's output type from M to O.
func Via[I, M, O any](b *PipeBuilder[I, M], next Module[M, O]) *PipeBuilder[I, O] {
	nb := &PipeBuilder[I, O]{
		name:    b.name,
		modules: append([]flowFunc(nil), b.modules...),
		pre:     b.pre,
		err:     b.err,
	}
	if nb.err == nil && b.post != nil {
		nb.err = ErrPostFilterPosition
	}
	if next == nil {
		if nb.err == nil {
			nb.err = ErrNoModules
		}
		return nb
	}
	nb.modules = append(nb.modules, eraseModule(next))
	return nb
}

// Then appends a module that keeps the output type.
func (b *PipeBuilder[I, O]) Then(next Module[O, O]) *PipeBuilder[I, O] {
	if b.err == nil && b.post != nil {
		b.err = ErrPostFilterPosition
	}
	if next == nil {
		if b.err == nil {
			b.err = ErrNoModules
		}
		return b
	}
	b.modules = append(b.modules, eraseModule(next))
	return b
}

// PreFilter sets the filter applied to the pipe's input.
func (b *PipeBuilder[I, O]) PreFilter(f Filter[I]) *PipeBuilder[I, O] {
	b.pre = f
	return b
}

// PostFilter sets the filter applied to the pipe's successful output.
func (b *PipeBuilder[I, O]) PostFilter(f Filter[O]) *PipeBuilder[I, O] {
	b.post = f
	return b
}

// Build returns the immutable Pipe.
func (b *PipeBuilder[I, O]) Build() (*Pipe[I, O], error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.name == "" {
		return nil, ErrEmptyName
	}
	if len(b.modules) == 0 {
		return nil, ErrNoModules
	}
	return &Pipe[I, O]{
		name:    b.name,
		modules: append([]flowFunc(nil), b.modules...),
		pre:     b.pre,
		post:    b.post,
	}, nil
}

// MustBuild is Build that panics on error. Use it for pipes assembled from
// constants.
func (b *PipeBuilder[I, O]) MustBuild() *Pipe[I, O] {
	p, err := b.Build()
	if err != nil {
		panic(err)
	}
	return p
}
