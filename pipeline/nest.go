package pipeline

import (
	"context"

	"github.com/dcshock/sewer/future"
)

// Nest embeds sys as a single stage named name. Filtered and Failed Results of
// the inner system come back retagged "name: innerStage", and an inner failure
// without an inner handler becomes a Failed Result of the same shape, so the
// outer system treats it like any other failing stage. Inner successes are
// tagged name.
func Nest[I, O any](name string, sys *System[I, O]) Stage[I, O] {
	return &nested[I, O]{name: name, sys: sys}
}

// NestBuilder builds a nested stage with optional filters around the inner
// system.
type NestBuilder[I, O any] struct {
	n nested[I, O]
}

// NewNest starts a nested stage named name around sys.
func NewNest[I, O any](name string, sys *System[I, O]) *NestBuilder[I, O] {
	return &NestBuilder[I, O]{n: nested[I, O]{name: name, sys: sys}}
}

// PreFilter rejects inputs before the inner system is pumped. A rejection is
// FilteredBefore tagged with the stage name.
func (b *NestBuilder[I, O]) PreFilter(f Filter[I]) *NestBuilder[I, O] {
	b.n.pre = f
	return b
}

// PostFilter rejects the inner system's successful output. A rejection is
// FilteredAfter carrying the output, tagged with the stage name.
func (b *NestBuilder[I, O]) PostFilter(f Filter[O]) *NestBuilder[I, O] {
	b.n.post = f
	return b
}

// Build returns the stage.
func (b *NestBuilder[I, O]) Build() (Stage[I, O], error) {
	if b.n.name == "" {
		return nil, ErrEmptyName
	}
	if b.n.sys == nil {
		return nil, ErrNilSystem
	}
	n := b.n
	return &n, nil
}

// MustBuild is Build that panics on error.
func (b *NestBuilder[I, O]) MustBuild() Stage[I, O] {
	st, err := b.Build()
	if err != nil {
		panic(err)
	}
	return st
}

type nested[I, O any] struct {
	name string
	sys  *System[I, O]
	pre  Filter[I]
	post Filter[O]
}

func (n *nested[I, O]) Name() string { return n.name }

func (n *nested[I, O]) Flow(ctx context.Context, in I) *future.Future[Result[O]] {
	if !n.pre.Allow(in) {
		return future.Completed(FilteredBefore[O]().Named(n.name))
	}
	return future.Handle(n.sys.Pump(ctx, in), func(r Result[O], err error) Result[O] {
		if err != nil {
			if se, ok := AsStageError(err); ok {
				return Failed[O](se.Err).Named(n.qualify(se.Stage))
			}
			return Failed[O](err).Named(n.name)
		}
		if r.Succeeded() {
			if !n.post.Allow(r.value) {
				return FilteredAfter(r.value).Named(n.name)
			}
			return r.Named(n.name)
		}
		return r.Named(n.qualify(r.name))
	})
}

func (n *nested[I, O]) qualify(inner string) string {
	if inner == "" {
		return n.name
	}
	return n.name + ": " + inner
}
