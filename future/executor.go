package future

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Executor runs submitted functions. Execute must not block the caller on the
// submitted work.
type Executor interface {
	Execute(fn func())
}

// ExecutorFunc adapts a function to an Executor.
type ExecutorFunc func(fn func())

// Execute implements Executor.
func (e ExecutorFunc) Execute(fn func()) { e(fn) }

var (
	// Inline runs fn on the submitting goroutine.
	Inline Executor = ExecutorFunc(func(fn func()) { fn() })

	// Goroutine runs every fn on its own goroutine.
	Goroutine Executor = ExecutorFunc(func(fn func()) { go fn() })
)

// Bounded runs submitted functions on their own goroutines but lets at most
// n of them execute at once. Submitting never blocks; excess work waits for a
// slot on its goroutine.
type Bounded struct {
	sem *semaphore.Weighted
}

// NewBounded returns an executor running at most n functions at a time.
// n < 1 is treated as 1.
func NewBounded(n int64) *Bounded {
	if n < 1 {
		n = 1
	}
	return &Bounded{sem: semaphore.NewWeighted(n)}
}

// Execute implements Executor.
func (b *Bounded) Execute(fn func()) {
	go func() {
		// Acquire with a background context cannot fail.
		_ = b.sem.Acquire(context.Background(), 1)
		defer b.sem.Release(1)
		fn()
	}()
}
