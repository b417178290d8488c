// Package future provides the small async substrate the pipeline engine is
// built on: a single-assignment Future with non-blocking continuations, and
// Executors that decide where submitted work runs.
//
//	f := future.Go(future.Goroutine, func() (int, error) { return slowAnswer(), nil })
//	g := future.Map(f, func(n int) (string, error) { return strconv.Itoa(n), nil })
//	s, err := g.Await(ctx)
//
// Continuations registered on a Future run on the goroutine that completes
// it (or inline when it is already complete) unless dispatched through
// ComposeOn with another Executor.
package future
