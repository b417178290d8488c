// Package pipeline composes asynchronous processing stages into systems.
//
// A Module is the smallest unit: given an input it yields a Result through a
// future.Future. A Pipe is a named chain of modules with an optional
// pre-filter on its input and post-filter on its output. A System pumps a
// value through an ordered list of stages (pipes, or other systems embedded
// with Nest); each stage's successful output is the next stage's input.
//
// Every outcome is a Result, one of:
//
//   - Success: the value flows on.
//   - FilteredBefore: a filter rejected the input before any work ran.
//   - FilteredAfter: a post-filter rejected the output; it stays available
//     through Result.Discarded.
//   - Failed: a module returned an error or panicked.
//
// Filtered results stop the pump and become its final Result. A Failed result
// stops the pump as well: with a FailureHandler registered (OnFailure) the
// handler sees it and the pump resolves to it, otherwise the pump's Future
// fails with a *StageError naming the stage. The final Result is always
// tagged with the name of the stage that produced it; failures inside a
// nested system are tagged "outer: inner".
//
//	multiply := pipeline.NewPipe("multiply", pipeline.Map(func(x int) int { return x * 7 })).MustBuild()
//	below := pipeline.NewPipe("max", pipeline.Identity[int]()).
//	    PreFilter(func(x int) bool { return x < 10000 }).
//	    MustBuild()
//	modulo := pipeline.NewPipe("modulo", pipeline.Map(func(x int) int { return x % 3 })).MustBuild()
//
//	sys := pipeline.NewSystem[int, int](multiply).Append(below).Append(modulo).MustBuild()
//	res, err := sys.Pump(ctx, 123).Await(ctx) // Success(0), tagged "modulo"
//
// Pump never blocks: it registers continuations and returns a Future. Stages
// of one pump run strictly one after another; separate pumps share no state
// and may run concurrently.
//
// Optional hooks (Observer) see every pump and stage with a run ID. Attach
// one with SystemBuilder.Observe or per pump with PumpOptions; modules can
// read the run from their context with RunInfoFromContext.
package pipeline
