// Package loadable memoises a single pump of a pipeline.System against a
// fixed input.
//
// A Loadable starts Unloaded. The first call to LoadResult or GetOrLoad moves
// it to Loading and starts exactly one pump; every caller, concurrent or
// later, receives that pump's outcome. Once the pump completes the Loadable is
// Loaded and never changes again. IsLoaded, ResultIfPresent and GetIfPresent
// only look; they never start a load.
//
//	greeting := loadable.New(greet, "Anton")
//	lower := loadable.Chain(lowercase, greeting)
//	v, err := lower.GetOrLoad(ctx).Await(ctx) // "hello, anton!"
package loadable
