// Package observer provides pipeline.Observer implementations.
//
//   - Logging: writes each pump and stage outcome to a zerolog-backed
//     logger.Logger (debug for stages, info/warn/error for pumps).
//   - Recorder: keeps the most recent runs and their stages in memory so a
//     host can show what a pump did (status, timings, errors).
//   - Tracing: opens an OpenTelemetry span per pump with a child span per
//     stage, marking failed stages with the error.
//   - Metrics: records OpenTelemetry counters and histograms per stage and
//     outcome kind.
//
// Combine several with pipeline.MultiObserver:
//
//	obs := pipeline.MultiObserver(observer.NewLogging(log), observer.NewTracing(""))
//	sys := pipeline.NewSystem[int, int](first).Observe(obs).MustBuild()
package observer
