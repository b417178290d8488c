package pipeline

import (
	"context"
	"time"

	"github.com/dcshock/sewer/future"
)

// Observer provides pre/post hooks around a pump and around each stage of it,
// for logging, tracing and metrics. Hooks for one pump are called in order
// but may run on different goroutines as stages complete asynchronously.
//
// An error from BeforePump fails the pump. An error from BeforeStage turns
// that stage into Failed without running it; an error from AfterStage turns
// a successful stage into Failed. An error from AfterPump is reported only
// when the pump itself has no error. A panicking hook is treated like a hook
// returning a *future.PanicError.
//
// Every hook's ctx carries the RunInfo of its pump. Observers that keep
// per-pump state should key it by RunInfo.PumpID: callers may reuse a run ID
// for concurrent pumps.
type Observer interface {
	BeforePump(ctx context.Context, runID, system string, input any) error
	AfterPump(ctx context.Context, runID string, result Result[any], err error) error
	BeforeStage(ctx context.Context, runID string, stageIndex int, stage string, input any) error
	AfterStage(ctx context.Context, runID string, stageIndex int, stage string, input any, result Result[any], duration time.Duration) error
}

// NopObserver implements Observer with hooks that do nothing. Embed it to
// implement only some hooks.
type NopObserver struct{}

func (NopObserver) BeforePump(context.Context, string, string, any) error           { return nil }
func (NopObserver) AfterPump(context.Context, string, Result[any], error) error     { return nil }
func (NopObserver) BeforeStage(context.Context, string, int, string, any) error     { return nil }
func (NopObserver) AfterStage(context.Context, string, int, string, any, Result[any], time.Duration) error {
	return nil
}

// ContextDecorator is implemented by observers that derive the context a pump
// or stage runs under, e.g. to make a span the parent of module I/O. The
// system calls DecorateContext right after BeforePump with the pump's
// context (StageIndex -1) and right after BeforeStage with the stage's.
type ContextDecorator interface {
	DecorateContext(ctx context.Context) context.Context
}

// HandlerPanicObserver is implemented by observers that want to hear about a
// failure handler that panicked. The pump's outcome is not changed.
type HandlerPanicObserver interface {
	HandlerPanicked(ctx context.Context, runID string, failed Result[any], err *future.PanicError)
}

// MultiObserver fans every hook out to observers in order. The first error
// stops the fan-out for that hook and is returned. Nil observers are skipped.
func MultiObserver(observers ...Observer) Observer {
	list := make([]Observer, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			list = append(list, o)
		}
	}
	return multiObserver(list)
}

type multiObserver []Observer

func (m multiObserver) BeforePump(ctx context.Context, runID, system string, input any) error {
	for _, o := range m {
		if err := o.BeforePump(ctx, runID, system, input); err != nil {
			return err
		}
	}
	return nil
}

func (m multiObserver) AfterPump(ctx context.Context, runID string, result Result[any], err error) error {
	for _, o := range m {
		if hookErr := o.AfterPump(ctx, runID, result, err); hookErr != nil {
			return hookErr
		}
	}
	return nil
}

func (m multiObserver) BeforeStage(ctx context.Context, runID string, stageIndex int, stage string, input any) error {
	for _, o := range m {
		if err := o.BeforeStage(ctx, runID, stageIndex, stage, input); err != nil {
			return err
		}
	}
	return nil
}

func (m multiObserver) AfterStage(ctx context.Context, runID string, stageIndex int, stage string, input any, result Result[any], d time.Duration) error {
	for _, o := range m {
		if err := o.AfterStage(ctx, runID, stageIndex, stage, input, result, d); err != nil {
			return err
		}
	}
	return nil
}

func (m multiObserver) DecorateContext(ctx context.Context) context.Context {
	for _, o := range m {
		if d, ok := o.(ContextDecorator); ok {
			ctx = d.DecorateContext(ctx)
		}
	}
	return ctx
}

func (m multiObserver) HandlerPanicked(ctx context.Context, runID string, failed Result[any], err *future.PanicError) {
	for _, o := range m {
		if p, ok := o.(HandlerPanicObserver); ok {
			p.HandlerPanicked(ctx, runID, failed, err)
		}
	}
}

// hook calls fn, turning a panic into a *future.PanicError.
func hook(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = future.NewPanicError(rec)
		}
	}()
	return fn()
}

// decorate applies obs's ContextDecorator, if any. A panicking decorator
// leaves ctx as it was.
func decorate(ctx context.Context, obs Observer) (out context.Context) {
	d, ok := obs.(ContextDecorator)
	if !ok {
		return ctx
	}
	defer func() {
		if rec := recover(); rec != nil {
			out = ctx
		}
	}()
	if next := d.DecorateContext(ctx); next != nil {
		return next
	}
	return ctx
}

// RunInfo describes the pump a stage is running in. Modules can read it from
// their context with RunInfoFromContext. PumpID is unique per pump even when
// callers reuse RunID. StageIndex is -1 outside a stage.
type RunInfo struct {
	RunID      string
	PumpID     string
	System     string
	Stage      string
	StageIndex int
}

type runInfoKey struct{}

func withRunInfo(ctx context.Context, info RunInfo) context.Context {
	return context.WithValue(ctx, runInfoKey{}, info)
}

// RunInfoFromContext returns the RunInfo injected by System.Pump.
func RunInfoFromContext(ctx context.Context) (RunInfo, bool) {
	info, ok := ctx.Value(runInfoKey{}).(RunInfo)
	return info, ok
}
