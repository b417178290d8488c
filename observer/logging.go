package observer

import (
	"context"
	"time"

	"github.com/dcshock/sewer/future"
	"github.com/dcshock/sewer/logger"
	"github.com/dcshock/sewer/pipeline"
)

// Logging logs pumps and stages. Stage outcomes go out at debug level; a pump
// ending in Success or Filtered logs at info, a handled failure at warn and an
// unhandled failure at error. A panicking failure handler is logged at error
// with its stack.
type Logging struct {
	log *logger.Logger
}

// NewLogging returns a logging observer. A nil log uses the global logger.
func NewLogging(log *logger.Logger) *Logging {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Logging{log: log.WithComponent("pipeline")}
}

// BeforePump implements pipeline.Observer.
func (o *Logging) BeforePump(_ context.Context, runID, system string, _ any) error {
	o.log.Debug("pump started", logger.Fields(logger.FieldRunID, runID, logger.FieldSystem, system))
	return nil
}

// AfterPump implements pipeline.Observer.
func (o *Logging) AfterPump(_ context.Context, runID string, result pipeline.Result[any], err error) error {
	fields := logger.Fields(logger.FieldRunID, runID)
	switch {
	case err != nil:
		fields[logger.FieldError] = err.Error()
		o.log.Error("pump failed", fields)
	case result.IsFailed():
		fields[logger.FieldStage] = result.Name()
		fields[logger.FieldError] = result.Err().Error()
		o.log.Warn("pump failed, handled", fields)
	default:
		fields[logger.FieldStage] = result.Name()
		fields[logger.FieldKind] = result.Kind().String()
		o.log.Info("pump finished", fields)
	}
	return nil
}

// BeforeStage implements pipeline.Observer.
func (o *Logging) BeforeStage(_ context.Context, runID string, stageIndex int, stage string, _ any) error {
	o.log.Debug("stage started", logger.Fields(
		logger.FieldRunID, runID,
		logger.FieldIndex, stageIndex,
		logger.FieldStage, stage,
	))
	return nil
}

// AfterStage implements pipeline.Observer.
func (o *Logging) AfterStage(_ context.Context, runID string, stageIndex int, stage string, _ any, result pipeline.Result[any], d time.Duration) error {
	fields := logger.DurationFields(stage, d)
	fields[logger.FieldRunID] = runID
	fields[logger.FieldIndex] = stageIndex
	fields[logger.FieldKind] = result.Kind().String()
	if result.IsFailed() {
		fields[logger.FieldError] = result.Err().Error()
	}
	o.log.Debug("stage finished", fields)
	return nil
}

// HandlerPanicked implements pipeline.HandlerPanicObserver.
func (o *Logging) HandlerPanicked(_ context.Context, runID string, failed pipeline.Result[any], err *future.PanicError) {
	o.log.Error("failure handler panicked", logger.Fields(
		logger.FieldRunID, runID,
		logger.FieldStage, failed.Name(),
		logger.FieldError, err.Error(),
		"stack", err.Stack,
	))
}
