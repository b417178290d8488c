package observer

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dcshock/sewer/pipeline"
)

const defaultTracerName = "github.com/dcshock/sewer/observer"

// Span attribute keys.
const (
	AttrRunID      = "sewer.run_id"
	AttrSystem     = "sewer.system"
	AttrStage      = "sewer.stage"
	AttrStageIndex = "sewer.stage_index"
	AttrKind       = "sewer.kind"
	AttrFinalStage = "sewer.final_stage"
)

// Tracing opens a span "pump {system}" per pump and a child span
// "stage {name}" per stage. Open spans are tracked by the pump's
// pipeline.RunInfo.PumpID until the matching After hook ends them.
//
// Tracing is a pipeline.ContextDecorator: a stage's modules run under its
// span, so their own spans and those of a nested system's pump are its
// children.
type Tracing struct {
	tracer trace.Tracer
	spans  sync.Map // pump key or pump key/index -> trace.Span
}

// NewTracing uses the named tracer from the global provider. An empty name
// uses the package's tracer name.
func NewTracing(name string) *Tracing {
	if name == "" {
		name = defaultTracerName
	}
	return NewTracingWith(otel.Tracer(name))
}

// NewTracingWith uses tracer.
func NewTracingWith(tracer trace.Tracer) *Tracing {
	return &Tracing{tracer: tracer}
}

func stageKey(pump string, idx int) string {
	return pump + "/" + strconv.Itoa(idx)
}

// BeforePump implements pipeline.Observer. The pump span's parent is the
// span in ctx, if any.
func (t *Tracing) BeforePump(ctx context.Context, runID, system string, _ any) error {
	_, span := t.tracer.Start(ctx, "pump "+system, trace.WithAttributes(
		attribute.String(AttrRunID, runID),
		attribute.String(AttrSystem, system),
	))
	t.spans.Store(pumpKey(ctx, runID), span)
	return nil
}

// AfterPump implements pipeline.Observer.
func (t *Tracing) AfterPump(ctx context.Context, runID string, result pipeline.Result[any], err error) error {
	v, ok := t.spans.LoadAndDelete(pumpKey(ctx, runID))
	if !ok {
		return nil
	}
	span := v.(trace.Span)
	defer span.End()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil
	}
	span.SetAttributes(
		attribute.String(AttrKind, result.Kind().String()),
		attribute.String(AttrFinalStage, result.Name()),
	)
	if result.IsFailed() {
		span.SetStatus(codes.Error, result.Err().Error())
	}
	return nil
}

// BeforeStage implements pipeline.Observer.
func (t *Tracing) BeforeStage(ctx context.Context, runID string, stageIndex int, stage string, _ any) error {
	key := pumpKey(ctx, runID)
	if v, ok := t.spans.Load(key); ok {
		ctx = trace.ContextWithSpan(ctx, v.(trace.Span))
	}
	_, span := t.tracer.Start(ctx, "stage "+stage, trace.WithAttributes(
		attribute.String(AttrRunID, runID),
		attribute.String(AttrStage, stage),
		attribute.Int(AttrStageIndex, stageIndex),
	))
	t.spans.Store(stageKey(key, stageIndex), span)
	return nil
}

// AfterStage implements pipeline.Observer.
func (t *Tracing) AfterStage(ctx context.Context, runID string, stageIndex int, _ string, _ any, result pipeline.Result[any], _ time.Duration) error {
	v, ok := t.spans.LoadAndDelete(stageKey(pumpKey(ctx, runID), stageIndex))
	if !ok {
		return nil
	}
	span := v.(trace.Span)
	defer span.End()
	span.SetAttributes(attribute.String(AttrKind, result.Kind().String()))
	if result.IsFailed() {
		span.RecordError(result.Err())
		span.SetStatus(codes.Error, result.Err().Error())
	}
	return nil
}

// DecorateContext implements pipeline.ContextDecorator. It returns ctx
// carrying the open span of the pump or stage ctx belongs to.
func (t *Tracing) DecorateContext(ctx context.Context) context.Context {
	info, ok := pipeline.RunInfoFromContext(ctx)
	if !ok {
		return ctx
	}
	key := pumpKey(ctx, info.RunID)
	if info.StageIndex >= 0 {
		key = stageKey(key, info.StageIndex)
	}
	if v, ok := t.spans.Load(key); ok {
		return trace.ContextWithSpan(ctx, v.(trace.Span))
	}
	return ctx
}
