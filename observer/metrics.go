package observer

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/dcshock/sewer/pipeline"
)

// Metrics records pump and stage outcomes as OpenTelemetry instruments:
//
//	sewer.pump.total       pumps by system and outcome
//	sewer.pump.active      pumps in flight by system
//	sewer.stage.total      stages by system, stage and outcome
//	sewer.stage.duration   stage latency in seconds by system and stage
//
// The outcome attribute is the Result kind, or "error" for a pump that
// failed with an error. The system attribute comes from the hook's
// pipeline.RunInfo, so Metrics keeps no per-pump state.
type Metrics struct {
	pumpTotal     metric.Int64Counter
	pumpActive    metric.Int64UpDownCounter
	stageTotal    metric.Int64Counter
	stageDuration metric.Float64Histogram
}

// NewMetrics creates the instruments on meter. A nil meter uses the global
// provider.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = otel.Meter(defaultTracerName)
	}
	pumpTotal, err := meter.Int64Counter("sewer.pump.total",
		metric.WithDescription("Total number of pumps by outcome"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "creating sewer.pump.total counter")
	}
	pumpActive, err := meter.Int64UpDownCounter("sewer.pump.active",
		metric.WithDescription("Number of pumps in flight"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "creating sewer.pump.active counter")
	}
	stageTotal, err := meter.Int64Counter("sewer.stage.total",
		metric.WithDescription("Total number of stage executions by outcome"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "creating sewer.stage.total counter")
	}
	stageDuration, err := meter.Float64Histogram("sewer.stage.duration",
		metric.WithDescription("Duration of stage executions in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "creating sewer.stage.duration histogram")
	}
	return &Metrics{
		pumpTotal:     pumpTotal,
		pumpActive:    pumpActive,
		stageTotal:    stageTotal,
		stageDuration: stageDuration,
	}, nil
}

// BeforePump implements pipeline.Observer.
func (m *Metrics) BeforePump(ctx context.Context, _, system string, _ any) error {
	m.pumpActive.Add(ctx, 1, metric.WithAttributes(attribute.String("system", system)))
	return nil
}

// AfterPump implements pipeline.Observer.
func (m *Metrics) AfterPump(ctx context.Context, _ string, result pipeline.Result[any], err error) error {
	outcome := result.Kind().String()
	if err != nil {
		outcome = "error"
	}
	sys := attribute.String("system", systemName(ctx))
	m.pumpActive.Add(ctx, -1, metric.WithAttributes(sys))
	m.pumpTotal.Add(ctx, 1, metric.WithAttributes(sys, attribute.String("outcome", outcome)))
	return nil
}

// BeforeStage implements pipeline.Observer.
func (m *Metrics) BeforeStage(context.Context, string, int, string, any) error { return nil }

// AfterStage implements pipeline.Observer.
func (m *Metrics) AfterStage(ctx context.Context, _ string, _ int, stage string, _ any, result pipeline.Result[any], d time.Duration) error {
	sys := attribute.String("system", systemName(ctx))
	st := attribute.String("stage", stage)
	m.stageTotal.Add(ctx, 1, metric.WithAttributes(sys, st, attribute.String("outcome", result.Kind().String())))
	m.stageDuration.Record(ctx, d.Seconds(), metric.WithAttributes(sys, st))
	return nil
}
