package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/dcshock/sewer/internal/appconfig"
)

func TestInit_Disabled(t *testing.T) {
	p, err := Init(context.Background(), "sewer", appconfig.TelemetryConfig{})
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestInit_Enabled(t *testing.T) {
	p, err := Init(context.Background(), "sewer-test", appconfig.TelemetryConfig{
		Enabled:     true,
		Endpoint:    "localhost:4318",
		Insecure:    true,
		Environment: "test",
		SampleRate:  0.5,
	})
	require.NoError(t, err)
	require.NotNil(t, p)
	require.NotNil(t, p.Tracer)
	require.NotNil(t, p.Meter)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		// No collector is listening; only the release of resources matters.
		_ = p.Shutdown(ctx)
	})
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), Sampler(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), Sampler(0).Description())
	assert.Contains(t, Sampler(0.25).Description(), "TraceIDRatioBased")
}

func TestNewResource(t *testing.T) {
	res, err := newResource(context.Background(), "svc", "1.2.3", "staging")
	require.NoError(t, err)
	assert.Contains(t, res.Attributes(), attribute.String("service.name", "svc"))
	assert.Contains(t, res.Attributes(), attribute.String("environment", "staging"))
}
