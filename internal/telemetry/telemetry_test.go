package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func ptrFloat64(f float64) *float64 {
	return &f
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{name: "nil config is valid", config: nil},
		{name: "disabled config skips validation", config: &Config{
			Tracing: &TracingConfig{Enabled: true, Sampling: ptrFloat64(4)},
		}},
		{name: "valid sampling", config: &Config{
			Enabled: true,
			Tracing: &TracingConfig{Enabled: true, Sampling: ptrFloat64(0.5)},
		}},
		{name: "sampling above one", config: &Config{
			Enabled: true,
			Tracing: &TracingConfig{Enabled: true, Sampling: ptrFloat64(1.5)},
		}, wantErr: true},
		{name: "negative sampling", config: &Config{
			Enabled: true,
			Tracing: &TracingConfig{Enabled: true, Sampling: ptrFloat64(-0.1)},
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	assert.Equal(t, DefaultServiceName, cfg.GetServiceName())
	assert.Equal(t, "unknown", cfg.GetServiceVersion())
	assert.Equal(t, DefaultEndpoint, cfg.GetEndpoint())

	var tracing *TracingConfig
	assert.Equal(t, DefaultSampling, tracing.GetSampling())
	assert.Equal(t, 0.25, (&TracingConfig{Sampling: ptrFloat64(0.25)}).GetSampling())
}

func TestNew_DisabledUsesNoOpProviders(t *testing.T) {
	t.Parallel()

	tel, err := New(context.Background(), nil)
	require.NoError(t, err)
	require.NotNil(t, tel)

	_, isNoOpTracer := tel.TracerProvider().(tracenoop.TracerProvider)
	assert.True(t, isNoOpTracer)
	_, isNoOpMeter := tel.MeterProvider().(metricnoop.MeterProvider)
	assert.True(t, isNoOpMeter)
	assert.NotNil(t, tel.Tracer())

	assert.NoError(t, tel.Shutdown(context.Background()))
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), &Config{
		Enabled: true,
		Tracing: &TracingConfig{Enabled: true, Sampling: ptrFloat64(2)},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid telemetry configuration")
}
