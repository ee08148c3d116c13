package instrumentation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{
		ServiceName: "slotbook-test",
		// Ignored while disabled.
		MetricsExporter: "invalid",
	})
	require.NoError(t, err)

	assert.False(t, provider.Enabled())
	assert.False(t, provider.ServesPrometheus(), "the metrics server must stay off")
	require.NotNil(t, provider.Metrics())
	provider.Metrics().RecordBooking(context.Background(), ResultBooked)
	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestNewProvider_Exporters(t *testing.T) {
	tests := []struct {
		name             string
		metrics          string
		tracing          string
		endpoint         string
		servesPrometheus bool
	}{
		{"prometheus without tracing", ExporterPrometheus, ExporterNone, "", true},
		{"prometheus with stdout tracing", ExporterPrometheus, ExporterStdout, "", true},
		{"stdout metrics", ExporterStdout, ExporterNone, "", false},
		{"otlp metrics and traces", ExporterOTLP, ExporterOTLP, "localhost:4318", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			provider, err := NewProvider(ctx, Config{
				ServiceName:     "slotbook-test",
				ServiceVersion:  "1.0.0",
				Enabled:         true,
				MetricsExporter: tt.metrics,
				TracingExporter: tt.tracing,
				OTLPEndpoint:    tt.endpoint,
				OTLPInsecure:    true,
			})
			require.NoError(t, err)
			t.Cleanup(func() {
				// Nothing listens on the OTLP endpoint; a final push may fail.
				shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = provider.Shutdown(shutdownCtx)
			})

			assert.True(t, provider.Enabled())
			assert.Equal(t, tt.servesPrometheus, provider.ServesPrometheus())
			assert.NotNil(t, provider.Metrics())
		})
	}
}

func TestNewProvider_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   string
	}{
		{"unknown metrics exporter", Config{MetricsExporter: "invalid", TracingExporter: ExporterNone}, "invalid metrics exporter"},
		{"unknown tracing exporter", Config{MetricsExporter: ExporterPrometheus, TracingExporter: "invalid"}, "invalid tracing exporter"},
		{"otlp tracing without endpoint", Config{MetricsExporter: ExporterPrometheus, TracingExporter: ExporterOTLP}, "OTLP endpoint is required"},
		{"sampling rate above one", Config{MetricsExporter: ExporterPrometheus, TraceSamplingRate: 2}, "sampling rate"},
		{"no metrics exporter", Config{TracingExporter: ExporterNone}, "unsupported metrics exporter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.ServiceName = "slotbook-test"
			tt.config.Enabled = true

			_, err := NewProvider(context.Background(), tt.config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewProvider_ServiceInstanceFallsBackToHostname(t *testing.T) {
	res, err := newResource(context.Background(), Config{ServiceName: "slotbook-test"})
	require.NoError(t, err)

	var found bool
	for _, kv := range res.Attributes() {
		if kv.Key == "service.instance.id" {
			found = kv.Value.AsString() != ""
		}
	}
	assert.True(t, found)
}
