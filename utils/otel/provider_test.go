package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "")
	t.Setenv("OTEL_SERVICE_NAME", "")
	t.Setenv("OTEL_TRACE_SAMPLE_RATIO", "")

	cfg := ConfigFromEnv()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "feed-proxy", cfg.ServiceName)
	assert.Equal(t, "http://localhost:4318", cfg.OTLPEndpoint)
	assert.Equal(t, 1.0, cfg.SampleRatio)
}

func TestConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_SERVICE_NAME", "edge-feed")
	t.Setenv("OTEL_TRACE_SAMPLE_RATIO", "0.25")

	cfg := ConfigFromEnv()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "edge-feed", cfg.ServiceName)
	assert.Equal(t, 0.25, cfg.SampleRatio)
}

func TestConfigFromEnv_InvalidSampleRatioIgnored(t *testing.T) {
	t.Setenv("OTEL_TRACE_SAMPLE_RATIO", "2.5")

	assert.Equal(t, 1.0, ConfigFromEnv().SampleRatio)
}

func TestInitProvider_Disabled(t *testing.T) {
	shutdown, err := InitProvider(context.Background(), Config{Enabled: false})

	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}
